// Package main provides the carebridge CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/carebridge/carebridge/cli"
)

var (
	// Global flags
	provider string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "carebridge",
		Short: "Conversational assistant for care agency scheduling and onboarding",
		Long: `CareBridge turns free-form messages from care coordinators into validated,
confirmed actions: booking and canceling visit schedules, sending onboarding
invitations and looking up the rota.

Mutating actions always show a summary and ask for confirmation before
anything is written.`,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "openai", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(sessionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API for the assistant.

Endpoints:
- POST   /api/messages                 send a message, returns the reply
- GET    /api/sessions/{id}/messages   conversation history
- DELETE /api/sessions/{id}            drop a session
- GET    /health                       liveness check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{Provider: provider, Verbose: verbose}
			return cli.Serve(context.Background(), opts)
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation on the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{Provider: provider, Verbose: verbose}
			return cli.Chat(context.Background(), opts)
		},
	}
}

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List archived conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{Provider: provider, Verbose: verbose}
			return cli.ListSessions(context.Background(), opts)
		},
	}
}

func toolsCmd() *cobra.Command {
	var verboseTools bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List available actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListTools(verboseTools)
		},
	}

	cmd.Flags().BoolVarP(&verboseTools, "verbose", "V", false, "Show action fields")

	return cmd
}
