// Command execution for CLI commands.
//
// Information Hiding:
// - Component wiring hidden behind Serve/Chat
// - Output formatting hidden
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carebridge/carebridge/chat"
	"github.com/carebridge/carebridge/config"
	"github.com/carebridge/carebridge/dispatch"
	"github.com/carebridge/carebridge/llm"
	"github.com/carebridge/carebridge/server"
	"github.com/carebridge/carebridge/session"
	"github.com/carebridge/carebridge/store"
	"github.com/carebridge/carebridge/tools"
	"github.com/carebridge/carebridge/translate"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Verbose  bool
}

// app holds the wired components for a running command.
type app struct {
	settings     config.Settings
	orchestrator *chat.Orchestrator
	sessions     *session.Store
	records      *store.Records
	logger       *zap.Logger
}

func (a *app) close() {
	if a.records != nil {
		a.records.Close()
	}
	_ = a.logger.Sync()
}

// wire builds the full component graph from settings and environment.
func wire(opts Options) (*app, error) {
	logger, err := newLogger(opts.Verbose)
	if err != nil {
		return nil, err
	}

	settings, err := config.New(opts.Provider)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.MaxTokens, settings.LLM.Temperature)
	if err != nil {
		return nil, err
	}

	records, err := store.Open(settings.DBPath)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry()
	if err := tools.RegisterCatalog(registry, records); err != nil {
		records.Close()
		return nil, err
	}

	// The orchestrator owns archive mirroring; the in-memory store stays a
	// pure conversation cache.
	sessions := session.NewStore(settings.Session.TTL, session.WithLogger(logger))

	orchestrator := chat.New(
		sessions,
		registry,
		translate.New(registry),
		dispatch.New(registry, settings.Tools.ExecTimeout, logger),
		llm.NewClient(provider),
		chat.WithArchive(records),
		chat.WithLogger(logger),
	)

	logger.Info("carebridge wired",
		zap.String("provider", provider.Name()),
		zap.String("model", provider.Model()),
		zap.String("db", settings.DBPath))

	return &app{
		settings:     settings,
		orchestrator: orchestrator,
		sessions:     sessions,
		records:      records,
		logger:       logger,
	}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Serve runs the HTTP API until interrupted.
func Serve(ctx context.Context, opts Options) error {
	a, err := wire(opts)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.sessions.RunJanitor(ctx, a.settings.Session.SweepInterval)

	srv := server.NewServer(a.settings.HTTP.Addr, a.orchestrator, a.logger)
	return srv.Run(ctx)
}

// Chat starts an interactive conversation on stdin. Type 'exit' to quit,
// 'clear' to drop the current session.
func Chat(ctx context.Context, opts Options) error {
	a, err := wire(opts)
	if err != nil {
		return err
	}
	defer a.close()

	sessionID := uuid.New().String()
	fmt.Printf("CareBridge assistant (%s). Type 'exit' to quit, 'clear' to start over.\n\n",
		a.settings.LLM.Provider)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}
		if input == "clear" {
			if err := a.orchestrator.ClearSession(ctx, sessionID); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to clear session: %v\n", err)
			}
			sessionID = uuid.New().String()
			fmt.Println("Started a fresh conversation.")
			continue
		}

		turn, err := a.orchestrator.HandleMessage(ctx, sessionID, input)
		if err != nil {
			var conflict *chat.ConflictError
			if errors.As(err, &conflict) {
				fmt.Printf("\n%s\n\n", conflict.UserMessage())
				continue
			}
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", turn.Reply)
	}

	return scanner.Err()
}

// ListSessions prints the archived conversations and their message counts.
func ListSessions(ctx context.Context, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	records, err := store.Open(settings.DBPath)
	if err != nil {
		return err
	}
	defer records.Close()

	ids, err := records.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No archived sessions.")
		return nil
	}

	for _, id := range ids {
		messages, err := records.Messages(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("  %s (%d messages)\n", id, len(messages))
	}
	return nil
}

// ListTools prints the action catalogue in user vocabulary.
func ListTools(verbose bool) error {
	// Effects are never invoked for a listing; an in-memory store keeps
	// the wiring honest without touching disk.
	records, err := store.OpenInMemory()
	if err != nil {
		return err
	}
	defer records.Close()

	registry := tools.NewRegistry()
	if err := tools.RegisterCatalog(registry, records); err != nil {
		return err
	}

	fmt.Println("Available actions:")
	fmt.Println()

	for _, def := range registry.List() {
		marker := ""
		if def.Mutating {
			marker = " (asks for confirmation)"
		}
		fmt.Printf("  %s%s\n", def.Name, marker)
		fmt.Printf("    %s\n", def.Description)

		if verbose {
			for _, field := range def.Fields {
				req := ""
				if field.Required {
					req = "*"
				}
				fmt.Printf("      %s%s: %s\n", translate.FieldLabel(field), req, field.Type)
				for _, ev := range field.Enum {
					fmt.Printf("        - %s\n", ev.Label)
				}
			}
		}
		fmt.Println()
	}
	return nil
}
