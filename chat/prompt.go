// Prompt assembly for the language capability.
//
// The model is only ever shown technical identifiers. It is NOT asked to
// keep them away from the user; that boundary is enforced in code by the
// translate package, so a leak in the model's output cannot reach a reply.

package chat

import (
	"fmt"

	"github.com/carebridge/carebridge/llm"
	"github.com/carebridge/carebridge/session"
)

// Decision is the structured verdict the language capability returns for a
// turn: either prose or a tool request with best-effort extracted arguments.
type Decision struct {
	Reply string       `json:"reply,omitempty"`
	Tool  *ToolRequest `json:"tool,omitempty"`
}

// ToolRequest names a tool and carries the arguments extracted from user text.
type ToolRequest struct {
	Name string            `json:"name"`
	Args map[string]string `json:"args,omitempty"`
}

const systemInstructions = `You are the assistant of a care-agency administration system.
You help office staff manage schedules, clients and onboarding by conversation.

For every user message respond with a single JSON object, nothing else:
  {"reply": "<text>"}                                      - to answer in prose
  {"tool": {"name": "<tool>", "args": {"<field>": "<value>"}}} - to request an action

Rules:
- Only use tools from the catalogue below, with their exact field names.
- Extract argument values from the conversation as best you can; omit fields
  the user has not provided. Never invent values.
- When the user is correcting or adding details for an action already being
  prepared, request the same tool again with just the new fields.
- Keep prose replies short and friendly.

Tool catalogue:
%s`

// buildMessages assembles the full prompt: system instructions with the
// technical catalogue, followed by the conversation history.
func (o *Orchestrator) buildMessages(sess *session.Session) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(sess.Messages)+1)
	messages = append(messages, llm.SystemMessage(
		fmt.Sprintf(systemInstructions, o.registry.Catalogue())))

	for _, msg := range sess.Messages {
		switch msg.Role {
		case session.RoleUser:
			messages = append(messages, llm.UserMessage(msg.Content))
		case session.RoleAssistant:
			messages = append(messages, llm.AssistantMessage(msg.Content))
		}
	}
	return messages
}
