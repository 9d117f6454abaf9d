// Package chat provides the conversation orchestrator: the façade that turns
// free-form user messages into validated, confirmed, side-effecting actions.
//
// A turn runs entirely inside the session store's per-key lock, which is what
// gives the ordering guarantee: a second message for a session cannot begin
// until the first has appended its outcome.
//
// Information Hiding:
// - Language-capability prompting and response tolerance hidden
// - Confirmation policy and pending-invocation merge rules hidden
// - All user-facing vocabulary delegated to the translate package
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carebridge/carebridge/dispatch"
	jsonutil "github.com/carebridge/carebridge/internal/json"
	"github.com/carebridge/carebridge/llm"
	"github.com/carebridge/carebridge/session"
	"github.com/carebridge/carebridge/tools"
	"github.com/carebridge/carebridge/translate"
)

// ErrConflictingInvocation is returned when a different tool is requested
// while another is pending. The original pending invocation is left intact.
var ErrConflictingInvocation = errors.New("conflicting invocation")

// ConflictError carries the user-format description of a tool conflict.
type ConflictError struct {
	PendingTool   string
	RequestedTool string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting invocation: %s requested while %s is pending",
		e.RequestedTool, e.PendingTool)
}

func (e *ConflictError) Unwrap() error { return ErrConflictingInvocation }

// UserMessage describes the conflict in user vocabulary.
func (e *ConflictError) UserMessage() string {
	return fmt.Sprintf("We're still in the middle of a %s. Should I drop it and start the %s instead? Say \"cancel\" to drop it, or finish it first.",
		toolTitle(e.PendingTool), toolTitle(e.RequestedTool))
}

// Turn is the outcome of handling one user message.
type Turn struct {
	SessionID  string              `json:"sessionId"`
	Reply      string              `json:"reply"`
	Invocation *session.Invocation `json:"invocation,omitempty"`
}

// Orchestrator wires the store, registry, translator, dispatcher and the
// language capability into the handleMessage contract.
type Orchestrator struct {
	store      *session.Store
	registry   *tools.Registry
	translator *translate.Translator
	dispatcher *dispatch.Dispatcher
	client     *llm.Client
	archive    session.Archive
	logger     *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithArchive mirrors appended messages to durable storage.
func WithArchive(archive session.Archive) Option {
	return func(o *Orchestrator) { o.archive = archive }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New creates an orchestrator.
func New(store *session.Store, registry *tools.Registry, translator *translate.Translator,
	dispatcher *dispatch.Dispatcher, client *llm.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		registry:   registry,
		translator: translator,
		dispatcher: dispatcher,
		client:     client,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleMessage processes one user message for a session and returns the
// assistant's reply, plus the invocation record when an action reached a
// terminal state this turn. An empty sessionID starts a new conversation.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, text string) (Turn, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	turn := Turn{SessionID: sessionID}

	err := o.store.With(ctx, sessionID, func(sess *session.Session) error {
		o.append(ctx, sess, session.NewMessage(session.RoleUser, text))

		// An explicit verdict on a pending invocation short-circuits the
		// model. A cancellation is honored in any state, including while
		// still collecting fields; an affirmative only executes once a
		// complete set has been presented for confirmation.
		if p := sess.Pending; p != nil {
			switch classifyReply(text) {
			case replyAffirmative:
				if p.Confirming {
					return o.execute(ctx, sess, &turn)
				}
			case replyNegative:
				sess.Pending = nil
				turn.Reply = "Okay, I've dropped that. Anything else I can help with?"
				o.append(ctx, sess, session.NewMessage(session.RoleAssistant, turn.Reply))
				return nil
			}
			// Anything else may be a field correction; fall through.
		}

		decision := o.decide(ctx, sess)
		if decision.Tool == nil {
			turn.Reply = decision.Reply
			if turn.Reply == "" {
				turn.Reply = "Sorry, I didn't quite get that. Could you rephrase?"
			}
			o.append(ctx, sess, session.NewMessage(session.RoleAssistant, turn.Reply))
			return nil
		}

		if sess.Pending != nil && sess.Pending.Tool != decision.Tool.Name {
			// Never guess which action the user means; the original pending
			// invocation stays untouched.
			return &ConflictError{
				PendingTool:   sess.Pending.Tool,
				RequestedTool: decision.Tool.Name,
			}
		}

		def, err := o.registry.Get(decision.Tool.Name)
		if err != nil {
			o.logger.Warn("model requested unknown tool",
				zap.String("tool", decision.Tool.Name), zap.Error(err))
			turn.Reply = "That's not something I can do here, sorry."
			o.append(ctx, sess, session.NewMessage(session.RoleAssistant, turn.Reply))
			return nil
		}

		if sess.Pending == nil {
			sess.Pending = &session.Pending{Tool: def.Name}
		}

		extracted, problems := o.extractArgs(def, decision.Tool.Args)
		outcome := o.dispatcher.Collect(def, sess.Pending, extracted)

		switch outcome.Status {
		case dispatch.StatusMissing:
			turn.Reply = o.renderMissing(def, outcome.Missing, problems)
		case dispatch.StatusInvalid:
			turn.Reply = prefixProblems(problems, o.renderInvalid(def, outcome.Invalid))
		case dispatch.StatusAwaitingConfirmation:
			reply, err := o.renderConfirmation(def, sess.Pending.Args)
			if err != nil {
				return err
			}
			turn.Reply = prefixProblems(problems, reply)
		case dispatch.StatusReady:
			if len(problems) > 0 {
				// A value the user just gave was not understood; asking
				// again beats executing without it.
				turn.Reply = renderProblems(problems) + " Could you give it again?"
				break
			}
			return o.execute(ctx, sess, &turn)
		}

		o.append(ctx, sess, session.NewMessage(session.RoleAssistant, turn.Reply))
		return nil
	})
	return turn, err
}

// History returns the ordered message sequence for a session. A session no
// longer resident in memory (restart, eviction) answers from the archive.
func (o *Orchestrator) History(ctx context.Context, sessionID string) ([]session.Message, error) {
	history, err := o.store.History(ctx, sessionID)
	if err != nil || len(history) > 0 {
		return history, err
	}
	if o.archive == nil {
		return history, nil
	}
	return o.archive.Messages(ctx, sessionID)
}

// ClearSession drops a session's state, in memory and in the archive. A
// user-issued clear is always accepted regardless of pending state.
func (o *Orchestrator) ClearSession(ctx context.Context, sessionID string) error {
	if err := o.store.Clear(ctx, sessionID); err != nil {
		return err
	}
	if o.archive != nil {
		return o.archive.Clear(ctx, sessionID)
	}
	return nil
}

// execute runs the session's pending invocation to a terminal state, clears
// the pending slot and appends the outcome message.
func (o *Orchestrator) execute(ctx context.Context, sess *session.Session, turn *Turn) error {
	p := sess.Pending
	def, err := o.registry.Get(p.Tool)
	if err != nil {
		// A pending slot naming an unregistered tool is unrecoverable;
		// clear it so the session is never stuck.
		sess.Pending = nil
		return err
	}

	inv := o.dispatcher.Execute(ctx, def, p.Args)
	sess.Pending = nil

	turn.Invocation = inv
	turn.Reply = o.renderOutcome(def, inv)
	o.append(ctx, sess, session.NewMessage(session.RoleAssistant, turn.Reply,
		session.Part{Invocation: inv}))
	return nil
}

// append adds a message to the session and mirrors it to the archive.
// Archive failures degrade to a log line; the in-memory session stays
// authoritative for the conversation.
func (o *Orchestrator) append(ctx context.Context, sess *session.Session, msg session.Message) {
	sess.Append(msg)
	if o.archive != nil {
		if err := o.archive.AppendMessage(ctx, sess.ID, msg); err != nil {
			o.logger.Warn("archive append failed",
				zap.String("session", sess.ID), zap.Error(err))
		}
	}
}

// decide asks the language capability for the turn's verdict. A response that
// is not valid JSON is tolerated as a prose reply.
func (o *Orchestrator) decide(ctx context.Context, sess *session.Session) Decision {
	content, err := o.client.ChatWithFormat(ctx, o.buildMessages(sess), llm.NewJSONObjectFormat())
	if err != nil {
		o.logger.Error("language capability call failed", zap.Error(err))
		return Decision{Reply: "Sorry, I'm having trouble right now. Please try again in a moment."}
	}

	decision, err := jsonutil.ExtractJSONFromResponse[Decision](content)
	if err != nil {
		o.logger.Debug("non-JSON model response, treating as prose", zap.Error(err))
		return Decision{Reply: content}
	}
	if decision.Tool != nil && decision.Tool.Name == "" {
		decision.Tool = nil
	}
	return decision
}

// extractProblem records a value the normalizer could not understand; the
// field stays outstanding and the user is asked again without any mention
// of formats.
type extractProblem struct {
	field tools.Field
	value string
}

// extractArgs converts a best-effort model extraction into a technical
// argument set. Keys may be technical names or leaked labels; unknown keys
// are dropped. Unparsable temporal values are reported; enum values are kept
// raw so the dispatcher flags them as invalid rather than silently guessing.
func (o *Orchestrator) extractArgs(def tools.Definition, raw map[string]string) (tools.Args, []extractProblem) {
	args := tools.Args{}
	var problems []extractProblem

	for key, value := range raw {
		field, ok := translate.ResolveField(def, key)
		if !ok {
			o.logger.Debug("dropping unmappable extracted field",
				zap.String("tool", def.Name), zap.String("key", key))
			continue
		}

		normalized, err := translate.NormalizeValue(field.Type, value)
		if err != nil {
			problems = append(problems, extractProblem{field: field, value: value})
			continue
		}

		if field.Type == tools.FieldEnum {
			if token, err := translate.ResolveEnumToken(field, normalized); err == nil {
				normalized = token
			}
			// Unresolvable enum values pass through for the dispatcher to
			// report as invalid, keeping the field outstanding.
		}
		args[field.Name] = normalized
	}
	return args, problems
}
