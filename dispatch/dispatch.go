// Package dispatch drives the invocation state machine.
//
// Per invocation: collecting -> awaiting-confirmation -> executing ->
// {succeeded|failed}. Read-only tools skip awaiting-confirmation; every
// mutating tool must pass through it. Required-field completeness is checked
// before per-field validation, so a missing-field response always takes
// precedence over an invalid-value response.
//
// Information Hiding:
// - Timeout enforcement hidden; effects that ignore their context are still
//   bounded
// - Raw effect errors are logged, never surfaced verbatim
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carebridge/carebridge/session"
	"github.com/carebridge/carebridge/tools"
)

// Status classifies the outcome of one collecting step.
type Status int

const (
	// StatusMissing means required fields are still absent.
	StatusMissing Status = iota
	// StatusInvalid means a present field failed validation and was dropped
	// back to outstanding.
	StatusInvalid
	// StatusAwaitingConfirmation means the argument set is complete and the
	// tool mutates state, so the user must confirm.
	StatusAwaitingConfirmation
	// StatusReady means the argument set is complete and the tool is
	// read-only, so it may execute immediately.
	StatusReady
)

// CollectOutcome describes where the state machine landed after merging
// newly extracted arguments.
type CollectOutcome struct {
	Status  Status
	Missing []string                // technical names, schema order
	Invalid *tools.InvalidEnumError // set when Status == StatusInvalid
}

// Dispatcher validates and executes invocations against the registry.
type Dispatcher struct {
	registry *tools.Registry
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates a dispatcher. The timeout bounds each effect execution.
func New(registry *tools.Registry, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: registry, timeout: timeout, logger: logger}
}

// Collect merges extracted arguments into the pending invocation and advances
// the state machine one step. The pending invocation is mutated in place:
// its missing list is recomputed and its confirmation flag reset whenever the
// argument set changes, so a field correction re-enters awaiting-confirmation.
func (d *Dispatcher) Collect(def tools.Definition, pending *session.Pending, extracted tools.Args) CollectOutcome {
	if pending.Args == nil {
		pending.Args = tools.Args{}
	}
	for name, value := range extracted {
		pending.Args[name] = value
	}
	pending.Confirming = false

	pending.Missing = def.MissingRequired(pending.Args)
	if len(pending.Missing) > 0 {
		return CollectOutcome{Status: StatusMissing, Missing: pending.Missing}
	}

	if err := def.Validate(pending.Args); err != nil {
		var enumErr *tools.InvalidEnumError
		if errors.As(err, &enumErr) {
			// The field goes back to outstanding; its bad value must not
			// linger in the technical argument set.
			delete(pending.Args, enumErr.Field)
			pending.Missing = def.MissingRequired(pending.Args)
			return CollectOutcome{Status: StatusInvalid, Missing: pending.Missing, Invalid: enumErr}
		}
		// Unknown-field leftovers from a tolerated bad extraction: drop and
		// re-collect.
		d.logger.Warn("dropping unknown argument", zap.String("tool", def.Name), zap.Error(err))
		for name := range pending.Args {
			if _, ok := def.Field(name); !ok {
				delete(pending.Args, name)
			}
		}
		return d.Collect(def, pending, nil)
	}

	if def.Mutating {
		pending.Confirming = true
		return CollectOutcome{Status: StatusAwaitingConfirmation}
	}
	return CollectOutcome{Status: StatusReady}
}

// Execute runs the effect function within the timeout budget and returns the
// terminal invocation record. The effect's own atomicity determines the
// outcome of an abort mid-flight; no rollback is attempted here.
func (d *Dispatcher) Execute(ctx context.Context, def tools.Definition, args tools.Args) *session.Invocation {
	inv := &session.Invocation{
		ID:    uuid.New().String(),
		Tool:  def.Name,
		Args:  args.Clone(),
		State: session.StateExecuting,
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type effectReturn struct {
		result tools.Result
		err    error
	}
	done := make(chan effectReturn, 1)
	go func() {
		result, err := def.Effect(ctx, args)
		done <- effectReturn{result, err}
	}()

	select {
	case <-ctx.Done():
		inv.State = session.StateFailed
		inv.FailReason = fmt.Sprintf("the action did not complete within %s", d.timeout)
		d.logger.Warn("effect timed out",
			zap.String("tool", def.Name), zap.Duration("budget", d.timeout))
	case ret := <-done:
		if ret.err != nil {
			inv.State = session.StateFailed
			inv.FailReason = "the action could not be completed"
			d.logger.Error("effect failed",
				zap.String("tool", def.Name), zap.Error(ret.err))
		} else {
			inv.State = session.StateSucceeded
			inv.Result = &ret.result
		}
	}
	return inv
}
