package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/carebridge/carebridge/session"
	"github.com/carebridge/carebridge/tools"
)

func scheduleDef(effect tools.Effect) tools.Definition {
	return tools.Definition{
		Name:     "create_schedule",
		Mutating: true,
		Effect:   effect,
		Fields: []tools.Field{
			{Name: "client_name", Type: tools.FieldString, Required: true},
			{Name: "date", Type: tools.FieldDate, Required: true},
			{Name: "status", Type: tools.FieldEnum, Required: true,
				Enum: []tools.EnumValue{{Token: "PENDING"}, {Token: "CONFIRMED"}}},
		},
	}
}

func lookupDef(effect tools.Effect) tools.Definition {
	return tools.Definition{
		Name:   "lookup_schedule",
		Effect: effect,
		Fields: []tools.Field{
			{Name: "date", Type: tools.FieldDate, Required: false},
		},
	}
}

func newDispatcher(defs ...tools.Definition) *Dispatcher {
	registry := tools.NewRegistry()
	for _, def := range defs {
		_ = registry.Register(def)
	}
	return New(registry, time.Second, zap.NewNop())
}

func TestCollectReportsMissingFields(t *testing.T) {
	d := newDispatcher()
	pending := &session.Pending{Tool: "create_schedule"}

	outcome := d.Collect(scheduleDef(nil), pending, tools.Args{"client_name": "Tom"})
	if outcome.Status != StatusMissing {
		t.Fatalf("expected StatusMissing, got %v", outcome.Status)
	}
	if len(outcome.Missing) != 2 {
		t.Errorf("expected 2 missing fields, got %v", outcome.Missing)
	}
	if pending.Confirming {
		t.Error("incomplete invocation must not await confirmation")
	}
}

func TestMissingTakesPrecedenceOverInvalid(t *testing.T) {
	d := newDispatcher()
	pending := &session.Pending{Tool: "create_schedule"}

	// status is invalid AND date is missing: the missing-field response wins.
	outcome := d.Collect(scheduleDef(nil), pending, tools.Args{
		"client_name": "Tom",
		"status":      "URGENTISH",
	})
	if outcome.Status != StatusMissing {
		t.Fatalf("expected StatusMissing, got %v", outcome.Status)
	}
	if outcome.Invalid != nil {
		t.Error("invalid-value report must wait until required fields are present")
	}
}

func TestCollectReportsInvalidEnum(t *testing.T) {
	d := newDispatcher()
	pending := &session.Pending{Tool: "create_schedule"}

	outcome := d.Collect(scheduleDef(nil), pending, tools.Args{
		"client_name": "Tom",
		"date":        "2025-06-15",
		"status":      "URGENTISH",
	})
	if outcome.Status != StatusInvalid {
		t.Fatalf("expected StatusInvalid, got %v", outcome.Status)
	}
	if outcome.Invalid == nil || outcome.Invalid.Field != "status" {
		t.Fatalf("expected invalid report for status, got %+v", outcome.Invalid)
	}
	// The field stays outstanding, the bad value is gone.
	if _, ok := pending.Args["status"]; ok {
		t.Error("invalid value left in argument set")
	}
}

func TestMutatingToolAwaitsConfirmation(t *testing.T) {
	d := newDispatcher()
	pending := &session.Pending{Tool: "create_schedule"}

	outcome := d.Collect(scheduleDef(nil), pending, tools.Args{
		"client_name": "Tom",
		"date":        "2025-06-15",
		"status":      "PENDING",
	})
	if outcome.Status != StatusAwaitingConfirmation {
		t.Fatalf("expected StatusAwaitingConfirmation, got %v", outcome.Status)
	}
	if !pending.Confirming {
		t.Error("pending invocation should be flagged as confirming")
	}
}

func TestReadOnlyToolSkipsConfirmation(t *testing.T) {
	d := newDispatcher()
	pending := &session.Pending{Tool: "lookup_schedule"}

	outcome := d.Collect(lookupDef(nil), pending, tools.Args{})
	if outcome.Status != StatusReady {
		t.Fatalf("expected StatusReady, got %v", outcome.Status)
	}
	if pending.Confirming {
		t.Error("read-only tool must not require confirmation")
	}
}

func TestCorrectionResetsConfirmation(t *testing.T) {
	d := newDispatcher()
	pending := &session.Pending{Tool: "create_schedule"}
	def := scheduleDef(nil)

	d.Collect(def, pending, tools.Args{
		"client_name": "Tom",
		"date":        "2025-06-15",
		"status":      "PENDING",
	})
	if !pending.Confirming {
		t.Fatal("setup: expected confirming state")
	}

	// A corrected field merges in and re-enters awaiting-confirmation.
	outcome := d.Collect(def, pending, tools.Args{"date": "2025-06-16"})
	if outcome.Status != StatusAwaitingConfirmation {
		t.Fatalf("expected StatusAwaitingConfirmation after correction, got %v", outcome.Status)
	}
	if pending.Args["date"] != "2025-06-16" {
		t.Errorf("correction not merged, date = %q", pending.Args["date"])
	}
	if pending.Args["client_name"] != "Tom" {
		t.Error("correction dropped previously collected field")
	}
}

func TestExecuteSuccess(t *testing.T) {
	effect := func(ctx context.Context, args tools.Args) (tools.Result, error) {
		return tools.Result{Summary: "created", Data: tools.Args{"schedule_id": "sch-1"}}, nil
	}
	d := newDispatcher()

	inv := d.Execute(context.Background(), scheduleDef(effect), tools.Args{"client_name": "Tom"})
	if inv.State != session.StateSucceeded {
		t.Fatalf("expected succeeded, got %s (%s)", inv.State, inv.FailReason)
	}
	if inv.Result == nil || inv.Result.Data["schedule_id"] != "sch-1" {
		t.Errorf("result payload missing: %+v", inv.Result)
	}
}

func TestExecuteFailureIsStructured(t *testing.T) {
	rawErr := errors.New("pq: duplicate key value violates unique constraint")
	effect := func(ctx context.Context, args tools.Args) (tools.Result, error) {
		return tools.Result{}, rawErr
	}
	d := newDispatcher()

	inv := d.Execute(context.Background(), scheduleDef(effect), tools.Args{})
	if inv.State != session.StateFailed {
		t.Fatalf("expected failed, got %s", inv.State)
	}
	if inv.FailReason == "" {
		t.Error("failed invocation needs a human-readable reason")
	}
	if inv.FailReason == rawErr.Error() {
		t.Error("raw effect error surfaced verbatim")
	}
}

func TestExecuteTimesOut(t *testing.T) {
	effect := func(ctx context.Context, args tools.Args) (tools.Result, error) {
		time.Sleep(5 * time.Second)
		return tools.Result{}, nil
	}
	registry := tools.NewRegistry()
	_ = registry.Register(scheduleDef(effect))
	d := New(registry, 20*time.Millisecond, zap.NewNop())

	start := time.Now()
	inv := d.Execute(context.Background(), scheduleDef(effect), tools.Args{})
	if time.Since(start) > time.Second {
		t.Fatal("Execute did not respect the timeout budget")
	}
	if inv.State != session.StateFailed {
		t.Fatalf("expected failed, got %s", inv.State)
	}
	if inv.FailReason == "" {
		t.Error("timeout needs a reason")
	}
}
