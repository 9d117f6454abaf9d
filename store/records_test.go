package store

import (
	"context"
	"strings"
	"testing"

	"github.com/carebridge/carebridge/session"
	"github.com/carebridge/carebridge/tools"
)

func newTestRecords(t *testing.T) *Records {
	t.Helper()
	records, err := OpenInMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory records: %v", err)
	}
	t.Cleanup(func() { records.Close() })
	return records
}

func TestCreateAndLookupSchedule(t *testing.T) {
	records := newTestRecords(t)
	ctx := context.Background()

	result, err := records.CreateSchedule(ctx, tools.Args{
		"careWorker_name": "Maria",
		"client_name":     "Tom",
		"date":            "2025-06-15",
		"start_time":      "09:00",
		"end_time":        "17:00",
		"type":            "WEEKLY_CHECKUP",
		"status":          "PENDING",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if result.Data["schedule_id"] == "" {
		t.Error("expected a generated schedule id")
	}

	lookup, err := records.LookupSchedules(ctx, tools.Args{"date": "2025-06-15"})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if lookup.Data["count"] != "1" {
		t.Errorf("expected 1 schedule, got %q", lookup.Data["count"])
	}
	if !strings.Contains(lookup.Summary, "Tom") || !strings.Contains(lookup.Summary, "Maria") {
		t.Errorf("summary missing participants: %q", lookup.Summary)
	}
}

func TestLookupFiltersByWorker(t *testing.T) {
	records := newTestRecords(t)
	ctx := context.Background()

	for _, worker := range []string{"Maria", "Priya"} {
		_, err := records.CreateSchedule(ctx, tools.Args{
			"careWorker_name": worker,
			"client_name":     "Tom",
			"date":            "2025-06-15",
			"start_time":      "09:00",
			"end_time":        "10:00",
			"type":            "HOME_VISIT",
			"status":          "PENDING",
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	lookup, err := records.LookupSchedules(ctx, tools.Args{
		"date":            "2025-06-15",
		"careWorker_name": "Priya",
	})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if lookup.Data["count"] != "1" {
		t.Errorf("expected 1 schedule for Priya, got %q", lookup.Data["count"])
	}
}

func TestCancelSchedule(t *testing.T) {
	records := newTestRecords(t)
	ctx := context.Background()

	created, err := records.CreateSchedule(ctx, tools.Args{
		"careWorker_name": "Maria",
		"client_name":     "Tom",
		"date":            "2025-06-15",
		"start_time":      "09:00",
		"end_time":        "17:00",
		"type":            "APPOINTMENT",
		"status":          "CONFIRMED",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	id := created.Data["schedule_id"]

	result, err := records.CancelSchedule(ctx, tools.Args{
		"schedule_id": id,
		"reason":      "client unavailable",
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.Data["status"] != "CANCELED" {
		t.Errorf("expected CANCELED, got %q", result.Data["status"])
	}

	// Canceling twice reports failure rather than silently succeeding.
	if _, err := records.CancelSchedule(ctx, tools.Args{"schedule_id": id}); err == nil {
		t.Error("expected error canceling an already-canceled schedule")
	}
}

func TestCancelUnknownSchedule(t *testing.T) {
	records := newTestRecords(t)

	_, err := records.CancelSchedule(context.Background(), tools.Args{"schedule_id": "sch-nope"})
	if err == nil {
		t.Fatal("expected error for unknown schedule id")
	}
	if !strings.Contains(err.Error(), "sch-nope") {
		t.Errorf("error should name the id: %v", err)
	}
}

func TestSendInvite(t *testing.T) {
	records := newTestRecords(t)

	result, err := records.SendInvite(context.Background(), tools.Args{
		"email":    "tom@example.com",
		"role":     "CLIENT",
		"sub_role": "SERVICE_USER",
	})
	if err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	if result.Data["invite_id"] == "" {
		t.Error("expected a generated invite id")
	}
	if result.Data["email"] != "tom@example.com" {
		t.Errorf("expected email echoed back, got %q", result.Data["email"])
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	records := newTestRecords(t)
	ctx := context.Background()

	first := session.NewMessage(session.RoleUser, "hello")
	second := session.NewMessage(session.RoleAssistant, "hi there")

	if err := records.AppendMessage(ctx, "sess-1", first); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := records.AppendMessage(ctx, "sess-1", second); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	messages, err := records.Messages(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Content != "hello" || messages[1].Content != "hi there" {
		t.Errorf("messages out of order: %q, %q", messages[0].Content, messages[1].Content)
	}
	if messages[0].Role != session.RoleUser {
		t.Errorf("expected user role, got %q", messages[0].Role)
	}
}

func TestArchiveClear(t *testing.T) {
	records := newTestRecords(t)
	ctx := context.Background()

	if err := records.AppendMessage(ctx, "sess-1", session.NewMessage(session.RoleUser, "hello")); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := records.Clear(ctx, "sess-1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	messages, err := records.Messages(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected empty archive after clear, got %d messages", len(messages))
	}
}

func TestListSessions(t *testing.T) {
	records := newTestRecords(t)
	ctx := context.Background()

	for _, id := range []string{"sess-b", "sess-a", "sess-b"} {
		if err := records.AppendMessage(ctx, id, session.NewMessage(session.RoleUser, "x")); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	ids, err := records.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "sess-a" || ids[1] != "sess-b" {
		t.Errorf("unexpected session ids: %v", ids)
	}
}
