package translate

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/carebridge/carebridge/tools"
)

type stubEffects struct{}

func (stubEffects) CreateSchedule(ctx context.Context, args tools.Args) (tools.Result, error) {
	return tools.Result{}, nil
}
func (stubEffects) CancelSchedule(ctx context.Context, args tools.Args) (tools.Result, error) {
	return tools.Result{}, nil
}
func (stubEffects) SendInvite(ctx context.Context, args tools.Args) (tools.Result, error) {
	return tools.Result{}, nil
}
func (stubEffects) LookupSchedules(ctx context.Context, args tools.Args) (tools.Result, error) {
	return tools.Result{}, nil
}

func newTranslator(t *testing.T) *Translator {
	t.Helper()
	registry := tools.NewRegistry()
	if err := tools.RegisterCatalog(registry, stubEffects{}); err != nil {
		t.Fatalf("RegisterCatalog failed: %v", err)
	}
	return New(registry)
}

func TestToUserFormat(t *testing.T) {
	tr := newTranslator(t)

	args := tools.Args{
		"careWorker_name": "Maria",
		"client_name":     "Tom",
		"date":            "2025-06-15",
		"start_time":      "09:00",
		"end_time":        "17:00",
		"type":            "WEEKLY_CHECKUP",
		"status":          "PENDING",
	}

	pairs, err := tr.ToUser("create_schedule", args)
	if err != nil {
		t.Fatalf("ToUser failed: %v", err)
	}

	got := map[string]string{}
	for _, p := range pairs {
		got[p.Label] = p.Value
	}
	want := map[string]string{
		"Care Worker": "Maria",
		"Client":      "Tom",
		"Date":        "2025-06-15",
		"Start Time":  "09:00",
		"End Time":    "17:00",
		"Type":        "Weekly Checkup",
		"Status":      "Pending",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToUser = %v, want %v", got, want)
	}

	// No technical tokens in user output.
	for _, p := range pairs {
		if strings.Contains(p.Value, "_") || p.Value == "WEEKLY_CHECKUP" {
			t.Errorf("user value leaked technical token: %q", p.Value)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	tr := newTranslator(t)

	cases := []struct {
		tool string
		args tools.Args
	}{
		{
			tool: "create_schedule",
			args: tools.Args{
				"careWorker_name": "Maria",
				"client_name":     "Tom",
				"date":            "2025-06-15",
				"start_time":      "09:00",
				"end_time":        "17:00",
				"type":            "WEEKLY_CHECKUP",
				"status":          "PENDING",
			},
		},
		{
			tool: "send_onboarding_invite",
			args: tools.Args{
				"email":    "pat@example.org",
				"role":     "CARE_WORKER",
				"sub_role": "FAMILY_AND_FRIENDS",
			},
		},
		{
			tool: "lookup_schedule",
			args: tools.Args{"date": "2025-06-15"},
		},
	}

	for _, tc := range cases {
		pairs, err := tr.ToUser(tc.tool, tc.args)
		if err != nil {
			t.Fatalf("%s: ToUser failed: %v", tc.tool, err)
		}
		input := map[string]string{}
		for _, p := range pairs {
			input[p.Label] = p.Value
		}
		back, err := tr.ToTechnical(tc.tool, input)
		if err != nil {
			t.Fatalf("%s: ToTechnical failed: %v", tc.tool, err)
		}
		if !reflect.DeepEqual(back, tc.args) {
			t.Errorf("%s: round trip = %v, want %v", tc.tool, back, tc.args)
		}
	}
}

func TestIrregularEnumLabel(t *testing.T) {
	tr := newTranslator(t)

	args, err := tr.ToTechnical("send_onboarding_invite", map[string]string{
		"Sub-Role": "Family and Friends",
	})
	if err != nil {
		t.Fatalf("ToTechnical failed: %v", err)
	}
	if args["sub_role"] != "FAMILY_AND_FRIENDS" {
		t.Errorf("expected FAMILY_AND_FRIENDS, got %q", args["sub_role"])
	}
}

func TestToTechnicalNormalizesTimesAndDates(t *testing.T) {
	tr := newTranslator(t)

	args, err := tr.ToTechnical("create_schedule", map[string]string{
		"Start Time": "9am",
		"End Time":   "5pm",
		"Date":       "15 June 2025",
	})
	if err != nil {
		t.Fatalf("ToTechnical failed: %v", err)
	}
	if args["start_time"] != "09:00" {
		t.Errorf("start_time = %q, want 09:00", args["start_time"])
	}
	if args["end_time"] != "17:00" {
		t.Errorf("end_time = %q, want 17:00", args["end_time"])
	}
	if args["date"] != "2025-06-15" {
		t.Errorf("date = %q, want 2025-06-15", args["date"])
	}
}

func TestUnmappableFieldLabel(t *testing.T) {
	tr := newTranslator(t)

	_, err := tr.ToTechnical("create_schedule", map[string]string{"Shoe Size": "42"})
	if !errors.Is(err, ErrUnmappableField) {
		t.Errorf("expected ErrUnmappableField, got %v", err)
	}
}

func TestUnmappableEnumLabel(t *testing.T) {
	tr := newTranslator(t)

	_, err := tr.ToTechnical("create_schedule", map[string]string{"Type": "Urgentish"})
	if !errors.Is(err, ErrUnmappableField) {
		t.Errorf("expected ErrUnmappableField, got %v", err)
	}
}

func TestDerivedFieldLabel(t *testing.T) {
	field := tools.Field{Name: "careWorker_name"}
	if got := FieldLabel(field); got != "Care Worker Name" {
		t.Errorf("FieldLabel = %q, want 'Care Worker Name'", got)
	}

	override := tools.Field{Name: "sub_role", Label: "Sub-Role"}
	if got := FieldLabel(override); got != "Sub-Role" {
		t.Errorf("FieldLabel = %q, want 'Sub-Role'", got)
	}
}
