// Care-agency action catalogue.
//
// Definitions live here; the side effects behind them are collaborator-supplied
// through the Effects interface, so the registry stays free of persistence
// concerns.

package tools

import "context"

// Effects is the boundary to whatever applies tool effects to persistent
// state. Implementations must not partially apply an effect without
// returning an error.
type Effects interface {
	CreateSchedule(ctx context.Context, args Args) (Result, error)
	CancelSchedule(ctx context.Context, args Args) (Result, error)
	SendInvite(ctx context.Context, args Args) (Result, error)
	LookupSchedules(ctx context.Context, args Args) (Result, error)
}

// Catalog returns the care-agency tool definitions bound to the given effects.
func Catalog(fx Effects) []Definition {
	return []Definition{
		{
			Name:        "create_schedule",
			Description: "Create a care schedule entry for a care worker and a client.",
			Mutating:    true,
			Effect:      fx.CreateSchedule,
			Fields: []Field{
				{Name: "careWorker_name", Type: FieldString, Required: true, Label: "Care Worker",
					Description: "Full name of the care worker"},
				{Name: "client_name", Type: FieldString, Required: true, Label: "Client",
					Description: "Full name of the client"},
				{Name: "date", Type: FieldDate, Required: true,
					Description: "Date of the visit, YYYY-MM-DD"},
				{Name: "start_time", Type: FieldTime, Required: true, Label: "Start Time",
					Description: "Start of the visit, 24-hour HH:MM"},
				{Name: "end_time", Type: FieldTime, Required: true, Label: "End Time",
					Description: "End of the visit, 24-hour HH:MM"},
				{Name: "type", Type: FieldEnum, Required: true,
					Description: "Kind of visit",
					Enum: []EnumValue{
						{Token: "WEEKLY_CHECKUP"},
						{Token: "APPOINTMENT"},
						{Token: "HOME_VISIT"},
						{Token: "EMERGENCY"},
					}},
				{Name: "status", Type: FieldEnum, Required: true,
					Description: "Initial status of the schedule",
					Enum: []EnumValue{
						{Token: "PENDING"},
						{Token: "CONFIRMED"},
						{Token: "COMPLETED"},
						{Token: "CANCELED"},
					}},
			},
		},
		{
			Name:        "cancel_schedule",
			Description: "Cancel an existing schedule entry.",
			Mutating:    true,
			Effect:      fx.CancelSchedule,
			Fields: []Field{
				{Name: "schedule_id", Type: FieldString, Required: true, Label: "Schedule",
					Description: "Identifier of the schedule to cancel"},
				{Name: "reason", Type: FieldString, Required: false,
					Description: "Reason for the cancellation"},
			},
		},
		{
			Name:        "send_onboarding_invite",
			Description: "Send an onboarding invitation email for a new client or staff member.",
			Mutating:    true,
			Effect:      fx.SendInvite,
			Fields: []Field{
				{Name: "email", Type: FieldEmail, Required: true, Label: "Email Address",
					Description: "Recipient email address"},
				{Name: "role", Type: FieldEnum, Required: true,
					Description: "Role the invitee will hold",
					Enum: []EnumValue{
						{Token: "CLIENT"},
						{Token: "CARE_WORKER"},
						{Token: "OFFICE_STAFF"},
					}},
				{Name: "sub_role", Type: FieldEnum, Required: false, Label: "Sub-Role",
					Description: "Finer-grained role, when applicable",
					Enum: []EnumValue{
						{Token: "SERVICE_USER"},
						{Token: "FAMILY_AND_FRIENDS", Label: "Family and Friends"},
						{Token: "OTHER"},
					}},
			},
		},
		{
			Name:        "lookup_schedule",
			Description: "Look up existing schedule entries. Read-only.",
			Mutating:    false,
			Effect:      fx.LookupSchedules,
			Fields: []Field{
				{Name: "date", Type: FieldDate, Required: false,
					Description: "Restrict to a single date, YYYY-MM-DD"},
				{Name: "careWorker_name", Type: FieldString, Required: false, Label: "Care Worker",
					Description: "Restrict to one care worker"},
			},
		},
	}
}

// RegisterCatalog registers the full care-agency catalogue on the registry.
func RegisterCatalog(registry *Registry, fx Effects) error {
	for _, def := range Catalog(fx) {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}
