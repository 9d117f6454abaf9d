// Package store provides the SQLite record store behind the tool effects.
//
// Information Hiding:
// - SQLite connection management hidden behind the Effects and Archive
//   interfaces
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling
//
// Each effect is a single statement, so it either applies fully or reports
// failure; nothing partially applies without an error.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/carebridge/carebridge/session"
	"github.com/carebridge/carebridge/tools"
)

// Records implements tools.Effects and session.Archive on a SQLite file.
type Records struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func Open(path string) (*Records, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	records := &Records{db: db}
	if err := records.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return records, nil
}

// OpenInMemory creates an in-memory database (useful for testing).
func OpenInMemory() (*Records, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	records := &Records{db: db}
	if err := records.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (r *Records) Close() error {
	return r.db.Close()
}

func (r *Records) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schedules (
			id TEXT PRIMARY KEY,
			care_worker TEXT NOT NULL,
			client TEXT NOT NULL,
			visit_date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			visit_type TEXT NOT NULL,
			status TEXT NOT NULL,
			cancel_reason TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_schedules_date
		ON schedules(visit_date, care_worker);

		CREATE TABLE IF NOT EXISTS invites (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			role TEXT NOT NULL,
			sub_role TEXT,
			sent_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			message_index INTEGER NOT NULL,
			payload TEXT NOT NULL,
			UNIQUE(session_id, message_index)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session
		ON messages(session_id, message_index);
	`
	_, err := r.db.Exec(schema)
	return err
}

// CreateSchedule inserts a schedule row and returns its generated id.
func (r *Records) CreateSchedule(ctx context.Context, args tools.Args) (tools.Result, error) {
	id := "sch-" + uuid.New().String()[:8]
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO schedules (id, care_worker, client, visit_date, start_time, end_time, visit_type, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, args["careWorker_name"], args["client_name"], args["date"],
		args["start_time"], args["end_time"], args["type"], args["status"])
	if err != nil {
		return tools.Result{}, fmt.Errorf("failed to insert schedule: %w", err)
	}

	return tools.Result{
		Summary: "schedule created",
		Data: tools.Args{
			"schedule_id": id,
			"date":        args["date"],
			"status":      args["status"],
		},
	}, nil
}

// CancelSchedule marks a schedule CANCELED. Unknown ids report failure.
func (r *Records) CancelSchedule(ctx context.Context, args tools.Args) (tools.Result, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE schedules SET status = 'CANCELED', cancel_reason = ?
		WHERE id = ? AND status != 'CANCELED'`,
		args["reason"], args["schedule_id"])
	if err != nil {
		return tools.Result{}, fmt.Errorf("failed to cancel schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return tools.Result{}, err
	}
	if affected == 0 {
		return tools.Result{}, fmt.Errorf("no active schedule with id %q", args["schedule_id"])
	}

	return tools.Result{
		Summary: "schedule canceled",
		Data:    tools.Args{"schedule_id": args["schedule_id"], "status": "CANCELED"},
	}, nil
}

// SendInvite records an onboarding invitation.
func (r *Records) SendInvite(ctx context.Context, args tools.Args) (tools.Result, error) {
	id := "inv-" + uuid.New().String()[:8]
	subRole := sql.NullString{String: args["sub_role"], Valid: args["sub_role"] != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invites (id, email, role, sub_role) VALUES (?, ?, ?, ?)`,
		id, args["email"], args["role"], subRole)
	if err != nil {
		return tools.Result{}, fmt.Errorf("failed to record invite: %w", err)
	}

	return tools.Result{
		Summary: "invite sent",
		Data:    tools.Args{"invite_id": id, "email": args["email"]},
	}, nil
}

// LookupSchedules returns a count and listing of matching schedules.
func (r *Records) LookupSchedules(ctx context.Context, args tools.Args) (tools.Result, error) {
	query := `SELECT id, care_worker, client, visit_date, start_time, end_time, visit_type, status
		FROM schedules WHERE 1=1`
	var params []any
	if date := args["date"]; date != "" {
		query += " AND visit_date = ?"
		params = append(params, date)
	}
	if worker := args["careWorker_name"]; worker != "" {
		query += " AND care_worker = ?"
		params = append(params, worker)
	}
	query += " ORDER BY visit_date, start_time"

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return tools.Result{}, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var id, worker, client, date, start, end, visitType, status string
		if err := rows.Scan(&id, &worker, &client, &date, &start, &end, &visitType, &status); err != nil {
			return tools.Result{}, err
		}
		lines = append(lines, fmt.Sprintf("%s %s-%s %s with %s (%s, %s)",
			date, start, end, client, worker, visitType, status))
	}
	if err := rows.Err(); err != nil {
		return tools.Result{}, err
	}

	return tools.Result{
		Summary: strings.Join(lines, "\n"),
		Data:    tools.Args{"count": strconv.Itoa(len(lines))},
	}, nil
}

// AppendMessage mirrors a session message into the archive.
func (r *Records) AppendMessage(ctx context.Context, sessionID string, msg session.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO messages (session_id, message_index, payload)
		VALUES (?, (SELECT COALESCE(MAX(message_index), -1) + 1 FROM messages WHERE session_id = ?), ?)`,
		sessionID, sessionID, string(payload))
	if err != nil {
		return fmt.Errorf("failed to archive message: %w", err)
	}
	return nil
}

// Messages loads the archived message sequence for a session, in append order.
func (r *Records) Messages(ctx context.Context, sessionID string) ([]session.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM messages WHERE session_id = ? ORDER BY message_index`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	messages := []session.Message{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var msg session.Message
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return nil, fmt.Errorf("corrupt archived message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Clear removes a session's archived messages.
func (r *Records) Clear(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID)
	return err
}

// ListSessions lists session ids present in the archive.
func (r *Records) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT session_id FROM messages ORDER BY session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var (
	_ tools.Effects   = (*Records)(nil)
	_ session.Archive = (*Records)(nil)
)
