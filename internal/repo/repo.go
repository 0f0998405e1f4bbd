package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"campusevents/internal/model"
)

var (
	ErrUserExists    = errors.New("username already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrEventNotFound = errors.New("event not found")
)

type Repository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateEvent(ctx context.Context, e *model.Event) (int64, error)
	DeleteEventTx(ctx context.Context, eventID int64) error
	GetAllEvents(ctx context.Context) ([]model.Event, error)
	CountParticipants(ctx context.Context, eventID int64) (int, error)
	RegisterParticipant(ctx context.Context, eventID int64, username string) error
	UpcomingForParticipant(ctx context.Context, username string) ([]model.UpcomingEvent, error)
	ParticipantsWithPhoneForWindow(ctx context.Context, start, end time.Time) ([]model.ReminderRow, error)
	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

func (r *repository) CreateUser(ctx context.Context, u *model.User) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, u.Username,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return ErrUserExists
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, phone)
		VALUES ($1, $2, $3, $4)
	`, u.Username, u.Password, u.Role, u.Phone)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *repository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
		SELECT username, password, role, phone
		FROM users WHERE username = $1
	`
	row := r.db.QueryRowContext(ctx, query, username)

	var u model.User
	if err := row.Scan(&u.Username, &u.Password, &u.Role, &u.Phone); err != nil {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	query := `
		INSERT INTO events (name, date, location)
		VALUES ($1, $2, $3)
		RETURNING event_id
	`

	row := r.db.QueryRowContext(ctx, query, e.Name, e.Date, e.Location)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

// DeleteEventTx removes the event's registrations and the event itself in one
// transaction: both rows are gone or neither is.
func (r *repository) DeleteEventTx(ctx context.Context, eventID int64) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT event_id FROM events WHERE event_id = $1 FOR UPDATE
	`, eventID).Scan(&id)
	if err != nil {
		_ = tx.Rollback()
		return ErrEventNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM participants WHERE event_id = $1`, eventID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete registrations: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM events WHERE event_id = $1`, eventID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *repository) GetAllEvents(ctx context.Context) ([]model.Event, error) {
	query := `
		SELECT event_id, name, date, location
		FROM events
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.Location); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

func (r *repository) CountParticipants(ctx context.Context, eventID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM participants
		WHERE event_id = $1
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}

	return count, nil
}

// RegisterParticipant is idempotent: registering twice for the same event
// leaves exactly one row.
func (r *repository) RegisterParticipant(ctx context.Context, eventID int64, username string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE event_id = $1)`, eventID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return ErrEventNotFound
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO participants (event_id, username)
		VALUES ($1, $2)
		ON CONFLICT (event_id, username) DO NOTHING
	`, eventID, username)
	if err != nil {
		return fmt.Errorf("failed to register participant: %w", err)
	}
	return nil
}

// UpcomingForParticipant lists every event exactly once; the outer join marks
// the ones the user is registered for.
func (r *repository) UpcomingForParticipant(ctx context.Context, username string) ([]model.UpcomingEvent, error) {
	query := `
		SELECT e.name, e.date, e.location,
		       CASE WHEN p.username IS NULL THEN 'Not Registered' ELSE 'Registered' END AS status
		FROM events e
		LEFT JOIN participants p ON e.event_id = p.event_id AND p.username = $1
		ORDER BY e.date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming events: %w", err)
	}
	defer rows.Close()

	var upcoming []model.UpcomingEvent
	for rows.Next() {
		var u model.UpcomingEvent
		if err := rows.Scan(&u.Name, &u.Date, &u.Location, &u.Status); err != nil {
			return nil, fmt.Errorf("failed to scan upcoming event: %w", err)
		}
		upcoming = append(upcoming, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate upcoming events: %w", err)
	}

	return upcoming, nil
}

// ParticipantsWithPhoneForWindow returns one row per (event, registered user)
// for events whose date string falls in (start, end]. The date column holds
// zero-padded "YYYY-MM-DD HH:MM" strings, so the string comparison below is a
// chronological one; rows with malformed dates are re-checked by the caller.
func (r *repository) ParticipantsWithPhoneForWindow(ctx context.Context, start, end time.Time) ([]model.ReminderRow, error) {
	query := `
		SELECT e.event_id, e.name, e.date, e.location, u.username, u.phone
		FROM events e
		JOIN participants p ON e.event_id = p.event_id
		JOIN users u ON p.username = u.username
		WHERE e.date > $1 AND e.date <= $2
		ORDER BY e.date ASC
	`

	rows, err := r.db.QueryContext(ctx, query,
		start.Format(model.DateTimeLayout), end.Format(model.DateTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder rows: %w", err)
	}
	defer rows.Close()

	var result []model.ReminderRow
	for rows.Next() {
		var row model.ReminderRow
		if err := rows.Scan(&row.EventID, &row.EventName, &row.Date, &row.Location, &row.Username, &row.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminder rows: %w", err)
	}

	return result, nil
}
