package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/panelevent/backend/internal/models"
)

// ErrNotFound is returned when no event has the requested id.
var ErrNotFound = errors.New("event not found")

// Reader looks events up by id.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

const eventColumns = `id, title, description, location, starts_at, ends_at, is_public, max_attendees, created_by, created_at, updated_at`

// Repository handles event persistence, including the raw program blob.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row, e *models.Event) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt,
		&e.IsPublic, &e.MaxAttendees, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
}

// Create inserts a new event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, title, description, location, starts_at, ends_at, is_public, max_attendees, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.IsPublic, e.MaxAttendees, e.CreatedBy).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns an event by ID, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var e models.Event
	err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id), &e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List returns events, optionally only those created by createdBy or only public ones.
func (r *Repository) List(ctx context.Context, createdBy *uuid.UUID, publicOnly bool) ([]models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE ($1::uuid IS NULL OR created_by = $1) AND (NOT $2 OR is_public) ORDER BY starts_at DESC`
	rows, err := r.pool.Query(ctx, q, createdBy, publicOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Update overwrites the editable fields of an event.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events SET title = $1, description = $2, location = $3, starts_at = $4, ends_at = $5,
		is_public = $6, max_attendees = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.IsPublic, e.MaxAttendees, e.ID).
		Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// GetProgramBlob returns the stored program JSON, or nil when the event has none.
func (r *Repository) GetProgramBlob(ctx context.Context, eventID uuid.UUID) ([]byte, error) {
	var blob *string
	err := r.pool.QueryRow(ctx, `SELECT program FROM events WHERE id = $1`, eventID).Scan(&blob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	return []byte(*blob), nil
}

// SetProgramBlob replaces the stored program. A nil blob clears it to NULL.
func (r *Repository) SetProgramBlob(ctx context.Context, eventID uuid.UUID, blob []byte) error {
	var value *string
	if blob != nil {
		s := string(blob)
		value = &s
	}
	tag, err := r.pool.Exec(ctx, `UPDATE events SET program = $1, updated_at = NOW() WHERE id = $2`, value, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
