package registrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/panelevent/backend/internal/models"
)

const registrationColumns = `id, event_id, email, first_name, last_name,
	COALESCE(phone,''), COALESCE(company,''), COALESCE(position,''), COALESCE(experience,''),
	COALESCE(expectations,''), COALESCE(dietary_restrictions,''),
	consent, source, checkin_token, attended_at, created_at, updated_at`

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRegistration(row pgx.Row, reg *models.Registration) error {
	return row.Scan(&reg.ID, &reg.EventID, &reg.Email, &reg.FirstName, &reg.LastName,
		&reg.Phone, &reg.Company, &reg.Position, &reg.Experience,
		&reg.Expectations, &reg.DietaryRestrictions,
		&reg.Consent, &reg.Source, &reg.CheckinToken, &reg.AttendedAt, &reg.CreatedAt, &reg.UpdatedAt)
}

// CountPublic returns the number of public registrations for an event.
func (r *Repository) CountPublic(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND source = $2`,
		eventID, models.RegistrationSourcePublic).Scan(&n)
	return n, err
}

// ExistsByEventAndEmail reports whether email is already registered for the event, from any source.
func (r *Repository) ExistsByEventAndEmail(ctx context.Context, eventID uuid.UUID, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND lower(email) = lower($2))`,
		eventID, email).Scan(&exists)
	return exists, err
}

// Insert stores reg inside a transaction that locks the event row and recounts seats, so
// concurrent inserts cannot oversell. The unique (event_id, lower(email)) index turns a
// concurrent duplicate into ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, reg *models.Registration, maxAttendees *int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if maxAttendees != nil {
		if _, err := tx.Exec(ctx, `SELECT 1 FROM events WHERE id = $1 FOR UPDATE`, reg.EventID); err != nil {
			return fmt.Errorf("lock event: %w", err)
		}
		var n int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND source = $2`,
			reg.EventID, models.RegistrationSourcePublic).Scan(&n); err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if n >= *maxAttendees {
			return ErrEventFull
		}
	}

	const q = `INSERT INTO registrations (event_id, email, first_name, last_name, phone, company, position,
			experience, expectations, dietary_restrictions, consent, source, checkin_token)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), NULLIF($7,''),
			NULLIF($8,''), NULLIF($9,''), NULLIF($10,''), $11, $12, $13)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, q, reg.EventID, reg.Email, reg.FirstName, reg.LastName, reg.Phone, reg.Company, reg.Position,
		reg.Experience, reg.Expectations, reg.DietaryRestrictions, reg.Consent, reg.Source, reg.CheckinToken).
		Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == "registrations_event_email_key" {
			return ErrDuplicate
		}
		return fmt.Errorf("insert: %w", err)
	}
	return tx.Commit(ctx)
}

// GetByCheckinToken returns the registration holding token, or ErrNotFound.
func (r *Repository) GetByCheckinToken(ctx context.Context, token string) (*models.Registration, error) {
	var reg models.Registration
	err := scanRegistration(r.pool.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE checkin_token = $1`, token), &reg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// GetByID returns a registration by id, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	var reg models.Registration
	err := scanRegistration(r.pool.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id), &reg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// MarkAttended records the first check-in of a registration. Later calls keep the original time.
func (r *Repository) MarkAttended(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	var reg models.Registration
	const q = `UPDATE registrations SET attended_at = COALESCE(attended_at, NOW()), updated_at = NOW()
		WHERE id = $1 RETURNING ` + registrationColumns
	if err := scanRegistration(r.pool.QueryRow(ctx, q, id), &reg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// ListByEvent returns all registrations for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 ORDER BY created_at DESC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Registration{}
	for rows.Next() {
		var reg models.Registration
		if err := scanRegistration(rows, &reg); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// CountByEvent returns total registrations and attended count for an event.
func (r *Repository) CountByEvent(ctx context.Context, eventID uuid.UUID) (total, attended int, err error) {
	const q = `SELECT COUNT(*), COUNT(attended_at) FROM registrations WHERE event_id = $1`
	err = r.pool.QueryRow(ctx, q, eventID).Scan(&total, &attended)
	return total, attended, err
}
