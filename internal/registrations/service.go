package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/panelevent/backend/internal/events"
	"github.com/panelevent/backend/internal/metrics"
	"github.com/panelevent/backend/internal/models"
	"github.com/panelevent/backend/internal/ratelimit"
)

// Reason is the machine-readable cause of a rejected registration.
type Reason string

const (
	ReasonInvalidInput Reason = "invalid_input"
	ReasonRateLimited  Reason = "rate_limited"
	ReasonNotFound     Reason = "not_found"
	ReasonNotPublic    Reason = "not_public"
	ReasonDuplicate    Reason = "duplicate"
	ReasonFull         Reason = "full"
)

// unknownClient is the limiter key used when the caller has no address.
const unknownClient = "unknown"

var (
	// ErrDuplicate is returned by Store.Insert when the email is already registered.
	ErrDuplicate = errors.New("already registered for this event")
	// ErrEventFull is returned by Store.Insert when the event has no seat left.
	ErrEventFull = errors.New("event is full")
	// ErrNotFound is returned when a registration lookup misses.
	ErrNotFound = errors.New("registration not found")
)

// RejectionError is a registration refused by one of the admission gates.
type RejectionError struct {
	Reason     Reason
	RetryAfter time.Duration // set for ReasonRateLimited
	Err        error
}

func (e *RejectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registration rejected (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("registration rejected (%s)", e.Reason)
}

func (e *RejectionError) Unwrap() error { return e.Err }

// Store is the registration persistence the admission controller needs.
type Store interface {
	CountPublic(ctx context.Context, eventID uuid.UUID) (int, error)
	ExistsByEventAndEmail(ctx context.Context, eventID uuid.UUID, email string) (bool, error)
	// Insert persists reg, re-checking capacity and uniqueness atomically. It returns
	// ErrDuplicate or ErrEventFull when those checks fail.
	Insert(ctx context.Context, reg *models.Registration, maxAttendees *int) error
}

// Notifier is told about every admitted registration.
type Notifier interface {
	RegistrationAdmitted(ctx context.Context, reg *models.Registration, e *models.Event) error
}

// Service admits or rejects public registrations.
type Service struct {
	events   events.Reader
	store    Store
	limiter  ratelimit.Limiter
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates the admission controller. notifier may be nil.
func NewService(eventReader events.Reader, store Store, limiter ratelimit.Limiter, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{events: eventReader, store: store, limiter: limiter, notifier: notifier, logger: logger}
}

// TryRegister runs the admission gates in order: shape, rate limit, existence, visibility,
// duplicate, capacity, insert. The first failing gate returns a *RejectionError; store
// failures are returned wrapped. Every request that passes the shape check counts against
// clientKey's quota, including requests rejected by later gates.
func (s *Service) TryRegister(ctx context.Context, req Request, clientKey string) (*models.Registration, error) {
	reg, err := s.admit(ctx, req, clientKey)
	var rej *RejectionError
	switch {
	case err == nil:
		metrics.ObserveRegistration("admitted")
	case errors.As(err, &rej):
		metrics.ObserveRegistration(string(rej.Reason))
		s.logger.Info("registration rejected",
			zap.String("event_id", req.EventID),
			zap.String("reason", string(rej.Reason)),
			zap.String("client_key", clientKey),
		)
	default:
		metrics.ObserveRegistration("error")
		s.logger.Error("registration failed", zap.String("event_id", req.EventID), zap.Error(err))
	}
	return reg, err
}

func (s *Service) admit(ctx context.Context, req Request, clientKey string) (*models.Registration, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, &RejectionError{Reason: ReasonInvalidInput, Err: err}
	}

	if clientKey == "" {
		clientKey = unknownClient
	}
	decision, err := s.limiter.Allow(ctx, clientKey)
	if err != nil {
		// Limiter outages do not block registration.
		s.logger.Warn("rate limiter unavailable", zap.String("client_key", clientKey), zap.Error(err))
	} else if !decision.Allowed {
		return nil, &RejectionError{Reason: ReasonRateLimited, RetryAfter: decision.RetryAfter}
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, &RejectionError{Reason: ReasonNotFound}
	}
	e, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			return nil, &RejectionError{Reason: ReasonNotFound}
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	if !e.IsPublic {
		return nil, &RejectionError{Reason: ReasonNotPublic}
	}

	exists, err := s.store.ExistsByEventAndEmail(ctx, eventID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		return nil, &RejectionError{Reason: ReasonDuplicate, Err: ErrDuplicate}
	}

	if e.MaxAttendees != nil {
		count, err := s.store.CountPublic(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("count registrations: %w", err)
		}
		if count >= *e.MaxAttendees {
			return nil, &RejectionError{Reason: ReasonFull, Err: ErrEventFull}
		}
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate checkin token: %w", err)
	}
	reg := &models.Registration{
		EventID:             eventID,
		Email:               req.Email,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Phone:               req.Phone,
		Company:             req.Company,
		Position:            req.Position,
		Experience:          req.Experience,
		Expectations:        req.Expectations,
		DietaryRestrictions: req.DietaryRestrictions,
		Consent:             true,
		Source:              models.RegistrationSourcePublic,
		CheckinToken:        token,
	}
	if err := s.store.Insert(ctx, reg, e.MaxAttendees); err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			return nil, &RejectionError{Reason: ReasonDuplicate, Err: err}
		case errors.Is(err, ErrEventFull):
			return nil, &RejectionError{Reason: ReasonFull, Err: err}
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	s.logger.Info("registration admitted",
		zap.String("event_id", eventID.String()),
		zap.String("registration_id", reg.ID.String()),
	)
	if s.notifier != nil {
		if err := s.notifier.RegistrationAdmitted(ctx, reg, e); err != nil {
			s.logger.Warn("registration notification failed", zap.String("registration_id", reg.ID.String()), zap.Error(err))
		}
	}
	return reg, nil
}
