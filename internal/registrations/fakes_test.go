package registrations

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/panelevent/backend/internal/events"
	"github.com/panelevent/backend/internal/models"
	"github.com/panelevent/backend/internal/ratelimit"
)

type fakeEvents struct {
	mu     sync.Mutex
	events map[uuid.UUID]*models.Event
	calls  int
}

func newFakeEvents(evs ...*models.Event) *fakeEvents {
	f := &fakeEvents{events: map[uuid.UUID]*models.Event{}}
	for _, e := range evs {
		f.events[e.ID] = e
	}
	return f
}

func (f *fakeEvents) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	e, ok := f.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

type fakeStore struct {
	mu        sync.Mutex
	regs      []models.Registration
	calls     int
	inserts   int
	insertErr error
}

func (f *fakeStore) CountPublic(_ context.Context, eventID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.countLocked(eventID), nil
}

func (f *fakeStore) countLocked(eventID uuid.UUID) int {
	n := 0
	for _, r := range f.regs {
		if r.EventID == eventID && r.Source == models.RegistrationSourcePublic {
			n++
		}
	}
	return n
}

func (f *fakeStore) ExistsByEventAndEmail(_ context.Context, eventID uuid.UUID, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.existsLocked(eventID, email), nil
}

func (f *fakeStore) existsLocked(eventID uuid.UUID, email string) bool {
	for _, r := range f.regs {
		if r.EventID == eventID && strings.EqualFold(r.Email, email) {
			return true
		}
	}
	return false
}

func (f *fakeStore) Insert(_ context.Context, reg *models.Registration, maxAttendees *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.insertErr != nil {
		return f.insertErr
	}
	if maxAttendees != nil && f.countLocked(reg.EventID) >= *maxAttendees {
		return ErrEventFull
	}
	if f.existsLocked(reg.EventID, reg.Email) {
		return ErrDuplicate
	}
	f.inserts++
	reg.ID = uuid.New()
	f.regs = append(f.regs, *reg)
	return nil
}

func (f *fakeStore) GetByCheckinToken(_ context.Context, token string) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.regs {
		if f.regs[i].CheckinToken == token {
			cp := f.regs[i]
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) MarkAttended(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.regs {
		if f.regs[i].ID == id {
			if f.regs[i].AttendedAt == nil {
				now := f.regs[i].CreatedAt
				f.regs[i].AttendedAt = &now
			}
			cp := f.regs[i]
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ListByEvent(_ context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Registration{}
	for _, r := range f.regs {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) CountByEvent(_ context.Context, eventID uuid.UUID) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total, attended := 0, 0
	for _, r := range f.regs {
		if r.EventID == eventID {
			total++
			if r.AttendedAt != nil {
				attended++
			}
		}
	}
	return total, attended, nil
}

type errLimiter struct{}

func (errLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis: connection refused")
}

type recordingNotifier struct {
	mu   sync.Mutex
	regs []models.Registration
	err  error
}

func (n *recordingNotifier) RegistrationAdmitted(_ context.Context, reg *models.Registration, _ *models.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.regs = append(n.regs, *reg)
	return n.err
}

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }

func validRequest(eventID uuid.UUID, email string) Request {
	return Request{
		EventID:   eventID.String(),
		Email:     email,
		FirstName: "Awa",
		LastName:  "Ndiaye",
		Consent:   boolPtr(true),
	}
}
