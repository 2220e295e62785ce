package program

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/panelevent/backend/internal/metrics"
)

// timestampLayout matches JavaScript's Date.toISOString, the format of existing blobs.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Store persists the raw program blob of an event. A nil blob means "no program".
type Store interface {
	GetProgramBlob(ctx context.Context, eventID uuid.UUID) ([]byte, error)
	SetProgramBlob(ctx context.Context, eventID uuid.UUID, blob []byte) error
}

// SaveInput is the body of a program write. ProgramItems may be in either shape.
type SaveInput struct {
	HasProgram   bool            `json:"hasProgram"`
	ProgramItems json.RawMessage `json:"programItems"`
}

// Service reads and writes event programs.
type Service struct {
	store   Store
	locales Locales
	now     func() time.Time
	logger  *zap.Logger
}

// NewService creates a program service. Empty locales fall back to DefaultLocales.
func NewService(store Store, locales Locales, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(locales) == 0 {
		locales = DefaultLocales
	}
	return &Service{store: store, locales: locales, now: time.Now, logger: logger}
}

// SetClock replaces the time source used for updatedAt.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Locales returns the configured locale set.
func (s *Service) Locales() Locales {
	return s.locales
}

// Load returns the event's program for display. Unreadable blobs are logged and read as
// "no program"; only store errors are returned.
func (s *Service) Load(ctx context.Context, eventID uuid.UUID) (Data, error) {
	blob, err := s.store.GetProgramBlob(ctx, eventID)
	if err != nil {
		return Data{}, err
	}
	data, format, err := s.locales.normalize(blob)
	if err != nil {
		s.logger.Warn("unreadable program blob", zap.String("event_id", eventID.String()), zap.Error(err))
		return data, nil
	}
	if format == FormatLegacy && data.HasProgram {
		s.logger.Debug("program read from legacy shape", zap.String("event_id", eventID.String()))
	}
	return data, nil
}

// LoadProjected returns the event's program resolved to lang.
func (s *Service) LoadProjected(ctx context.Context, eventID uuid.UUID, lang Language) (Projection, error) {
	data, err := s.Load(ctx, eventID)
	if err != nil {
		return Projection{}, err
	}
	return Project(data, lang), nil
}

// Save validates and persists a program. Any invalid item rejects the whole write.
// With no items and HasProgram false, the stored program is cleared to NULL.
func (s *Service) Save(ctx context.Context, eventID uuid.UUID, in SaveInput) (Data, error) {
	items, _, err := s.locales.DecodeItems(in.ProgramItems)
	if err != nil {
		metrics.ObserveProgramWrite("invalid")
		return Data{}, &ValidationError{Reason: ReasonMalformed}
	}
	if err := Validate(items); err != nil {
		metrics.ObserveProgramWrite("invalid")
		return Data{}, err
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = ItemID(uuid.NewString())
		}
	}

	data := Data{
		HasProgram: len(items) > 0 || in.HasProgram,
		UpdatedAt:  s.now().UTC().Format(timestampLayout),
	}
	if data.HasProgram {
		data.ProgramItems = items
		if data.ProgramItems == nil {
			data.ProgramItems = []Item{}
		}
	}
	var blob []byte
	if data.HasProgram {
		blob, err = json.Marshal(data)
		if err != nil {
			return Data{}, fmt.Errorf("encode program: %w", err)
		}
	}
	if err := s.store.SetProgramBlob(ctx, eventID, blob); err != nil {
		metrics.ObserveProgramWrite("error")
		return Data{}, fmt.Errorf("store program: %w", err)
	}
	metrics.ObserveProgramWrite("ok")
	s.logger.Info("program saved",
		zap.String("event_id", eventID.String()),
		zap.Bool("has_program", data.HasProgram),
		zap.Int("items", len(items)),
	)
	return data, nil
}
