// Package bonus holds the list of tracked bonuses in memory and writes it
// back to a store after every change.
package bonus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bonustrack-dev/bonustrack/internal/id"
	"github.com/bonustrack-dev/bonustrack/internal/model"
	"github.com/bonustrack-dev/bonustrack/internal/progress"
	"github.com/bonustrack-dev/bonustrack/internal/store"
)

var (
	ErrNotFound    = errors.New("bonus not found")
	ErrAmbiguousID = errors.New("ambiguous bonus id")
	ErrDuplicateID = errors.New("duplicate bonus id")
	ErrInvalid     = errors.New("invalid bonus")
	// ErrCompleted is returned when depositing into a completed bonus.
	ErrCompleted = errors.New("bonus already completed")
)

// Service is the in-memory state holder over a store.Store.
type Service struct {
	mu      sync.RWMutex
	store   store.Store
	logger  *slog.Logger
	now     func() time.Time
	bonuses []model.Bonus
}

// NewService creates a Service. Call Load before reading.
func NewService(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger, now: time.Now, bonuses: []model.Bonus{}}
}

// WithClock replaces the clock used for new start and deposit dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Load replaces the in-memory list with the store's. Records that break
// business rules are kept, since the engine tolerates them, but each
// problem is logged as a data error.
func (s *Service) Load(ctx context.Context) error {
	bonuses, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading bonuses: %w", err)
	}
	for _, b := range bonuses {
		for _, verr := range model.Validate(b) {
			s.logger.Warn("data error", "bonus", b.ID, "field", verr.Field, "problem", verr.Problem)
		}
	}

	s.mu.Lock()
	s.bonuses = bonuses
	s.mu.Unlock()

	s.logger.Debug("loaded bonuses", "count", len(bonuses))
	return nil
}

// All returns copies of every bonus in insertion order.
func (s *Service) All() []model.Bonus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Bonus, len(s.bonuses))
	for i, b := range s.bonuses {
		out[i] = b.Clone()
	}
	return out
}

// Len returns the number of bonuses.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bonuses)
}

// Get returns the bonus whose ID equals ref or uniquely starts with it.
func (s *Service) Get(ref string) (model.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, err := s.indexOf(ref)
	if err != nil {
		return model.Bonus{}, err
	}
	return s.bonuses[i].Clone(), nil
}

// Add stores a new bonus. An empty ID is filled with a fresh one and a zero
// StartDate with the current time.
func (s *Service) Add(ctx context.Context, b model.Bonus) (model.Bonus, error) {
	b = b.Clone()
	b.BankName = strings.TrimSpace(b.BankName)
	if b.ID == "" {
		b.ID = id.New()
	}
	if b.StartDate.IsZero() {
		b.StartDate = s.now()
	}
	if err := validate(b); err != nil {
		return model.Bonus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bonuses {
		if existing.ID == b.ID {
			return model.Bonus{}, fmt.Errorf("%w: %s", ErrDuplicateID, b.ID)
		}
	}
	s.bonuses = append(s.bonuses, b)
	if err := s.persist(ctx, "add", b.ID); err != nil {
		return b.Clone(), err
	}
	return b.Clone(), nil
}

// Update replaces the bonus with the same ID.
func (s *Service) Update(ctx context.Context, b model.Bonus) (model.Bonus, error) {
	b = b.Clone()
	if err := validate(b); err != nil {
		return model.Bonus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.bonuses, func(existing model.Bonus) bool { return existing.ID == b.ID })
	if i < 0 {
		return model.Bonus{}, fmt.Errorf("%w: %s", ErrNotFound, b.ID)
	}
	s.bonuses[i] = b
	if err := s.persist(ctx, "update", b.ID); err != nil {
		return b.Clone(), err
	}
	return b.Clone(), nil
}

// Delete removes a bonus and returns it.
func (s *Service) Delete(ctx context.Context, ref string) (model.Bonus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(ref)
	if err != nil {
		return model.Bonus{}, err
	}
	removed := s.bonuses[i]
	s.bonuses = slices.Delete(s.bonuses, i, i+1)
	if err := s.persist(ctx, "delete", removed.ID); err != nil {
		return removed, err
	}
	return removed, nil
}

// AddDeposit appends a deposit. A zero deposit date is set to now. Completed
// bonuses take no further deposits.
func (s *Service) AddDeposit(ctx context.Context, ref string, d model.Deposit) (model.Bonus, error) {
	if d.Date.IsZero() {
		d.Date = s.now()
	}
	d, err := model.NewDeposit(d.Amount, d.Date)
	if err != nil {
		return model.Bonus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(ref)
	if err != nil {
		return model.Bonus{}, err
	}
	if progress.IsCompleted(s.bonuses[i]) {
		return model.Bonus{}, fmt.Errorf("%w: %s", ErrCompleted, s.bonuses[i].ID)
	}
	s.bonuses[i] = s.bonuses[i].WithDeposit(d)
	updated := s.bonuses[i].Clone()
	if err := s.persist(ctx, "deposit", updated.ID); err != nil {
		return updated, err
	}
	return updated, nil
}

// indexOf must be called with mu held.
func (s *Service) indexOf(ref string) (int, error) {
	ids := make([]string, len(s.bonuses))
	for i, b := range s.bonuses {
		ids[i] = b.ID
	}
	match, err := id.Resolve(ref, ids)
	switch {
	case errors.Is(err, id.ErrNoMatch):
		return -1, fmt.Errorf("%w: %q", ErrNotFound, ref)
	case errors.Is(err, id.ErrAmbiguous):
		return -1, fmt.Errorf("%w: %v", ErrAmbiguousID, err)
	case err != nil:
		return -1, err
	}
	return slices.Index(ids, match), nil
}

// persist must be called with mu held. The in-memory change stays even when
// the write fails; the caller decides whether to surface the error.
func (s *Service) persist(ctx context.Context, action, bonusID string) error {
	if err := s.store.Save(ctx, s.bonuses); err != nil {
		s.logger.Error("saving bonuses failed", "action", action, "bonus", bonusID, "error", err)
		return fmt.Errorf("saving bonuses: %w", err)
	}
	s.logger.Debug("saved bonuses", "action", action, "bonus", bonusID, "count", len(s.bonuses))
	return nil
}

func validate(b model.Bonus) error {
	verrs := model.Validate(b)
	if len(verrs) == 0 {
		return nil
	}
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
