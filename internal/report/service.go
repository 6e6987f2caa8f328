// Package report owns the in-memory report document and defines the legal
// mutations over it: accept, edit, add, delete and regenerate, for both the
// diagnosis and each finding. Every mutation produces a new snapshot; callers
// never observe partial updates.
package report

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/vetreport-server/internal/domain"
)

// Options configures a report service.
type Options struct {
	Provider domain.RegenerationProvider
	Notifier domain.Notifier
	Journal  domain.Journal
	Logger   *logrus.Logger

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time

	// DispatchPerMinute caps regeneration dispatches across all entities.
	// Zero disables the limit.
	DispatchPerMinute int

	// BreakerMaxFailures is the consecutive provider failure count that
	// trips the circuit breaker. Zero uses DefaultBreakerMaxFailures.
	BreakerMaxFailures uint32

	// BreakerCooldown is how long the breaker stays open before probing the
	// provider again. Zero uses DefaultBreakerCooldown.
	BreakerCooldown time.Duration
}

// Service is the report state machine. All mutations are serialized; the
// only operation with real latency is regeneration, which holds no lock
// while the provider call is in flight.
type Service struct {
	logger   *logrus.Logger
	provider domain.RegenerationProvider
	notifier domain.Notifier
	journal  domain.Journal
	now      func() time.Time

	mu     sync.Mutex
	report domain.Report
	busy   map[string]bool

	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewService creates a report service seeded with the given snapshot.
func NewService(seed domain.Report, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.DispatchPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.DispatchPerMinute)/60.0), opts.DispatchPerMinute)
	}

	return &Service{
		logger:   logger,
		provider: opts.Provider,
		notifier: opts.Notifier,
		journal:  opts.Journal,
		now:      now,
		report:   seed.Clone(),
		busy:     make(map[string]bool),
		breaker:  newProviderBreaker(opts),
		limiter:  limiter,
	}
}

// Report returns the current snapshot.
func (s *Service) Report() domain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report.Clone()
}

// IsBusy reports whether a regeneration is in flight for the entity.
func (s *Service) IsBusy(entityID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[entityID]
}

// AcceptFinding marks the finding as validated by the veterinarian. Text,
// original baseline and confidence are untouched.
func (s *Service) AcceptFinding(ctx context.Context, id, user string) (domain.Report, error) {
	s.mu.Lock()
	if _, ok := s.report.FindingByID(id); !ok {
		s.mu.Unlock()
		return domain.Report{}, domain.NewNotFoundError(domain.KindFinding, id)
	}
	if s.busy[id] {
		s.mu.Unlock()
		return domain.Report{}, domain.NewBusyError(id)
	}

	next := s.report.Clone()
	f := findingRef(&next, id)
	f.Status = domain.StatusAccepted
	s.report = next
	snapshot := next.Clone()
	s.mu.Unlock()

	s.emit(ctx, domain.Event{
		Action:     domain.ActionAccept,
		EntityKind: domain.KindFinding,
		EntityID:   id,
		Actor:      user,
		Title:      "Finding validated",
		Message:    "The finding has been marked as validated by the veterinarian.",
	})
	return snapshot, nil
}

// EditFinding replaces the finding's current text. Editing back to the exact
// original text reverts IsEdited to false while Status stays whatever it was;
// the edited/accepted history is not erased by a no-op edit.
func (s *Service) EditFinding(ctx context.Context, id, newText, user string) (domain.Report, error) {
	s.mu.Lock()
	prev, ok := s.report.FindingByID(id)
	if !ok {
		s.mu.Unlock()
		return domain.Report{}, domain.NewNotFoundError(domain.KindFinding, id)
	}
	if s.busy[id] {
		s.mu.Unlock()
		return domain.Report{}, domain.NewBusyError(id)
	}

	changed := newText != prev.OriginalText

	next := s.report.Clone()
	f := findingRef(&next, id)
	f.CurrentText = newText
	f.IsEdited = changed
	if changed {
		f.Status = domain.StatusEdited
		f.EditedBy = user
		f.EditedAt = s.now()
	}
	s.report = next
	snapshot := next.Clone()
	s.mu.Unlock()

	if changed {
		s.emit(ctx, domain.Event{
			Action:     domain.ActionEdit,
			EntityKind: domain.KindFinding,
			EntityID:   id,
			Actor:      user,
			Title:      "Changes saved",
			Message:    "The finding has been updated.",
		})
	}
	return snapshot, nil
}

// AddFindingInput is the caller-supplied data for a manually authored
// finding. A non-empty LinkImageID flags image-linkage intent and must
// resolve to an existing study image.
type AddFindingInput struct {
	Organ       string `json:"organ"`
	Text        string `json:"text"`
	LinkImageID string `json:"link_image_id,omitempty"`
}

// AddFinding appends a manually authored finding. Manual findings bypass the
// pending state: status is forced to accepted, confidence to 1.0, and the
// original text equals the current text at creation.
func (s *Service) AddFinding(ctx context.Context, input AddFindingInput, user string) (domain.Report, error) {
	organ := strings.TrimSpace(input.Organ)
	text := strings.TrimSpace(input.Text)
	if organ == "" {
		return domain.Report{}, domain.NewValidationError("organ", "organ is required")
	}
	if text == "" {
		return domain.Report{}, domain.NewValidationError("text", "description text is required")
	}

	s.mu.Lock()
	if input.LinkImageID != "" {
		if _, ok := s.report.ImageByID(input.LinkImageID); !ok {
			s.mu.Unlock()
			return domain.Report{}, domain.NewValidationError("link_image_id",
				fmt.Sprintf("image '%s' does not exist", input.LinkImageID))
		}
	}

	finding := domain.Finding{
		ID:            "finding-" + uuid.NewString(),
		Organ:         organ,
		Confidence:    1.0,
		OriginalText:  text,
		CurrentText:   text,
		IsEdited:      false,
		Status:        domain.StatusAccepted,
		LinkedImageID: input.LinkImageID,
	}

	next := s.report.Clone()
	next.Findings = append(next.Findings, finding)
	s.report = next
	snapshot := next.Clone()
	s.mu.Unlock()

	s.emit(ctx, domain.Event{
		Action:     domain.ActionAdd,
		EntityKind: domain.KindFinding,
		EntityID:   finding.ID,
		Actor:      user,
		Title:      "Finding added",
		Message:    fmt.Sprintf("Added the finding for %s.", organ),
	})
	return snapshot, nil
}

// DeleteFinding removes the finding with the given id. Irreversible; no undo
// state is retained. A regeneration in flight for the finding is allowed to
// settle against the missing id and is discarded there.
func (s *Service) DeleteFinding(ctx context.Context, id, user string) (domain.Report, error) {
	s.mu.Lock()
	idx := -1
	for i, f := range s.report.Findings {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return domain.Report{}, domain.NewNotFoundError(domain.KindFinding, id)
	}

	next := s.report.Clone()
	next.Findings = append(next.Findings[:idx], next.Findings[idx+1:]...)
	s.report = next
	snapshot := next.Clone()
	s.mu.Unlock()

	s.emit(ctx, domain.Event{
		Action:     domain.ActionDelete,
		EntityKind: domain.KindFinding,
		EntityID:   id,
		Actor:      user,
		Title:      "Finding deleted",
		Message:    "The finding has been removed from the report.",
	})
	return snapshot, nil
}

// AcceptDiagnosis marks the diagnosis as validated.
func (s *Service) AcceptDiagnosis(ctx context.Context, user string) (domain.Report, error) {
	s.mu.Lock()
	if s.busy[domain.DiagnosisEntityID] {
		s.mu.Unlock()
		return domain.Report{}, domain.NewBusyError(domain.DiagnosisEntityID)
	}

	next := s.report.Clone()
	next.Diagnosis.Status = domain.StatusAccepted
	s.report = next
	snapshot := next.Clone()
	s.mu.Unlock()

	s.emit(ctx, domain.Event{
		Action:     domain.ActionAccept,
		EntityKind: domain.KindDiagnosis,
		EntityID:   domain.DiagnosisEntityID,
		Actor:      user,
		Title:      "Diagnosis validated",
		Message:    "The diagnosis has been marked as validated.",
	})
	return snapshot, nil
}

// EditDiagnosis replaces the diagnosis items with the parsed lines of the
// given free-form text. The pre-edit items are captured as the original
// baseline only the first time an edit occurs.
func (s *Service) EditDiagnosis(ctx context.Context, text, user string) (domain.Report, error) {
	s.mu.Lock()
	if s.busy[domain.DiagnosisEntityID] {
		s.mu.Unlock()
		return domain.Report{}, domain.NewBusyError(domain.DiagnosisEntityID)
	}

	next := s.report.Clone()
	d := &next.Diagnosis
	if d.OriginalItems == nil {
		d.OriginalItems = append([]string(nil), d.Items...)
	}
	d.Items = ParseDiagnosisItems(text)
	d.Status = domain.StatusEdited
	d.EditedBy = user
	d.EditedAt = s.now()
	s.report = next
	snapshot := next.Clone()
	s.mu.Unlock()

	s.emit(ctx, domain.Event{
		Action:     domain.ActionEdit,
		EntityKind: domain.KindDiagnosis,
		EntityID:   domain.DiagnosisEntityID,
		Actor:      user,
		Title:      "Diagnosis updated",
		Message:    "The changes have been saved.",
	})
	return snapshot, nil
}

// ParseDiagnosisItems splits free-form multi-line text into an ordered list
// of discrete statements: one per line, leading bullet markers and
// surrounding whitespace stripped, blank lines dropped.
func ParseDiagnosisItems(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for _, marker := range []string{"•", "-", "*"} {
			if strings.HasPrefix(line, marker) {
				line = strings.TrimSpace(strings.TrimPrefix(line, marker))
				break
			}
		}
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// findingRef returns a pointer into the snapshot's finding list. The caller
// must hold the mutation lock and own the snapshot.
func findingRef(r *domain.Report, id string) *domain.Finding {
	for i := range r.Findings {
		if r.Findings[i].ID == id {
			return &r.Findings[i]
		}
	}
	return nil
}

// emit forwards a mutation event to the notifier and the audit journal.
// Delivery is fire-and-forget; journal failures are logged, never surfaced.
func (s *Service) emit(ctx context.Context, event domain.Event) {
	event.Timestamp = s.now()

	if s.journal != nil {
		if err := s.journal.Record(ctx, event); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"action":    event.Action,
				"entity_id": event.EntityID,
			}).Warn("Failed to record audit event")
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(event)
	}
}
