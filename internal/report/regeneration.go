package report

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/vetreport-server/internal/domain"
)

const (
	// DefaultBreakerMaxFailures is the consecutive provider failure count
	// after which regeneration requests are rejected without dispatch.
	DefaultBreakerMaxFailures = 3

	// DefaultBreakerCooldown is how long the breaker stays open before a
	// half-open probe is allowed through.
	DefaultBreakerCooldown = 30 * time.Second
)

// newProviderBreaker builds the circuit breaker guarding the AI provider.
func newProviderBreaker(opts Options) *gobreaker.CircuitBreaker {
	maxFailures := opts.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = DefaultBreakerMaxFailures
	}
	cooldown := opts.BreakerCooldown
	if cooldown == 0 {
		cooldown = DefaultBreakerCooldown
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "regeneration-provider",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})
}

// RegenerateFinding re-invokes the AI provider for the finding and applies
// the replacement text. Single-in-flight per finding: a second request while
// one is pending is rejected with a busy RegenerationError. The busy flag
// clears unconditionally when the provider call settles, success or failure,
// and the first AI draft in OriginalText is never altered.
func (s *Service) RegenerateFinding(ctx context.Context, id, contextText string, imageIDs []string) (domain.Report, error) {
	s.mu.Lock()
	f, ok := s.report.FindingByID(id)
	if !ok {
		s.mu.Unlock()
		return domain.Report{}, domain.NewNotFoundError(domain.KindFinding, id)
	}
	if err := s.markBusyLocked(id); err != nil {
		s.mu.Unlock()
		return domain.Report{}, err
	}
	req := domain.RegenerationRequest{
		EntityID:    id,
		Kind:        domain.KindFinding,
		Organ:       f.Organ,
		CurrentText: f.CurrentText,
		BaseText:    f.OriginalText,
		ContextText: contextText,
		ImageIDs:    append([]string(nil), imageIDs...),
	}
	s.mu.Unlock()

	s.emit(ctx, domain.Event{
		Action:     domain.ActionRegenerateStart,
		EntityKind: domain.KindFinding,
		EntityID:   id,
		Title:      "Regenerating finding",
		Message:    fmt.Sprintf("Requesting a new AI draft for %s.", f.Organ),
	})

	result, err := s.callProvider(ctx, req)

	s.mu.Lock()
	delete(s.busy, id)
	if err != nil {
		s.mu.Unlock()
		s.emitRegenerationFailure(ctx, domain.KindFinding, id, err)
		return s.Report(), domain.NewRegenerationError(id, err)
	}

	next := s.report.Clone()
	target := findingRef(&next, id)
	if target == nil {
		// Deleted while the request was in flight; the result is discarded.
		s.mu.Unlock()
		return s.Report(), domain.NewNotFoundError(domain.KindFinding, id)
	}
	target.CurrentText = result.Text
	target.IsEdited = false
	target.Status = domain.StatusPending
	if result.Confidence != nil {
		target.Confidence = *result.Confidence
	}
	target.RegenerationContext = &domain.RegenerationContext{
		TextContext: contextText,
		ImageIDs:    append([]string(nil), imageIDs...),
		Timestamp:   s.now(),
	}
	s.report = next
	snapshot := next.Clone()
	s.mu.Unlock()

	s.emit(ctx, domain.Event{
		Action:     domain.ActionRegenerateDone,
		EntityKind: domain.KindFinding,
		EntityID:   id,
		Title:      "Finding regenerated",
		Message:    fmt.Sprintf("A new AI draft is ready for %s.", f.Organ),
	})
	return snapshot, nil
}

// RegenerateDiagnosis re-invokes the AI provider for the diagnosis. The
// replacement text is parsed into discrete items with the same line rules as
// a manual edit. The original-items baseline is untouched.
func (s *Service) RegenerateDiagnosis(ctx context.Context, contextText string, imageIDs []string) (domain.Report, error) {
	s.mu.Lock()
	if err := s.markBusyLocked(domain.DiagnosisEntityID); err != nil {
		s.mu.Unlock()
		return domain.Report{}, err
	}
	req := domain.RegenerationRequest{
		EntityID:    domain.DiagnosisEntityID,
		Kind:        domain.KindDiagnosis,
		CurrentText: s.report.Diagnosis.Text(),
		BaseText:    s.report.Diagnosis.Text(),
		ContextText: contextText,
		ImageIDs:    append([]string(nil), imageIDs...),
	}
	s.mu.Unlock()

	s.emit(ctx, domain.Event{
		Action:     domain.ActionRegenerateStart,
		EntityKind: domain.KindDiagnosis,
		EntityID:   domain.DiagnosisEntityID,
		Title:      "Regenerating diagnosis",
		Message:    "Requesting a new AI diagnosis draft.",
	})

	result, err := s.callProvider(ctx, req)

	s.mu.Lock()
	delete(s.busy, domain.DiagnosisEntityID)
	if err != nil {
		s.mu.Unlock()
		s.emitRegenerationFailure(ctx, domain.KindDiagnosis, domain.DiagnosisEntityID, err)
		return s.Report(), domain.NewRegenerationError(domain.DiagnosisEntityID, err)
	}

	next := s.report.Clone()
	next.Diagnosis.Items = ParseDiagnosisItems(result.Text)
	next.Diagnosis.Status = domain.StatusPending
	if result.Confidence != nil {
		next.Diagnosis.Confidence = *result.Confidence
	}
	s.report = next
	snapshot := next.Clone()
	s.mu.Unlock()

	s.emit(ctx, domain.Event{
		Action:     domain.ActionRegenerateDone,
		EntityKind: domain.KindDiagnosis,
		EntityID:   domain.DiagnosisEntityID,
		Title:      "Diagnosis regenerated",
		Message:    "A new AI diagnosis draft is ready.",
	})
	return snapshot, nil
}

// markBusyLocked reserves the single regeneration slot for the entity and
// charges the dispatch rate limiter. Caller holds s.mu.
func (s *Service) markBusyLocked(entityID string) error {
	if s.busy[entityID] {
		return domain.NewBusyError(entityID)
	}
	if !s.limiter.Allow() {
		return &domain.RegenerationError{
			EntityID: entityID,
			Message:  "regeneration dispatch rate exceeded, retry shortly",
		}
	}
	s.busy[entityID] = true
	return nil
}

// callProvider dispatches the request through the circuit breaker.
func (s *Service) callProvider(ctx context.Context, req domain.RegenerationRequest) (*domain.RegenerationResult, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		result, err := s.provider.Regenerate(ctx, req)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, fmt.Errorf("provider returned no result")
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*domain.RegenerationResult), nil
}

// emitRegenerationFailure surfaces a provider failure as a recoverable,
// per-entity event. Prior text and status are untouched by the caller.
func (s *Service) emitRegenerationFailure(ctx context.Context, kind domain.EntityKind, entityID string, cause error) {
	s.logger.WithError(cause).WithFields(logrus.Fields{
		"entity_kind": kind,
		"entity_id":   entityID,
	}).Warn("Regeneration request failed")

	s.emit(ctx, domain.Event{
		Action:     domain.ActionRegenerateFail,
		EntityKind: kind,
		EntityID:   entityID,
		Title:      "Regeneration failed",
		Message:    "The AI provider did not complete the request. The previous text is unchanged.",
	})
}
