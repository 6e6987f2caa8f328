// Package ai provides the regeneration provider boundary. The simulated
// provider stands in for a remote AI service: it waits a configurable delay
// and derives a replacement narrative from the first AI draft plus the
// supplied context.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vetreport-server/internal/domain"
)

// DefaultDelay approximates the latency of a remote AI call.
const DefaultDelay = 2500 * time.Millisecond

// regeneratedDiagnosisItem is the fixed statement the simulated provider
// appends to a regenerated diagnosis.
const regeneratedDiagnosisItem = "Sospecha de proceso inflamatorio crónico"

// regeneratedDiagnosisConfidence is the confidence the simulated provider
// reports for a regenerated diagnosis.
const regeneratedDiagnosisConfidence = 0.89

// SimulatedProvider is a timed placeholder for the AI regeneration service.
type SimulatedProvider struct {
	logger *logrus.Logger
	delay  time.Duration
}

// NewSimulatedProvider creates a simulated provider. A negative delay is
// treated as zero; zero means no artificial latency.
func NewSimulatedProvider(logger *logrus.Logger, delay time.Duration) *SimulatedProvider {
	if logger == nil {
		logger = logrus.New()
	}
	if delay < 0 {
		delay = 0
	}
	return &SimulatedProvider{logger: logger, delay: delay}
}

// Regenerate produces the replacement text after the configured delay. The
// call settles exactly once; cancelling the context settles it early with
// the context error.
func (p *SimulatedProvider) Regenerate(ctx context.Context, req domain.RegenerationRequest) (*domain.RegenerationResult, error) {
	p.logger.WithFields(logrus.Fields{
		"entity_kind": req.Kind,
		"entity_id":   req.EntityID,
		"image_refs":  len(req.ImageIDs),
	}).Info("Simulating AI regeneration")

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if req.Kind == domain.KindDiagnosis {
		confidence := regeneratedDiagnosisConfidence
		return &domain.RegenerationResult{
			Text:       req.CurrentText + "\n" + regeneratedDiagnosisItem,
			Confidence: &confidence,
		}, nil
	}

	text := req.BaseText + " [Regenerado por AI]"
	if req.ContextText != "" {
		text += fmt.Sprintf(" Considerando: %s...", truncate(req.ContextText, 50))
	}
	if len(req.ImageIDs) > 0 {
		text += fmt.Sprintf(" Analizadas %d imágenes adicionales.", len(req.ImageIDs))
	}
	return &domain.RegenerationResult{Text: text}, nil
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
