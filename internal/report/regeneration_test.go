package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetreport-server/internal/domain"
)

func TestRegenerateFinding_AppliesDraft(t *testing.T) {
	confidence := 0.75
	provider := &fakeProvider{
		result: &domain.RegenerationResult{
			Text:       "Parénquima homogéneo. [Regenerado por AI]",
			Confidence: &confidence,
		},
	}
	svc, notifier := newTestService(t, provider)

	// Edit first so the regeneration visibly resets the edited state.
	_, err := svc.EditFinding(context.Background(), "finding-1", "Texto manual.", "Dr. Cardozo")
	require.NoError(t, err)

	snapshot, err := svc.RegenerateFinding(context.Background(), "finding-1", "evaluar bordes", []string{"img-1"})
	require.NoError(t, err)

	f, _ := snapshot.FindingByID("finding-1")
	assert.Equal(t, "Parénquima homogéneo. [Regenerado por AI]", f.CurrentText)
	assert.Equal(t, "Parénquima homogéneo.", f.OriginalText, "first draft baseline survives regeneration")
	assert.False(t, f.IsEdited)
	assert.Equal(t, domain.StatusPending, f.Status)
	assert.Equal(t, 0.75, f.Confidence)
	require.NotNil(t, f.RegenerationContext)
	assert.Equal(t, "evaluar bordes", f.RegenerationContext.TextContext)
	assert.Equal(t, []string{"img-1"}, f.RegenerationContext.ImageIDs)

	assert.Equal(t, []domain.EventAction{
		domain.ActionEdit,
		domain.ActionRegenerateStart,
		domain.ActionRegenerateDone,
	}, notifier.actions())
	assert.False(t, svc.IsBusy("finding-1"))
}

func TestRegenerateFinding_NotFound(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{})

	_, err := svc.RegenerateFinding(context.Background(), "nonexistent", "", nil)

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestRegenerateFinding_BusyRejectsSecondRequest(t *testing.T) {
	provider := &fakeProvider{release: make(chan struct{})}
	svc, _ := newTestService(t, provider)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.RegenerateFinding(context.Background(), "finding-1", "", nil)
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		return svc.IsBusy("finding-1")
	}, time.Second, 5*time.Millisecond)

	_, err := svc.RegenerateFinding(context.Background(), "finding-1", "", nil)
	var regen *domain.RegenerationError
	require.ErrorAs(t, err, &regen)
	assert.True(t, regen.Busy)

	close(provider.release)
	wg.Wait()

	assert.False(t, svc.IsBusy("finding-1"))
	assert.Equal(t, 1, provider.callCount())
}

func TestRegenerateFinding_OtherFindingNotBlocked(t *testing.T) {
	provider := &fakeProvider{release: make(chan struct{})}
	svc, _ := newTestService(t, provider)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = svc.RegenerateFinding(context.Background(), "finding-1", "", nil)
	}()

	require.Eventually(t, func() bool {
		return svc.IsBusy("finding-1")
	}, time.Second, 5*time.Millisecond)

	// Busy is tracked per entity, so the sibling finding stays editable.
	assert.False(t, svc.IsBusy("finding-2"))
	_, err := svc.AcceptFinding(context.Background(), "finding-2", "Dr. Cardozo")
	assert.NoError(t, err)

	close(provider.release)
	wg.Wait()
}

func TestRegenerateFinding_FailureLeavesSnapshotUntouched(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model unavailable")}
	svc, notifier := newTestService(t, provider)
	before := svc.Report()

	_, err := svc.RegenerateFinding(context.Background(), "finding-1", "", nil)

	var regen *domain.RegenerationError
	require.ErrorAs(t, err, &regen)
	assert.False(t, regen.Busy)
	assert.Equal(t, before, svc.Report(), "failed regeneration must not mutate the report")
	assert.False(t, svc.IsBusy("finding-1"), "busy flag clears on failure")
	assert.Equal(t, []domain.EventAction{
		domain.ActionRegenerateStart,
		domain.ActionRegenerateFail,
	}, notifier.actions())
}

func TestRegenerateFinding_RetryAfterFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model unavailable")}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.RegenerateFinding(ctx, "finding-1", "", nil)
	require.Error(t, err)

	provider.mu.Lock()
	provider.err = nil
	provider.mu.Unlock()

	snapshot, err := svc.RegenerateFinding(ctx, "finding-1", "", nil)
	require.NoError(t, err)
	f, _ := snapshot.FindingByID("finding-1")
	assert.Equal(t, "Parénquima homogéneo. [Regenerado por AI]", f.CurrentText)
}

func TestRegenerateFinding_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model unavailable")}
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	svc := NewService(testSeed(), Options{
		Provider:           provider,
		Logger:             logger,
		BreakerMaxFailures: 2,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.RegenerateFinding(ctx, "finding-1", "", nil)
		require.Error(t, err)
	}

	// Breaker is open now; the provider must not be dispatched again.
	_, err := svc.RegenerateFinding(ctx, "finding-1", "", nil)
	require.Error(t, err)
	assert.Equal(t, 2, provider.callCount())
	assert.False(t, svc.IsBusy("finding-1"))
}

func TestRegenerateFinding_DispatchRateLimit(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	svc := NewService(testSeed(), Options{
		Provider:          &fakeProvider{},
		Logger:            logger,
		DispatchPerMinute: 1,
	})
	ctx := context.Background()

	_, err := svc.RegenerateFinding(ctx, "finding-1", "", nil)
	require.NoError(t, err)

	_, err = svc.RegenerateFinding(ctx, "finding-1", "", nil)
	var regen *domain.RegenerationError
	require.ErrorAs(t, err, &regen)
	assert.Contains(t, regen.Message, "rate")
	assert.False(t, svc.IsBusy("finding-1"))
}

func TestRegenerateFinding_DeletedWhileInFlight(t *testing.T) {
	provider := &fakeProvider{release: make(chan struct{})}
	svc, _ := newTestService(t, provider)
	ctx := context.Background()

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.RegenerateFinding(ctx, "finding-1", "", nil)
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		return svc.IsBusy("finding-1")
	}, time.Second, 5*time.Millisecond)

	_, err := svc.DeleteFinding(ctx, "finding-1", "Dr. Cardozo")
	require.NoError(t, err)

	close(provider.release)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, <-errCh, &notFound)

	// The stale draft is discarded, not resurrected.
	_, ok := svc.Report().FindingByID("finding-1")
	assert.False(t, ok)
	assert.False(t, svc.IsBusy("finding-1"))
}

func TestRegenerateDiagnosis_AppliesDraft(t *testing.T) {
	confidence := 0.89
	provider := &fakeProvider{
		result: &domain.RegenerationResult{
			Text:       "Nódulos esplénicos múltiples\nSospecha de proceso inflamatorio crónico",
			Confidence: &confidence,
		},
	}
	svc, notifier := newTestService(t, provider)

	snapshot, err := svc.RegenerateDiagnosis(context.Background(), "", nil)
	require.NoError(t, err)

	d := snapshot.Diagnosis
	assert.Equal(t, []string{
		"Nódulos esplénicos múltiples",
		"Sospecha de proceso inflamatorio crónico",
	}, d.Items)
	assert.Equal(t, domain.StatusPending, d.Status)
	assert.Equal(t, 0.89, d.Confidence)
	assert.Equal(t, []domain.EventAction{
		domain.ActionRegenerateStart,
		domain.ActionRegenerateDone,
	}, notifier.actions())
	assert.False(t, svc.IsBusy(domain.DiagnosisEntityID))
}

func TestRegenerateDiagnosis_FailurePreservesItems(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model unavailable")}
	svc, _ := newTestService(t, provider)
	before := svc.Report()

	_, err := svc.RegenerateDiagnosis(context.Background(), "", nil)

	var regen *domain.RegenerationError
	require.ErrorAs(t, err, &regen)
	assert.Equal(t, before.Diagnosis, svc.Report().Diagnosis)
	assert.False(t, svc.IsBusy(domain.DiagnosisEntityID))
}
