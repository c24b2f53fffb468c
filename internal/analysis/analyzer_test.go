package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battcli/internal/config"
	"battcli/internal/cycledata"
	apperrors "battcli/internal/errors"
	"battcli/internal/infrastructure"
)

// phaseRecorder is an analyzer that records phase order and can fail on demand
type phaseRecorder struct {
	calls  []Phase
	failAt Phase
	empty  bool
}

type fakeResults struct{ empty bool }

func (r fakeResults) Empty() bool { return r.empty }

func (p *phaseRecorder) Name() string { return "recorder" }

func (p *phaseRecorder) step(ph Phase) error {
	p.calls = append(p.calls, ph)
	if ph == p.failAt {
		return apperrors.NewParsingError("boom", nil)
	}
	return nil
}

func (p *phaseRecorder) Prepare(context.Context) error     { return p.step(PhasePrepare) }
func (p *phaseRecorder) Analyze(context.Context) error     { return p.step(PhaseAnalyze) }
func (p *phaseRecorder) Postprocess(context.Context) error { return p.step(PhasePostprocess) }
func (p *phaseRecorder) Results() Results                  { return fakeResults{empty: p.empty} }

func TestRun(t *testing.T) {
	tests := []struct {
		name      string
		failAt    Phase
		wantCalls []Phase
	}{
		{name: "all phases", wantCalls: []Phase{PhasePrepare, PhaseAnalyze, PhasePostprocess}},
		{name: "prepare fails", failAt: PhasePrepare, wantCalls: []Phase{PhasePrepare}},
		{name: "analyze fails", failAt: PhaseAnalyze, wantCalls: []Phase{PhasePrepare, PhaseAnalyze}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &phaseRecorder{failAt: tt.failAt}
			report, err := Run(context.Background(), a)
			require.NotNil(t, report)

			assert.Equal(t, tt.wantCalls, a.calls)
			assert.Equal(t, "recorder", report.Analyzer)
			assert.NotEmpty(t, report.ID)
			assert.NotEmpty(t, report.TraceID)
			assert.Len(t, report.PhaseTimes, len(tt.wantCalls))

			if tt.failAt == "" {
				require.NoError(t, err)
				assert.Equal(t, RunStatusCompleted, report.Status)
				assert.Empty(t, report.FailedIn)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
			assert.Contains(t, err.Error(), string(tt.failAt))
			assert.Equal(t, RunStatusFailed, report.Status)
			assert.Equal(t, tt.failAt, report.FailedIn)
		})
	}
}

func TestRunKeepsTraceID(t *testing.T) {
	ctx := infrastructure.WithTraceID(context.Background(), "trace-123")
	report, err := Run(ctx, &phaseRecorder{})
	require.NoError(t, err)
	assert.Equal(t, "trace-123", report.TraceID)

	other, err := Run(context.Background(), &phaseRecorder{})
	require.NoError(t, err)
	assert.NotEqual(t, report.ID, other.ID)
}

func TestBaseChecks(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		b := newBase("x", nil, nil)
		assert.True(t, apperrors.IsType(b.validateConfig(), apperrors.ErrTypeConfig))
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := config.DefaultAnalysis()
		b := newBase("x", &cfg, nil)
		err := b.prepareContainer(containerOf(1, 10))
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig), "manifest mode without a file")
	})

	t.Run("empty container", func(t *testing.T) {
		b := newBase("x", directConfig(t, ""), nil)
		err := b.prepareContainer(cycledata.NewContainer(nil))
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyContainer))
		assert.True(t, apperrors.IsType(b.prepareContainer(nil), apperrors.ErrTypeEmptyContainer))
	})

	t.Run("empty results", func(t *testing.T) {
		b := newBase("x", directConfig(t, ""), nil)
		err := b.checkResults(fakeResults{empty: true})
		require.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyResult))
		assert.Contains(t, err.Error(), "x analysis produced no results")
		assert.True(t, apperrors.IsType(b.checkResults(nil), apperrors.ErrTypeEmptyResult))
		assert.NoError(t, b.checkResults(fakeResults{}))
	})

	t.Run("basis", func(t *testing.T) {
		auto, err := config.NewBuilder().WithPaths("p").WithAutoCapacity(0.5).Build()
		require.NoError(t, err)

		tests := []struct {
			name string
			base base
			want float64
		}{
			{"auto without a resolved capacity", newBase("x", auto, nil), config.DefaultCapacityMAh},
			{"auto with a resolved capacity", newBase("x", auto, []Option{WithCapacity(4.5)}), 4.5},
			{"manual ignores the resolved capacity", newBase("x", directConfig(t, ""), []Option{WithCapacity(4.5)}), 10},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, tt.base.basis())
			})
		}
	})
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewReliability(directConfig(t, ""), containerOf(1, 10, 9))
	report, err := Run(ctx, a)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, PhaseAnalyze, report.FailedIn)
}
