package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	stages  []Stage
	patches []Patch
}

func (r *recordingSink) OnProgress(stage Stage) { r.stages = append(r.stages, stage) }
func (r *recordingSink) OnDisplay(patch Patch)  { r.patches = append(r.patches, patch) }

func TestTrackerHappyPathIsMonotonic(t *testing.T) {
	tracker := NewTracker()
	sink := &recordingSink{}
	tracker.Subscribe(sink)

	path := []Stage{StageForm, StageGeneratingURL, StageRedirecting, StageDepositing, StageQuerying, StageSigning, StageWithdrawing, StageDone}
	for _, stage := range path {
		require.NoError(t, tracker.Advance(stage, Patch{}))
	}

	assert.Equal(t, path, sink.stages)
	for i := 1; i < len(sink.stages); i++ {
		assert.GreaterOrEqual(t, sink.stages[i], sink.stages[i-1])
	}
}

func TestTrackerRejectsBackwardMove(t *testing.T) {
	tracker := NewTracker()
	require.NoError(t, tracker.Advance(StageSigning, Patch{}))

	err := tracker.Advance(StageDepositing, Patch{})
	assert.Error(t, err)
	assert.Equal(t, StageSigning, tracker.Stage())
}

func TestTrackerNoEventsAfterTerminal(t *testing.T) {
	for _, terminal := range []Stage{StageDone, StageError} {
		tracker := NewTracker()
		sink := &recordingSink{}
		tracker.Subscribe(sink)
		tracker.SubscribeDisplay(sink)

		require.NoError(t, tracker.Advance(terminal, Patch{}))
		seen := len(sink.stages)

		assert.Error(t, tracker.Advance(StageWithdrawing, Patch{}))
		assert.Error(t, tracker.Advance(StageError, Patch{}))
		assert.Len(t, sink.stages, seen)
		assert.Len(t, sink.patches, seen)
	}
}

func TestTrackerErrorJumpFromAnyStage(t *testing.T) {
	tracker := NewTracker()
	require.NoError(t, tracker.Advance(StageQuerying, Patch{}))
	require.NoError(t, tracker.Fail("Could not find a bridge route: insufficient liquidity"))

	assert.Equal(t, StageError, tracker.Stage())
	assert.Equal(t, "Could not find a bridge route: insufficient liquidity", tracker.Display().Err)
}

func TestTrackerResetOnlyFromTerminal(t *testing.T) {
	tracker := NewTracker()
	require.NoError(t, tracker.Advance(StageDepositing, Patch{}))

	tracker.Reset()
	assert.Equal(t, StageDepositing, tracker.Stage(), "reset must not interrupt an active withdrawal")

	require.NoError(t, tracker.Fail("boom"))
	tracker.Reset()
	assert.Equal(t, StageForm, tracker.Stage())
	assert.Equal(t, Display{}, tracker.Display())
}

func TestApplyLaterNonNilFieldsWin(t *testing.T) {
	d := Apply(Display{}, Patch{Message: Str("first"), AmountIn: Str("100")})
	d = Apply(d, Patch{Message: Str("second"), AmountOut: Str("99.5")})

	assert.Equal(t, "second", d.Message)
	assert.Equal(t, "100", d.AmountIn)
	assert.Equal(t, "99.5", d.AmountOut)
	assert.Empty(t, d.Err)
}

func TestApplyNilFieldsLeaveValues(t *testing.T) {
	d := Display{Message: "keep", AmountIn: "1"}
	assert.Equal(t, d, Apply(d, Patch{}))
}

func TestStageStrings(t *testing.T) {
	assert.Equal(t, "redirecting_provider", StageRedirecting.String())
	assert.Equal(t, "generating_url", StageGeneratingURL.String())
	assert.True(t, StageDone.Terminal())
	assert.True(t, StageError.Terminal())
	assert.False(t, StageWithdrawing.Terminal())
}
