package stats

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/major-app/notify-engine/internal/model"
)

type captureNotifier struct {
	drafts []model.Draft
}

func (c *captureNotifier) Add(_ context.Context, draft model.Draft) *model.Notification {
	c.drafts = append(c.drafts, draft)
	return &model.Notification{}
}

func intp(v int) *int { return &v }

func TestFirstObservationIsSilent(t *testing.T) {
	sink := &captureNotifier{}
	d := NewDetector(sink, zerolog.Nop())

	d.Observe(context.Background(), model.StatsSnapshot{Streak: intp(30), Points: intp(9000)})
	assert.Empty(t, sink.drafts)
}

func TestPointsIncreaseEmitsOnce(t *testing.T) {
	sink := &captureNotifier{}
	d := NewDetector(sink, zerolog.Nop())
	ctx := context.Background()

	d.Observe(ctx, model.StatsSnapshot{Points: intp(100)})
	d.Observe(ctx, model.StatsSnapshot{Points: intp(150)})

	require.Len(t, sink.drafts, 1)
	draft := sink.drafts[0]
	assert.Equal(t, "points", draft.Type)
	assert.Equal(t, "points-150", draft.ExternalID)
	assert.Equal(t, "⭐ Points earned", draft.Title)
	assert.Equal(t, "You just earned 50 points. Total: 150.", draft.Message)

	// Re-observing the same snapshot emits nothing.
	d.Observe(ctx, model.StatsSnapshot{Points: intp(150)})
	assert.Len(t, sink.drafts, 1)

	// A decrease emits nothing.
	d.Observe(ctx, model.StatsSnapshot{Points: intp(100)})
	assert.Len(t, sink.drafts, 1)
}

func TestStreakIncreaseEmits(t *testing.T) {
	sink := &captureNotifier{}
	d := NewDetector(sink, zerolog.Nop())
	ctx := context.Background()

	d.Observe(ctx, model.StatsSnapshot{Streak: intp(6)})
	d.Observe(ctx, model.StatsSnapshot{Streak: intp(7)})

	require.Len(t, sink.drafts, 1)
	draft := sink.drafts[0]
	assert.Equal(t, "streak", draft.Type)
	assert.Equal(t, "streak-7", draft.ExternalID)
	assert.Equal(t, "🔥 Daily streak updated", draft.Title)
	assert.Equal(t, "You're on a 7-day streak! Keep it going.", draft.Message)
}

func TestStreakResetEmitsNothing(t *testing.T) {
	sink := &captureNotifier{}
	d := NewDetector(sink, zerolog.Nop())
	ctx := context.Background()

	d.Observe(ctx, model.StatsSnapshot{Streak: intp(14)})
	d.Observe(ctx, model.StatsSnapshot{Streak: intp(1)})
	assert.Empty(t, sink.drafts)

	// Baseline advanced to 1, so climbing back up emits again.
	d.Observe(ctx, model.StatsSnapshot{Streak: intp(2)})
	assert.Len(t, sink.drafts, 1)
}

func TestIndependentStatsEmitIndependently(t *testing.T) {
	sink := &captureNotifier{}
	d := NewDetector(sink, zerolog.Nop())
	ctx := context.Background()

	d.Observe(ctx, model.StatsSnapshot{Streak: intp(3), Points: intp(100)})
	d.Observe(ctx, model.StatsSnapshot{Streak: intp(4), Points: intp(150)})

	require.Len(t, sink.drafts, 2)
	assert.Equal(t, "streak-4", sink.drafts[0].ExternalID)
	assert.Equal(t, "points-150", sink.drafts[1].ExternalID)
}

func TestNilStatAppearingEmitsAgainstNoBaseline(t *testing.T) {
	sink := &captureNotifier{}
	d := NewDetector(sink, zerolog.Nop())
	ctx := context.Background()

	// Baseline without points; points appearing later counts as an increase.
	d.Observe(ctx, model.StatsSnapshot{Streak: intp(3)})
	d.Observe(ctx, model.StatsSnapshot{Streak: intp(3), Points: intp(25)})

	require.Len(t, sink.drafts, 1)
	assert.Equal(t, "points-25", sink.drafts[0].ExternalID)
	assert.Equal(t, "You just earned 25 points. Total: 25.", sink.drafts[0].Message)
}

func TestResetRequiresNewBaseline(t *testing.T) {
	sink := &captureNotifier{}
	d := NewDetector(sink, zerolog.Nop())
	ctx := context.Background()

	d.Observe(ctx, model.StatsSnapshot{Points: intp(100)})
	d.Reset()

	// First observation after a reset is silent again.
	d.Observe(ctx, model.StatsSnapshot{Points: intp(500)})
	assert.Empty(t, sink.drafts)

	d.Observe(ctx, model.StatsSnapshot{Points: intp(600)})
	assert.Len(t, sink.drafts, 1)
}
