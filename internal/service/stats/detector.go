// Package stats watches externally supplied user-statistic snapshots and
// synthesizes notifications for positive deltas.
package stats

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/major-app/notify-engine/internal/model"
)

// Notifier is the slice of the builder the detector needs.
type Notifier interface {
	Add(ctx context.Context, draft model.Draft) *model.Notification
}

// Detector keeps the last observed snapshot as a baseline. The very first
// observation is silent; later ones emit one notification per stat that
// strictly increased. The externalId folds in the new value, so observing
// the same snapshot twice cannot emit twice even across a baseline reset.
type Detector struct {
	mu       sync.Mutex
	baseline model.StatsSnapshot
	ready    bool

	notifier Notifier
	logger   zerolog.Logger
}

func NewDetector(notifier Notifier, logger zerolog.Logger) *Detector {
	return &Detector{
		notifier: notifier,
		logger:   logger.With().Str("component", "stats_detector").Logger(),
	}
}

// Observe compares the snapshot against the baseline and advances the
// baseline regardless of whether anything was emitted. Decreases (a reset
// streak) emit nothing.
func (d *Detector) Observe(ctx context.Context, snapshot model.StatsSnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ready {
		d.baseline = snapshot
		d.ready = true
		d.logger.Debug().Msg("stats baseline established")
		return
	}

	prev := d.baseline
	d.baseline = snapshot

	if snapshot.Streak != nil && increased(prev.Streak, *snapshot.Streak) {
		streak := *snapshot.Streak
		d.notifier.Add(ctx, model.Draft{
			Type:       string(model.TypeStreak),
			Title:      "🔥 Daily streak updated",
			Message:    fmt.Sprintf("You're on a %d-day streak! Keep it going.", streak),
			ExternalID: fmt.Sprintf("streak-%d", streak),
		})
	}

	if snapshot.Points != nil && increased(prev.Points, *snapshot.Points) {
		points := *snapshot.Points
		earned := points
		if prev.Points != nil {
			earned = points - *prev.Points
		}
		d.notifier.Add(ctx, model.Draft{
			Type:       string(model.TypePoints),
			Title:      "⭐ Points earned",
			Message:    fmt.Sprintf("You just earned %d points. Total: %d.", earned, points),
			ExternalID: fmt.Sprintf("points-%d", points),
		})
	}
}

// Reset drops the baseline; the next observation is silent again. Called on
// session unbind so one user's stats never seed another's baseline.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.baseline = model.StatsSnapshot{}
	d.ready = false
}

func increased(prev *int, current int) bool {
	return prev == nil || current > *prev
}
