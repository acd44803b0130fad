package srv

import (
	"context"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/jypelle/nashat/internal/srv/metric"
	"github.com/sirupsen/logrus"
	"image"
	"time"
)

type panel interface {
	ShowImage(img image.Image) error
}

type composer func(snapshot *metric.Snapshot, view renderView) image.Image

// renderScheduler redraws the panel only when the visible content changed. It
// belongs to the render loop.
type renderScheduler struct {
	state   *config.ServerState
	panel   panel
	dimmer  *dimmer
	compose composer

	staleAfter      time.Duration
	clearErrorAfter int

	cache     renderCache
	successes int
}

// tick runs one render cycle and reports whether a frame was sent.
func (r *renderScheduler) tick(now time.Time) (bool, error) {
	if err := r.dimmer.Check(now); err != nil {
		logrus.WithError(err).Warn("Unable to dim backlight")
	}

	snapshot := r.state.Snapshot()
	if snapshot == nil {
		return false, nil
	}

	stale := snapshot.Age(now) > r.staleAfter
	if stale {
		if !r.state.ErrorFlag() {
			logrus.Warnf("Metrics are stale (%v old)", snapshot.Age(now).Truncate(time.Second))
		}
		r.state.RaiseError()
		r.successes = 0
	}

	view := renderView{
		DisplayMode: r.state.DisplayMode(),
		FanMode:     r.state.FanMode(),
		Error:       r.state.ErrorFlag(),
		Now:         now,
	}
	if !r.cache.hasSignificantChange(snapshot, view) {
		return false, nil
	}
	if view.Error && !r.cache.errorFlag {
		// raised elsewhere since the last frame
		r.successes = 0
	}

	if err := r.panel.ShowImage(r.compose(snapshot, view)); err != nil {
		r.state.RaiseError()
		r.successes = 0
		return false, err
	}
	r.cache.update(snapshot, view)

	if stale {
		return true, nil
	}
	r.successes++
	if r.successes >= r.clearErrorAfter && r.state.ErrorFlag() {
		logrus.Infof("Clear error indicator after %d successful renders", r.successes)
		r.state.ClearError()
	}
	return true, nil
}

func (s *ServerApp) renderLoop(ctx context.Context) {
	ticker := time.NewTicker(s.Render.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.render.tick(now); err != nil {
				logrus.WithError(err).WithField("loop", "render").Error("Unable to refresh display")
			}
		}
	}
}
