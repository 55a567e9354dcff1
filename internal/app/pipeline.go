package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/bus"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/overlay"
)

// runPipeline samples the camera until ctx is cancelled.
//
// Every tick reads a frame, updates the motion-driven sample rate, runs
// landmark detection and feeds the observation to the recognizer. The
// recognizer runs on every tick, idle or active, so its timers (sequence
// timeout, exit window) keep advancing while the operator stands still.
func (a *App) runPipeline(ctx context.Context, done chan struct{}) {
	defer close(done)

	fps := a.activity.FPS()
	ticker := time.NewTicker(interval(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				a.setFault(fmt.Sprintf("Camera unavailable: %v", err), a.now())
				continue
			}
			a.processFrame(frame, a.now())
			frame.Close()

			if next := a.activity.FPS(); next != fps {
				fps = next
				ticker.Reset(interval(fps))
			}

			if a.gallery.Closed() {
				a.logger.Infof("exit confirmed")
				a.RequestQuit()
				return
			}
		}
	}
}

func interval(fps int) time.Duration {
	if fps <= 0 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}

// processFrame runs one recognition tick on frame and returns the result.
// frame is annotated in place when annotation is enabled.
func (a *App) processFrame(frame *gocv.Mat, now time.Time) gesture.Result {
	motion, _ := a.motion.Detect(frame)
	if fps, changed := a.activity.Observe(motion, now); changed {
		a.camera.SetFPS(fps)
		a.logger.Debugf("sample rate now %d fps", fps)
	}

	obs, err := a.detector.Detect(frame)
	if err != nil {
		// Treated as a tick without hands so timers keep running.
		a.setFault(fmt.Sprintf("Landmark tracking failed: %v", err), now)
		obs = detector.Observation{}
	} else {
		a.setFault("", now)
	}
	obs.Timestamp = now

	a.recMu.Lock()
	res := a.recognizer.Process(obs)
	a.recMu.Unlock()

	a.gallery.SetExitDeadline(res.Snapshot.ExitDeadline)

	a.mu.Lock()
	a.active = a.activity.Active()
	a.snapshot = res.Snapshot
	a.diagnostics = res.Diagnostics
	a.mu.Unlock()

	if res.Event != nil {
		a.dispatch(*res.Event)
	}
	if err := a.bus.PublishDiagnostics(now, res.Diagnostics); err != nil {
		a.logger.Debugf("publish diagnostics: %v", err)
	}

	if a.cfg.Pipeline.Annotate {
		opts := overlay.DefaultOptions()
		opts.Diagnostics = res.Snapshot.Debug
		overlay.Draw(frame, obs, res.Snapshot, res.Diagnostics, opts)
	}
	if err := a.frames.Encode(*frame); err != nil {
		a.logger.Debugf("encode frame: %v", err)
	}
	return res
}

// setFault records the pipeline health message and reports changes to the
// log, the bus and every status listener.
func (a *App) setFault(msg string, now time.Time) {
	a.mu.Lock()
	if a.fault == msg {
		a.mu.Unlock()
		return
	}
	a.fault = msg
	a.mu.Unlock()

	if msg != "" {
		a.logger.Warnf("%s", msg)
	} else {
		a.logger.Infof("camera and landmark tracking recovered")
	}
	if err := a.bus.PublishStatus(now, bus.Status{Message: msg, Fault: msg != ""}); err != nil && !errors.Is(err, bus.ErrClosed) {
		a.logger.Debugf("publish status: %v", err)
	}

	a.sinksMu.RLock()
	listeners := append([]StatusListener(nil), a.listeners...)
	a.sinksMu.RUnlock()
	for _, l := range listeners {
		l.StatusChanged(msg)
	}
}

// dispatch hands ev to every sink in registration order.
func (a *App) dispatch(ev gesture.Event) {
	a.logger.Infof("command %s from %s %s", ev.Command, ev.Source, ev.Detail)

	a.mu.Lock()
	a.lastEvent = &ev
	a.mu.Unlock()

	a.sinksMu.RLock()
	sinks := append([]Sink(nil), a.sinks...)
	a.sinksMu.RUnlock()

	for _, s := range sinks {
		s.Deliver(ev)
	}
}
