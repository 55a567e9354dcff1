package app

import (
	"errors"

	"github.com/ayusman/mudra/internal/bus"
	"github.com/ayusman/mudra/internal/gallery"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// Sink receives recognized commands. Deliver runs on the pipeline
// goroutine and must not block.
type Sink interface {
	Deliver(ev gesture.Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev gesture.Event)

// Deliver calls f(ev).
func (f SinkFunc) Deliver(ev gesture.Event) { f(ev) }

// StatusListener hears when the pipeline health message changes. An empty
// message means the camera and tracker recovered.
type StatusListener interface {
	StatusChanged(msg string)
}

// StatusFunc adapts a function to StatusListener.
type StatusFunc func(msg string)

// StatusChanged calls f(msg).
func (f StatusFunc) StatusChanged(msg string) { f(msg) }

type gallerySink struct {
	view   *gallery.View
	logger log.Logger
}

func (s gallerySink) Deliver(ev gesture.Event) {
	s.view.Apply(ev)
	if err := s.view.SaveErr(); err != nil {
		s.logger.Warnf("save gallery position: %v", err)
	}
}

type busSink struct {
	pub    *bus.Publisher
	logger log.Logger
}

func (s busSink) Deliver(ev gesture.Event) {
	if err := s.pub.PublishEvent(ev); err != nil && !errors.Is(err, bus.ErrClosed) {
		s.logger.Warnf("publish %s: %v", ev.Command, err)
	}
}

type historySink struct {
	repo   *store.HistoryRepository
	logger log.Logger
}

func (s historySink) Deliver(ev gesture.Event) {
	err := s.repo.Append(&store.HistoryEntry{
		Command: ev.Command.String(),
		Source:  ev.Source,
		Detail:  ev.Detail,
		At:      ev.At,
	})
	if err != nil {
		s.logger.Warnf("record %s: %v", ev.Command, err)
	}
}

// pluginSink queues the plugin actions bound to each command.
type pluginSink struct {
	bindings *store.BindingRepository
	runner   *plugin.Runner
	logger   log.Logger
}

func (s pluginSink) Deliver(ev gesture.Event) {
	bindings, err := s.bindings.ForCommand(ev.Command.String())
	if err != nil {
		s.logger.Warnf("bindings for %s: %v", ev.Command, err)
		return
	}
	for _, b := range bindings {
		job := plugin.Job{
			Plugin: b.PluginName,
			Request: plugin.Request{
				Action:  b.ActionName,
				Command: ev.Command.String(),
				Source:  ev.Source,
				Config:  b.Config,
			},
		}
		if err := s.runner.Submit(job); err != nil {
			s.logger.Warnf("queue %s/%s for %s: %v", b.PluginName, b.ActionName, ev.Command, err)
		}
	}
}
