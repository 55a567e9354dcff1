// Package bus publishes recognized commands and diagnostics on a ZeroMQ
// PUB socket so other processes can react to gestures.
package bus

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
)

// Topics. Subscribers filter on these prefixes.
const (
	TopicCommand    = "gesture.command"
	TopicDiagnostic = "gesture.diagnostic"
	TopicStatus     = "gesture.status"
)

// Message types carried in the envelope.
const (
	MsgTypeCommand    = "COMMAND"
	MsgTypeDiagnostic = "DIAGNOSTIC"
	MsgTypeStatus     = "STATUS"
)

// ErrClosed is returned when publishing on a closed publisher.
var ErrClosed = errors.New("bus publisher is closed")

// Config controls the publisher.
type Config struct {
	// Address is the endpoint the PUB socket binds, for example
	// "tcp://*:5557". Empty disables publishing.
	Address string `yaml:"address" json:"address"`
	// Diagnostics also publishes the per-tick diagnostic lines.
	Diagnostics bool `yaml:"diagnostics" json:"diagnostics"`
}

// Message is the JSON envelope of every published frame.
type Message struct {
	Type      string      `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Publisher sends topic-prefixed multipart messages.
type Publisher struct {
	cfg    Config
	socket *zmq4.Socket
	logger log.Logger
	closed bool
	mu     sync.Mutex
}

// New binds a PUB socket on cfg.Address. With an empty address the
// publisher accepts messages and drops them.
func New(cfg Config, logger log.Logger) (*Publisher, error) {
	if logger == nil {
		logger = log.Discard()
	}
	p := &Publisher{cfg: cfg, logger: logger.WithField("component", "bus")}
	if cfg.Address == "" {
		return p, nil
	}

	socket, err := zmq4.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.Bind(cfg.Address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", cfg.Address, err)
	}

	p.socket = socket
	p.logger.Infof("publishing gestures on %s", cfg.Address)
	return p, nil
}

// Enabled reports whether messages leave the process.
func (p *Publisher) Enabled() bool {
	return p.socket != nil
}

// Publish sends the topic frame followed by the payload frame.
func (p *Publisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.socket == nil {
		return nil
	}

	if _, err := p.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := p.socket.SendBytes(payload, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// PublishJSON wraps data in a Message and publishes it.
func (p *Publisher) PublishJSON(topic, msgType string, at time.Time, data interface{}) error {
	payload, err := json.Marshal(Message{
		Type:      msgType,
		Timestamp: float64(at.UnixNano()) / 1e9,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return p.Publish(topic, payload)
}

// PublishEvent publishes a recognized command.
func (p *Publisher) PublishEvent(ev gesture.Event) error {
	return p.PublishJSON(TopicCommand, MsgTypeCommand, ev.At, ev)
}

// PublishDiagnostics publishes the diagnostic lines of one tick when
// enabled in the config.
func (p *Publisher) PublishDiagnostics(at time.Time, lines []string) error {
	if !p.cfg.Diagnostics || len(lines) == 0 {
		return nil
	}
	return p.PublishJSON(TopicDiagnostic, MsgTypeDiagnostic, at, lines)
}

// Status reports the health of the capture pipeline. An empty Message
// means frames and landmarks are flowing again.
type Status struct {
	Message string `json:"message"`
	Fault   bool   `json:"fault"`
}

// PublishStatus publishes a pipeline health change.
func (p *Publisher) PublishStatus(at time.Time, st Status) error {
	return p.PublishJSON(TopicStatus, MsgTypeStatus, at, st)
}

// Close releases the socket. Further publishing returns ErrClosed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.socket == nil {
		return nil
	}
	err := p.socket.Close()
	p.socket = nil
	return err
}
