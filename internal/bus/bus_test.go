package bus

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/ayusman/mudra/internal/gesture"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestPublisher_Disabled(t *testing.T) {
	p, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Enabled() {
		t.Error("publisher without an address should be disabled")
	}
	if err := p.PublishEvent(gesture.Event{Command: gesture.CommandNext, At: t0}); err != nil {
		t.Errorf("disabled publish should succeed, got %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := p.Publish(TopicCommand, []byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestPublisher_DiagnosticsGate(t *testing.T) {
	p, _ := New(Config{}, nil)
	p.Close()

	// Disabled diagnostics never reach the socket, even a closed one.
	if err := p.PublishDiagnostics(t0, []string{"x"}); err != nil {
		t.Errorf("diagnostics off should be a no-op, got %v", err)
	}

	p, _ = New(Config{Diagnostics: true}, nil)
	p.Close()
	if err := p.PublishDiagnostics(t0, nil); err != nil {
		t.Errorf("empty diagnostics should be a no-op, got %v", err)
	}
	if err := p.PublishDiagnostics(t0, []string{"x"}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestPublisher_BadAddress(t *testing.T) {
	if _, err := New(Config{Address: "nonsense://here"}, nil); err == nil {
		t.Error("expected a bind error")
	}
}

func TestPublisher_Delivers(t *testing.T) {
	const addr = "inproc://mudra-bus-test"

	p, err := New(Config{Address: addr}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	sub, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		t.Fatalf("SUB socket: %v", err)
	}
	defer sub.Close()
	if err := sub.Connect(addr); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := sub.SetSubscribe(TopicCommand); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	sub.SetRcvtimeo(100 * time.Millisecond)

	ev := gesture.Event{Command: gesture.CommandHelp, At: t0, Source: gesture.SourceSequence, Detail: "right_temple,right_temple->help"}

	// PUB drops messages until the subscription propagates, so retry.
	var frames []string
	for i := 0; i < 50 && frames == nil; i++ {
		if err := p.PublishEvent(ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
		frames, _ = sub.RecvMessage(0)
	}
	if len(frames) != 2 {
		t.Fatalf("got frames %v, want topic and payload", frames)
	}
	if frames[0] != TopicCommand {
		t.Errorf("topic = %q", frames[0])
	}

	var msg struct {
		Type      string        `json:"type"`
		Timestamp float64       `json:"timestamp"`
		Data      gesture.Event `json:"data"`
	}
	if err := json.Unmarshal([]byte(frames[1]), &msg); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if msg.Type != MsgTypeCommand || msg.Data.Command != gesture.CommandHelp || msg.Data.Detail != ev.Detail {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.Timestamp != float64(t0.Unix()) {
		t.Errorf("timestamp = %v", msg.Timestamp)
	}
}

func TestPublisher_Status(t *testing.T) {
	const addr = "inproc://mudra-bus-status-test"

	p, err := New(Config{Address: addr}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	sub, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		t.Fatalf("SUB socket: %v", err)
	}
	defer sub.Close()
	if err := sub.Connect(addr); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := sub.SetSubscribe(TopicStatus); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	sub.SetRcvtimeo(100 * time.Millisecond)

	st := Status{Message: "Camera unavailable", Fault: true}

	var frames []string
	for i := 0; i < 50 && frames == nil; i++ {
		if err := p.PublishStatus(t0, st); err != nil {
			t.Fatalf("publish: %v", err)
		}
		frames, _ = sub.RecvMessage(0)
	}
	if len(frames) != 2 || frames[0] != TopicStatus {
		t.Fatalf("got frames %v", frames)
	}

	var msg struct {
		Type string `json:"type"`
		Data Status `json:"data"`
	}
	if err := json.Unmarshal([]byte(frames[1]), &msg); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if msg.Type != MsgTypeStatus || msg.Data != st {
		t.Errorf("unexpected message %+v", msg)
	}
}
