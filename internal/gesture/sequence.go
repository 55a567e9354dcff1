package gesture

import (
	"time"
)

// Touch is one accepted contact in a sequence.
type Touch struct {
	Zone Zone      `json:"zone"`
	At   time.Time `json:"at"`
}

// SequenceEngine accumulates touches and matches them against the command
// table after every append.
//
// A held touch is reported by the classifier on many consecutive ticks; only
// the first tick of a contact counts. Ticks that see the same zone again
// within MinDwell of the last sighting continue the same contact. The contact
// tracker survives sequence clears so a touch held through a firing cannot
// fire again.
type SequenceEngine struct {
	cfg   SequenceConfig
	table *Table

	touches   []Touch
	startedAt time.Time

	contact     Zone
	contactSeen time.Time
}

// NewSequenceEngine creates an engine matching against table.
func NewSequenceEngine(cfg SequenceConfig, table *Table) *SequenceEngine {
	return &SequenceEngine{cfg: cfg, table: table}
}

// Observe feeds one tick. touched reports whether zone was hit this tick.
// It returns the matched rule when a command completes.
func (s *SequenceEngine) Observe(zone Zone, touched bool, now time.Time, zoomArmed bool) (Rule, bool) {
	s.expire(now)

	if !touched {
		return Rule{}, false
	}

	continuing := zone == s.contact && !s.contactSeen.IsZero() && now.Sub(s.contactSeen) < s.cfg.MinDwell
	s.contact = zone
	s.contactSeen = now
	if continuing {
		return Rule{}, false
	}

	if n := len(s.touches); n > 0 && s.touches[n-1].Zone == zone {
		gap := now.Sub(s.touches[n-1].At)
		switch {
		case gap < s.cfg.MinDwell:
			return Rule{}, false
		case gap > s.cfg.RepeatWindow:
			s.Reset()
		}
	}

	if len(s.touches) == 0 {
		s.startedAt = now
	}
	s.touches = append(s.touches, Touch{Zone: zone, At: now})

	return s.match(zoomArmed)
}

// expire clears a pending sequence once the last touch is older than Timeout.
// The clear is silent.
func (s *SequenceEngine) expire(now time.Time) {
	if len(s.touches) == 0 {
		return
	}
	last := s.touches[len(s.touches)-1].At
	if s.contactSeen.After(last) {
		last = s.contactSeen
	}
	if now.Sub(last) > s.cfg.Timeout {
		s.Reset()
	}
}

// match checks the table, trimming the oldest touches while the sequence
// cannot grow into any rule.
func (s *SequenceEngine) match(zoomArmed bool) (Rule, bool) {
	for len(s.touches) > 0 {
		zones := s.Zones()
		if rule, ok := s.table.Match(zones, zoomArmed); ok {
			s.Reset()
			return rule, true
		}
		if s.table.IsPrefix(zones, zoomArmed) {
			return Rule{}, false
		}
		s.touches = s.touches[1:]
		s.startedAt = time.Time{}
		if len(s.touches) > 0 {
			s.startedAt = s.touches[0].At
		}
	}
	return Rule{}, false
}

// Reset clears the pending sequence. Contact tracking is kept.
func (s *SequenceEngine) Reset() {
	s.touches = nil
	s.startedAt = time.Time{}
}

// Zones returns the pending zones in order.
func (s *SequenceEngine) Zones() []Zone {
	zones := make([]Zone, len(s.touches))
	for i, t := range s.touches {
		zones[i] = t.Zone
	}
	return zones
}

// Pending returns a copy of the pending touches.
func (s *SequenceEngine) Pending() []Touch {
	out := make([]Touch, len(s.touches))
	copy(out, s.touches)
	return out
}

// StartedAt returns when the pending sequence began, or zero when empty.
func (s *SequenceEngine) StartedAt() time.Time {
	return s.startedAt
}
