package gesture

import (
	"sort"
	"strings"
)

// Rule maps an ordered list of zones to a command.
type Rule struct {
	Zones   []Zone
	Command Command
	// RequiresZoom restricts the rule to armed zoom mode.
	RequiresZoom bool
}

func (r Rule) String() string {
	names := make([]string, len(r.Zones))
	for i, z := range r.Zones {
		names[i] = z.String()
	}
	return strings.Join(names, ",") + "->" + r.Command.String()
}

// Table is the static command table. Rules are kept ordered by length and
// then by declaration order.
type Table struct {
	rules []Rule
}

// NewTable builds a table from rules. Empty rules are dropped.
func NewTable(rules []Rule) *Table {
	kept := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if len(r.Zones) > 0 {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return len(kept[i].Zones) < len(kept[j].Zones)
	})
	return &Table{rules: kept}
}

// DefaultTable returns the gallery's gesture vocabulary.
func DefaultTable() *Table {
	return NewTable([]Rule{
		{Zones: []Zone{ZoneRightKnee}, Command: CommandNext},
		{Zones: []Zone{ZoneLeftKnee}, Command: CommandPrevious},
		{Zones: []Zone{ZoneOppositeIndexTip}, Command: CommandIncrease, RequiresZoom: true},
		{Zones: []Zone{ZoneOppositePinkyTip}, Command: CommandDecrease, RequiresZoom: true},
		{Zones: []Zone{ZoneRightTemple, ZoneRightTemple}, Command: CommandHelp},
		{Zones: []Zone{ZoneLeftPalm, ZoneLeftWrist}, Command: CommandToggleFullscreen},
		{Zones: []Zone{ZoneLeftPalm, ZoneLeftElbow}, Command: CommandToggleDebug},
	})
}

// Rules returns a copy of the rules in match order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Match returns the rule whose zones equal seq exactly.
func (t *Table) Match(seq []Zone, zoomArmed bool) (Rule, bool) {
	for _, r := range t.rules {
		if r.RequiresZoom && !zoomArmed {
			continue
		}
		if len(r.Zones) == len(seq) && hasPrefix(r.Zones, seq) {
			return r, true
		}
	}
	return Rule{}, false
}

// IsPrefix reports whether seq could still grow into some eligible rule.
func (t *Table) IsPrefix(seq []Zone, zoomArmed bool) bool {
	for _, r := range t.rules {
		if r.RequiresZoom && !zoomArmed {
			continue
		}
		if hasPrefix(r.Zones, seq) {
			return true
		}
	}
	return false
}

func hasPrefix(zones, prefix []Zone) bool {
	if len(prefix) > len(zones) {
		return false
	}
	for i := range prefix {
		if zones[i] != prefix[i] {
			return false
		}
	}
	return true
}
