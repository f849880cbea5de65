package services

import (
	"sort"
	"strings"

	"eventboard-api/models"
)

// TypeFilter is the single-select event type control of the discovery view.
type TypeFilter string

const (
	TypeAll      TypeFilter = "All"
	TypeInPerson TypeFilter = TypeFilter(models.EventTypeInPerson)
	TypeRemote   TypeFilter = TypeFilter(models.EventTypeRemote)
)

// ParseTypeFilter accepts All, InPerson or Remote in any case. An empty
// string means All.
func ParseTypeFilter(s string) (TypeFilter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return TypeAll, true
	case "inperson":
		return TypeInPerson, true
	case "remote":
		return TypeRemote, true
	default:
		return "", false
	}
}

// FilterState is the discovery filter selection. An empty Focus set means
// no focus filter, not "match nothing".
type FilterState struct {
	Type  TypeFilter      `json:"type"`
	Focus models.FocusSet `json:"focus"`
}

// DefaultFilterState is the preset shown before the user touches any control.
func DefaultFilterState() FilterState {
	return FilterState{
		Type:  TypeAll,
		Focus: models.NewFocusSet(models.FocusTrans, models.FocusNonbinary, models.FocusLGBT),
	}
}

func (s FilterState) WithType(t TypeFilter) FilterState {
	s.Type = t
	return s
}

// ToggleFocus adds tag to the focus set, or removes it when already present.
func (s FilterState) ToggleFocus(tag models.FocusTag) FilterState {
	s.Focus = s.Focus.Toggle(tag)
	return s
}

// FilterEvents derives the visible list: sorted ascending by date with ties
// kept in input order, then narrowed by type and by focus intersection. It
// never modifies events.
func FilterEvents(events []models.CommunityEvent, state FilterState) []models.CommunityEvent {
	sorted := make([]models.CommunityEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make([]models.CommunityEvent, 0, len(sorted))
	for _, e := range sorted {
		if state.Type != "" && state.Type != TypeAll && string(e.Type) != string(state.Type) {
			continue
		}
		if len(state.Focus) > 0 && !e.CommunityFocus.Intersects(state.Focus) {
			continue
		}
		out = append(out, e)
	}
	return out
}
