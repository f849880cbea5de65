package repositories

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"eventboard-api/models"

	"github.com/google/uuid"
)

// Document field names accepted by Where and Update.
const (
	FieldStatus         = "status"
	FieldType           = "type"
	FieldSubmittedBy    = "submittedBy"
	FieldTitle          = "title"
	FieldDescription    = "description"
	FieldDate           = "date"
	FieldTime           = "time"
	FieldLocation       = "location"
	FieldEventLink      = "eventLink"
	FieldImageData      = "imageData"
	FieldCommunityFocus = "communityFocus"
)

var filterColumns = map[string]string{
	FieldStatus:      "status",
	FieldType:        "type",
	FieldSubmittedBy: "submitted_by",
}

var updateColumns = map[string]string{
	FieldStatus:         "status",
	FieldTitle:          "title",
	FieldDescription:    "description",
	FieldDate:           "date",
	FieldTime:           "time",
	FieldLocation:       "location",
	FieldEventLink:      "event_link",
	FieldImageData:      "image_data",
	FieldType:           "type",
	FieldCommunityFocus: "community_focus",
}

// Filter selects the documents whose Field equals Value.
type Filter struct {
	Field string
	Value string
}

func Where(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

func (f Filter) String() string {
	return fmt.Sprintf("%s == %q", f.Field, f.Value)
}

func (f Filter) validate() error {
	if _, ok := filterColumns[f.Field]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidField, f.Field)
	}
	return nil
}

func (f Filter) matches(e models.CommunityEvent) bool {
	switch f.Field {
	case FieldStatus:
		return string(e.Status) == f.Value
	case FieldType:
		return string(e.Type) == f.Value
	case FieldSubmittedBy:
		return e.SubmittedBy == f.Value
	default:
		return false
	}
}

// Fields is a partial update keyed by document field name.
type Fields map[string]any

// Snapshot is the full current result set of a subscription, never a diff.
// When Err is set the read failed and Events is empty; consumers keep their
// last good snapshot.
type Snapshot struct {
	Events []models.CommunityEvent
	Err    error
	ReadAt time.Time
}

// EventStore is the shared document collection of events.
type EventStore interface {
	// Subscribe opens a live view of the documents matching f. The first
	// snapshot is delivered immediately; a new one follows every change.
	Subscribe(ctx context.Context, f Filter) (*Subscription, error)
	// Insert assigns the ID and server timestamp and returns the ID.
	Insert(ctx context.Context, e models.CommunityEvent) (string, error)
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (models.CommunityEvent, error)
	Close() error
}

// StoreOptions overrides the clock and ID source of a store.
type StoreOptions struct {
	Now   func() time.Time
	NewID func() string
}

func (o StoreOptions) withDefaults() StoreOptions {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// applyFields returns e with fields written and the columns they map to.
func applyFields(e models.CommunityEvent, fields Fields) (models.CommunityEvent, []string, error) {
	if len(fields) == 0 {
		return e, nil, fmt.Errorf("%w: empty update", ErrInvalidField)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make([]string, 0, len(names))
	for _, name := range names {
		col, ok := updateColumns[name]
		if !ok {
			return e, nil, fmt.Errorf("%w: %s", ErrInvalidField, name)
		}
		if err := setField(&e, name, fields[name]); err != nil {
			return e, nil, err
		}
		columns = append(columns, col)
	}
	return e, columns, nil
}

func setField(e *models.CommunityEvent, name string, value any) error {
	switch name {
	case FieldStatus:
		s, ok := asString(value)
		if !ok {
			return typeErr(name, value)
		}
		e.Status = models.EventStatus(s)
	case FieldType:
		s, ok := asString(value)
		if !ok {
			return typeErr(name, value)
		}
		e.Type = models.EventType(s)
	case FieldDate:
		t, ok := value.(time.Time)
		if !ok {
			return typeErr(name, value)
		}
		e.Date = t
	case FieldCommunityFocus:
		switch v := value.(type) {
		case models.FocusSet:
			e.CommunityFocus = models.NewFocusSet(v...)
		case []models.FocusTag:
			e.CommunityFocus = models.NewFocusSet(v...)
		default:
			return typeErr(name, value)
		}
	default:
		s, ok := asString(value)
		if !ok {
			return typeErr(name, value)
		}
		switch name {
		case FieldTitle:
			e.Title = s
		case FieldDescription:
			e.Description = s
		case FieldTime:
			e.Time = s
		case FieldLocation:
			e.Location = s
		case FieldEventLink:
			e.EventLink = s
		case FieldImageData:
			e.ImageData = s
		}
	}
	return nil
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case models.EventStatus:
		return string(s), true
	case models.EventType:
		return string(s), true
	default:
		return "", false
	}
}

func typeErr(name string, value any) error {
	return fmt.Errorf("%w: %s cannot hold %T", ErrInvalidField, name, value)
}

func cloneEvents(events []models.CommunityEvent) []models.CommunityEvent {
	out := make([]models.CommunityEvent, len(events))
	for i, e := range events {
		e.CommunityFocus = slices.Clone(e.CommunityFocus)
		out[i] = e
	}
	return out
}
