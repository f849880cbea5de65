package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// FocusTag identifies a population an event serves.
type FocusTag string

const (
	FocusTrans     FocusTag = "Trans"
	FocusNonbinary FocusTag = "Nonbinary"
	FocusLGBT      FocusTag = "LGBT+"
	FocusAAPI      FocusTag = "AAPI"
	FocusBlack     FocusTag = "Black"
	FocusLatinx    FocusTag = "Latinx"
)

// FocusVocabulary is the fixed set of community focus tags, in display order.
var FocusVocabulary = []FocusTag{FocusTrans, FocusNonbinary, FocusLGBT, FocusAAPI, FocusBlack, FocusLatinx}

// Valid reports whether the tag belongs to the vocabulary.
func (t FocusTag) Valid() bool {
	for _, v := range FocusVocabulary {
		if v == t {
			return true
		}
	}
	return false
}

// ParseFocusTag matches s against the vocabulary ignoring case and surrounding space.
func ParseFocusTag(s string) (FocusTag, bool) {
	s = strings.TrimSpace(s)
	for _, v := range FocusVocabulary {
		if strings.EqualFold(string(v), s) {
			return v, true
		}
	}
	return FocusTag(s), false
}

// FocusSet is an ordered set of focus tags stored as a JSON array column.
type FocusSet []FocusTag

// NewFocusSet builds a set from tags, dropping duplicates and keeping first-seen order.
func NewFocusSet(tags ...FocusTag) FocusSet {
	set := make(FocusSet, 0, len(tags))
	for _, t := range tags {
		if !set.Contains(t) {
			set = append(set, t)
		}
	}
	return set
}

func (s FocusSet) Contains(tag FocusTag) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// Intersects reports whether the two sets share at least one tag.
func (s FocusSet) Intersects(other FocusSet) bool {
	for _, t := range s {
		if other.Contains(t) {
			return true
		}
	}
	return false
}

// Toggle returns a copy of the set with tag removed if present, added otherwise.
func (s FocusSet) Toggle(tag FocusTag) FocusSet {
	out := make(FocusSet, 0, len(s)+1)
	found := false
	for _, t := range s {
		if t == tag {
			found = true
			continue
		}
		out = append(out, t)
	}
	if !found {
		out = append(out, tag)
	}
	return out
}

// Value implements driver.Valuer interface for database storage
func (s FocusSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]FocusTag(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface for database retrieval
func (s *FocusSet) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into FocusSet", value)
	}
}

// GormDataType returns the data type for GORM
func (FocusSet) GormDataType() string {
	return "json"
}

// MarshalJSON always emits an array, never null.
func (s FocusSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]FocusTag(s))
}

func (s *FocusSet) UnmarshalJSON(data []byte) error {
	var tags []FocusTag
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*s = FocusSet(tags)
	return nil
}
