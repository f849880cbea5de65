package utils

import (
	"fmt"
	"strings"
	"time"

	"eventboard-api/models"
)

// ParseEventDate accepts a calendar day (2006-01-02) or an RFC 3339 instant.
// Calendar days are taken as midnight UTC.
func ParseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD or RFC 3339", s)
}

// ParseFocusParams reads repeated or comma separated focus values. Unknown
// tags are returned separately so the caller can reject them.
func ParseFocusParams(values []string) (models.FocusSet, []string) {
	var tags []models.FocusTag
	var unknown []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			tag, ok := models.ParseFocusTag(part)
			if !ok {
				unknown = append(unknown, part)
				continue
			}
			tags = append(tags, tag)
		}
	}
	return models.NewFocusSet(tags...), unknown
}

func IsValidEventID(id string) bool {
	return id != "" && len(id) <= 191 && !strings.ContainsAny(id, " /\\")
}
