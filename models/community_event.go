package models

import (
	"strings"
	"time"
)

type EventType string

const (
	EventTypeInPerson EventType = "InPerson"
	EventTypeRemote   EventType = "Remote"
)

// EventStatus is the moderation state of an event. Deletion has no status: a
// rejected event is removed from the collection.
type EventStatus string

const (
	StatusPending  EventStatus = "Pending"
	StatusApproved EventStatus = "Approved"
)

// MaxImageBytes caps the encoded size of an inline image.
const MaxImageBytes = 250 * 1024

// CommunityEvent is one user-submitted happening. AppID scopes the shared
// collection and never leaves the server.
type CommunityEvent struct {
	ID             string      `json:"id" gorm:"primaryKey;size:191"`
	AppID          string      `json:"-" gorm:"not null;size:191;index:idx_events_app_status,priority:1"`
	Title          string      `json:"title" gorm:"not null;size:255"`
	Description    string      `json:"description" gorm:"not null;type:text"`
	Date           time.Time   `json:"date" gorm:"not null"`
	Time           string      `json:"time" gorm:"size:100"`
	Location       string      `json:"location" gorm:"not null;size:255"`
	EventLink      string      `json:"eventLink" gorm:"size:500"`
	ImageData      string      `json:"imageData,omitempty" gorm:"size:262144"`
	Type           EventType   `json:"type" gorm:"not null;size:20"`
	CommunityFocus FocusSet    `json:"communityFocus" gorm:"type:json"`
	Status         EventStatus `json:"status" gorm:"not null;size:20;index:idx_events_app_status,priority:2"`
	SubmittedBy    string      `json:"submittedBy" gorm:"not null;size:191"`
	SubmittedAt    time.Time   `json:"submittedAt" gorm:"not null"`
}

func (CommunityEvent) TableName() string {
	return "community_events"
}

func (e CommunityEvent) IsPending() bool {
	return e.Status == StatusPending
}

func (e CommunityEvent) IsApproved() bool {
	return e.Status == StatusApproved
}

// CanTransition reports whether an event in status from may be written with
// status to. Approved events never return to Pending.
func CanTransition(from, to EventStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusPending || to == StatusApproved
	case StatusApproved:
		return to == StatusApproved
	default:
		return false
	}
}

// Draft is the submission form before it becomes an event.
type Draft struct {
	Title          string    `json:"title" validate:"required"`
	Description    string    `json:"description" validate:"required"`
	Date           time.Time `json:"date" validate:"required"`
	Time           string    `json:"time"`
	Location       string    `json:"location" validate:"required"`
	EventLink      string    `json:"eventLink" validate:"omitempty,http_url"`
	ImageData      string    `json:"imageData"`
	Type           EventType `json:"type" validate:"oneof=InPerson Remote"`
	CommunityFocus FocusSet  `json:"communityFocus" validate:"required,min=1,dive,focustag"`
}

// Normalize trims free text, defaults the type to in-person and removes
// duplicate focus tags.
func (d *Draft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Time = strings.TrimSpace(d.Time)
	d.Location = strings.TrimSpace(d.Location)
	d.EventLink = strings.TrimSpace(d.EventLink)
	d.ImageData = strings.TrimSpace(d.ImageData)
	if d.Type == "" {
		d.Type = EventTypeInPerson
	}
	if d.CommunityFocus != nil {
		d.CommunityFocus = NewFocusSet(d.CommunityFocus...)
	}
}

// ToEvent builds the pending record for identity. ID and SubmittedAt are
// assigned by the store.
func (d Draft) ToEvent(identity string) CommunityEvent {
	return CommunityEvent{
		Title:          d.Title,
		Description:    d.Description,
		Date:           d.Date,
		Time:           d.Time,
		Location:       d.Location,
		EventLink:      d.EventLink,
		ImageData:      d.ImageData,
		Type:           d.Type,
		CommunityFocus: NewFocusSet(d.CommunityFocus...),
		Status:         StatusPending,
		SubmittedBy:    identity,
	}
}
