// Package tours implements the core product domain: tours with participants,
// comments, tags and vote polls, planned collaboratively by their members.
package tours

import (
	"time"

	"github.com/google/uuid"
)

// Tour is a planned trip owned by its organizer.
type Tour struct {
	ID          uuid.UUID  `json:"id"`
	OrganizerID uuid.UUID  `json:"organizer_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Destination string     `json:"destination"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ParticipantStatus tracks the invite lifecycle.
type ParticipantStatus string

const (
	StatusInvited  ParticipantStatus = "invited"
	StatusAccepted ParticipantStatus = "accepted"
	StatusDeclined ParticipantStatus = "declined"
)

// Participant is a user attached to a tour.
type Participant struct {
	TourID    uuid.UUID         `json:"tour_id"`
	UserID    uuid.UUID         `json:"user_id"`
	Status    ParticipantStatus `json:"status"`
	InvitedBy *uuid.UUID        `json:"invited_by,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Comment is a discussion entry on a tour.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	TourID    uuid.UUID `json:"tour_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Vote is one member's choice in a tour poll. A member holds at most one
// vote per topic; voting again replaces the previous choice.
type Vote struct {
	TourID    uuid.UUID `json:"tour_id"`
	Topic     string    `json:"topic"`
	OptionKey string    `json:"option_key"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteCount aggregates poll results per option.
type VoteCount struct {
	OptionKey string `json:"option_key"`
	Count     int    `json:"count"`
}
