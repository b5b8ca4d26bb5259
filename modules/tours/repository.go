package tours

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence operations of the tours domain.
type Repository interface {
	CreateTour(ctx context.Context, tour *Tour) error
	GetTour(ctx context.Context, id uuid.UUID) (*Tour, error)
	ListToursForUser(ctx context.Context, userID uuid.UUID) ([]Tour, error)
	UpdateTour(ctx context.Context, tour *Tour) error
	DeleteTour(ctx context.Context, id uuid.UUID) error

	AddParticipant(ctx context.Context, p *Participant) error
	GetParticipant(ctx context.Context, tourID, userID uuid.UUID) (*Participant, error)
	ListParticipants(ctx context.Context, tourID uuid.UUID) ([]Participant, error)
	SetParticipantStatus(ctx context.Context, tourID, userID uuid.UUID, status ParticipantStatus) error
	RemoveParticipant(ctx context.Context, tourID, userID uuid.UUID) error

	AddComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, tourID uuid.UUID) ([]Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
	GetComment(ctx context.Context, id uuid.UUID) (*Comment, error)

	SetTags(ctx context.Context, tourID uuid.UUID, tags []string) error
	GetTags(ctx context.Context, tourID uuid.UUID) ([]string, error)

	CastVote(ctx context.Context, v *Vote) error
	CountVotes(ctx context.Context, tourID uuid.UUID, topic string) ([]VoteCount, error)
}
