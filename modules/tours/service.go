package tours

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wanderkit/wanderkit/pkg/logger"
	"github.com/wanderkit/wanderkit/pkg/sanitizer"
	"github.com/wanderkit/wanderkit/pkg/validator"
)

const (
	maxTitleLen    = 200
	maxBodyLen     = 2000
	maxTagLen      = 40
	maxTagsPerTour = 10
)

// Service enforces the domain rules of the tours module.
type Service struct {
	repo   Repository
	notify Notifier
	log    *slog.Logger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithNotifier enables invite notifications.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notify = n }
}

// WithLogger sets a custom logger for the service.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates the tours service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo: repo,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTourInput carries the organizer-supplied tour fields.
type CreateTourInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Destination string     `json:"destination"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

func (in *CreateTourInput) validate() error {
	rules := []validator.Rule{
		validator.Required("title", in.Title),
		validator.MaxLen("title", in.Title, maxTitleLen),
		validator.MaxLen("description", in.Description, maxBodyLen),
		validator.MaxLen("destination", in.Destination, maxTitleLen),
	}
	if in.StartsAt != nil && in.EndsAt != nil {
		rules = append(rules, validator.DateNotBefore("ends_at", *in.EndsAt, *in.StartsAt))
	}
	return validator.Apply(rules...)
}

// CreateTour creates a tour and enrolls the organizer as an accepted
// participant.
func (s *Service) CreateTour(ctx context.Context, organizerID uuid.UUID, in CreateTourInput) (*Tour, error) {
	in.Title = sanitizer.TrimText(in.Title)
	in.Description = sanitizer.TrimText(in.Description)
	in.Destination = sanitizer.TrimText(in.Destination)

	if err := in.validate(); err != nil {
		return nil, err
	}

	tour := &Tour{
		ID:          uuid.New(),
		OrganizerID: organizerID,
		Title:       in.Title,
		Description: in.Description,
		Destination: in.Destination,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		CreatedAt:   time.Now(),
	}
	tour.UpdatedAt = tour.CreatedAt

	if err := s.repo.CreateTour(ctx, tour); err != nil {
		return nil, err
	}

	if err := s.repo.AddParticipant(ctx, &Participant{
		TourID:    tour.ID,
		UserID:    organizerID,
		Status:    StatusAccepted,
		CreatedAt: tour.CreatedAt,
	}); err != nil && !errors.Is(err, ErrAlreadyParticipant) {
		return nil, fmt.Errorf("enroll organizer: %w", err)
	}

	s.log.InfoContext(ctx, "tour created",
		logger.TourID(tour.ID.String()),
		logger.UserID(organizerID.String()),
		logger.Component("tours"),
	)

	return tour, nil
}

// GetTour returns a tour visible to the given user.
func (s *Service) GetTour(ctx context.Context, tourID, userID uuid.UUID) (*Tour, error) {
	tour, err := s.repo.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, tour, userID); err != nil {
		return nil, err
	}
	return tour, nil
}

// ListTours returns the tours the user organizes or participates in.
func (s *Service) ListTours(ctx context.Context, userID uuid.UUID) ([]Tour, error) {
	return s.repo.ListToursForUser(ctx, userID)
}

// UpdateTour applies organizer edits.
func (s *Service) UpdateTour(ctx context.Context, tourID, userID uuid.UUID, in CreateTourInput) (*Tour, error) {
	tour, err := s.repo.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour.OrganizerID != userID {
		return nil, ErrNotOrganizer
	}

	in.Title = sanitizer.TrimText(in.Title)
	in.Description = sanitizer.TrimText(in.Description)
	in.Destination = sanitizer.TrimText(in.Destination)
	if err := in.validate(); err != nil {
		return nil, err
	}

	tour.Title = in.Title
	tour.Description = in.Description
	tour.Destination = in.Destination
	tour.StartsAt = in.StartsAt
	tour.EndsAt = in.EndsAt

	if err := s.repo.UpdateTour(ctx, tour); err != nil {
		return nil, err
	}
	return tour, nil
}

// DeleteTour removes a tour. Organizer only.
func (s *Service) DeleteTour(ctx context.Context, tourID, userID uuid.UUID) error {
	tour, err := s.repo.GetTour(ctx, tourID)
	if err != nil {
		return err
	}
	if tour.OrganizerID != userID {
		return ErrNotOrganizer
	}
	return s.repo.DeleteTour(ctx, tourID)
}

// InviteParticipant invites a user to the tour. Organizer only. Notification
// failures are logged, not surfaced: the invite itself has been recorded.
func (s *Service) InviteParticipant(ctx context.Context, tourID, inviterID, inviteeID uuid.UUID, locale string) error {
	tour, err := s.repo.GetTour(ctx, tourID)
	if err != nil {
		return err
	}
	if tour.OrganizerID != inviterID {
		return ErrNotOrganizer
	}

	if err := s.repo.AddParticipant(ctx, &Participant{
		TourID:    tourID,
		UserID:    inviteeID,
		Status:    StatusInvited,
		InvitedBy: &inviterID,
		CreatedAt: time.Now(),
	}); err != nil {
		return err
	}

	if s.notify != nil {
		if err := s.notify.TourInvited(ctx, tour, inviterID, inviteeID, locale); err != nil {
			s.log.ErrorContext(ctx, "failed to send invite notification",
				logger.TourID(tourID.String()),
				logger.UserID(inviteeID.String()),
				logger.Error(err),
				logger.Component("tours"),
			)
		}
	}

	return nil
}

// RespondToInvite accepts or declines the caller's own pending invite.
func (s *Service) RespondToInvite(ctx context.Context, tourID, userID uuid.UUID, accept bool) error {
	p, err := s.repo.GetParticipant(ctx, tourID, userID)
	if err != nil {
		return err
	}
	if p.Status != StatusInvited {
		return ErrAlreadyParticipant
	}

	status := StatusDeclined
	if accept {
		status = StatusAccepted
	}
	return s.repo.SetParticipantStatus(ctx, tourID, userID, status)
}

// ListParticipants returns the tour's participants. Members only.
func (s *Service) ListParticipants(ctx context.Context, tourID, userID uuid.UUID) ([]Participant, error) {
	tour, err := s.repo.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, tour, userID); err != nil {
		return nil, err
	}
	return s.repo.ListParticipants(ctx, tourID)
}

// RemoveParticipant removes a participant: the organizer may remove anyone,
// a participant may remove themselves.
func (s *Service) RemoveParticipant(ctx context.Context, tourID, callerID, targetID uuid.UUID) error {
	tour, err := s.repo.GetTour(ctx, tourID)
	if err != nil {
		return err
	}
	if callerID != targetID && tour.OrganizerID != callerID {
		return ErrNotOrganizer
	}
	if targetID == tour.OrganizerID {
		return ErrNotOrganizer
	}
	return s.repo.RemoveParticipant(ctx, tourID, targetID)
}

// AddComment posts a comment on the tour. Members only.
func (s *Service) AddComment(ctx context.Context, tourID, authorID uuid.UUID, body string) (*Comment, error) {
	tour, err := s.repo.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, tour, authorID); err != nil {
		return nil, err
	}

	body = sanitizer.TrimText(body)
	if err := validator.Apply(
		validator.Required("body", body),
		validator.MaxLen("body", body, maxBodyLen),
	); err != nil {
		return nil, err
	}

	comment := &Comment{
		ID:        uuid.New(),
		TourID:    tourID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns the tour's discussion. Members only.
func (s *Service) ListComments(ctx context.Context, tourID, userID uuid.UUID) ([]Comment, error) {
	tour, err := s.repo.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, tour, userID); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, tourID)
}

// DeleteComment removes a comment. Allowed for the author and the organizer.
func (s *Service) DeleteComment(ctx context.Context, commentID, callerID uuid.UUID) error {
	comment, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != callerID {
		tour, err := s.repo.GetTour(ctx, comment.TourID)
		if err != nil {
			return err
		}
		if tour.OrganizerID != callerID {
			return ErrNotOrganizer
		}
	}
	return s.repo.DeleteComment(ctx, commentID)
}

// SetTags replaces the tour's tags. Organizer only. Tags are normalized and
// deduplicated; empty tags are dropped.
func (s *Service) SetTags(ctx context.Context, tourID, userID uuid.UUID, tags []string) ([]string, error) {
	tour, err := s.repo.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if tour.OrganizerID != userID {
		return nil, ErrNotOrganizer
	}

	seen := make(map[string]struct{}, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = sanitizer.NormalizeTag(tag)
		if tag == "" {
			continue
		}
		if err := validator.Apply(validator.MaxLen("tags", tag, maxTagLen)); err != nil {
			return nil, err
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}

	if len(normalized) > maxTagsPerTour {
		return nil, validator.ValidationErrors{{Field: "tags", Message: fmt.Sprintf("at most %d tags allowed", maxTagsPerTour)}}
	}

	if err := s.repo.SetTags(ctx, tourID, normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// CastVote records the member's choice in a tour poll, replacing any
// previous vote on the same topic.
func (s *Service) CastVote(ctx context.Context, tourID, userID uuid.UUID, topic, optionKey string) error {
	tour, err := s.repo.GetTour(ctx, tourID)
	if err != nil {
		return err
	}
	if err := s.requireAcceptedMember(ctx, tour, userID); err != nil {
		return err
	}

	topic = sanitizer.NormalizeTag(topic)
	optionKey = sanitizer.TrimText(optionKey)
	if err := validator.Apply(
		validator.Required("topic", topic),
		validator.MaxLen("topic", topic, maxTagLen),
		validator.Required("option", optionKey),
		validator.MaxLen("option", optionKey, maxTitleLen),
	); err != nil {
		return err
	}

	return s.repo.CastVote(ctx, &Vote{
		TourID:    tourID,
		Topic:     topic,
		OptionKey: optionKey,
		UserID:    userID,
		CreatedAt: time.Now(),
	})
}

// VoteResults returns the aggregated poll results for a topic. Members only.
func (s *Service) VoteResults(ctx context.Context, tourID, userID uuid.UUID, topic string) ([]VoteCount, error) {
	tour, err := s.repo.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, tour, userID); err != nil {
		return nil, err
	}
	return s.repo.CountVotes(ctx, tourID, sanitizer.NormalizeTag(topic))
}

// requireMember admits the organizer and any participant, invited included.
func (s *Service) requireMember(ctx context.Context, tour *Tour, userID uuid.UUID) error {
	if tour.OrganizerID == userID {
		return nil
	}
	if _, err := s.repo.GetParticipant(ctx, tour.ID, userID); err != nil {
		if errors.Is(err, ErrParticipantNotFound) {
			return ErrNotParticipant
		}
		return err
	}
	return nil
}

// requireAcceptedMember admits the organizer and accepted participants only.
func (s *Service) requireAcceptedMember(ctx context.Context, tour *Tour, userID uuid.UUID) error {
	if tour.OrganizerID == userID {
		return nil
	}
	p, err := s.repo.GetParticipant(ctx, tour.ID, userID)
	if err != nil {
		if errors.Is(err, ErrParticipantNotFound) {
			return ErrNotParticipant
		}
		return err
	}
	if p.Status != StatusAccepted {
		return ErrNotParticipant
	}
	return nil
}
