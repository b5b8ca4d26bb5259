package tours_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderkit/wanderkit/modules/tours"
	"github.com/wanderkit/wanderkit/pkg/validator"
)

type participantKey struct {
	tourID uuid.UUID
	userID uuid.UUID
}

type voteKey struct {
	tourID uuid.UUID
	topic  string
	userID uuid.UUID
}

type fakeRepo struct {
	tours        map[uuid.UUID]*tours.Tour
	participants map[participantKey]*tours.Participant
	comments     map[uuid.UUID]*tours.Comment
	tags         map[uuid.UUID][]string
	votes        map[voteKey]*tours.Vote
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tours:        make(map[uuid.UUID]*tours.Tour),
		participants: make(map[participantKey]*tours.Participant),
		comments:     make(map[uuid.UUID]*tours.Comment),
		tags:         make(map[uuid.UUID][]string),
		votes:        make(map[voteKey]*tours.Vote),
	}
}

func (r *fakeRepo) CreateTour(ctx context.Context, tour *tours.Tour) error {
	clone := *tour
	r.tours[tour.ID] = &clone
	return nil
}

func (r *fakeRepo) GetTour(ctx context.Context, id uuid.UUID) (*tours.Tour, error) {
	tour, ok := r.tours[id]
	if !ok {
		return nil, tours.ErrTourNotFound
	}
	clone := *tour
	clone.Tags = append([]string(nil), r.tags[id]...)
	return &clone, nil
}

func (r *fakeRepo) ListToursForUser(ctx context.Context, userID uuid.UUID) ([]tours.Tour, error) {
	var result []tours.Tour
	for id, tour := range r.tours {
		p := r.participants[participantKey{id, userID}]
		if tour.OrganizerID == userID || (p != nil && p.Status == tours.StatusAccepted) {
			result = append(result, *tour)
		}
	}
	return result, nil
}

func (r *fakeRepo) UpdateTour(ctx context.Context, tour *tours.Tour) error {
	if _, ok := r.tours[tour.ID]; !ok {
		return tours.ErrTourNotFound
	}
	clone := *tour
	r.tours[tour.ID] = &clone
	return nil
}

func (r *fakeRepo) DeleteTour(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.tours[id]; !ok {
		return tours.ErrTourNotFound
	}
	delete(r.tours, id)
	return nil
}

func (r *fakeRepo) AddParticipant(ctx context.Context, p *tours.Participant) error {
	key := participantKey{p.TourID, p.UserID}
	if _, ok := r.participants[key]; ok {
		return tours.ErrAlreadyParticipant
	}
	clone := *p
	r.participants[key] = &clone
	return nil
}

func (r *fakeRepo) GetParticipant(ctx context.Context, tourID, userID uuid.UUID) (*tours.Participant, error) {
	p, ok := r.participants[participantKey{tourID, userID}]
	if !ok {
		return nil, tours.ErrParticipantNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeRepo) ListParticipants(ctx context.Context, tourID uuid.UUID) ([]tours.Participant, error) {
	var result []tours.Participant
	for key, p := range r.participants {
		if key.tourID == tourID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *fakeRepo) SetParticipantStatus(ctx context.Context, tourID, userID uuid.UUID, status tours.ParticipantStatus) error {
	p, ok := r.participants[participantKey{tourID, userID}]
	if !ok {
		return tours.ErrParticipantNotFound
	}
	p.Status = status
	return nil
}

func (r *fakeRepo) RemoveParticipant(ctx context.Context, tourID, userID uuid.UUID) error {
	key := participantKey{tourID, userID}
	if _, ok := r.participants[key]; !ok {
		return tours.ErrParticipantNotFound
	}
	delete(r.participants, key)
	return nil
}

func (r *fakeRepo) AddComment(ctx context.Context, c *tours.Comment) error {
	clone := *c
	r.comments[c.ID] = &clone
	return nil
}

func (r *fakeRepo) ListComments(ctx context.Context, tourID uuid.UUID) ([]tours.Comment, error) {
	var result []tours.Comment
	for _, c := range r.comments {
		if c.TourID == tourID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *fakeRepo) GetComment(ctx context.Context, id uuid.UUID) (*tours.Comment, error) {
	c, ok := r.comments[id]
	if !ok {
		return nil, tours.ErrCommentNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeRepo) DeleteComment(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.comments[id]; !ok {
		return tours.ErrCommentNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *fakeRepo) SetTags(ctx context.Context, tourID uuid.UUID, tags []string) error {
	r.tags[tourID] = append([]string(nil), tags...)
	return nil
}

func (r *fakeRepo) GetTags(ctx context.Context, tourID uuid.UUID) ([]string, error) {
	return append([]string(nil), r.tags[tourID]...), nil
}

func (r *fakeRepo) CastVote(ctx context.Context, v *tours.Vote) error {
	clone := *v
	r.votes[voteKey{v.TourID, v.Topic, v.UserID}] = &clone
	return nil
}

func (r *fakeRepo) CountVotes(ctx context.Context, tourID uuid.UUID, topic string) ([]tours.VoteCount, error) {
	counts := make(map[string]int)
	for key, v := range r.votes {
		if key.tourID == tourID && key.topic == topic {
			counts[v.OptionKey]++
		}
	}
	var result []tours.VoteCount
	for option, count := range counts {
		result = append(result, tours.VoteCount{OptionKey: option, Count: count})
	}
	return result, nil
}

func createTour(t *testing.T, svc *tours.Service, organizerID uuid.UUID) *tours.Tour {
	t.Helper()

	tour, err := svc.CreateTour(context.Background(), organizerID, tours.CreateTourInput{
		Title:       "Tatra weekend",
		Destination: "Zakopane",
	})
	require.NoError(t, err)
	return tour
}

func TestCreateTour(t *testing.T) {
	t.Parallel()

	t.Run("creates tour and enrolls organizer", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepo()
		svc := tours.NewService(repo)
		organizerID := uuid.New()

		tour := createTour(t, svc, organizerID)
		assert.Equal(t, organizerID, tour.OrganizerID)

		p, err := repo.GetParticipant(context.Background(), tour.ID, organizerID)
		require.NoError(t, err)
		assert.Equal(t, tours.StatusAccepted, p.Status)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		t.Parallel()

		svc := tours.NewService(newFakeRepo())

		_, err := svc.CreateTour(context.Background(), uuid.New(), tours.CreateTourInput{Title: "   "})
		require.Error(t, err)
		assert.NotNil(t, validator.ExtractValidationErrors(err))
	})
}

func TestTourAccess(t *testing.T) {
	t.Parallel()

	t.Run("non-member cannot view tour", func(t *testing.T) {
		t.Parallel()

		svc := tours.NewService(newFakeRepo())
		tour := createTour(t, svc, uuid.New())

		_, err := svc.GetTour(context.Background(), tour.ID, uuid.New())
		assert.ErrorIs(t, err, tours.ErrNotParticipant)
	})

	t.Run("only organizer may update", func(t *testing.T) {
		t.Parallel()

		svc := tours.NewService(newFakeRepo())
		organizerID := uuid.New()
		tour := createTour(t, svc, organizerID)

		stranger := uuid.New()
		_, err := svc.UpdateTour(context.Background(), tour.ID, stranger, tours.CreateTourInput{Title: "Hijacked"})
		assert.ErrorIs(t, err, tours.ErrNotOrganizer)

		updated, err := svc.UpdateTour(context.Background(), tour.ID, organizerID, tours.CreateTourInput{Title: "New title"})
		require.NoError(t, err)
		assert.Equal(t, "New title", updated.Title)
	})

	t.Run("only organizer may delete", func(t *testing.T) {
		t.Parallel()

		svc := tours.NewService(newFakeRepo())
		organizerID := uuid.New()
		tour := createTour(t, svc, organizerID)

		assert.ErrorIs(t, svc.DeleteTour(context.Background(), tour.ID, uuid.New()), tours.ErrNotOrganizer)
		assert.NoError(t, svc.DeleteTour(context.Background(), tour.ID, organizerID))
	})
}

func TestInvites(t *testing.T) {
	t.Parallel()

	t.Run("invite accept flow", func(t *testing.T) {
		t.Parallel()

		repo := newFakeRepo()
		svc := tours.NewService(repo)
		organizerID := uuid.New()
		inviteeID := uuid.New()
		tour := createTour(t, svc, organizerID)

		require.NoError(t, svc.InviteParticipant(context.Background(), tour.ID, organizerID, inviteeID, "en-US"))
		require.NoError(t, svc.RespondToInvite(context.Background(), tour.ID, inviteeID, true))

		p, err := repo.GetParticipant(context.Background(), tour.ID, inviteeID)
		require.NoError(t, err)
		assert.Equal(t, tours.StatusAccepted, p.Status)
	})

	t.Run("only organizer may invite", func(t *testing.T) {
		t.Parallel()

		svc := tours.NewService(newFakeRepo())
		tour := createTour(t, svc, uuid.New())

		err := svc.InviteParticipant(context.Background(), tour.ID, uuid.New(), uuid.New(), "en-US")
		assert.ErrorIs(t, err, tours.ErrNotOrganizer)
	})

	t.Run("double invite conflicts", func(t *testing.T) {
		t.Parallel()

		svc := tours.NewService(newFakeRepo())
		organizerID := uuid.New()
		inviteeID := uuid.New()
		tour := createTour(t, svc, organizerID)

		require.NoError(t, svc.InviteParticipant(context.Background(), tour.ID, organizerID, inviteeID, "en-US"))
		err := svc.InviteParticipant(context.Background(), tour.ID, organizerID, inviteeID, "en-US")
		assert.ErrorIs(t, err, tours.ErrAlreadyParticipant)
	})

	t.Run("organizer cannot be removed", func(t *testing.T) {
		t.Parallel()

		svc := tours.NewService(newFakeRepo())
		organizerID := uuid.New()
		tour := createTour(t, svc, organizerID)

		err := svc.RemoveParticipant(context.Background(), tour.ID, organizerID, organizerID)
		assert.ErrorIs(t, err, tours.ErrNotOrganizer)
	})
}

func TestComments(t *testing.T) {
	t.Parallel()

	t.Run("member can comment, stranger cannot", func(t *testing.T) {
		t.Parallel()

		svc := tours.NewService(newFakeRepo())
		organizerID := uuid.New()
		tour := createTour(t, svc, organizerID)

		comment, err := svc.AddComment(context.Background(), tour.ID, organizerID, "  Let's take the morning train.  ")
		require.NoError(t, err)
		assert.Equal(t, "Let's take the morning train.", comment.Body)

		_, err = svc.AddComment(context.Background(), tour.ID, uuid.New(), "I was not invited")
		assert.ErrorIs(t, err, tours.ErrNotParticipant)
	})

	t.Run("organizer may delete any comment", func(t *testing.T) {
		t.Parallel()

		svc := tours.NewService(newFakeRepo())
		organizerID := uuid.New()
		memberID := uuid.New()
		tour := createTour(t, svc, organizerID)
		require.NoError(t, svc.InviteParticipant(context.Background(), tour.ID, organizerID, memberID, "en-US"))
		require.NoError(t, svc.RespondToInvite(context.Background(), tour.ID, memberID, true))

		comment, err := svc.AddComment(context.Background(), tour.ID, memberID, "rude remark")
		require.NoError(t, err)

		assert.ErrorIs(t, svc.DeleteComment(context.Background(), comment.ID, uuid.New()), tours.ErrNotOrganizer)
		assert.NoError(t, svc.DeleteComment(context.Background(), comment.ID, organizerID))
	})
}

func TestTags(t *testing.T) {
	t.Parallel()

	svc := tours.NewService(newFakeRepo())
	organizerID := uuid.New()
	tour := createTour(t, svc, organizerID)

	tags, err := svc.SetTags(context.Background(), tour.ID, organizerID, []string{" Hiking ", "hiking", "WINTER", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"hiking", "winter"}, tags)

	_, err = svc.SetTags(context.Background(), tour.ID, uuid.New(), []string{"hijack"})
	assert.ErrorIs(t, err, tours.ErrNotOrganizer)
}

func TestVotes(t *testing.T) {
	t.Parallel()

	t.Run("revote replaces previous choice", func(t *testing.T) {
		t.Parallel()

		svc := tours.NewService(newFakeRepo())
		organizerID := uuid.New()
		tour := createTour(t, svc, organizerID)

		require.NoError(t, svc.CastVote(context.Background(), tour.ID, organizerID, "date", "saturday"))
		require.NoError(t, svc.CastVote(context.Background(), tour.ID, organizerID, "date", "sunday"))

		results, err := svc.VoteResults(context.Background(), tour.ID, organizerID, "date")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "sunday", results[0].OptionKey)
		assert.Equal(t, 1, results[0].Count)
	})

	t.Run("pending invitee cannot vote", func(t *testing.T) {
		t.Parallel()

		svc := tours.NewService(newFakeRepo())
		organizerID := uuid.New()
		inviteeID := uuid.New()
		tour := createTour(t, svc, organizerID)
		require.NoError(t, svc.InviteParticipant(context.Background(), tour.ID, organizerID, inviteeID, "en-US"))

		err := svc.CastVote(context.Background(), tour.ID, inviteeID, "date", "saturday")
		assert.ErrorIs(t, err, tours.ErrNotParticipant)
	})
}
