package tours

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wanderkit/wanderkit/pkg/pg"
)

// PgRepository persists the tours domain in PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) CreateTour(ctx context.Context, tour *Tour) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tours (id, organizer_id, title, description, destination, starts_at, ends_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		tour.ID, tour.OrganizerID, tour.Title, tour.Description, tour.Destination,
		tour.StartsAt, tour.EndsAt, tour.CreatedAt,
	)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrUserUnknown
		}
		return fmt.Errorf("create tour: %w", err)
	}
	return nil
}

func (r *PgRepository) GetTour(ctx context.Context, id uuid.UUID) (*Tour, error) {
	var t Tour
	err := r.pool.QueryRow(ctx,
		`SELECT id, organizer_id, title, description, destination, starts_at, ends_at, created_at, updated_at
		 FROM tours WHERE id = $1`, id,
	).Scan(&t.ID, &t.OrganizerID, &t.Title, &t.Description, &t.Destination,
		&t.StartsAt, &t.EndsAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTourNotFound
		}
		return nil, fmt.Errorf("get tour: %w", err)
	}

	tags, err := r.GetTags(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Tags = tags

	return &t, nil
}

func (r *PgRepository) ListToursForUser(ctx context.Context, userID uuid.UUID) ([]Tour, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT t.id, t.organizer_id, t.title, t.description, t.destination,
		        t.starts_at, t.ends_at, t.created_at, t.updated_at
		 FROM tours t
		 LEFT JOIN participants p ON p.tour_id = t.id
		 WHERE t.organizer_id = $1 OR (p.user_id = $1 AND p.status = 'accepted')
		 ORDER BY t.created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tours: %w", err)
	}
	defer rows.Close()

	return scanTours(rows)
}

func scanTours(rows pgx.Rows) ([]Tour, error) {
	var tours []Tour
	for rows.Next() {
		var t Tour
		if err := rows.Scan(&t.ID, &t.OrganizerID, &t.Title, &t.Description, &t.Destination,
			&t.StartsAt, &t.EndsAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tour: %w", err)
		}
		tours = append(tours, t)
	}
	return tours, rows.Err()
}

func (r *PgRepository) UpdateTour(ctx context.Context, tour *Tour) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tours SET title = $2, description = $3, destination = $4,
		        starts_at = $5, ends_at = $6, updated_at = now()
		 WHERE id = $1`,
		tour.ID, tour.Title, tour.Description, tour.Destination, tour.StartsAt, tour.EndsAt,
	)
	if err != nil {
		return fmt.Errorf("update tour: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTourNotFound
	}
	return nil
}

func (r *PgRepository) DeleteTour(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tour: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTourNotFound
	}
	return nil
}

func (r *PgRepository) AddParticipant(ctx context.Context, p *Participant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO participants (tour_id, user_id, status, invited_by, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.TourID, p.UserID, p.Status, p.InvitedBy, p.CreatedAt,
	)
	if err != nil {
		switch {
		case pg.IsDuplicateKeyError(err):
			return ErrAlreadyParticipant
		case pg.IsForeignKeyViolationError(err):
			return ErrUserUnknown
		}
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

func (r *PgRepository) GetParticipant(ctx context.Context, tourID, userID uuid.UUID) (*Participant, error) {
	var p Participant
	err := r.pool.QueryRow(ctx,
		`SELECT tour_id, user_id, status, invited_by, created_at
		 FROM participants WHERE tour_id = $1 AND user_id = $2`, tourID, userID,
	).Scan(&p.TourID, &p.UserID, &p.Status, &p.InvitedBy, &p.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

func (r *PgRepository) ListParticipants(ctx context.Context, tourID uuid.UUID) ([]Participant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tour_id, user_id, status, invited_by, created_at
		 FROM participants WHERE tour_id = $1 ORDER BY created_at`, tourID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.TourID, &p.UserID, &p.Status, &p.InvitedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *PgRepository) SetParticipantStatus(ctx context.Context, tourID, userID uuid.UUID, status ParticipantStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE participants SET status = $3 WHERE tour_id = $1 AND user_id = $2`,
		tourID, userID, status,
	)
	if err != nil {
		return fmt.Errorf("set participant status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *PgRepository) RemoveParticipant(ctx context.Context, tourID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM participants WHERE tour_id = $1 AND user_id = $2`, tourID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *PgRepository) AddComment(ctx context.Context, c *Comment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO comments (id, tour_id, author_id, body, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.TourID, c.AuthorID, c.Body, c.CreatedAt,
	)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrTourNotFound
		}
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

func (r *PgRepository) ListComments(ctx context.Context, tourID uuid.UUID) ([]Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tour_id, author_id, body, created_at
		 FROM comments WHERE tour_id = $1 ORDER BY created_at`, tourID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.TourID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *PgRepository) GetComment(ctx context.Context, id uuid.UUID) (*Comment, error) {
	var c Comment
	err := r.pool.QueryRow(ctx,
		`SELECT id, tour_id, author_id, body, created_at FROM comments WHERE id = $1`, id,
	).Scan(&c.ID, &c.TourID, &c.AuthorID, &c.Body, &c.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (r *PgRepository) DeleteComment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// SetTags replaces the tour's tag set atomically.
func (r *PgRepository) SetTags(ctx context.Context, tourID uuid.UUID, tags []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin set tags: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM tour_tags WHERE tour_id = $1`, tourID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}

	for _, tag := range tags {
		if _, err := tx.Exec(ctx,
			`INSERT INTO tour_tags (tour_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			tourID, tag,
		); err != nil {
			if pg.IsForeignKeyViolationError(err) {
				return ErrTourNotFound
			}
			return fmt.Errorf("insert tag: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) GetTags(ctx context.Context, tourID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tag FROM tour_tags WHERE tour_id = $1 ORDER BY tag`, tourID,
	)
	if err != nil {
		return nil, fmt.Errorf("get tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// CastVote upserts so a member's repeat vote replaces the previous choice.
func (r *PgRepository) CastVote(ctx context.Context, v *Vote) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO votes (tour_id, topic, option_key, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (tour_id, topic, user_id)
		 DO UPDATE SET option_key = EXCLUDED.option_key, created_at = EXCLUDED.created_at`,
		v.TourID, v.Topic, v.OptionKey, v.UserID, v.CreatedAt,
	)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return ErrTourNotFound
		}
		return fmt.Errorf("cast vote: %w", err)
	}
	return nil
}

func (r *PgRepository) CountVotes(ctx context.Context, tourID uuid.UUID, topic string) ([]VoteCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT option_key, count(*) FROM votes
		 WHERE tour_id = $1 AND topic = $2
		 GROUP BY option_key ORDER BY count(*) DESC, option_key`, tourID, topic,
	)
	if err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}
	defer rows.Close()

	var counts []VoteCount
	for rows.Next() {
		var vc VoteCount
		if err := rows.Scan(&vc.OptionKey, &vc.Count); err != nil {
			return nil, fmt.Errorf("scan vote count: %w", err)
		}
		counts = append(counts, vc)
	}
	return counts, rows.Err()
}
