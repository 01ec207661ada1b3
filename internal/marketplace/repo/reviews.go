package repo

import (
	"context"

	"github.com/thewillhuang/middleman/internal/marketplace/ratings"
	"github.com/thewillhuang/middleman/internal/marketplace/timeutil"
	"github.com/thewillhuang/middleman/internal/models"
)

// ReviewsRepo is the review ledger. The (task_id, kind) unique index keeps at
// most one review per direction per task.
type ReviewsRepo struct {
	db *DB
}

func NewReviewsRepo(db *DB) *ReviewsRepo {
	return &ReviewsRepo{db: db}
}

// Create inserts a review; a duplicate direction yields ErrAlreadyExists.
func (r *ReviewsRepo) Create(ctx context.Context, rv models.Review) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.sql.ExecContext(ctx, r.db.rebind(`
		INSERT INTO reviews (id, kind, task_id, rater_id, rated_person_id, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		rv.ID, string(rv.Kind), rv.TaskID, rv.RaterID, rv.RatedPersonID, rv.Rating, timeutil.ToMicros(rv.CreatedAt))
	return classify("create review", err)
}

// ListForTask returns the reviews left on a task.
func (r *ReviewsRepo) ListForTask(ctx context.Context, taskID string) ([]models.Review, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.sql.QueryContext(ctx, r.db.rebind(`
		SELECT id, kind, task_id, rater_id, rated_person_id, rating, created_at
		FROM reviews WHERE task_id = ? ORDER BY kind`), taskID)
	if err != nil {
		return nil, classify("list reviews", err)
	}
	defer rows.Close()

	var out []models.Review
	for rows.Next() {
		var (
			rv      models.Review
			kind    string
			created int64
		)
		if err := rows.Scan(&rv.ID, &kind, &rv.TaskID, &rv.RaterID, &rv.RatedPersonID, &rv.Rating, &created); err != nil {
			return nil, classify("list reviews", err)
		}
		rv.Kind = models.ReviewKind(kind)
		rv.CreatedAt = timeutil.FromMicros(created)
		out = append(out, rv)
	}
	return out, classify("list reviews", rows.Err())
}

// RatingSummary aggregates every review targeting personID.
func (r *ReviewsRepo) RatingSummary(ctx context.Context, personID string) (ratings.Summary, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var (
		count int
		sum   int64
	)
	err := r.db.sql.QueryRowContext(ctx, r.db.rebind(`
		SELECT COUNT(*), COALESCE(SUM(rating), 0) FROM reviews WHERE rated_person_id = ?`), personID).
		Scan(&count, &sum)
	if err != nil {
		return ratings.Summary{}, classify("rating summary", err)
	}
	return ratings.Summary{Count: count, Sum: float64(sum)}, nil
}
