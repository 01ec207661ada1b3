package repo

import (
	"context"

	"github.com/thewillhuang/middleman/internal/marketplace/timeutil"
	"github.com/thewillhuang/middleman/internal/models"
)

type CommentsRepo struct {
	db *DB
}

func NewCommentsRepo(db *DB) *CommentsRepo {
	return &CommentsRepo{db: db}
}

func (r *CommentsRepo) Create(ctx context.Context, c models.Comment) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.sql.ExecContext(ctx, r.db.rebind(`
		INSERT INTO comments (id, task_id, person_id, commentary, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		c.ID, c.TaskID, c.PersonID, c.Commentary, timeutil.ToMicros(c.CreatedAt))
	return classify("create comment", err)
}

// ListForTask returns comments oldest first.
func (r *CommentsRepo) ListForTask(ctx context.Context, taskID string, limit, offset int) ([]models.Comment, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.sql.QueryContext(ctx, r.db.rebind(`
		SELECT id, task_id, person_id, commentary, created_at
		FROM comments WHERE task_id = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?`), taskID, limit, offset)
	if err != nil {
		return nil, classify("list comments", err)
	}
	defer rows.Close()

	out := []models.Comment{}
	for rows.Next() {
		var (
			c       models.Comment
			created int64
		)
		if err := rows.Scan(&c.ID, &c.TaskID, &c.PersonID, &c.Commentary, &created); err != nil {
			return nil, classify("list comments", err)
		}
		c.CreatedAt = timeutil.FromMicros(created)
		out = append(out, c)
	}
	return out, classify("list comments", rows.Err())
}
