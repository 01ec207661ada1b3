package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thewillhuang/middleman/internal/marketplace/discovery"
	"github.com/thewillhuang/middleman/internal/marketplace/fsm"
	"github.com/thewillhuang/middleman/internal/marketplace/timeutil"
	"github.com/thewillhuang/middleman/internal/models"
)

// TasksRepo persists tasks and their status history.
type TasksRepo struct {
	db *DB
}

func NewTasksRepo(db *DB) *TasksRepo {
	return &TasksRepo{db: db}
}

const taskColumns = `id, requestor_id, fulfiller_id, longitude, latitude, category, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner, extra ...interface{}) (models.Task, error) {
	var (
		t                models.Task
		fulfiller        sql.NullString
		status           string
		created, updated int64
	)
	dest := append([]interface{}{&t.ID, &t.RequestorID, &fulfiller, &t.Longitude, &t.Latitude, &t.Category, &status, &created, &updated}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Task{}, err
	}
	t.FulfillerID = nullToPtr(fulfiller)
	t.Status = models.TaskStatus(status)
	t.CreatedAt = timeutil.FromMicros(created)
	t.UpdatedAt = timeutil.FromMicros(updated)
	return t, nil
}

// Create inserts an OPEN task and records its creation in the history.
func (r *TasksRepo) Create(ctx context.Context, t models.Task) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.db.rebind(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ID, t.RequestorID, nullableString(t.FulfillerID), t.Longitude, t.Latitude, t.Category, string(t.Status),
		timeutil.ToMicros(t.CreatedAt), timeutil.ToMicros(t.UpdatedAt))
	if err != nil {
		return classify("create task", err)
	}
	if err := r.insertHistory(ctx, tx, t.ID, nil, t.Status, t.RequestorID, t.CreatedAt); err != nil {
		return err
	}
	return classify("commit", tx.Commit())
}

// Get loads a task by id.
func (r *TasksRepo) Get(ctx context.Context, id string) (models.Task, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	t, err := scanTask(r.db.sql.QueryRowContext(ctx, r.db.rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id))
	if err != nil {
		return models.Task{}, classify("task", err)
	}
	return t, nil
}

// ApplyTransition persists c with a compare-and-swap on status and fulfiller.
// It returns fsm.ErrStale when the row no longer matches the planned origin.
func (r *TasksRepo) ApplyTransition(ctx context.Context, c fsm.Change, at time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin", err)
	}
	defer tx.Rollback()

	query := `UPDATE tasks SET status = ?, fulfiller_id = ?, updated_at = ? WHERE id = ? AND status = ? AND `
	args := []interface{}{string(c.To), nullableString(c.ToFulfiller), timeutil.ToMicros(at), c.TaskID, string(c.From)}
	if c.FromFulfiller == nil {
		query += `fulfiller_id IS NULL`
	} else {
		query += `fulfiller_id = ?`
		args = append(args, *c.FromFulfiller)
	}

	res, err := tx.ExecContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return classify("update task status", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return classify("update task status", err)
	}
	if rows == 0 {
		return fsm.ErrStale
	}
	from := c.From
	if err := r.insertHistory(ctx, tx, c.TaskID, &from, c.To, c.ActorID, at); err != nil {
		return err
	}
	return classify("commit", tx.Commit())
}

func (r *TasksRepo) insertHistory(ctx context.Context, tx *sql.Tx, taskID string, from *models.TaskStatus, to models.TaskStatus, actorID string, at time.Time) error {
	var fromVal sql.NullString
	if from != nil {
		fromVal = sql.NullString{String: string(*from), Valid: true}
	}
	_, err := tx.ExecContext(ctx, r.db.rebind(`
		INSERT INTO task_status_history (id, task_id, from_status, to_status, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		uuid.NewString(), taskID, fromVal, string(to), actorID, timeutil.ToMicros(at))
	return classify("insert status history", err)
}

// History lists status events of a task, oldest first.
func (r *TasksRepo) History(ctx context.Context, taskID string) ([]models.TaskStatusEvent, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.sql.QueryContext(ctx, r.db.rebind(`
		SELECT id, task_id, from_status, to_status, actor_id, created_at
		FROM task_status_history WHERE task_id = ?
		ORDER BY created_at ASC, id ASC`), taskID)
	if err != nil {
		return nil, classify("task history", err)
	}
	defer rows.Close()

	var events []models.TaskStatusEvent
	for rows.Next() {
		var (
			e       models.TaskStatusEvent
			from    sql.NullString
			to      string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.TaskID, &from, &to, &e.ActorID, &created); err != nil {
			return nil, classify("task history", err)
		}
		if from.Valid {
			s := models.TaskStatus(from.String)
			e.From = &s
		}
		e.To = models.TaskStatus(to)
		e.CreatedAt = timeutil.FromMicros(created)
		events = append(events, e)
	}
	return events, classify("task history", rows.Err())
}

// Search returns up to q.First+1 ranked tasks after the query cursor, plus the
// number of tasks matching the filters regardless of paging.
func (r *TasksRepo) Search(ctx context.Context, q discovery.Query) ([]discovery.RankedTask, int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var filters []string
	args := r.db.dialect.distanceArgs(q.Point)
	if len(q.Categories) > 0 {
		filters = append(filters, fmt.Sprintf("category IN (%s)", placeholders(len(q.Categories))))
		for _, c := range q.Categories {
			args = append(args, c)
		}
	}
	if len(q.Statuses) > 0 {
		filters = append(filters, fmt.Sprintf("status IN (%s)", placeholders(len(q.Statuses))))
		for _, s := range q.Statuses {
			args = append(args, string(s))
		}
	}
	inner := `SELECT ` + taskColumns + `, ` + r.db.dialect.distanceExpr() + ` AS distance FROM tasks`
	if len(filters) > 0 {
		inner += ` WHERE ` + strings.Join(filters, ` AND `)
	}

	var outer []string
	if q.RadiusMeters > 0 {
		outer = append(outer, `distance <= ?`)
		args = append(args, q.RadiusMeters)
	}
	countQuery := `SELECT COUNT(*) FROM (` + inner + `) ranked`
	if len(outer) > 0 {
		countQuery += ` WHERE ` + strings.Join(outer, ` AND `)
	}
	var total int
	if err := r.db.sql.QueryRowContext(ctx, r.db.rebind(countQuery), args...).Scan(&total); err != nil {
		return nil, 0, classify("count tasks", err)
	}
	if q.First == 0 {
		return nil, total, nil
	}

	if q.After != nil {
		outer = append(outer, `(distance > ? OR (distance = ? AND (created_at > ? OR (created_at = ? AND id > ?))))`)
		args = append(args, q.After.Distance, q.After.Distance, q.After.CreatedAt, q.After.CreatedAt, q.After.ID)
	}
	pageQuery := `SELECT ` + taskColumns + `, distance FROM (` + inner + `) ranked`
	if len(outer) > 0 {
		pageQuery += ` WHERE ` + strings.Join(outer, ` AND `)
	}
	pageQuery += ` ORDER BY distance ASC, created_at ASC, id ASC LIMIT ?`
	args = append(args, q.First+1)

	rows, err := r.db.sql.QueryContext(ctx, r.db.rebind(pageQuery), args...)
	if err != nil {
		return nil, 0, classify("search tasks", err)
	}
	defer rows.Close()

	out := make([]discovery.RankedTask, 0, q.First+1)
	for rows.Next() {
		var rt discovery.RankedTask
		t, err := scanTask(rows, &rt.Distance)
		if err != nil {
			return nil, 0, classify("search tasks", err)
		}
		rt.Task = t
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify("search tasks", err)
	}
	return out, total, nil
}
