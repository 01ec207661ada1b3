package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/thewillhuang/middleman/internal/marketplace/auth"
	"github.com/thewillhuang/middleman/internal/marketplace/discovery"
	"github.com/thewillhuang/middleman/internal/marketplace/fsm"
	"github.com/thewillhuang/middleman/internal/models"
)

// CreateTaskInput describes a new task. RequestorID is optional and must match the caller.
type CreateTaskInput struct {
	RequestorID *string `json:"requestorId"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
	Category    string  `json:"category"`
}

// UpdateTaskInput requests a status transition.
type UpdateTaskInput struct {
	TaskID      string  `json:"-"`
	Status      string  `json:"status"`
	FulfillerID *string `json:"fulfillerId"`
}

// CreateTask posts a new OPEN task owned by the calling client.
func (e *Engine) CreateTask(ctx context.Context, caller auth.Caller, in CreateTaskInput) (models.Task, error) {
	if err := caller.Require(); err != nil {
		return models.Task{}, err
	}
	if !discovery.ValidCoordinate(in.Longitude) || !discovery.ValidCoordinate(in.Latitude) {
		return models.Task{}, fmt.Errorf("%w: longitude and latitude must be finite", models.ErrValidation)
	}
	category, err := discovery.NormalizeCategory(in.Category)
	if err != nil {
		return models.Task{}, err
	}
	if !caller.IsClient {
		return models.Task{}, fmt.Errorf("%w: only clients can post tasks", models.ErrAuthorizationDenied)
	}
	if in.RequestorID != nil && *in.RequestorID != caller.PersonID {
		return models.Task{}, fmt.Errorf("%w: tasks can only be posted for yourself", models.ErrAuthorizationDenied)
	}

	now := e.now()
	task := models.Task{
		ID:          uuid.NewString(),
		RequestorID: caller.PersonID,
		Longitude:   in.Longitude,
		Latitude:    in.Latitude,
		Category:    category,
		Status:      models.TaskStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.stores.Tasks.Create(ctx, task); err != nil {
		return models.Task{}, err
	}
	e.logger.Infof("task %s created by %s (%s)", task.ID, task.RequestorID, task.Category)
	return task, nil
}

// Task returns a single task.
func (e *Engine) Task(ctx context.Context, caller auth.Caller, id string) (models.Task, error) {
	if err := caller.Require(); err != nil {
		return models.Task{}, err
	}
	return e.loadTask(ctx, id)
}

func (e *Engine) loadTask(ctx context.Context, id string) (models.Task, error) {
	task, err := e.stores.Tasks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Task{}, fmt.Errorf("%w: task %s", models.ErrNotFound, id)
		}
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTask moves a task through the lifecycle. The write is a compare-and-swap;
// a caller that loses a race gets the error the winning state implies.
func (e *Engine) UpdateTask(ctx context.Context, caller auth.Caller, in UpdateTaskInput) (models.Task, error) {
	if err := caller.Require(); err != nil {
		return models.Task{}, err
	}
	to, err := models.ParseTaskStatus(in.Status)
	if err != nil {
		return models.Task{}, err
	}
	task, err := e.loadTask(ctx, in.TaskID)
	if err != nil {
		return models.Task{}, err
	}
	actor := fsm.Actor{PersonID: caller.PersonID, IsClient: caller.IsClient}

	for attempt := 0; ; attempt++ {
		change, err := fsm.Plan(task, actor, to, in.FulfillerID)
		if err != nil {
			e.recorder.Transition(task.Status, to, outcomeRejected)
			return models.Task{}, err
		}
		now := e.now()
		err = e.stores.Tasks.ApplyTransition(ctx, change, now)
		switch {
		case err == nil:
			e.recorder.Transition(change.From, change.To, outcomeApplied)
			e.logger.Infof("task %s: %s -> %s by %s", task.ID, change.From, change.To, caller.PersonID)
			task = change.Apply(task)
			task.UpdatedAt = now
			return task, nil
		case errors.Is(err, fsm.ErrStale) && attempt == 0:
			e.recorder.Transition(change.From, change.To, outcomeConflict)
			if task, err = e.loadTask(ctx, in.TaskID); err != nil {
				return models.Task{}, err
			}
		case errors.Is(err, fsm.ErrStale):
			e.recorder.Transition(change.From, change.To, outcomeConflict)
			return models.Task{}, fmt.Errorf("%w: task changed concurrently, try again", models.ErrInvalidState)
		default:
			e.recorder.Transition(change.From, change.To, outcomeFailed)
			e.logger.Errorf("task %s: apply %s -> %s: %v", task.ID, change.From, change.To, err)
			return models.Task{}, err
		}
	}
}

// ListTasks ranks tasks by distance from the given point.
func (e *Engine) ListTasks(ctx context.Context, caller auth.Caller, params discovery.Params) (discovery.Connection, error) {
	if err := caller.Require(); err != nil {
		return discovery.Connection{}, err
	}
	q, err := discovery.NewQuery(params, discovery.Limits{
		DefaultPageSize: e.cfg.DefaultPageSize,
		MaxPageSize:     e.cfg.MaxPageSize,
	})
	if err != nil {
		return discovery.Connection{}, err
	}
	rows, total, err := e.stores.Tasks.Search(ctx, q)
	if err != nil {
		return discovery.Connection{}, err
	}
	return discovery.Build(q, rows, total), nil
}

// TaskHistory lists the recorded status changes of a task.
func (e *Engine) TaskHistory(ctx context.Context, caller auth.Caller, taskID string) ([]models.TaskStatusEvent, error) {
	if err := caller.Require(); err != nil {
		return nil, err
	}
	if _, err := e.loadTask(ctx, taskID); err != nil {
		return nil, err
	}
	events, err := e.stores.Tasks.History(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.TaskStatusEvent{}
	}
	return events, nil
}
