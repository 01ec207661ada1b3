package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/thewillhuang/middleman/internal/marketplace/auth"
	"github.com/thewillhuang/middleman/internal/models"
)

// AddTaskReview lets the requestor rate the fulfiller of a finished task.
func (e *Engine) AddTaskReview(ctx context.Context, caller auth.Caller, taskID string, rating int) (models.Task, error) {
	return e.addReview(ctx, caller, taskID, rating, models.ReviewKindTask)
}

// AddClientReview lets the fulfiller rate the requestor of a finished task.
func (e *Engine) AddClientReview(ctx context.Context, caller auth.Caller, taskID string, rating int) (models.Task, error) {
	return e.addReview(ctx, caller, taskID, rating, models.ReviewKindClient)
}

func (e *Engine) addReview(ctx context.Context, caller auth.Caller, taskID string, rating int, kind models.ReviewKind) (models.Task, error) {
	if err := caller.Require(); err != nil {
		return models.Task{}, err
	}
	if rating < models.MinRating || rating > models.MaxRating {
		return models.Task{}, fmt.Errorf("%w: rating must be between %d and %d", models.ErrValidation, models.MinRating, models.MaxRating)
	}
	task, err := e.loadTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}

	var rated string
	switch kind {
	case models.ReviewKindTask:
		if task.RequestorID != caller.PersonID {
			e.recorder.Review(kind, outcomeRejected)
			return models.Task{}, fmt.Errorf("%w: only the requestor can review the task", models.ErrAuthorizationDenied)
		}
		if task.FulfillerID != nil {
			rated = *task.FulfillerID
		}
	case models.ReviewKindClient:
		if !task.IsFulfiller(caller.PersonID) {
			e.recorder.Review(kind, outcomeRejected)
			return models.Task{}, fmt.Errorf("%w: only the fulfiller can review the client", models.ErrAuthorizationDenied)
		}
		rated = task.RequestorID
	}
	if task.Status != models.TaskStatusFinished || rated == "" {
		e.recorder.Review(kind, outcomeRejected)
		return models.Task{}, fmt.Errorf("%w: only finished tasks can be reviewed", models.ErrInvalidState)
	}

	review := models.Review{
		ID:            uuid.NewString(),
		Kind:          kind,
		TaskID:        task.ID,
		RaterID:       caller.PersonID,
		RatedPersonID: rated,
		Rating:        rating,
		CreatedAt:     e.now(),
	}
	if err := e.stores.Reviews.Create(ctx, review); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			e.recorder.Review(kind, outcomeConflict)
			return models.Task{}, fmt.Errorf("%w: task already has a %s review", models.ErrAlreadyExists, kind)
		}
		e.recorder.Review(kind, outcomeFailed)
		return models.Task{}, err
	}
	e.ratings.Invalidate(ctx, rated)
	e.recorder.Review(kind, outcomeApplied)
	e.logger.Infof("task %s: %s review %d by %s for %s", task.ID, kind, rating, caller.PersonID, rated)
	return task, nil
}

// TaskReviews lists the reviews left on a task, at most one per kind.
func (e *Engine) TaskReviews(ctx context.Context, caller auth.Caller, taskID string) ([]models.Review, error) {
	if err := caller.Require(); err != nil {
		return nil, err
	}
	if _, err := e.loadTask(ctx, taskID); err != nil {
		return nil, err
	}
	reviews, err := e.stores.Reviews.ListForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}
