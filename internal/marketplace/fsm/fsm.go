package fsm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/thewillhuang/middleman/internal/models"
)

// ErrStale is returned by stores when a compare-and-swap found the task in a
// different state than the one the change was planned against.
var ErrStale = errors.New("task changed concurrently")

// Actor is the authenticated person attempting a transition.
type Actor struct {
	PersonID string
	IsClient bool
}

// Change is a validated transition ready to be persisted with a compare-and-swap
// on both status and fulfiller.
type Change struct {
	TaskID        string
	From          models.TaskStatus
	To            models.TaskStatus
	FromFulfiller *string
	ToFulfiller   *string
	ActorID       string
}

type guard func(task models.Task, actor Actor, requested *string) error

type rule struct {
	guard  guard
	assign func(task models.Task, actor Actor) *string
}

var transitions = map[models.TaskStatus]map[models.TaskStatus]rule{
	models.TaskStatusOpen: {
		models.TaskStatusScheduled: {guard: claimGuard, assign: assignActor},
		models.TaskStatusClosed:    {guard: requestorGuard, assign: clearFulfiller},
	},
	models.TaskStatusScheduled: {
		models.TaskStatusPending: {guard: fulfillerGuard, assign: keepFulfiller},
		models.TaskStatusClosed:  {guard: requestorGuard, assign: clearFulfiller},
	},
	models.TaskStatusPending: {
		models.TaskStatusFinished: {guard: requestorGuard, assign: keepFulfiller},
	},
}

// CanTransition reports whether the lifecycle has an edge from one status to another.
// Staying in the same status is never a transition.
func CanTransition(from, to models.TaskStatus) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Targets returns the statuses reachable from the given one.
func Targets(from models.TaskStatus) []models.TaskStatus {
	var out []models.TaskStatus
	for _, s := range models.TaskStatuses {
		if CanTransition(from, s) {
			out = append(out, s)
		}
	}
	return out
}

// Plan validates moving task to the target status on behalf of actor. requested is
// the optional fulfiller supplied by the caller.
func Plan(task models.Task, actor Actor, to models.TaskStatus, requested *string) (Change, error) {
	if !to.Valid() {
		return Change{}, fmt.Errorf("%w: unknown task status %q", models.ErrValidation, to)
	}
	r, ok := transitions[task.Status][to]
	if !ok {
		return Change{}, invalidTransition(task, to)
	}
	if err := r.guard(task, actor, requested); err != nil {
		return Change{}, err
	}
	if to != models.TaskStatusScheduled && requested != nil && !task.IsFulfiller(*requested) {
		return Change{}, fmt.Errorf("%w: fulfillerId can only be set when claiming a task", models.ErrValidation)
	}
	return Change{
		TaskID:        task.ID,
		From:          task.Status,
		To:            to,
		FromFulfiller: task.FulfillerID,
		ToFulfiller:   r.assign(task, actor),
		ActorID:       actor.PersonID,
	}, nil
}

// Apply returns the task as it looks after the change.
func (c Change) Apply(task models.Task) models.Task {
	task.Status = c.To
	task.FulfillerID = c.ToFulfiller
	return task
}

func invalidTransition(task models.Task, to models.TaskStatus) error {
	switch {
	case to == models.TaskStatusScheduled && task.Status.Assigned():
		return fmt.Errorf("%w: task is already assigned", models.ErrInvalidState)
	case task.Status == to:
		return fmt.Errorf("%w: task is already %s", models.ErrInvalidState, to)
	case task.Status.Terminal():
		return fmt.Errorf("%w: task is %s", models.ErrInvalidState, task.Status)
	case to == models.TaskStatusFinished:
		return fmt.Errorf("%w: only a pending task can be finished", models.ErrInvalidState)
	default:
		next := Targets(task.Status)
		names := make([]string, len(next))
		for i, s := range next {
			names[i] = string(s)
		}
		return fmt.Errorf("%w: cannot move task from %s to %s, it can only move to %s",
			models.ErrInvalidState, task.Status, to, strings.Join(names, " or "))
	}
}

func claimGuard(task models.Task, actor Actor, requested *string) error {
	if actor.IsClient {
		return fmt.Errorf("%w: only fulfillers can claim tasks", models.ErrAuthorizationDenied)
	}
	if requested != nil && *requested != actor.PersonID {
		return fmt.Errorf("%w: tasks can only be claimed for yourself", models.ErrAuthorizationDenied)
	}
	if task.FulfillerID != nil {
		return fmt.Errorf("%w: task is already assigned", models.ErrInvalidState)
	}
	return nil
}

func fulfillerGuard(task models.Task, actor Actor, _ *string) error {
	if !task.IsFulfiller(actor.PersonID) {
		return fmt.Errorf("%w: only the assigned fulfiller can do this", models.ErrAuthorizationDenied)
	}
	return nil
}

func requestorGuard(task models.Task, actor Actor, _ *string) error {
	if task.RequestorID != actor.PersonID {
		return fmt.Errorf("%w: only the requestor can do this", models.ErrAuthorizationDenied)
	}
	return nil
}

func assignActor(_ models.Task, actor Actor) *string {
	id := actor.PersonID
	return &id
}

func keepFulfiller(task models.Task, _ Actor) *string {
	return task.FulfillerID
}

func clearFulfiller(models.Task, Actor) *string {
	return nil
}
