package fsm

import (
	"errors"
	"strings"
	"testing"

	"github.com/thewillhuang/middleman/internal/models"
)

func strPtr(s string) *string { return &s }

func taskIn(status models.TaskStatus, fulfiller *string) models.Task {
	return models.Task{ID: "t1", RequestorID: "client", FulfillerID: fulfiller, Status: status, Category: "CAR_WASH"}
}

var (
	client  = Actor{PersonID: "client", IsClient: true}
	driver  = Actor{PersonID: "d1"}
	driver2 = Actor{PersonID: "d2"}
	other   = Actor{PersonID: "u2", IsClient: true}
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]models.TaskStatus{
		{models.TaskStatusOpen, models.TaskStatusScheduled},
		{models.TaskStatusOpen, models.TaskStatusClosed},
		{models.TaskStatusScheduled, models.TaskStatusPending},
		{models.TaskStatusScheduled, models.TaskStatusClosed},
		{models.TaskStatusPending, models.TaskStatusFinished},
	}
	count := 0
	for _, from := range models.TaskStatuses {
		for _, to := range models.TaskStatuses {
			if CanTransition(from, to) {
				count++
			}
		}
	}
	if count != len(allowed) {
		t.Fatalf("expected %d edges, got %d", len(allowed), count)
	}
	for _, edge := range allowed {
		if !CanTransition(edge[0], edge[1]) {
			t.Fatalf("expected %s -> %s to be allowed", edge[0], edge[1])
		}
	}
	if CanTransition(models.TaskStatusOpen, models.TaskStatusOpen) {
		t.Fatalf("same-state moves must not be transitions")
	}
}

func TestPlanHappyPath(t *testing.T) {
	task := taskIn(models.TaskStatusOpen, nil)

	change, err := Plan(task, driver, models.TaskStatusScheduled, nil)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if change.ToFulfiller == nil || *change.ToFulfiller != "d1" {
		t.Fatalf("claim must assign caller, got %v", change.ToFulfiller)
	}
	if change.FromFulfiller != nil {
		t.Fatalf("expected no previous fulfiller")
	}
	task = change.Apply(task)

	change, err = Plan(task, driver, models.TaskStatusPending, nil)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	task = change.Apply(task)

	change, err = Plan(task, client, models.TaskStatusFinished, nil)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	task = change.Apply(task)
	if task.Status != models.TaskStatusFinished || !task.IsFulfiller("d1") {
		t.Fatalf("unexpected final task %+v", task)
	}
}

func TestPlanErrors(t *testing.T) {
	cases := []struct {
		name      string
		task      models.Task
		actor     Actor
		to        models.TaskStatus
		requested *string
		want      error
	}{
		{"unknown target", taskIn(models.TaskStatusOpen, nil), driver, "DONE", nil, models.ErrValidation},
		{"client claims", taskIn(models.TaskStatusOpen, nil), client, models.TaskStatusScheduled, nil, models.ErrAuthorizationDenied},
		{"claim for someone else", taskIn(models.TaskStatusOpen, nil), driver, models.TaskStatusScheduled, strPtr("d2"), models.ErrAuthorizationDenied},
		{"second claim", taskIn(models.TaskStatusScheduled, strPtr("d1")), driver2, models.TaskStatusScheduled, nil, models.ErrInvalidState},
		{"claim finished", taskIn(models.TaskStatusFinished, strPtr("d1")), driver2, models.TaskStatusScheduled, nil, models.ErrInvalidState},
		{"claim closed", taskIn(models.TaskStatusClosed, nil), driver2, models.TaskStatusScheduled, nil, models.ErrInvalidState},
		{"pending by other driver", taskIn(models.TaskStatusScheduled, strPtr("d1")), driver2, models.TaskStatusPending, nil, models.ErrAuthorizationDenied},
		{"pending by requestor", taskIn(models.TaskStatusScheduled, strPtr("d1")), client, models.TaskStatusPending, nil, models.ErrAuthorizationDenied},
		{"finish by fulfiller", taskIn(models.TaskStatusPending, strPtr("d1")), driver, models.TaskStatusFinished, nil, models.ErrAuthorizationDenied},
		{"finish from open", taskIn(models.TaskStatusOpen, nil), client, models.TaskStatusFinished, nil, models.ErrInvalidState},
		{"finish from scheduled", taskIn(models.TaskStatusScheduled, strPtr("d1")), client, models.TaskStatusFinished, nil, models.ErrInvalidState},
		{"close by non-owner", taskIn(models.TaskStatusOpen, nil), other, models.TaskStatusClosed, nil, models.ErrAuthorizationDenied},
		{"close pending", taskIn(models.TaskStatusPending, strPtr("d1")), client, models.TaskStatusClosed, nil, models.ErrInvalidState},
		{"close finished", taskIn(models.TaskStatusFinished, strPtr("d1")), client, models.TaskStatusClosed, nil, models.ErrInvalidState},
		{"reopen", taskIn(models.TaskStatusClosed, nil), client, models.TaskStatusOpen, nil, models.ErrInvalidState},
		{"foreign fulfiller on pending", taskIn(models.TaskStatusScheduled, strPtr("d1")), driver, models.TaskStatusPending, strPtr("d2"), models.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Plan(tc.task, tc.actor, tc.to, tc.requested)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPlanCloseClearsFulfiller(t *testing.T) {
	task := taskIn(models.TaskStatusScheduled, strPtr("d1"))
	change, err := Plan(task, client, models.TaskStatusClosed, nil)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if change.ToFulfiller != nil {
		t.Fatalf("closing must clear the fulfiller")
	}
	if change.FromFulfiller == nil || *change.FromFulfiller != "d1" {
		t.Fatalf("expected compare value d1, got %v", change.FromFulfiller)
	}
}

func TestFulfillerInvariant(t *testing.T) {
	actors := []Actor{client, driver, driver2, other}
	for _, from := range models.TaskStatuses {
		var fulfiller *string
		if from.Assigned() {
			fulfiller = strPtr("d1")
		}
		for _, to := range models.TaskStatuses {
			for _, actor := range actors {
				change, err := Plan(taskIn(from, fulfiller), actor, to, nil)
				if err != nil {
					continue
				}
				if (change.ToFulfiller != nil) != change.To.Assigned() {
					t.Fatalf("%s -> %s by %s breaks fulfiller invariant", from, to, actor.PersonID)
				}
			}
		}
	}
}

func TestTargets(t *testing.T) {
	if got := Targets(models.TaskStatusFinished); len(got) != 0 {
		t.Fatalf("finished must be terminal, got %v", got)
	}
	if got := Targets(models.TaskStatusOpen); len(got) != 2 {
		t.Fatalf("expected two targets from OPEN, got %v", got)
	}
}

func TestInvalidTransitionNamesReachableStatuses(t *testing.T) {
	_, err := Plan(taskIn(models.TaskStatusPending, strPtr("d1")), client, models.TaskStatusClosed, nil)
	if !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if !strings.Contains(err.Error(), "can only move to FINISHED") {
		t.Fatalf("unexpected message %q", err.Error())
	}

	_, err = Plan(taskIn(models.TaskStatusOpen, nil), client, models.TaskStatusPending, nil)
	if err == nil || !strings.Contains(err.Error(), "can only move to SCHEDULED or CLOSED") {
		t.Fatalf("unexpected error %v", err)
	}
}
