package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/thewillhuang/middleman/internal/marketplace/auth"
	"github.com/thewillhuang/middleman/internal/models"
)

// CreateComment attaches free text to a task on behalf of the caller.
func (e *Engine) CreateComment(ctx context.Context, caller auth.Caller, taskID, commentary string) (models.Comment, error) {
	if err := caller.Require(); err != nil {
		return models.Comment{}, err
	}
	commentary = strings.TrimSpace(commentary)
	if n := utf8.RuneCountInString(commentary); n == 0 || n > models.MaxCommentLength {
		return models.Comment{}, fmt.Errorf("%w: commentary must be 1-%d characters", models.ErrValidation, models.MaxCommentLength)
	}
	if _, err := e.loadTask(ctx, taskID); err != nil {
		return models.Comment{}, err
	}
	c := models.Comment{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		PersonID:   caller.PersonID,
		Commentary: commentary,
		CreatedAt:  e.now(),
	}
	if err := e.stores.Comments.Create(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// ListComments pages through a task's comments, oldest first.
func (e *Engine) ListComments(ctx context.Context, caller auth.Caller, taskID string, limit, offset int) ([]models.Comment, error) {
	if err := caller.Require(); err != nil {
		return nil, err
	}
	if limit <= 0 || offset < 0 {
		return nil, fmt.Errorf("%w: invalid paging", models.ErrValidation)
	}
	if ceiling := e.cfg.MaxPageSize; ceiling > 0 && limit > ceiling {
		limit = ceiling
	}
	if _, err := e.loadTask(ctx, taskID); err != nil {
		return nil, err
	}
	return e.stores.Comments.ListForTask(ctx, taskID, limit, offset)
}
