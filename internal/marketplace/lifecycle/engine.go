package lifecycle

import (
	"context"
	"time"

	"github.com/thewillhuang/middleman/internal/marketplace/discovery"
	"github.com/thewillhuang/middleman/internal/marketplace/fsm"
	"github.com/thewillhuang/middleman/internal/marketplace/ratings"
	"github.com/thewillhuang/middleman/internal/marketplace/timeutil"
	"github.com/thewillhuang/middleman/internal/models"
)

// PersonStore persists accounts.
type PersonStore interface {
	Create(ctx context.Context, p models.Person) error
	GetByID(ctx context.Context, id string) (models.Person, error)
	GetByEmail(ctx context.Context, email string) (models.Person, error)
}

// TaskStore persists tasks. ApplyTransition must be an atomic compare-and-swap.
type TaskStore interface {
	Create(ctx context.Context, t models.Task) error
	Get(ctx context.Context, id string) (models.Task, error)
	ApplyTransition(ctx context.Context, c fsm.Change, at time.Time) error
	Search(ctx context.Context, q discovery.Query) ([]discovery.RankedTask, int, error)
	History(ctx context.Context, taskID string) ([]models.TaskStatusEvent, error)
}

// ReviewStore must reject a second review of the same kind for a task with ErrAlreadyExists.
type ReviewStore interface {
	Create(ctx context.Context, rv models.Review) error
	ListForTask(ctx context.Context, taskID string) ([]models.Review, error)
}

type CommentStore interface {
	Create(ctx context.Context, c models.Comment) error
	ListForTask(ctx context.Context, taskID string, limit, offset int) ([]models.Comment, error)
}

// RatingReader serves rating summaries and drops them once a new review lands.
type RatingReader interface {
	Summary(ctx context.Context, personID string) (ratings.Summary, error)
	Invalidate(ctx context.Context, personID string)
}

// TokenIssuer signs credentials for authenticated persons.
type TokenIssuer interface {
	Issue(person models.Person) (string, error)
}

// Recorder receives business events for metrics.
type Recorder interface {
	Transition(from, to models.TaskStatus, outcome string)
	Review(kind models.ReviewKind, outcome string)
}

// Logger is the minimal logging interface required by the engine.
type Logger interface {
	Infof(string, ...interface{})
	Errorf(string, ...interface{})
}

// Stores groups the persistence collaborators.
type Stores struct {
	Persons  PersonStore
	Tasks    TaskStore
	Reviews  ReviewStore
	Comments CommentStore
}

// Config tunes the engine.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
	BcryptCost      int
}

// Engine owns the marketplace rules: who may do what to which task, and when.
type Engine struct {
	cfg      Config
	logger   Logger
	stores   Stores
	ratings  RatingReader
	tokens   TokenIssuer
	recorder Recorder
	now      func() time.Time
}

// NewEngine wires the engine. A nil recorder disables metrics.
func NewEngine(cfg Config, logger Logger, stores Stores, ratings RatingReader, tokens TokenIssuer, recorder Recorder) *Engine {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Engine{
		cfg:      cfg,
		logger:   logger,
		stores:   stores,
		ratings:  ratings,
		tokens:   tokens,
		recorder: recorder,
		now:      timeutil.Now,
	}
}

const (
	outcomeApplied  = "applied"
	outcomeRejected = "rejected"
	outcomeConflict = "conflict"
	outcomeFailed   = "failed"
)

type nopRecorder struct{}

func (nopRecorder) Transition(models.TaskStatus, models.TaskStatus, string) {}
func (nopRecorder) Review(models.ReviewKind, string)                        {}
