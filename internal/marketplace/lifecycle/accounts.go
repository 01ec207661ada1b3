package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/thewillhuang/middleman/internal/marketplace/auth"
	"github.com/thewillhuang/middleman/internal/models"
)

const (
	minPasswordLength = 8
	maxPasswordBytes  = 72
	maxNameLength     = 100
)

// RegisterInput is the payload of a new account.
type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	IsClient  bool   `json:"isClient"`
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (in RegisterInput) validate() error {
	var problems []string
	if n := len(strings.TrimSpace(in.FirstName)); n == 0 || n > maxNameLength {
		problems = append(problems, "firstName is required")
	}
	if n := len(strings.TrimSpace(in.LastName)); n == 0 || n > maxNameLength {
		problems = append(problems, "lastName is required")
	}
	if addr, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil || addr.Address != strings.TrimSpace(in.Email) {
		problems = append(problems, "email is invalid")
	}
	if len(in.Password) < minPasswordLength || len(in.Password) > maxPasswordBytes {
		problems = append(problems, fmt.Sprintf("password must be %d-%d characters", minPasswordLength, maxPasswordBytes))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

// RegisterPerson creates an account. The email is stored lower-cased.
func (e *Engine) RegisterPerson(ctx context.Context, in RegisterInput) (models.Person, error) {
	if err := in.validate(); err != nil {
		return models.Person{}, err
	}
	hash, err := auth.HashPassword(in.Password, e.cfg.BcryptCost)
	if err != nil {
		return models.Person{}, fmt.Errorf("hash password: %w", err)
	}
	p := models.Person{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		IsClient:     in.IsClient,
		CreatedAt:    e.now(),
	}
	if err := e.stores.Persons.Create(ctx, p); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			return models.Person{}, fmt.Errorf("%w: email is already registered", models.ErrAlreadyExists)
		}
		return models.Person{}, err
	}
	e.logger.Infof("registered person %s (client=%t)", p.ID, p.IsClient)
	p.PasswordHash = ""
	return p, nil
}

// Authenticate returns a signed credential, or nil when the email or password is
// wrong. Both failures look the same and cost one bcrypt comparison.
func (e *Engine) Authenticate(ctx context.Context, email, password string) (*string, error) {
	p, err := e.stores.Persons.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrNotFound) {
		auth.CheckPassword("", password)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(p.PasswordHash, password) {
		return nil, nil
	}
	token, err := e.tokens.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &token, nil
}

// CurrentPerson returns the caller's own record, email included.
func (e *Engine) CurrentPerson(ctx context.Context, caller auth.Caller) (models.Person, error) {
	if err := caller.Require(); err != nil {
		return models.Person{}, err
	}
	p, err := e.loadPerson(ctx, caller.PersonID)
	if err != nil {
		return models.Person{}, err
	}
	p.PasswordHash = ""
	return p, nil
}

// Person returns the public view of any person.
func (e *Engine) Person(ctx context.Context, caller auth.Caller, id string) (models.PublicPerson, error) {
	if err := caller.Require(); err != nil {
		return models.PublicPerson{}, err
	}
	p, err := e.loadPerson(ctx, id)
	if err != nil {
		return models.PublicPerson{}, err
	}
	return p.Public(), nil
}

func (e *Engine) loadPerson(ctx context.Context, id string) (models.Person, error) {
	p, err := e.stores.Persons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Person{}, fmt.Errorf("%w: person %s", models.ErrNotFound, id)
		}
		return models.Person{}, err
	}
	summary, err := e.ratings.Summary(ctx, p.ID)
	if err != nil {
		return models.Person{}, err
	}
	p.Rating = summary.Mean()
	p.RatingCount = summary.Count
	return p, nil
}
