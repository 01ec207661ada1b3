package repo

import (
	"context"

	"github.com/thewillhuang/middleman/internal/marketplace/timeutil"
	"github.com/thewillhuang/middleman/internal/models"
)

// PersonsRepo persists accounts.
type PersonsRepo struct {
	db *DB
}

func NewPersonsRepo(db *DB) *PersonsRepo {
	return &PersonsRepo{db: db}
}

const personColumns = `id, first_name, last_name, email, password_hash, is_client, created_at`

// Create inserts a person. A taken email yields ErrAlreadyExists.
func (r *PersonsRepo) Create(ctx context.Context, p models.Person) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.sql.ExecContext(ctx, r.db.rebind(`
		INSERT INTO persons (`+personColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.FirstName, p.LastName, p.Email, p.PasswordHash, p.IsClient, timeutil.ToMicros(p.CreatedAt))
	return classify("create person", err)
}

func (r *PersonsRepo) GetByID(ctx context.Context, id string) (models.Person, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail expects an already normalised email.
func (r *PersonsRepo) GetByEmail(ctx context.Context, email string) (models.Person, error) {
	return r.getBy(ctx, "email", email)
}

func (r *PersonsRepo) getBy(ctx context.Context, column, value string) (models.Person, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var (
		p       models.Person
		created int64
	)
	err := r.db.sql.QueryRowContext(ctx, r.db.rebind(`SELECT `+personColumns+` FROM persons WHERE `+column+` = ?`), value).
		Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.PasswordHash, &p.IsClient, &created)
	if err != nil {
		return models.Person{}, classify("person", err)
	}
	p.CreatedAt = timeutil.FromMicros(created)
	return p, nil
}
