package storage

import (
	"context"
	"errors"

	"github.com/MarcelKueck/shareyourspace-mvp/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict. The database's unique
// email index is the only guard against concurrent duplicate registration;
// the application never locks around the check-then-insert.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures the persistence operations the auth flows need.
type UserStore interface {
	Insert(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (models.User, error)
	Update(ctx context.Context, user models.User) (models.User, error)
}
