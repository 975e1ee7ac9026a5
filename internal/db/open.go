package db

import (
	"context"
	"fmt"

	"github.com/wuwenbin0122/lingolink/internal/models"
	"github.com/wuwenbin0122/lingolink/internal/utils"
)

// UserStore persists user records. Implementations return ErrNotFound for
// unknown users and ErrDuplicate when an email is already taken.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error)
}

// Stores bundles the user repository selected by configuration with the
// connection that backs it.
type Stores struct {
	Users UserStore

	mongo    *Mongo
	postgres *Postgres
}

// Open connects the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg *utils.Config) (*Stores, error) {
	switch cfg.StoreDriver {
	case utils.StoreMongo:
		m, err := NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return &Stores{Users: NewMongoUsers(m.Users), mongo: m}, nil
	case utils.StorePostgres:
		p, err := NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return &Stores{Users: NewPostgresUsers(p.Pool), postgres: p}, nil
	case utils.StoreMemory:
		return &Stores{Users: NewMemoryUsers()}, nil
	default:
		return nil, fmt.Errorf("db: unknown store driver %q", cfg.StoreDriver)
	}
}

// Migrate creates the indexes or tables the selected backend needs.
func (s *Stores) Migrate(ctx context.Context) error {
	switch {
	case s.mongo != nil:
		return s.mongo.EnsureCollections(ctx)
	case s.postgres != nil:
		return s.postgres.EnsureSchema(ctx)
	default:
		return nil
	}
}

func (s *Stores) Close(ctx context.Context) error {
	if s.postgres != nil {
		s.postgres.Close()
	}
	if s.mongo != nil {
		return s.mongo.Close(ctx)
	}
	return nil
}
