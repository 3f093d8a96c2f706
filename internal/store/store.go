// Package store persists chat sessions.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/zhouzirui/persona-chat/backend/internal/config"
	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

// ErrNotFound is returned by Get when no session has the requested id.
var ErrNotFound = errors.New("session not found")

// Store is a durable keyed collection of sessions.
// A successful Put is durable before it returns. Implementations must be safe for
// concurrent use; they do not serialize read-modify-write cycles across calls.
type Store interface {
	Put(ctx context.Context, session chat.Session) error
	Get(ctx context.Context, id string) (chat.Session, error)
	// ListSummaries returns every session, newest first.
	ListSummaries(ctx context.Context) ([]chat.Summary, error)
	// Delete reports whether a session was removed.
	Delete(ctx context.Context, id string) (bool, error)
	Close() error
}

// Open connects the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.StoreMongo:
		return OpenMongo(ctx, MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	default:
		return nil, errors.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
