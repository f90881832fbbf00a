package session

import "context"

// Namespace is the fixed key the session record is stored under.
const Namespace = "auth-storage"

// Repo persists the session record between process runs.
type Repo interface {
	// Load returns the stored record. found is false when nothing was stored yet.
	Load(ctx context.Context) (record Record, found bool, err error)

	// Save replaces the stored record
	Save(ctx context.Context, record Record) error
}
