package persistence

import "context"

// Keys under which the roster snapshot is stored. The names match the ones
// the browser client used for local storage so exported data stays portable.
const (
	KeyUsers         = "swimref-users-list"
	KeyCompetitions  = "swimref-competitions-list"
	KeyNotifications = "swimref-notifications"
	KeyCurrentUser   = "swimref-current-user"
	KeyCommittee     = "swimref-committee"
)

// SnapshotKeys lists every key loaded at startup.
var SnapshotKeys = []string{
	KeyUsers,
	KeyCompetitions,
	KeyNotifications,
	KeyCurrentUser,
	KeyCommittee,
}

// Adapter is a key/value blob store. Load returns ErrNotFound when the key has
// never been saved or was deleted. Implementations must be safe for
// concurrent use.
type Adapter interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
