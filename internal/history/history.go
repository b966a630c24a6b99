package history

import (
	"context"

	"github.com/starford/hostsub/internal/models"
	"github.com/starford/hostsub/internal/notify"
)

// Log is the audit trail used by the service layer. Depend on it instead of
// *DB so tests can substitute a fake.
type Log interface {
	RecordMutation(m models.Mutation) error
	ListMutations(limit, offset int, hostname string) ([]models.Mutation, int, error)
	Notify(ctx context.Context, n notify.Notification) error
	ListNotifications(limit, offset int) ([]models.NotificationLog, int, error)
	SetChecksum(path, sum string) error
	GetChecksum(path string) (string, error)
	Close() error
}

var (
	_ Log             = (*DB)(nil)
	_ notify.Notifier = (*DB)(nil)
)
