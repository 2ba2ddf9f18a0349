package quotascan

import "context"

// StorageBackend is the query surface of the underlying storage system.
// The scanner treats the three results as a single snapshot and fetches
// them once per cycle, before the per-target loop.
type StorageBackend interface {
	// ListFilesystems returns the filesystem names currently known to
	// the cluster.
	ListFilesystems(ctx context.Context) ([]string, error)
	// ListFilesets returns, per filesystem, the mapping from numeric
	// fileset id to fileset name.
	ListFilesets(ctx context.Context) (map[string]map[string]string, error)
	// ListQuota returns the raw per-filesystem quota report.
	ListQuota(ctx context.Context) (RawReport, error)
}

// IdentityResolver maps a numeric user id to a display name. Consumed
// only by the dispatcher for notification content.
type IdentityResolver interface {
	UserName(ctx context.Context, uid string) (string, error)
}

// Notification is one quota-exceedance message handed to the delivery
// mechanism.
type Notification struct {
	Storage     string
	Filesystem  string
	Kind        EntityKind
	EntityID    string
	DisplayName string
	Exceed      ExceedKind
	Record      *QuotaRecord
}

// NotificationSink delivers notifications to the offending entities.
// In dry-run mode the dispatcher never invokes it.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

// SnapshotStore persists a per-entity quota record for historical and
// audit lookup. The persistence format is the store's concern.
type SnapshotStore interface {
	WriteRecord(kind EntityKind, id string, rec *QuotaRecord) error
}
