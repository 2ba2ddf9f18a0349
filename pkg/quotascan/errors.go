package quotascan

import (
	"errors"
	"fmt"
)

// Recoverable per-target conditions. The orchestrator logs these, skips
// the target and continues with the next one. Everything else aborts
// the whole scan cycle.
var MissingFilesystemError = errors.New("filesystem has no entry in the quota report")
var NoQuotaDataError = errors.New("no quota data defined for filesystem")

// UnknownStorageTargetError is a configuration error, raised at startup
// before any target processing begins.
type UnknownStorageTargetError struct {
	Name string
}

func (e UnknownStorageTargetError) Error() string {
	return fmt.Sprintf("unknown storage target %q, not present in configuration", e.Name)
}
