package quotascan

import (
	"github.com/rs/zerolog/log"
)

// NormalizeReport converts the raw report rows of one storage target's
// filesystem into a normalized quota map.
//
// Effective block usage is raw usage multiplied by the target's data
// replication factor: replicated data occupies extra physical blocks
// that still count against the logical quota. File counts are not
// replicated per block and are taken as-is. Rows of a kind other than
// user or fileset are dropped. Fileset rows are re-keyed from numeric
// fileset id to fileset name when the name map has an entry.
//
// Returns MissingFilesystemError when the report has no entry at all
// for the target's filesystem; the caller skips the target.
func NormalizeReport(raw RawReport, target StorageTarget, filesetNames map[string]string) (*FilesystemQuota, error) {
	fsRaw, ok := raw[target.Filesystem]
	if !ok {
		return nil, MissingFilesystemError
	}

	out := &FilesystemQuota{
		Filesystem: target.Filesystem,
		Kinds:      make(map[EntityKind]*KindSet),
	}

	for kind, entries := range fsRaw.Entries {
		if kind != KindUser && kind != KindFileset {
			log.Debug().Str("storage", target.Name).Str("kind", string(kind)).
				Int("entries", len(entries)).Msg("Dropping quota entries of unhandled entity kind")
			continue
		}
		set := NewKindSet()
		for _, e := range entries {
			id := e.ID
			if kind == KindFileset {
				if name, ok := filesetNames[e.ID]; ok {
					id = name
				}
			}
			set.Add(&QuotaRecord{
				ID:               id,
				Kind:             kind,
				Filesystem:       target.Filesystem,
				Storage:          target.Name,
				BlockUsage:       float64(e.BlockUsage) * target.ReplicationFactor,
				BlockSoft:        float64(e.BlockSoft),
				BlockHard:        float64(e.BlockHard),
				BlockGraceExpiry: e.BlockGraceExpiry,
				FilesUsage:       e.FilesUsage,
				FilesSoft:        e.FilesSoft,
				FilesHard:        e.FilesHard,
				FilesGraceExpiry: e.FilesGraceExpiry,
			})
		}
		out.Kinds[kind] = set
	}

	return out, nil
}
