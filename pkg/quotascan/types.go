package quotascan

import (
	"fmt"
	"time"
)

type EntityKind string
type ExceedKind string

const (
	KindUser    EntityKind = "user"
	KindFileset EntityKind = "fileset"

	ExceedBlock ExceedKind = "block"
	ExceedFile  ExceedKind = "file"
	ExceedBoth  ExceedKind = "both"

	TracerName = "quotascan"
)

// StorageTarget is one administratively configured filesystem to check.
// Loaded once from configuration at startup, immutable during a scan cycle.
type StorageTarget struct {
	Name              string
	Filesystem        string
	ReplicationFactor float64
}

func (t StorageTarget) String() string {
	return fmt.Sprintln("StorageTarget(name:", t.Name, "filesystem:", t.Filesystem, "replication:", t.ReplicationFactor, ")")
}

// QuotaRecord is one entity's quota state on one filesystem, after
// normalization. Block figures are effective bytes, i.e. already scaled
// by the storage target's data replication factor. A limit of 0 means
// no limit is set for that dimension.
type QuotaRecord struct {
	ID               string
	Kind             EntityKind
	Filesystem       string
	Storage          string
	BlockUsage       float64
	BlockSoft        float64
	BlockHard        float64
	BlockGraceExpiry *time.Time
	FilesUsage       uint64
	FilesSoft        uint64
	FilesHard        uint64
	FilesGraceExpiry *time.Time
}

func (q *QuotaRecord) String() string {
	return fmt.Sprintln("QuotaRecord(id:", q.ID, "kind:", q.Kind, "fs:", q.Filesystem,
		"blockUsage:", q.BlockUsage, "blockSoft:", q.BlockSoft, "blockHard:", q.BlockHard,
		"filesUsage:", q.FilesUsage, "filesSoft:", q.FilesSoft, "filesHard:", q.FilesHard, ")")
}

// ExceedingEntity is one entity that breaches its quota on at least one
// dimension. Entities within limits are never represented.
type ExceedingEntity struct {
	ID     string
	Record *QuotaRecord
	Exceed ExceedKind
}

// RawQuotaEntry is a single row of the backend's quota report, before
// replication scaling. Block figures are raw bytes.
type RawQuotaEntry struct {
	ID               string
	Kind             EntityKind
	BlockUsage       uint64
	BlockSoft        uint64
	BlockHard        uint64
	BlockGraceExpiry *time.Time
	FilesUsage       uint64
	FilesSoft        uint64
	FilesHard        uint64
	FilesGraceExpiry *time.Time
}

// RawFilesystemQuota holds the report rows of one filesystem, grouped
// per entity kind. Slice order is the backend's enumeration order and
// is preserved through normalization and classification.
type RawFilesystemQuota struct {
	Filesystem string
	Entries    map[EntityKind][]RawQuotaEntry
}

// RawReport is the bulk quota report of the whole cluster, keyed by
// filesystem name. Fetched once per scan cycle, read-only afterwards.
type RawReport map[string]*RawFilesystemQuota

// KindSet holds the normalized records of one entity kind on one
// filesystem, keyed by entity id, preserving report enumeration order.
type KindSet struct {
	order   []string
	records map[string]*QuotaRecord
}

func NewKindSet() *KindSet {
	return &KindSet{records: make(map[string]*QuotaRecord)}
}

func (s *KindSet) Add(rec *QuotaRecord) {
	if _, ok := s.records[rec.ID]; !ok {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec
}

func (s *KindSet) Get(id string) *QuotaRecord {
	return s.records[id]
}

func (s *KindSet) Len() int {
	return len(s.order)
}

// Records returns the records in report enumeration order.
func (s *KindSet) Records() []*QuotaRecord {
	out := make([]*QuotaRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// FilesystemQuota is the normalized quota map of one filesystem.
// Built fresh per scan cycle, never mutated after construction.
type FilesystemQuota struct {
	Filesystem string
	Kinds      map[EntityKind]*KindSet
}

func (f *FilesystemQuota) Kind(kind EntityKind) *KindSet {
	if set, ok := f.Kinds[kind]; ok {
		return set
	}
	return NewKindSet()
}
