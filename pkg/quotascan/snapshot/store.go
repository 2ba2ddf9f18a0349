// Package snapshot persists per-entity quota records as gzip-compressed
// JSON files for historical and audit lookup.
package snapshot

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hpcfs/quotascan/pkg/quotascan"
)

// Store writes one file per entity under dir, keyed by entity kind and
// identifier: <dir>/<kind>/<id>.json.gz. A repeated write for the same
// entity replaces the previous snapshot.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

type snapshotEnvelope struct {
	Timestamp time.Time              `json:"timestamp"`
	Kind      quotascan.EntityKind   `json:"kind"`
	ID        string                 `json:"id"`
	Record    *quotascan.QuotaRecord `json:"record"`
}

func (s *Store) path(kind quotascan.EntityKind, id string) string {
	return filepath.Join(s.dir, string(kind), id+".json.gz")
}

func (s *Store) WriteRecord(kind quotascan.EntityKind, id string, rec *quotascan.QuotaRecord) error {
	target := s.path(kind, id)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}

	// Write to a temp file and rename, a reader never sees a torn
	// snapshot.
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+id+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	zw := gzip.NewWriter(tmp)
	envelope := snapshotEnvelope{
		Timestamp: time.Now(),
		Kind:      kind,
		ID:        id,
		Record:    rec,
	}
	if err := json.NewEncoder(zw).Encode(envelope); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode quota snapshot for %s %s: %w", kind, id, err)
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return err
	}

	log.Debug().Str("kind", string(kind)).Str("id", id).Str("path", target).Msg("Wrote quota snapshot")
	return nil
}

// ReadRecord loads a previously written snapshot.
func (s *Store) ReadRecord(kind quotascan.EntityKind, id string) (*quotascan.QuotaRecord, error) {
	f, err := os.Open(s.path(kind, id))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()

	var envelope snapshotEnvelope
	if err := json.NewDecoder(zr).Decode(&envelope); err != nil {
		return nil, err
	}
	return envelope.Record, nil
}
