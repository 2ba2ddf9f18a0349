package quotascan

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ScanStats accumulates the named per-target counters reported to the
// monitoring interface. The scanner is the single writer; once
// finalized the stats are read-only.
type ScanStats struct {
	counters  map[string]int
	severity  Severity
	finalized bool
}

func NewScanStats() *ScanStats {
	return &ScanStats{counters: make(map[string]int)}
}

func (s *ScanStats) Set(key string, value int) {
	if s.finalized {
		log.Warn().Str("key", key).Int("value", value).Msg("Ignoring stats update after finalization")
		return
	}
	s.counters[key] = value
}

// Finalize seals the stats with the overall scan severity.
func (s *ScanStats) Finalize(severity Severity) {
	s.severity = severity
	s.finalized = true
}

func (s *ScanStats) Severity() Severity {
	return s.severity
}

func (s *ScanStats) Get(key string) (int, bool) {
	v, ok := s.counters[key]
	return v, ok
}

func (s *ScanStats) Len() int {
	return len(s.counters)
}

// Keys returns the counter names in sorted order, for deterministic
// monitoring output.
func (s *ScanStats) Keys() []string {
	keys := maps.Keys(s.counters)
	slices.Sort(keys)
	return keys
}

// Counters returns a copy of the counter map.
func (s *ScanStats) Counters() map[string]int {
	out := make(map[string]int, len(s.counters))
	maps.Copy(out, s.counters)
	return out
}
