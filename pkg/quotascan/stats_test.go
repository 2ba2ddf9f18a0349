package quotascan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanStatsKeysAreSorted(t *testing.T) {
	stats := NewScanStats()
	stats.Set("scratch_users", 3)
	stats.Set("home_users", 1)
	stats.Set("scratch_fileset", 0)

	assert.Equal(t, []string{"home_users", "scratch_fileset", "scratch_users"}, stats.Keys())
}

func TestScanStatsIgnoreUpdatesAfterFinalize(t *testing.T) {
	stats := NewScanStats()
	stats.Set("scratch_users", 3)
	stats.Finalize(SeverityWarning)

	stats.Set("scratch_users", 99)
	stats.Set("late_entry", 1)

	v, _ := stats.Get("scratch_users")
	assert.Equal(t, 3, v)
	_, ok := stats.Get("late_entry")
	assert.False(t, ok)
	assert.Equal(t, SeverityWarning, stats.Severity())
}

func TestScanStatsCountersReturnsCopy(t *testing.T) {
	stats := NewScanStats()
	stats.Set("scratch_users", 3)

	counters := stats.Counters()
	counters["scratch_users"] = 100

	v, _ := stats.Get("scratch_users")
	assert.Equal(t, 3, v)
}
