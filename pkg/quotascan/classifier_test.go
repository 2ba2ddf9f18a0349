package quotascan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var evalTime = time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time {
	return &t
}

func singleRecordSet(rec *QuotaRecord) *KindSet {
	set := NewKindSet()
	set.Add(rec)
	return set
}

func TestExceedingBlockDimension(t *testing.T) {
	testCases := []struct {
		name     string
		record   *QuotaRecord
		expected []ExceedKind // empty means not exceeding
	}{
		{
			name:     "below soft limit never exceeds",
			record:   &QuotaRecord{ID: "2540001", Kind: KindUser, BlockUsage: 120, BlockSoft: 150, BlockHard: 200},
			expected: nil,
		},
		{
			name:     "at hard limit exceeds without grace",
			record:   &QuotaRecord{ID: "2540002", Kind: KindUser, BlockUsage: 200, BlockSoft: 150, BlockHard: 200},
			expected: []ExceedKind{ExceedBlock},
		},
		{
			name:     "over hard limit exceeds with future grace",
			record:   &QuotaRecord{ID: "2540003", Kind: KindUser, BlockUsage: 250, BlockSoft: 150, BlockHard: 200, BlockGraceExpiry: timePtr(evalTime.Add(time.Hour))},
			expected: []ExceedKind{ExceedBlock},
		},
		{
			name:     "over soft limit without grace timestamp is informational only",
			record:   &QuotaRecord{ID: "2540004", Kind: KindUser, BlockUsage: 160, BlockSoft: 150, BlockHard: 200},
			expected: nil,
		},
		{
			name:     "over soft limit with future grace is not yet exceeding",
			record:   &QuotaRecord{ID: "2540005", Kind: KindUser, BlockUsage: 160, BlockSoft: 150, BlockHard: 200, BlockGraceExpiry: timePtr(evalTime.Add(time.Hour))},
			expected: nil,
		},
		{
			name:     "over soft limit with expired grace exceeds",
			record:   &QuotaRecord{ID: "2540006", Kind: KindUser, BlockUsage: 160, BlockSoft: 150, BlockHard: 200, BlockGraceExpiry: timePtr(evalTime.Add(-time.Hour))},
			expected: []ExceedKind{ExceedBlock},
		},
		{
			name:     "grace expiring exactly at evaluation time exceeds",
			record:   &QuotaRecord{ID: "2540007", Kind: KindUser, BlockUsage: 160, BlockSoft: 150, BlockHard: 200, BlockGraceExpiry: timePtr(evalTime)},
			expected: []ExceedKind{ExceedBlock},
		},
		{
			name:     "zero limits never exceed",
			record:   &QuotaRecord{ID: "2540008", Kind: KindUser, BlockUsage: 500},
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := Exceeding(singleRecordSet(tc.record), evalTime)
			if tc.expected == nil {
				assert.Empty(t, out)
				return
			}
			assert.Len(t, out, 1)
			assert.Equal(t, tc.record.ID, out[0].ID)
			assert.Equal(t, tc.expected[0], out[0].Exceed)
		})
	}
}

func TestExceedingFileDimensionAndBoth(t *testing.T) {
	testCases := []struct {
		name     string
		record   *QuotaRecord
		expected ExceedKind
	}{
		{
			name:     "file hard breach only",
			record:   &QuotaRecord{ID: "proj01", Kind: KindFileset, BlockUsage: 10, BlockSoft: 150, BlockHard: 200, FilesUsage: 1100, FilesSoft: 900, FilesHard: 1000},
			expected: ExceedFile,
		},
		{
			name:     "block and file breach",
			record:   &QuotaRecord{ID: "proj02", Kind: KindFileset, BlockUsage: 250, BlockSoft: 150, BlockHard: 200, FilesUsage: 1100, FilesSoft: 900, FilesHard: 1000},
			expected: ExceedBoth,
		},
		{
			name:     "file soft breach with expired grace",
			record:   &QuotaRecord{ID: "proj03", Kind: KindFileset, FilesUsage: 950, FilesSoft: 900, FilesHard: 1000, FilesGraceExpiry: timePtr(evalTime.Add(-time.Minute))},
			expected: ExceedFile,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := Exceeding(singleRecordSet(tc.record), evalTime)
			assert.Len(t, out, 1)
			assert.Equal(t, tc.expected, out[0].Exceed)
		})
	}
}

func TestExceedingGraceFlipIsIdempotent(t *testing.T) {
	expiry := evalTime.Add(time.Hour)
	set := singleRecordSet(&QuotaRecord{
		ID: "2540010", Kind: KindUser,
		BlockUsage: 160, BlockSoft: 150, BlockHard: 200,
		BlockGraceExpiry: &expiry,
	})

	// Before expiry: excluded; repeated evaluation does not change that.
	assert.Empty(t, Exceeding(set, evalTime))
	assert.Empty(t, Exceeding(set, evalTime))

	// Moving evaluation time past the expiry flips it to included.
	later := expiry.Add(time.Second)
	assert.Len(t, Exceeding(set, later), 1)
	assert.Len(t, Exceeding(set, later), 1)
}

func TestExceedingPreservesEnumerationOrder(t *testing.T) {
	set := NewKindSet()
	for _, id := range []string{"2540300", "2540100", "2540200"} {
		set.Add(&QuotaRecord{ID: id, Kind: KindUser, BlockUsage: 300, BlockSoft: 150, BlockHard: 200})
	}

	out := Exceeding(set, evalTime)
	ids := make([]string, 0, len(out))
	for _, e := range out {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"2540300", "2540100", "2540200"}, ids)
}

func TestFilesetSeverity(t *testing.T) {
	assert.Equal(t, SeverityOk, FilesetSeverity(0, 1))
	assert.Equal(t, SeverityCritical, FilesetSeverity(1, 1))
	assert.Equal(t, SeverityCritical, FilesetSeverity(5, 1))
	assert.Equal(t, SeverityOk, FilesetSeverity(2, 3))
}

func TestUserSeverity(t *testing.T) {
	testCases := []struct {
		name      string
		exceeding int
		expected  Severity
	}{
		{"no exceeding users", 0, SeverityOk},
		{"background noise below warning", 19, SeverityOk},
		{"at warning threshold", 20, SeverityWarning},
		{"between thresholds", 39, SeverityWarning},
		{"at critical threshold", 40, SeverityCritical},
		{"far above critical", 100, SeverityCritical},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, UserSeverity(tc.exceeding, DefaultUsersWarning, DefaultUsersCritical))
		})
	}
}

func TestSeverityWorse(t *testing.T) {
	assert.Equal(t, SeverityCritical, SeverityOk.Worse(SeverityCritical))
	assert.Equal(t, SeverityCritical, SeverityCritical.Worse(SeverityWarning))
	assert.Equal(t, SeverityWarning, SeverityOk.Worse(SeverityWarning))
	assert.Equal(t, SeverityUnknown, SeverityCritical.Worse(SeverityUnknown))
}
