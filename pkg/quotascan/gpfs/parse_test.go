package gpfs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYDecodesEscapedValues(t *testing.T) {
	out := []byte(`mmlsfileset:filesetList:HEADER:version:reserved:reserved:filesystemName:filesetName:id:path:
mmlsfileset:filesetList:0:1:::scratchfs:gvo00002:1:%2Fgpfs%2Fscratchfs%2Fgvo00002:
`)
	rows, err := parseY(out)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/gpfs/scratchfs/gvo00002", rows[0]["path"])
	assert.Equal(t, "gvo00002", rows[0]["filesetName"])
}

func TestParseYDataBeforeHeader(t *testing.T) {
	out := []byte("mmlsfs::0:1:::scratchfs:blockSize:4194304::\n")
	rows, err := parseY(out)
	assert.Nil(t, rows)
	assert.Error(t, err)
}

func TestParseYSkipsShortLines(t *testing.T) {
	out := []byte(`mmlsfs::HEADER:version:reserved:reserved:deviceName:fieldName:data:remarks:
garbage
mmlsfs::0:1:::scratchfs:blockSize:4194304::
`)
	rows, err := parseY(out)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestParseGrace(t *testing.T) {
	reportTime := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		value    string
		expected *time.Time
		wantErr  bool
	}{
		{value: "none", expected: nil},
		{value: "", expected: nil},
		{value: "expired", expected: &reportTime},
		{value: "6days", expected: timePtr(reportTime.Add(6 * 24 * time.Hour))},
		{value: "2 days", expected: timePtr(reportTime.Add(2 * 24 * time.Hour))},
		{value: "23hours", expected: timePtr(reportTime.Add(23 * time.Hour))},
		{value: "1 hour", expected: timePtr(reportTime.Add(time.Hour))},
		{value: "30minutes", expected: timePtr(reportTime.Add(30 * time.Minute))},
		{value: "45 secs", expected: timePtr(reportTime.Add(45 * time.Second))},
		{value: "whenever", wantErr: true},
		{value: "days", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			expiry, err := parseGrace(tc.value, reportTime)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tc.expected == nil {
				assert.Nil(t, expiry)
			} else {
				require.NotNil(t, expiry)
				assert.Equal(t, *tc.expected, *expiry)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
