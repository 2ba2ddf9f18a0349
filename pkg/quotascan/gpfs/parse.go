package gpfs

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// The mm commands emit machine-readable output with -Y: colon-delimited
// lines where a HEADER line names the columns and every following line
// is one row. Field values are percent-escaped.
//
//	mmlsfs::HEADER:version:reserved:reserved:deviceName:fieldName:data:remarks:
//	mmlsfs::0:1:::scratchfs:minFragmentSize:8192::
type row map[string]string

func parseY(out []byte) ([]row, error) {
	var header []string
	var rows []row

	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 7 {
			continue
		}
		if fields[2] == "HEADER" {
			header = fields[6:]
			continue
		}
		if header == nil {
			return nil, fmt.Errorf("malformed -Y output, data row before HEADER: %q", line)
		}
		r := make(row, len(header))
		for i, name := range header {
			if name == "" || i >= len(fields[6:]) {
				continue
			}
			value, err := url.PathUnescape(fields[6+i])
			if err != nil {
				value = fields[6+i]
			}
			r[name] = value
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (r row) uint(name string) uint64 {
	v, err := strconv.ParseUint(r[name], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// kibibytes parses a block figure. mmrepquota reports block usage and
// limits in KiB.
func (r row) kibibytes(name string) uint64 {
	return r.uint(name) * 1024
}

// parseGrace interprets a grace column value as an expiry timestamp
// relative to the report time. The backend starts the countdown; this
// only translates its remaining-time rendering.
//
// Values look like "none", "expired", "6days", "23hours", "5 minutes".
func parseGrace(value string, reportTime time.Time) (*time.Time, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	switch value {
	case "", "none":
		return nil, nil
	case "expired":
		expiry := reportTime
		return &expiry, nil
	}

	compact := strings.ReplaceAll(value, " ", "")
	var unit time.Duration
	var digits string
	for suffix, d := range map[string]time.Duration{
		"days": 24 * time.Hour, "day": 24 * time.Hour,
		"hours": time.Hour, "hour": time.Hour,
		"minutes": time.Minute, "minute": time.Minute,
		"seconds": time.Second, "second": time.Second, "secs": time.Second,
	} {
		if strings.HasSuffix(compact, suffix) {
			unit = d
			digits = strings.TrimSuffix(compact, suffix)
			break
		}
	}
	if unit == 0 {
		return nil, fmt.Errorf("unparseable grace value %q", value)
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("unparseable grace value %q: %w", value, err)
	}
	expiry := reportTime.Add(time.Duration(n) * unit)
	return &expiry, nil
}
