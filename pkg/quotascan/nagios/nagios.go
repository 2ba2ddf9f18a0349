// Package nagios renders the final scan outcome as a monitoring status
// line with perfdata, and maps severity onto the conventional
// health-check exit codes.
package nagios

import (
	"fmt"
	"io"
	"strings"

	"github.com/hpcfs/quotascan/pkg/quotascan"
)

const (
	ExitOk       = 0
	ExitWarning  = 1
	ExitCritical = 2
	ExitUnknown  = 3
)

func ExitCode(severity quotascan.Severity) int {
	switch severity {
	case quotascan.SeverityOk:
		return ExitOk
	case quotascan.SeverityWarning:
		return ExitWarning
	case quotascan.SeverityCritical:
		return ExitCritical
	default:
		return ExitUnknown
	}
}

// Render produces the status line: severity tag, summary, and the stats
// counters as perfdata in sorted key order.
//
//	QUOTASCAN WARNING - quota check completed | home_users=23 ...
func Render(severity quotascan.Severity, summary string, stats *quotascan.ScanStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "QUOTASCAN %s - %s", severity, summary)
	if stats != nil && stats.Len() > 0 {
		b.WriteString(" |")
		for _, key := range stats.Keys() {
			value, _ := stats.Get(key)
			fmt.Fprintf(&b, " %s=%d", key, value)
		}
	}
	return b.String()
}

// Report writes the status line and returns the process exit code.
func Report(w io.Writer, severity quotascan.Severity, summary string, stats *quotascan.ScanStats) int {
	fmt.Fprintln(w, Render(severity, summary, stats))
	return ExitCode(severity)
}
