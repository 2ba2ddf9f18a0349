package quotascan

import "time"

// Severity is the health level reported to monitoring for one storage
// target, and in aggregate for the whole scan.
type Severity int

const (
	SeverityOk Severity = iota
	SeverityWarning
	SeverityCritical
	// SeverityUnknown is reserved for fatal scan failures where no
	// classification result exists at all.
	SeverityUnknown
)

func (s Severity) String() string {
	switch s {
	case SeverityOk:
		return "OK"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Worse returns the more severe of the two levels.
func (s Severity) Worse(other Severity) Severity {
	if other > s {
		return other
	}
	return s
}

// dimensionExceeds applies the per-record rule to a single quota
// dimension:
//   - usage at or over a set hard limit is a breach, grace state is
//     irrelevant;
//   - usage at or over a set soft limit is a breach only once the
//     backend-supplied grace expiry has passed; a missing or future
//     expiry keeps the entity out of the exceeding set (the backend,
//     not this engine, starts the grace countdown);
//   - a limit of 0 is "no limit set" and never breaches.
func dimensionExceeds(usage, soft, hard float64, graceExpiry *time.Time, now time.Time) bool {
	if hard > 0 && usage >= hard {
		return true
	}
	if soft > 0 && usage >= soft && graceExpiry != nil && !graceExpiry.After(now) {
		return true
	}
	return false
}

// Exceeding returns the entities of one kind set that breach their
// block or file quota at evaluation time now, in the raw report's
// enumeration order. Entities within limits are not represented.
func Exceeding(set *KindSet, now time.Time) []ExceedingEntity {
	var out []ExceedingEntity
	for _, rec := range set.Records() {
		block := dimensionExceeds(rec.BlockUsage, rec.BlockSoft, rec.BlockHard, rec.BlockGraceExpiry, now)
		files := dimensionExceeds(float64(rec.FilesUsage), float64(rec.FilesSoft), float64(rec.FilesHard), rec.FilesGraceExpiry, now)

		var exceed ExceedKind
		switch {
		case block && files:
			exceed = ExceedBoth
		case block:
			exceed = ExceedBlock
		case files:
			exceed = ExceedFile
		default:
			continue
		}
		out = append(out, ExceedingEntity{ID: rec.ID, Record: rec, Exceed: exceed})
	}
	return out
}

// FilesetSeverity maps the number of exceeding filesets to a health
// level. A fileset breach typically blocks shared project storage for
// many users, so the configured threshold is usually 1: any single
// breach is critical.
func FilesetSeverity(exceeding, criticalAt int) Severity {
	if criticalAt > 0 && exceeding >= criticalAt {
		return SeverityCritical
	}
	return SeverityOk
}

// UserSeverity maps the number of exceeding users to a health level.
// Individual users over quota are expected background noise; the two
// thresholds exist to surface abnormal spikes.
func UserSeverity(exceeding, warningAt, criticalAt int) Severity {
	switch {
	case criticalAt > 0 && exceeding >= criticalAt:
		return SeverityCritical
	case warningAt > 0 && exceeding >= warningAt:
		return SeverityWarning
	default:
		return SeverityOk
	}
}
