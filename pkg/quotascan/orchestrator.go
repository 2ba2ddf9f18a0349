package quotascan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"golang.org/x/exp/slices"
)

// Scanner drives one scan cycle over the configured storage targets:
// fetch a single backend snapshot, then per target normalize, classify,
// dispatch notifications and record stats. Targets whose filesystem is
// unavailable are skipped; any other error aborts the whole cycle.
type Scanner struct {
	backend    StorageBackend
	dispatcher *Dispatcher
	store      SnapshotStore
	metrics    *ScanMetrics
	thresholds Thresholds
	targets    []StorageTarget

	// now is the evaluation time source, replaceable in tests.
	now func() time.Time
}

func NewScanner(backend StorageBackend, dispatcher *Dispatcher, targets []StorageTarget, thresholds Thresholds) *Scanner {
	return &Scanner{
		backend:    backend,
		dispatcher: dispatcher,
		thresholds: thresholds,
		targets:    targets,
		now:        time.Now,
	}
}

// WithSnapshotStore makes the scanner persist a snapshot of every
// exceeding entity's record.
func (s *Scanner) WithSnapshotStore(store SnapshotStore) *Scanner {
	s.store = store
	return s
}

func (s *Scanner) WithMetrics(metrics *ScanMetrics) *Scanner {
	s.metrics = metrics
	return s
}

// ScanReport is the outcome of one completed scan cycle.
type ScanReport struct {
	CycleID           uuid.UUID
	Stats             *ScanStats
	ExceedingUsers    map[string][]ExceedingEntity
	ExceedingFilesets map[string][]ExceedingEntity
}

// Run executes one scan cycle. The returned report is only valid when
// err is nil; on error the cycle must be reported as a hard failure.
func (s *Scanner) Run(ctx context.Context) (*ScanReport, error) {
	op := "RunScan"
	ctx, span := otel.Tracer(TracerName).Start(ctx, op)
	defer span.End()

	cycleID := uuid.New()
	ctx = log.With().Str("op", op).Str("cycle_id", cycleID.String()).Logger().WithContext(ctx)
	logger := log.Ctx(ctx)

	startTime := s.now()
	if s.metrics != nil {
		s.metrics.ScansTotal.Inc()
		s.metrics.ScanSuccess.Set(0)
	}

	filesystems, err := s.backend.ListFilesystems(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug().Strs("filesystems", filesystems).Msg("Fetched known filesystems")

	filesets, err := s.backend.ListFilesets(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.backend.ListQuota(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("filesystem_count", len(raw)).Msg("Fetched bulk quota report")

	report := &ScanReport{
		CycleID:           cycleID,
		Stats:             NewScanStats(),
		ExceedingUsers:    make(map[string][]ExceedingEntity),
		ExceedingFilesets: make(map[string][]ExceedingEntity),
	}
	overall := SeverityOk
	now := s.now()

	for _, target := range s.targets {
		tlogger := logger.With().Str("storage", target.Name).Str("filesystem", target.Filesystem).Logger()
		tlogger.Info().Msg("Processing quota for storage target")

		if !slices.Contains(filesystems, target.Filesystem) {
			tlogger.Error().Msg("Storage target refers to a filesystem unknown to the backend, skipping")
			if s.metrics != nil {
				s.metrics.TargetsSkipped.Inc()
			}
			continue
		}
		if _, ok := raw[target.Filesystem]; !ok {
			tlogger.Error().Err(NoQuotaDataError).Msg("No quota data defined for storage target, skipping")
			if s.metrics != nil {
				s.metrics.TargetsSkipped.Inc()
			}
			continue
		}

		qmap, err := NormalizeReport(raw, target, filesets[target.Filesystem])
		if err != nil {
			return nil, err
		}

		exceedingFilesets := Exceeding(qmap.Kind(KindFileset), now)
		exceedingUsers := Exceeding(qmap.Kind(KindUser), now)
		report.ExceedingFilesets[target.Name] = exceedingFilesets
		report.ExceedingUsers[target.Name] = exceedingUsers

		if len(exceedingFilesets) > 0 {
			tlogger.Warn().Int("count", len(exceedingFilesets)).Msg("Found filesets exceeding their quota")
			for _, e := range exceedingFilesets {
				tlogger.Warn().Str("fileset", e.ID).Str("exceed", string(e.Exceed)).Str("quota", e.Record.String()).Msg("Fileset exceeds quota")
			}
		} else {
			tlogger.Debug().Msg("No filesets exceeding their quota")
		}
		if len(exceedingUsers) > 0 {
			tlogger.Warn().Int("count", len(exceedingUsers)).Msg("Found users exceeding their quota")
			for _, e := range exceedingUsers {
				tlogger.Warn().Str("user", e.ID).Str("exceed", string(e.Exceed)).Str("quota", e.Record.String()).Msg("User exceeds quota")
			}
		} else {
			tlogger.Debug().Msg("No users exceeding their quota")
		}

		if s.store != nil {
			if err := s.persistSnapshots(exceedingFilesets, exceedingUsers); err != nil {
				return nil, err
			}
		}

		// Dispatch completes before this target's stats entries are
		// recorded.
		if _, err := s.dispatcher.Dispatch(ctx, target, exceedingFilesets); err != nil {
			return nil, err
		}
		if _, err := s.dispatcher.Dispatch(ctx, target, exceedingUsers); err != nil {
			return nil, err
		}

		report.Stats.Set(target.Name+"_fileset", len(exceedingFilesets))
		report.Stats.Set(target.Name+"_fileset_critical", s.thresholds.FilesetCritical)
		report.Stats.Set(target.Name+"_users", len(exceedingUsers))
		report.Stats.Set(target.Name+"_users_warning", s.thresholds.UsersWarning)
		report.Stats.Set(target.Name+"_users_critical", s.thresholds.UsersCritical)

		filesetSeverity := FilesetSeverity(len(exceedingFilesets), s.thresholds.FilesetCritical)
		userSeverity := UserSeverity(len(exceedingUsers), s.thresholds.UsersWarning, s.thresholds.UsersCritical)
		overall = overall.Worse(filesetSeverity).Worse(userSeverity)

		if s.metrics != nil {
			s.metrics.ExceedingFilesets.WithLabelValues(target.Name, target.Filesystem).Set(float64(len(exceedingFilesets)))
			s.metrics.ExceedingUsers.WithLabelValues(target.Name, target.Filesystem).Set(float64(len(exceedingUsers)))
		}
	}

	report.Stats.Finalize(overall)
	if s.metrics != nil {
		s.metrics.ScanDurationSeconds.Set(s.now().Sub(startTime).Seconds())
		s.metrics.ScanSuccess.Set(1)
	}
	logger.Info().Str("severity", overall.String()).Dur("duration", s.now().Sub(startTime)).Msg("Quota scan cycle completed")
	return report, nil
}

func (s *Scanner) persistSnapshots(groups ...[]ExceedingEntity) error {
	for _, group := range groups {
		for _, e := range group {
			if err := s.store.WriteRecord(e.Record.Kind, e.ID, e.Record); err != nil {
				return err
			}
		}
	}
	return nil
}
