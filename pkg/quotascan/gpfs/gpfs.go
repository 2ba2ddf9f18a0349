// Package gpfs queries quota state from a GPFS cluster through the mm
// administration commands, using their machine-readable (-Y) output.
package gpfs

import (
	"context"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/hpcfs/quotascan/pkg/quotascan"
)

const CommandDir = "/usr/lpp/mmfs/bin"

// Runner executes one cluster administration command and returns its
// stdout. Replaceable in tests with canned output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct {
	dir string
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, filepath.Join(r.dir, name), args...)
	startTime := time.Now()
	out, err := cmd.Output()
	log.Ctx(ctx).Debug().Str("command", name).Strs("args", args).
		Dur("duration", time.Since(startTime)).Err(err).Msg("Executed cluster command")
	return out, err
}

// Backend implements quotascan.StorageBackend on top of mmlsfs,
// mmlsfileset and mmrepquota.
type Backend struct {
	runner Runner
	now    func() time.Time
}

func New() *Backend {
	return NewWithRunner(execRunner{dir: CommandDir})
}

func NewWithRunner(runner Runner) *Backend {
	return &Backend{runner: runner, now: time.Now}
}

func (b *Backend) ListFilesystems(ctx context.Context) ([]string, error) {
	op := "ListFilesystems"
	ctx, span := otel.Tracer(quotascan.TracerName).Start(ctx, op)
	defer span.End()

	out, err := b.runner.Run(ctx, "mmlsfs", "all", "-Y")
	if err != nil {
		return nil, err
	}
	rows, err := parseY(out)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var filesystems []string
	for _, r := range rows {
		device := r["deviceName"]
		if device == "" || seen[device] {
			continue
		}
		seen[device] = true
		filesystems = append(filesystems, device)
	}
	return filesystems, nil
}

func (b *Backend) ListFilesets(ctx context.Context) (map[string]map[string]string, error) {
	op := "ListFilesets"
	ctx, span := otel.Tracer(quotascan.TracerName).Start(ctx, op)
	defer span.End()

	out, err := b.runner.Run(ctx, "mmlsfileset", "all", "-L", "-Y")
	if err != nil {
		return nil, err
	}
	rows, err := parseY(out)
	if err != nil {
		return nil, err
	}

	filesets := make(map[string]map[string]string)
	for _, r := range rows {
		fs := r["filesystemName"]
		id := r["id"]
		name := r["filesetName"]
		if fs == "" || id == "" {
			continue
		}
		if filesets[fs] == nil {
			filesets[fs] = make(map[string]string)
		}
		filesets[fs][id] = name
	}
	return filesets, nil
}

func (b *Backend) ListQuota(ctx context.Context) (quotascan.RawReport, error) {
	op := "ListQuota"
	ctx, span := otel.Tracer(quotascan.TracerName).Start(ctx, op)
	defer span.End()
	logger := log.Ctx(ctx)

	out, err := b.runner.Run(ctx, "mmrepquota", "-a", "-Y")
	if err != nil {
		return nil, err
	}
	rows, err := parseY(out)
	if err != nil {
		return nil, err
	}

	reportTime := b.now()
	report := make(quotascan.RawReport)
	for _, r := range rows {
		fs := r["filesystemName"]
		if fs == "" {
			continue
		}
		kind := entityKind(r["quotaType"])

		blockGrace, err := parseGrace(r["blockGrace"], reportTime)
		if err != nil {
			logger.Warn().Str("filesystem", fs).Str("id", r["id"]).Err(err).Msg("Ignoring unparseable block grace value")
		}
		filesGrace, err := parseGrace(r["filesGrace"], reportTime)
		if err != nil {
			logger.Warn().Str("filesystem", fs).Str("id", r["id"]).Err(err).Msg("Ignoring unparseable files grace value")
		}

		entry := quotascan.RawQuotaEntry{
			ID:               r["id"],
			Kind:             kind,
			BlockUsage:       r.kibibytes("blockUsage"),
			BlockSoft:        r.kibibytes("blockQuota"),
			BlockHard:        r.kibibytes("blockLimit"),
			BlockGraceExpiry: blockGrace,
			FilesUsage:       r.uint("filesUsage"),
			FilesSoft:        r.uint("filesQuota"),
			FilesHard:        r.uint("filesLimit"),
			FilesGraceExpiry: filesGrace,
		}

		fsReport, ok := report[fs]
		if !ok {
			fsReport = &quotascan.RawFilesystemQuota{
				Filesystem: fs,
				Entries:    make(map[quotascan.EntityKind][]quotascan.RawQuotaEntry),
			}
			report[fs] = fsReport
		}
		fsReport.Entries[kind] = append(fsReport.Entries[kind], entry)
	}
	return report, nil
}

// entityKind maps mmrepquota quota types onto the scanner's entity
// kinds. GRP and any future type pass through verbatim and are dropped
// during normalization.
func entityKind(quotaType string) quotascan.EntityKind {
	switch quotaType {
	case "USR":
		return quotascan.KindUser
	case "FILESET":
		return quotascan.KindFileset
	default:
		return quotascan.EntityKind(quotaType)
	}
}
