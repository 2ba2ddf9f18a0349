package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/hpcfs/quotascan/pkg/quotascan"
	"github.com/hpcfs/quotascan/pkg/quotascan/accountclient"
	"github.com/hpcfs/quotascan/pkg/quotascan/gpfs"
	"github.com/hpcfs/quotascan/pkg/quotascan/history"
	"github.com/hpcfs/quotascan/pkg/quotascan/nagios"
	"github.com/hpcfs/quotascan/pkg/quotascan/snapshot"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				short = file[i+1:]
				break
			}
		}
		file = short
		return file + ":" + strconv.Itoa(line)
	}
}

// StorageNameStrings collects repeated -storage flags into an ordered
// target list.
type StorageNameStrings []string

func (i *StorageNameStrings) String() string {
	return strings.Join(*i, ",")
}
func (i *StorageNameStrings) Set(value string) error {
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			*i = append(*i, name)
		}
	}
	return nil
}

var (
	storageNames    = StorageNameStrings{}
	configPath      = flag.String("config", "/etc/quotascan.json", "Path to the storage target configuration file")
	accountURL      = flag.String("accounturl", "", "Base URL of the account service REST API, overrides the configuration file")
	accessToken     = flag.String("accesstoken", "", "Bearer token for the account service REST API, overrides the configuration file")
	dryRun          = flag.Bool("dryrun", false, "Log notifications without delivering them")
	snapshotDir     = flag.String("snapshotdir", "", "Directory for per-entity quota snapshots, disabled when empty")
	historyDBPath   = flag.String("historydb", "", "Path to the notification history database, renotification throttling disabled when empty")
	cooldownHours   = flag.Int("cooldownhours", 168, "Hours before an entity that stays over quota is notified again")
	usersWarning    = flag.Int("userswarning", quotascan.DefaultUsersWarning, "Exceeding-user count per target that degrades health to warning")
	usersCritical   = flag.Int("userscritical", quotascan.DefaultUsersCritical, "Exceeding-user count per target that degrades health to critical")
	filesetCritical = flag.Int("filesetcritical", quotascan.DefaultFilesetCritical, "Exceeding-fileset count per target that degrades health to critical")
	showVersion     = flag.Bool("version", false, "Show version.")
	verbosity       = flag.Int("v", 4, "sets log verbosity level")
	usejsonlogging  = flag.Bool("usejsonlogging", false, "Use structured JSON logging rather than human-readable console log formatting")
	enableMetrics   = flag.Bool("enablemetrics", false, "Enable Prometheus metrics endpoint")
	metricsPort     = flag.String("metricsport", "9090", "HTTP port to expose metrics on")
	tracingUrl      = flag.String("tracingurl", "", "OpenTelemetry / Jaeger endpoint")
	// Set by the build process
	version = ""
)

func mapVerbosity(verbosity int) zerolog.Level {
	verbMap := make(map[int]zerolog.Level)

	verbMap[0] = zerolog.Disabled
	verbMap[1] = zerolog.PanicLevel
	verbMap[2] = zerolog.FatalLevel
	verbMap[3] = zerolog.ErrorLevel
	verbMap[4] = zerolog.InfoLevel
	verbMap[5] = zerolog.DebugLevel
	verbMap[6] = zerolog.TraceLevel

	v := verbosity
	if v >= len(verbMap) {
		v = len(verbMap) - 1
	}
	return verbMap[v]
}

func main() {
	flag.Var(&storageNames, "storage", "Storage target to check, repeatable or comma-separated")
	flag.Parse()
	if !*usejsonlogging {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339Nano}).With().Caller().Logger()
	}
	zerolog.SetGlobalLevel(mapVerbosity(*verbosity))

	if *showVersion {
		baseName := path.Base(os.Args[0])
		fmt.Println(baseName, version)
		return
	}

	if len(storageNames) == 0 {
		log.Error().Msg("No storage targets requested, nothing to check")
		os.Exit(nagios.Report(os.Stdout, quotascan.SeverityUnknown, "no storage targets configured", nil))
	}

	tp, err := quotascan.TracerProvider(version, *tracingUrl)
	if err != nil {
		log.Error().Err(err).Msg("Failed to set up OpenTelemetry tracerProvider")
	} else {
		otel.SetTracerProvider(tp)
	}

	registry := prometheus.NewRegistry()
	metrics := quotascan.NewScanMetrics(registry)
	if *enableMetrics {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(fmt.Sprintf(":%s", *metricsPort), nil); err != nil {
				log.Error().Str("metrics_port", *metricsPort).Err(err).Msg("Failed to start metrics service")
			}
		}()
	}

	os.Exit(run(metrics))
}

func run(metrics *quotascan.ScanMetrics) int {
	ctx := context.Background()

	cfg, err := quotascan.LoadConfig(*configPath)
	if err != nil {
		log.Error().Err(err).Str("config", *configPath).Msg("Failed to load storage configuration")
		return nagios.Report(os.Stdout, quotascan.SeverityUnknown, "quota check failed", nil)
	}
	if *accountURL != "" {
		cfg.AccountURL = *accountURL
	}
	if *accessToken != "" {
		cfg.AccessToken = *accessToken
	}
	cfg.Log()

	targets, err := cfg.Targets(storageNames)
	if err != nil {
		log.Error().Err(err).Msg("Invalid storage target selection")
		return nagios.Report(os.Stdout, quotascan.SeverityUnknown, "quota check failed", nil)
	}

	client := accountclient.New(cfg.AccountURL, cfg.AccessToken)
	if err := client.EnsureCompatibility(ctx); err != nil {
		log.Error().Err(err).Msg("Account service compatibility check failed")
		return nagios.Report(os.Stdout, quotascan.SeverityCritical, "quota check failed", nil)
	}

	dispatcher := quotascan.NewDispatcher(accountclient.NewSink(client), accountclient.NewCachingResolver(client), *dryRun)
	if *historyDBPath != "" {
		db, err := history.GetDatabase(ctx, *historyDBPath)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open notification history database")
			return nagios.Report(os.Stdout, quotascan.SeverityCritical, "quota check failed", nil)
		}
		defer func() { _ = db.Close() }()
		dispatcher = dispatcher.WithThrottle(db, time.Duration(*cooldownHours)*time.Hour)
	}
	scanner := quotascan.NewScanner(gpfs.New(), dispatcher, targets, quotascan.Thresholds{
		UsersWarning:    *usersWarning,
		UsersCritical:   *usersCritical,
		FilesetCritical: *filesetCritical,
	}).WithMetrics(metrics)
	if *snapshotDir != "" {
		scanner = scanner.WithSnapshotStore(snapshot.NewStore(*snapshotDir))
	}

	report, err := scanner.Run(ctx)
	if err != nil {
		// The detail stays in the log, monitoring gets a generic
		// failure summary.
		log.Error().Err(err).Msg("Quota scan cycle failed")
		return nagios.Report(os.Stdout, quotascan.SeverityCritical, "quota check failed", nil)
	}

	return nagios.Report(os.Stdout, report.Stats.Severity(), "quota check completed", report.Stats)
}
