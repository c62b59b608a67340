package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/adapters/driven/ai"
	"github.com/recall-labs/recall-cli/internal/adapters/driven/config/file"
	"github.com/recall-labs/recall-cli/internal/adapters/driven/storage/sqlite"
	"github.com/recall-labs/recall-cli/internal/connectors"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/core/services"
	"github.com/recall-labs/recall-cli/internal/logger"
	"github.com/recall-labs/recall-cli/internal/normalisers"
	"github.com/recall-labs/recall-cli/internal/postprocessors"
)

// version is set from the build by Execute.
var version = "dev"

// verbose is bound to the --verbose persistent flag.
var verbose bool

// Services wired by initServices before command execution. Commands
// nil-check these so tests can swap in mocks and run rootCmd directly.
var (
	syncOrch     driving.SyncOrchestrator
	searchSvc    driving.SearchService
	sourceSvc    driving.SourceService
	docSvc       driving.DocumentService
	settingsSvc  driving.SettingsService
	statsSvc     driving.StatsService
	connectorReg driving.ConnectorRegistry
	scheduler    driving.Scheduler
	watcher      driving.Watcher
)

// errServiceMissing reports a command that ran without its backing
// service being wired.
func errServiceMissing(what string) error {
	return fmt.Errorf("%s is not initialised", what)
}

// closers releases wired resources after the command finishes, in
// reverse acquisition order.
var closers []func()

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Local-first knowledge base with semantic search",
	Long: `Recall indexes directories of knowledge files into a local,
searchable base. Documents are chunked, embedded and stored on your
machine; retrieval runs against the local vector index.

Nothing leaves your machine unless you configure a hosted embedding
provider.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// Execute wires the application services and runs the root command.
func Execute(v string) error {
	version = v

	if needsServices(os.Args[1:]) {
		if err := initServices(); err != nil {
			// Commands print their own errors through cobra; match that here.
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
		defer closeServices()
	}

	return rootCmd.Execute()
}

// needsServices reports whether the invoked command touches the stores.
// Help-like commands skip wiring entirely.
func needsServices(args []string) bool {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		switch arg {
		case "help", "version", "completion", "__complete", "__completeNoDesc":
			return false
		default:
			return true
		}
	}
	// Bare invocation prints help
	return false
}

// recallHome resolves the application directory, honouring RECALL_HOME
// for portable installs.
func recallHome() (string, error) {
	if dir := os.Getenv("RECALL_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".recall"), nil
}

// initServices builds the service graph: config, stores, embedding,
// the ingestion pipeline, and the driving services commands call.
func initServices() error {
	ctx := context.Background()

	home, err := recallHome()
	if err != nil {
		return err
	}

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	svc := services.NewSettingsService(configStore, ai.NewProbeValidator())
	settingsSvc = svc

	settings, err := svc.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	// All metadata shares one SQLite database.
	dataDir := settings.VectorIndex.Path
	if strings.HasSuffix(dataDir, ".db") {
		dataDir = filepath.Dir(dataDir)
	}
	if dataDir == "" {
		dataDir = filepath.Join(home, "data")
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	closers = append(closers, func() { _ = store.Close() })

	vectorIndex := store.VectorIndex(settings.VectorIndex.Metric)

	// An unconfigured or unreachable embedding provider degrades to
	// sync-only mode rather than blocking every command.
	aiResult := ai.Initialise(&settings.Embedding, vectorIndex)
	for _, warning := range aiResult.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}
	if aiResult.EmbeddingService != nil {
		embeddingSvc := aiResult.EmbeddingService
		closers = append(closers, func() { _ = embeddingSvc.Close() })
	}

	normaliserRegistry := normalisers.NewDefaultRegistry()

	procRegistry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(procRegistry)
	pipeline, err := procRegistry.BuildPipeline(svc.GetPipelineSpec(ctx))
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	factory := connectors.NewFactory()
	registry := services.NewConnectorRegistry()
	connectorReg = registry

	syncOrch = services.NewSyncOrchestrator(
		store.SourceStore(),
		store.ManifestStore(),
		store.DocumentStore(),
		store.ExclusionStore(),
		factory,
		normaliserRegistry,
		pipeline,
		vectorIndex,
		aiResult.EmbeddingService,
		settings.Sync.Workers,
	)

	searchSvc = services.NewSearchService(
		store.DocumentStore(),
		store.SourceStore(),
		vectorIndex,
		aiResult.EmbeddingService,
		svc,
	)

	sourceSvc = services.NewSourceService(
		store.SourceStore(),
		store.DocumentStore(),
		store.ManifestStore(),
		store.ExclusionStore(),
		vectorIndex,
		registry,
	)

	docSvc = services.NewDocumentService(
		store.DocumentStore(),
		store.SourceStore(),
		store.ExclusionStore(),
		store.ManifestStore(),
		vectorIndex,
	)

	statsSvc = services.NewStatsService(
		store.DocumentStore(),
		store.SourceStore(),
		vectorIndex,
	)

	scheduler = services.NewScheduler(
		svc.GetSchedulerConfig(ctx),
		store.SchedulerStore(),
		syncOrch,
	)

	watcher = services.NewWatcher(store.SourceStore(), factory, syncOrch, 0)

	return nil
}

func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
}
