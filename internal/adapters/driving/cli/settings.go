package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and change configuration",
	Long: `Shows the active configuration, or changes it through the
subcommands. Run the wizard for a guided first-time setup.`,
	RunE: runSettings,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active configuration",
	RunE:  runSettings,
}

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Guided first-run setup",
	Long: `Walks through the embedding provider, chunking, retrieval and
distance metric options, persisting each answer as you go.`,
	RunE: runWizard,
}

var embeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Choose and verify the embedding provider",
	Long:  `Picks the provider that embeds documents and queries, then pings it.`,
	RunE:  runEmbedding,
}

var chunkingCmd = &cobra.Command{
	Use:   "chunking",
	Short: "Configure chunk size and overlap",
	Long: `Set how documents are split before embedding. Overlap must be
smaller than the chunk size. Changes apply to the next sync.`,
	RunE: runChunking,
}

var retrievalCmd = &cobra.Command{
	Use:   "retrieval",
	Short: "Configure retrieval behaviour",
	Long:  `Set the result limit, similarity threshold, and reranker toggle.`,
	RunE:  runRetrieval,
}

var (
	chunkingSize    int
	chunkingOverlap int

	retrievalMaxDocs   int
	retrievalThreshold float64
	retrievalReranker  bool
)

func init() {
	chunkingCmd.Flags().IntVar(&chunkingSize, "size", 0, "characters per chunk")
	chunkingCmd.Flags().IntVar(&chunkingOverlap, "overlap", -1, "overlapping characters between chunks")

	retrievalCmd.Flags().IntVar(&retrievalMaxDocs, "max-documents", 0, "maximum results per query")
	retrievalCmd.Flags().Float64Var(&retrievalThreshold, "threshold", -1, "similarity threshold (0-1)")
	retrievalCmd.Flags().BoolVar(&retrievalReranker, "reranker", false, "rerank results by lexical overlap")

	settingsCmd.AddCommand(
		showCmd,
		wizardCmd,
		embeddingCmd,
		chunkingCmd,
		retrievalCmd,
	)
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, _ []string) error {
	if settingsSvc == nil {
		return errServiceMissing("settings service")
	}

	ctx := context.Background()
	settings, err := settingsSvc.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	cmd.Println("Recall configuration")
	cmd.Println()
	printEmbeddingSettings(cmd, &settings.Embedding)
	printChunkingSettings(cmd, &settings.Chunking)
	printRetrievalSettings(cmd, &settings.Retrieval)
	printIndexSettings(cmd, &settings.VectorIndex)
	printUpdateSettings(cmd, &settings.Updates)
	printSyncSettings(cmd, &settings.Sync)

	if err := settingsSvc.Validate(ctx); err != nil {
		cmd.Println("Warning:", err)
		cmd.Println("Run 'recall settings wizard' to repair the configuration.")
		return nil
	}
	cmd.Println("All settings check out.")
	return nil
}

// Section headers mirror the tables in the config file, so 'settings
// show' output maps directly onto what a hand edit would touch.

func printEmbeddingSettings(cmd *cobra.Command, emb *domain.EmbeddingSettings) {
	cmd.Println("[embedding]")
	f := newFieldList()
	f.add("Provider", emb.Provider.Description())
	f.add("Model", emb.Model)
	if emb.Provider.IsLocal() {
		f.add("Base URL", emb.BaseURL)
	}
	if emb.Provider.RequiresAPIKey() {
		f.add("API key", maskKey(emb.APIKey))
	}
	if emb.Dimensions > 0 {
		f.add("Dimensions", strconv.Itoa(emb.Dimensions))
	}
	status := "not configured (sync-only mode)"
	if emb.IsConfigured() {
		status = "configured"
	}
	f.add("Status", status)
	f.print(cmd)
	cmd.Println()
}

func printChunkingSettings(cmd *cobra.Command, ch *domain.ChunkingSettings) {
	cmd.Println("[chunking]")
	f := newFieldList()
	f.add("Chunk size", fmt.Sprintf("%d characters", ch.Size))
	f.add("Overlap", fmt.Sprintf("%d characters", ch.Overlap))
	f.print(cmd)
	cmd.Println()
}

func printRetrievalSettings(cmd *cobra.Command, ret *domain.RetrievalSettings) {
	cmd.Println("[retrieval]")
	f := newFieldList()
	f.add("Max documents", strconv.Itoa(ret.MaxDocuments))
	f.add("Similarity threshold", fmt.Sprintf("%.2f", ret.SimilarityThreshold))
	f.add("Reranker", onOff(ret.UseReranker))
	f.print(cmd)
	cmd.Println()
}

func printIndexSettings(cmd *cobra.Command, idx *domain.IndexSettings) {
	cmd.Println("[vector_index]")
	f := newFieldList()
	f.add("Metric", idx.Metric.Description())
	f.add("Path", idx.Path)
	f.print(cmd)
	cmd.Println()
}

func printUpdateSettings(cmd *cobra.Command, up *domain.UpdateSettings) {
	cmd.Println("[updates]")
	f := newFieldList()
	f.add("Auto re-sync", onOff(up.AutoUpdate))
	f.add("Frequency", up.Frequency.String())
	f.print(cmd)
	cmd.Println()
}

func printSyncSettings(cmd *cobra.Command, sc *domain.SyncSettings) {
	cmd.Println("[sync]")
	f := newFieldList()
	f.add("Workers", strconv.Itoa(sc.Workers))
	f.print(cmd)
	cmd.Println()
}

// onOff renders a toggle the way the config file does.
func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func runWizard(cmd *cobra.Command, _ []string) error {
	if settingsSvc == nil {
		return errServiceMissing("settings service")
	}

	cmd.Println("Recall setup wizard")
	cmd.Println("Press Enter to accept the value in brackets.")
	cmd.Println()

	in := bufio.NewReader(os.Stdin)
	ctx := context.Background()
	defaults := settingsSvc.GetDefaults()

	cmd.Println("1) Embedding provider")
	cmd.Println("Semantic search needs an embedding provider. Ollama runs locally;")
	cmd.Println("OpenAI requires an API key.")
	cmd.Println()
	if err := configureEmbedding(ctx, cmd, in); err != nil {
		return err
	}

	cmd.Println("2) Chunking")
	size := promptInt(cmd, in, "Chunk size in characters", defaults.Chunking.Size)
	overlap := promptInt(cmd, in, "Overlap in characters", defaults.Chunking.Overlap)
	if err := settingsSvc.SetChunking(ctx, size, overlap); err != nil {
		return fmt.Errorf("save chunking settings: %w", err)
	}
	cmd.Printf("Chunking set to %d/%d.\n\n", size, overlap)

	cmd.Println("3) Retrieval")
	maxDocs := promptInt(cmd, in, "Max documents per query", defaults.Retrieval.MaxDocuments)
	threshold := promptFloat(cmd, in, "Similarity threshold (0-1)", defaults.Retrieval.SimilarityThreshold)
	useReranker := promptYesNo(cmd, in, "Rerank results by lexical overlap?", defaults.Retrieval.UseReranker)
	if err := settingsSvc.SetRetrieval(ctx, maxDocs, threshold, useReranker); err != nil {
		return fmt.Errorf("save retrieval settings: %w", err)
	}
	cmd.Println()

	cmd.Println("4) Distance metric")
	metrics := domain.AllDistanceMetrics()
	for i, metric := range metrics {
		cmd.Printf("  %d) %s\n", i+1, metric.Description())
	}
	cmd.Print("Metric [1]: ")
	idx := parseChoice(readLine(in), len(metrics), 1)
	if err := settingsSvc.SetDistanceMetric(ctx, metrics[idx-1]); err != nil {
		return fmt.Errorf("save distance metric: %w", err)
	}
	cmd.Printf("Distance metric set to %s.\n\n", metrics[idx-1])

	if err := settingsSvc.Validate(ctx); err != nil {
		cmd.Println("Warning:", err)
		return nil
	}
	cmd.Println("Setup complete; all settings saved.")
	return nil
}

func runEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsSvc == nil {
		return errServiceMissing("settings service")
	}

	in := bufio.NewReader(os.Stdin)
	return configureEmbedding(context.Background(), cmd, in)
}

func runChunking(cmd *cobra.Command, _ []string) error {
	if settingsSvc == nil {
		return errServiceMissing("settings service")
	}

	ctx := context.Background()
	settings, err := settingsSvc.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	size := chunkingSize
	if size == 0 {
		size = settings.Chunking.Size
	}
	overlap := chunkingOverlap
	if overlap < 0 {
		overlap = settings.Chunking.Overlap
	}

	if err := settingsSvc.SetChunking(ctx, size, overlap); err != nil {
		return fmt.Errorf("save chunking settings: %w", err)
	}

	cmd.Printf("Chunking set to %d characters with %d overlap.\n", size, overlap)
	cmd.Println("Run 'recall sync' to re-chunk existing documents.")
	return nil
}

func runRetrieval(cmd *cobra.Command, _ []string) error {
	if settingsSvc == nil {
		return errServiceMissing("settings service")
	}

	ctx := context.Background()
	settings, err := settingsSvc.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	maxDocs := retrievalMaxDocs
	if maxDocs == 0 {
		maxDocs = settings.Retrieval.MaxDocuments
	}
	threshold := retrievalThreshold
	if threshold < 0 {
		threshold = settings.Retrieval.SimilarityThreshold
	}
	useReranker := settings.Retrieval.UseReranker
	if cmd.Flags().Changed("reranker") {
		useReranker = retrievalReranker
	}

	if err := settingsSvc.SetRetrieval(ctx, maxDocs, threshold, useReranker); err != nil {
		return fmt.Errorf("save retrieval settings: %w", err)
	}

	cmd.Printf("Retrieval set to %d documents, threshold %.2f, reranker %s.\n",
		maxDocs, threshold, onOff(useReranker))
	return nil
}

// configureEmbedding walks through provider, model and credentials,
// persists the answers, and pings the provider to prove they work.
func configureEmbedding(ctx context.Context, cmd *cobra.Command, in *bufio.Reader) error {
	choices := domain.AllEmbeddingProviders()
	cmd.Println("Choose a provider:")
	for i, p := range choices {
		cmd.Printf("  %d) %s\n", i+1, p.Description())
	}
	cmd.Print("Provider [1]: ")
	chosen := choices[parseChoice(readLine(in), len(choices), 1)-1]

	model := promptString(cmd, in, "Model", domain.DefaultModelFor(chosen))

	var apiKey string
	if chosen.RequiresAPIKey() {
		cmd.Print("API key: ")
		apiKey = readSecret()
		cmd.Println()
		if apiKey == "" {
			return errors.New("this provider needs an API key")
		}
	}

	if err := settingsSvc.SetEmbeddingProvider(ctx, chosen, model, apiKey); err != nil {
		return fmt.Errorf("configure embedding provider: %w", err)
	}

	cmd.Print("Checking the provider answers... ")
	result, err := settingsSvc.ValidateEmbeddingConfig(ctx)
	if err != nil {
		cmd.Println("failed")
		return fmt.Errorf("validate embedding config: %w", err)
	}
	if !result.Valid {
		cmd.Printf("failed: %s\n", result.Message)
		return fmt.Errorf("validate embedding config: %s", result.Message)
	}
	cmd.Println("ok")

	cmd.Printf("Embedding set to %s (%s).\n\n", chosen.Description(), model)
	return nil
}

//nolint:errcheck // interactive input, EOF reads as empty
func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

// parseChoice maps a menu answer onto 1..limit, with empty or invalid
// input falling back to the default.
func parseChoice(input string, limit, fallback int) int {
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > limit {
		return fallback
	}
	return n
}

func promptString(cmd *cobra.Command, reader *bufio.Reader, label, fallback string) string {
	cmd.Printf("%s [%s]: ", label, fallback)
	if input := readLine(reader); input != "" {
		return input
	}
	return fallback
}

func promptInt(cmd *cobra.Command, reader *bufio.Reader, label string, fallback int) int {
	cmd.Printf("%s [%d]: ", label, fallback)
	n, err := strconv.Atoi(readLine(reader))
	if err != nil {
		return fallback
	}
	return n
}

func promptFloat(cmd *cobra.Command, reader *bufio.Reader, label string, fallback float64) float64 {
	cmd.Printf("%s [%.2f]: ", label, fallback)
	v, err := strconv.ParseFloat(readLine(reader), 64)
	if err != nil {
		return fallback
	}
	return v
}

func promptYesNo(cmd *cobra.Command, reader *bufio.Reader, label string, fallback bool) bool {
	hint := "y/N"
	if fallback {
		hint = "Y/n"
	}
	cmd.Printf("%s [%s]: ", label, hint)
	switch strings.ToLower(readLine(reader)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return fallback
	}
}

// readSecret reads without echo when stdin is a terminal, falling back
// to a plain read when it is not (pipes, tests).
func readSecret() string {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		if secret, err := term.ReadPassword(fd); err == nil {
			return string(secret)
		}
	}
	return readLine(bufio.NewReader(os.Stdin))
}

// maskKey keeps just enough of a key to recognise it.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return fmt.Sprintf("%s...%s", key[:4], key[len(key)-4:])
}
