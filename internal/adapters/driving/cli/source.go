package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

var srcCmd = &cobra.Command{
	Use:   "source",
	Short: "Register and manage sources",
	Long:  `Add, list, or remove the directories recall indexes.`,
}

var srcAddCmd = &cobra.Command{
	Use:   "add [connector-type]",
	Short: "Add a new source",
	Long: `Registers a directory as a knowledge source. The connector type
defaults to filesystem, currently the only built-in connector.

Examples:
  recall source add filesystem --path ~/notes --name "My Notes"
  recall source add filesystem --id work -c path=/srv/wiki`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSourceAdd,
}

var srcListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourceList,
}

var srcRemoveCmd = &cobra.Command{
	Use:   "remove <source-id>",
	Short: "Remove a source and its indexed data",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceRemove,
}

var connectorCmd = &cobra.Command{
	Use:   "connector",
	Short: "Inspect available connectors",
}

var connectorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available connector types",
	RunE:  runConnectorList,
}

var (
	srcAddID     string
	srcAddName   string
	srcAddPath   string
	srcAddConfig []string
)

func init() {
	srcAddCmd.Flags().StringVar(&srcAddID, "id", "", "source ID (default: derived from the name or path)")
	srcAddCmd.Flags().StringVar(&srcAddName, "name", "", "human-readable name")
	srcAddCmd.Flags().StringVar(&srcAddPath, "path", "", "directory to index (shortcut for -c path=...)")
	srcAddCmd.Flags().StringArrayVarP(&srcAddConfig, "config", "c", nil, "connector config as key=value")

	srcCmd.AddCommand(srcAddCmd)
	srcCmd.AddCommand(srcListCmd)
	srcCmd.AddCommand(srcRemoveCmd)
	rootCmd.AddCommand(srcCmd)

	connectorCmd.AddCommand(connectorListCmd)
	rootCmd.AddCommand(connectorCmd)
}

func runSourceAdd(cmd *cobra.Command, args []string) error {
	if sourceSvc == nil || connectorReg == nil {
		return errServiceMissing("source service")
	}

	connectorType := "filesystem"
	if len(args) > 0 {
		connectorType = args[0]
	}

	config, err := parseConfigPairs(srcAddConfig)
	if err != nil {
		return err
	}
	if srcAddPath != "" {
		config["path"] = srcAddPath
	}

	ctx := context.Background()
	if err := sourceSvc.ValidateConfig(ctx, connectorType, config); err != nil {
		return fmt.Errorf("invalid source configuration: %w", err)
	}

	src := domain.Source{
		ID:     resolveSourceID(srcAddID, srcAddName, config["path"]),
		Type:   connectorType,
		Name:   srcAddName,
		Config: config,
	}
	if src.Name == "" {
		src.Name = src.ID
	}

	if err := sourceSvc.Add(ctx, src); err != nil {
		return fmt.Errorf("add source: %w", err)
	}

	cmd.Printf("Added source: %s (%s)\n", src.ID, src.DisplayName())
	cmd.Printf("Run 'recall sync %s' to index it.\n", src.ID)
	return nil
}

func runSourceList(cmd *cobra.Command, _ []string) error {
	if sourceSvc == nil {
		return errServiceMissing("source service")
	}

	ctx := context.Background()
	sources, err := sourceSvc.List(ctx)
	if err != nil {
		return fmt.Errorf("list source catalogue: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No sources configured.")
		cmd.Println("Run 'recall source add filesystem --path <dir>' to add one.")
		return nil
	}

	cmd.Println("Configured sources:")
	cmd.Println()
	for i := range sources {
		s := &sources[i]
		cmd.Printf("  %s\n", s.ID)
		cmd.Printf("    Name: %s\n", s.DisplayName())
		cmd.Printf("    Type: %s\n", s.Type)
		if path := s.RootPath(); path != "" {
			cmd.Printf("    Path: %s\n", path)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d sources\n", len(sources))
	return nil
}

func runSourceRemove(cmd *cobra.Command, args []string) error {
	if sourceSvc == nil {
		return errServiceMissing("source service")
	}

	sourceID := args[0]
	ctx := context.Background()

	if err := sourceSvc.Remove(ctx, sourceID); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}

	cmd.Printf("Removed source: %s (indexed documents deleted)\n", sourceID)
	return nil
}

func runConnectorList(cmd *cobra.Command, _ []string) error {
	if connectorReg == nil {
		return errServiceMissing("connector registry")
	}

	types := connectorReg.List()
	if len(types) == 0 {
		cmd.Println("No connectors available.")
		return nil
	}

	cmd.Println("Available connectors:")
	cmd.Println()
	for _, ct := range types {
		cmd.Printf("  %s - %s\n", ct.ID, ct.Name)
		if ct.Description != "" {
			cmd.Printf("    %s\n", ct.Description)
		}
		if len(ct.ConfigKeys) > 0 {
			cmd.Println("    Config:")
			for _, key := range ct.ConfigKeys {
				required := ""
				if key.Required {
					required = " (required)"
				}
				cmd.Printf("      --%s: %s%s\n", key.Key, key.Description, required)
			}
		}
		cmd.Println()
	}

	return nil
}

// parseConfigPairs splits repeated -c key=value flags into a map.
func parseConfigPairs(pairs []string) (map[string]string, error) {
	config := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid config %q (want key=value)", pair)
		}
		config[key] = value
	}
	return config, nil
}

// resolveSourceID picks a stable ID: explicit flag, slugified name,
// path basename, then a random suffix as a last resort.
func resolveSourceID(id, name, path string) string {
	if id != "" {
		return id
	}
	if name != "" {
		return slugify(name)
	}
	if path != "" {
		return slugify(filepath.Base(path))
	}
	return "src-" + uuid.NewString()[:8]
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}
