package cli

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
)

// timestampLayout renders index timestamps without zone noise.
const timestampLayout = "2006-01-02 15:04:05"

var docCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect and manage indexed documents",
	Long: `List, inspect, exclude, or open indexed documents.

Document IDs are stable across syncs; find them with 'recall document
list <source-id>' or in search results.`,
}

var docListCmd = &cobra.Command{
	Use:   "list <source-id>",
	Short: "List a source's indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocList,
}

var docGetCmd = &cobra.Command{
	Use:   "get <doc-id>",
	Short: "Show a document summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocGet,
}

var docContentCmd = &cobra.Command{
	Use:   "content <doc-id>",
	Short: "Print a document's normalised text",
	Long:  `Prints the normalised text of a document, reassembled from its chunks.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocContent,
}

var docDetailsCmd = &cobra.Command{
	Use:   "details <doc-id>",
	Short: "Show full document metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocDetails,
}

var docExcludeCmd = &cobra.Command{
	Use:   "exclude <doc-id>",
	Short: "Drop a document from the index",
	Long: `Removes a document from the index and remembers the exclusion, so
future syncs skip the file even though it still exists in the source.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocExclude,
}

var docOpenCmd = &cobra.Command{
	Use:   "open <doc-id>",
	Short: "Open the original file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocOpen,
}

// docExcludeReason is bound to the --reason flag of the exclude command.
var docExcludeReason string

func init() {
	docExcludeCmd.Flags().StringVarP(&docExcludeReason, "reason", "r", "", "why the document is excluded")

	docCmd.AddCommand(
		docListCmd,
		docGetCmd,
		docContentCmd,
		docDetailsCmd,
		docExcludeCmd,
		docOpenCmd,
	)
	rootCmd.AddCommand(docCmd)
}

func runDocList(cmd *cobra.Command, args []string) error {
	if docSvc == nil {
		return errServiceMissing("document service")
	}

	sourceID := args[0]
	docs, err := docSvc.ListBySource(context.Background(), sourceID)
	if err != nil {
		return fmt.Errorf("list documents for %s: %w", sourceID, err)
	}

	if len(docs) == 0 {
		cmd.Printf("Source %s has no indexed documents.\n", sourceID)
		return nil
	}

	cmd.Printf("Documents in %s (%d):\n\n", sourceID, len(docs))
	for _, d := range docs {
		// Path first; it is the handle people recognise
		cmd.Printf("  %s\n", d.Path)
		entry := d.ID + "  " + d.Title
		if d.Category != "" {
			entry += "  [" + string(d.Category) + "]"
		}
		cmd.Printf("    %s\n\n", entry)
	}
	return nil
}

func runDocGet(cmd *cobra.Command, args []string) error {
	if docSvc == nil {
		return errServiceMissing("document service")
	}

	doc, err := docSvc.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	cmd.Printf("Document %s\n\n", doc.ID)
	fields := newFieldList()
	fields.add("Title", doc.Title)
	fields.add("Path", doc.Path)
	fields.add("Category", string(doc.Category))
	fields.add("Source", doc.SourceID)
	fields.add("URI", doc.URI)
	fields.add("Indexed", doc.CreatedAt.Format(timestampLayout))
	fields.add("Updated", doc.UpdatedAt.Format(timestampLayout))
	fields.print(cmd)

	printMetadata(cmd, doc.Metadata)
	return nil
}

func runDocContent(cmd *cobra.Command, args []string) error {
	if docSvc == nil {
		return errServiceMissing("document service")
	}

	text, err := docSvc.GetContent(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("document content: %w", err)
	}

	cmd.Println(text)
	return nil
}

func runDocDetails(cmd *cobra.Command, args []string) error {
	if docSvc == nil {
		return errServiceMissing("document service")
	}

	details, err := docSvc.GetDetails(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("document details: %w", err)
	}

	cmd.Printf("Document %s\n\n", details.ID)
	fields := newFieldList()
	fields.add("Title", details.Title)
	fields.add("Source", fmt.Sprintf("%s (%s)", details.SourceName, details.SourceID))
	fields.add("Path", details.Path)
	fields.add("Category", string(details.Category))
	fields.add("URI", details.URI)
	fields.add("Hash", details.ContentHash)
	fields.add("Chunks", strconv.Itoa(details.ChunkCount))
	fields.add("Indexed", details.CreatedAt.Format(timestampLayout))
	fields.add("Updated", details.UpdatedAt.Format(timestampLayout))
	fields.print(cmd)

	printMetadata(cmd, details.Metadata)
	return nil
}

func runDocExclude(cmd *cobra.Command, args []string) error {
	if docSvc == nil {
		return errServiceMissing("document service")
	}

	docID := args[0]
	reason := cmp.Or(docExcludeReason, "manually excluded")

	if err := docSvc.Exclude(context.Background(), docID, reason); err != nil {
		return fmt.Errorf("exclude document: %w", err)
	}

	cmd.Printf("Excluded %s from the index; future syncs will skip it.\n", docID)
	return nil
}

func runDocOpen(cmd *cobra.Command, args []string) error {
	if docSvc == nil {
		return errServiceMissing("document service")
	}

	docID := args[0]
	if err := docSvc.Open(context.Background(), docID); err != nil {
		return fmt.Errorf("open document: %w", err)
	}

	cmd.Printf("Opened %s in your default application.\n", docID)
	return nil
}

// fieldList accumulates label/value rows and prints them with the
// labels padded to a common width. Rows with empty values are dropped,
// so optional columns never leave holes in the output.
type fieldList struct {
	rows [][2]string
}

func newFieldList() *fieldList {
	return &fieldList{}
}

func (f *fieldList) add(label, value string) {
	if value != "" {
		f.rows = append(f.rows, [2]string{label, value})
	}
}

func (f *fieldList) print(cmd *cobra.Command) {
	width := 0
	for _, row := range f.rows {
		width = max(width, len(row[0]))
	}
	for _, row := range f.rows {
		cmd.Printf("  %-*s %s\n", width+1, row[0]+":", row[1])
	}
}

// printMetadata renders header fields in key order.
func printMetadata(cmd *cobra.Command, metadata map[string]string) {
	if len(metadata) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("  Metadata:")
	for _, key := range slices.Sorted(maps.Keys(metadata)) {
		cmd.Printf("    %s: %s\n", key, metadata[key])
	}
}
