// pagetreectl runs engine operations against local JSON files: parse,
// chunk, structure browsing, and text extraction. Useful for inspecting a
// page export without a running server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dgallion1/pagetree/internal/pagetree"
	"github.com/dgallion1/pagetree/internal/translate"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "pagetreectl",
		Short:         "Inspect and transform page tree documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(parseCmd(), chunkCmd(), structureCmd(), textCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// readInput reads the named file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func loadIndexed(path string) (*pagetree.Index, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	doc, err := pagetree.Parse(data, pagetree.DefaultLimits())
	if err != nil {
		return nil, err
	}
	return pagetree.BuildIndex(doc, pagetree.DefaultLimits())
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse and index a document, reporting duplicates and errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			res := pagetree.ParseToResult(data, pagetree.DefaultLimits())
			// The raw payload is already on disk; don't echo it back.
			res.RawData = ""
			return printJSON(res)
		},
	}
}

func chunkCmd() *cobra.Command {
	var maxBytes int
	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Split a document into transport-sized chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := loadIndexed(args[0])
			if err != nil {
				return err
			}
			chunks, err := pagetree.SplitChunks(idx.Document(), maxBytes)
			if err != nil {
				return err
			}
			return printJSON(chunks)
		},
	}
	cmd.Flags().IntVar(&maxBytes, "max-bytes", pagetree.DefaultMaxChunkBytes, "maximum chunk payload size")
	return cmd
}

func structureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "structure <file>",
		Short: "Print the settings-free structure summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := loadIndexed(args[0])
			if err != nil {
				return err
			}
			return printJSON(idx.StructureSummary())
		},
	}
}

func textCmd() *cobra.Command {
	var fieldMapPath string
	cmd := &cobra.Command{
		Use:   "text <file>",
		Short: "Extract translatable text units",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := loadIndexed(args[0])
			if err != nil {
				return err
			}
			fields := translate.DefaultFieldMap()
			if fieldMapPath != "" {
				fields, err = translate.LoadFieldMap(fieldMapPath)
				if err != nil {
					return err
				}
			}
			return printJSON(translate.NewExtractor(fields).Extract(idx))
		},
	}
	cmd.Flags().StringVar(&fieldMapPath, "field-map", "", "YAML field map overriding the defaults")
	return cmd
}
