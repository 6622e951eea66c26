package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillseeker/skillseeker/ingest"
	"github.com/skillseeker/skillseeker/skill"
)

var extractFlags struct {
	output     string
	jsonOut    bool
	minQuality float64
	name       string
	chunkSize  int
}

var extractCmd = &cobra.Command{
	Use:   "extract <input>",
	Short: "Extract a skill package from one documentation file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]

		name := extractFlags.name
		if name == "" {
			base := filepath.Base(input)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}

		pipe := ingest.New(ingest.Config{Logger: slog.Default()})
		doc, err := pipe.Extract(cmd.Context(), input)
		if err != nil {
			return err
		}

		pkg, err := skill.Build(doc.Blocks, skill.Options{
			Name:        name,
			Description: doc.Title,
			MinQuality:  extractFlags.minQuality,
			Logger:      slog.Default(),
		})
		if err != nil {
			return err
		}

		var chunks []ingest.Chunk
		if extractFlags.chunkSize > 0 {
			chunks = ingest.SplitChunks(doc.Blocks, extractFlags.chunkSize)
		}

		if extractFlags.jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if chunks != nil {
				return enc.Encode(map[string]any{"package": pkg, "chunks": chunks})
			}
			return enc.Encode(pkg)
		}

		out := extractFlags.output
		if out == "" {
			out = name + "-skill"
		}
		if err := pkg.Write(out); err != nil {
			return err
		}
		if chunks != nil {
			data, err := json.MarshalIndent(chunks, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(out, "chunks.json"), append(data, '\n'), 0o644); err != nil {
				return err
			}
		}
		slog.Info("skill package written",
			"dir", out,
			"categories", len(pkg.Categories),
			"code_blocks", pkg.Manifest.CodeBlocks,
			"tables", pkg.Manifest.Tables,
			"chunks", len(chunks))
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractFlags.output, "output", "o", "", "output directory (default <name>-skill)")
	extractCmd.Flags().BoolVar(&extractFlags.jsonOut, "json", false, "print the package as JSON to stdout instead of writing files")
	extractCmd.Flags().Float64Var(&extractFlags.minQuality, "min-quality", 0, "drop code blocks scoring below this (0-10)")
	extractCmd.Flags().StringVar(&extractFlags.name, "name", "", "skill name (default input basename)")
	extractCmd.Flags().IntVar(&extractFlags.chunkSize, "chunk-size", 0, "also emit chunks.json, splitting at chapter starts and every N pages")
	rootCmd.AddCommand(extractCmd)
}

// exitCode distinguishes missing input files from other failures.
func exitCode(err error) int {
	if errors.Is(err, os.ErrNotExist) {
		return 1
	}
	return 2
}
