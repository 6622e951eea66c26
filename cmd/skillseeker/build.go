package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillseeker/skillseeker/ingest"
	"github.com/skillseeker/skillseeker/skill"
)

// buildConfig is the JSON batch configuration.
type buildConfig struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Files       []string `json:"files"`
	Categories  []string `json:"categories,omitempty"` // when set, keep only these category keys
}

var buildFlags struct {
	config     string
	output     string
	minQuality float64
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build one skill package from multiple files",
	Long: `build reads a JSON config naming the skill and listing input files, runs
each through extraction, and emits a single combined skill package. A file
that cannot be read is logged and skipped; the batch continues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(buildFlags.config)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		var cfg buildConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", buildFlags.config, err)
		}
		if cfg.Name == "" {
			return fmt.Errorf("config %s: name is required", buildFlags.config)
		}
		if len(cfg.Files) == 0 {
			return fmt.Errorf("config %s: files is empty", buildFlags.config)
		}

		pipe := ingest.New(ingest.Config{Logger: slog.Default()})

		var blocks []ingest.Block
		var failed int
		for _, path := range cfg.Files {
			doc, err := pipe.Extract(cmd.Context(), path)
			if err != nil {
				slog.Error("file skipped", "file", path, "error", err)
				failed++
				continue
			}
			blocks = append(blocks, doc.Blocks...)
			slog.Debug("file processed", "file", path, "blocks", len(doc.Blocks))
		}
		if len(blocks) == 0 {
			return fmt.Errorf("no readable input among %d files", len(cfg.Files))
		}

		pkg, err := skill.Build(blocks, skill.Options{
			Name:        cfg.Name,
			Description: cfg.Description,
			MinQuality:  buildFlags.minQuality,
			Logger:      slog.Default(),
		})
		if err != nil {
			return err
		}
		if len(cfg.Categories) > 0 {
			pkg.Restrict(cfg.Categories)
		}

		out := buildFlags.output
		if out == "" {
			out = cfg.Name + "-skill"
		}
		if err := pkg.Write(out); err != nil {
			return err
		}
		slog.Info("skill package written",
			"dir", out,
			"files_ok", len(cfg.Files)-failed,
			"files_failed", failed,
			"categories", len(pkg.Categories))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildFlags.config, "config", "c", "", "JSON batch config path")
	buildCmd.Flags().StringVarP(&buildFlags.output, "output", "o", "", "output directory (default <name>-skill)")
	buildCmd.Flags().Float64Var(&buildFlags.minQuality, "min-quality", 0, "drop code blocks scoring below this (0-10)")
	buildCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(buildCmd)
}
