package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/skillseeker/skillseeker/github"
	"github.com/skillseeker/skillseeker/ingest"
)

var githubFlags struct {
	name       string
	token      string
	output     string
	minQuality float64
	maxDocs    int
	maxSources int
}

var githubCmd = &cobra.Command{
	Use:   "github <repo-url>",
	Short: "Scrape a GitHub repository into a skill package",
	Long: `github fetches a repository's README, documentation and source files
through the REST API, extracts code examples and declaration signatures, and
writes a skill package plus documentation.json, signatures.json and
examples.json. Set GITHUB_TOKEN (or --token) to raise the rate limit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, repo, err := github.ParseRepoURL(args[0])
		if err != nil {
			return err
		}

		client := github.NewClient(github.Config{Token: githubFlags.token})
		pipe := ingest.New(ingest.Config{Logger: slog.Default()})
		scraper := github.NewScraper(client, pipe, slog.Default())

		res, err := scraper.Scrape(cmd.Context(), owner, repo, github.ScrapeOptions{
			Name:        githubFlags.name,
			MinQuality:  githubFlags.minQuality,
			MaxDocFiles: githubFlags.maxDocs,
			MaxSrcFiles: githubFlags.maxSources,
		})
		if err != nil {
			return fmt.Errorf("scrape %s/%s: %w", owner, repo, err)
		}

		out := githubFlags.output
		if out == "" {
			out = repo + "-skill"
		}
		if err := res.WriteOutputs(out); err != nil {
			return err
		}
		slog.Info("repository scraped",
			"repo", res.Repo.FullName,
			"dir", out,
			"doc_files", len(res.Documentation),
			"examples", len(res.Examples))
		return nil
	},
}

func init() {
	githubCmd.Flags().StringVar(&githubFlags.name, "name", "", "skill name (default repo name)")
	githubCmd.Flags().StringVar(&githubFlags.token, "token", "", "GitHub API token (default $GITHUB_TOKEN)")
	githubCmd.Flags().StringVarP(&githubFlags.output, "output", "o", "", "output directory (default <repo>-skill)")
	githubCmd.Flags().Float64Var(&githubFlags.minQuality, "min-quality", 0, "drop code blocks scoring below this (0-10)")
	githubCmd.Flags().IntVar(&githubFlags.maxDocs, "max-docs", 0, "cap on documentation files fetched")
	githubCmd.Flags().IntVar(&githubFlags.maxSources, "max-sources", 0, "cap on source files scanned for signatures")
	rootCmd.AddCommand(githubCmd)
}
