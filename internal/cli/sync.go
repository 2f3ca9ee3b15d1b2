package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/jbsync/internal/config"
	"github.com/custodia-labs/jbsync/internal/core/services"
	"github.com/custodia-labs/jbsync/internal/fetch"
	"github.com/custodia-labs/jbsync/internal/github"
	"github.com/custodia-labs/jbsync/internal/gitrepo"
	"github.com/custodia-labs/jbsync/internal/jetbrains"
	"github.com/custodia-labs/jbsync/internal/storage/file"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Check for a new version and publish it",
	Long: `Parses the configured download page, compares the version against the
persisted sync state and, when they differ, publishes every edition as
release assets. The state file is updated and committed only after all
editions uploaded successfully.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	ctx := context.Background()

	client := github.NewClient(ctx, cfg.Token, cfg.RepoOwner, cfg.RepoName)
	if err := client.ValidateCredentials(ctx); err != nil {
		return fmt.Errorf("validate credentials for %s: %w", cfg.Repo(), err)
	}

	orchestrator := services.NewSyncOrchestrator(
		cfg.ProductURL,
		".",
		jetbrains.NewParser(cfg.Platform),
		fetch.NewFetcher(),
		github.NewPublisher(client, cfg.RetryCount, cfg.RetryDelay),
		file.NewStateStore(cfg.StateFile),
		gitrepo.NewCommitter(""),
		cfg.GitPush,
	)

	result, err := orchestrator.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if result.Skipped {
		cmd.Printf("%s %s is already synced.\n", result.Product, result.Version)
		return nil
	}
	cmd.Printf("Synced %s %s: %d editions published.\n",
		result.Product, result.Version, result.Published)
	return nil
}
