package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/jbsync/internal/config"
	"github.com/custodia-labs/jbsync/internal/core/domain"
	"github.com/custodia-labs/jbsync/internal/core/services"
	"github.com/custodia-labs/jbsync/internal/fetch"
	"github.com/custodia-labs/jbsync/internal/github"
	"github.com/custodia-labs/jbsync/internal/jetbrains"
)

var publishFlags struct {
	productURL string
	repo       string
	token      string
	platform   string
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the current version unconditionally",
	Long: `Publishes whatever version the download page currently offers, without
consulting or updating the sync state. Existing assets are replaced.
Useful for one-off mirroring and for repairing a release by hand.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishFlags.productURL, "product-url", "",
		"download page URL (required)")
	publishCmd.Flags().StringVar(&publishFlags.repo, "repo", "",
		"target repository in owner/name form (required)")
	publishCmd.Flags().StringVar(&publishFlags.token, "token", "",
		"access token (defaults to "+config.EnvToken+", then an interactive prompt)")
	publishCmd.Flags().StringVar(&publishFlags.platform, "platform", config.DefaultPlatform,
		"platform of the installer links")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	if publishFlags.productURL == "" || publishFlags.repo == "" {
		return errors.New("--product-url and --repo are required")
	}
	owner, name, ok := strings.Cut(publishFlags.repo, "/")
	if !ok || owner == "" || name == "" {
		return fmt.Errorf("invalid --repo %q, want owner/name", publishFlags.repo)
	}

	token, err := resolveToken(publishFlags.token)
	if err != nil {
		return err
	}

	ctx := context.Background()

	client := github.NewClient(ctx, token, owner, name)
	if err := client.ValidateCredentials(ctx); err != nil {
		return fmt.Errorf("validate credentials for %s: %w", publishFlags.repo, err)
	}

	// Stateless run: an empty store means nothing ever counts as
	// already synced, and a no-op committer leaves the checkout alone.
	// A single upload attempt keeps failures fast and visible.
	orchestrator := services.NewSyncOrchestrator(
		publishFlags.productURL,
		".",
		jetbrains.NewParser(publishFlags.platform),
		fetch.NewFetcher(),
		github.NewPublisher(client, 1, 0),
		discardStore{},
		noopCommitter{},
		false,
	)

	result, err := orchestrator.Sync(ctx)
	if err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	cmd.Printf("Published %s %s: %d editions.\n",
		result.Product, result.Version, result.Published)
	return nil
}

// resolveToken returns the flag value, the environment value or, on a
// terminal, an interactively prompted one.
func resolveToken(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(config.EnvToken); v != "" {
		return v, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no token: set --token or %s", config.EnvToken)
	}

	fmt.Fprint(os.Stderr, "GitHub token: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", errors.New("empty token")
	}
	return token, nil
}

// discardStore is a StateStore that remembers nothing, so every run
// looks like a first sync.
type discardStore struct{}

func (discardStore) Load(_ context.Context) (*domain.SyncState, error) {
	return domain.NewSyncState(), nil
}

func (discardStore) Save(_ context.Context, _ *domain.SyncState) error { return nil }

func (discardStore) Files() []string { return nil }

// noopCommitter satisfies the Committer port without touching git.
type noopCommitter struct{}

func (noopCommitter) Commit(_ context.Context, _ []string, _ string) error { return nil }

func (noopCommitter) Push(_ context.Context) error { return nil }
