package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inovacc/gitlab-dumper/internal/application"
	"github.com/inovacc/gitlab-dumper/internal/cli"
	"github.com/inovacc/gitlab-dumper/internal/core"
	"github.com/inovacc/gitlab-dumper/internal/git"
	"github.com/inovacc/gitlab-dumper/internal/gitlab"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// environment carries the pieces tests replace. Zero values select the real
// filesystem, the git executable and the wall clock.
type environment struct {
	fs         afero.Fs
	cloner     core.Cloner
	now        func() time.Time
	httpClient *http.Client
}

var rootCmd = newRootCmd(environment{})

func newRootCmd(env environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   application.AppName + " [API-URL] [API-KEY] [TARGET-DIR]",
		Short: "Back up every repository of every GitLab group",
		Long: `Back up every repository reachable through a GitLab API.

The tool lists all groups visible to the API key, then clones each group's
projects over SSH into a fresh timestamped directory:

  <TARGET-DIR>/<YYYYMMDD_HHMMSS>/<group>_ID<group-id>/<project>/

A project that fails to clone is reported and skipped; the run continues.
Listing failures, an invalid TARGET-DIR and directory collisions abort the
run with exit status 1.

Cloning uses the git executable and its SSH configuration, so the key that
can read the projects must be available to git.`,
		Example: `  ` + application.AppName + ` "https://gitlab.com/api/v4" "abcDEF123" "/home/foo/dest"

  # Preview the directory tree without cloning
  ` + application.AppName + ` --dry-run https://gitlab.example.com/api/v4 glpat-xxxx /backups

  # Four concurrent clones and a manifest of the run
  ` + application.AppName + ` --parallel 4 --manifest https://gitlab.example.com/api/v4 glpat-xxxx /backups`,
		Version:       application.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd, args, env)
		},
	}

	cmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().Bool("json", false, "Write logs as JSON to stdout")
	cmd.Flags().Int("parallel", core.DefaultParallel, "Concurrent clones per group (1-10)")
	cmd.Flags().Int("page-size", core.DefaultPageSize, "Groups requested per listing page (1-100)")
	cmd.Flags().Int("max-pages", core.DefaultMaxPages, "Abort when the group listing exceeds this many pages")
	cmd.Flags().Duration("timeout", 0, "HTTP timeout per API request (0 disables)")
	cmd.Flags().Var(&authModeValue{}, "auth", "How the API key is sent: private-token or bearer")
	cmd.Flags().Bool("manifest", false, "Write manifest.json into the backup directory")
	cmd.Flags().Bool("dry-run", false, "List groups and projects without creating anything")

	return cmd
}

// Execute runs the root command and exits non-zero on a fatal error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if code := exitCode(err); code != 0 {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
}

// exitCode maps the outcome of a run to the process exit status. Clone
// failures are reported in the summary and keep the status at 0.
func exitCode(err error) int {
	if core.IsFatal(err) {
		return 1
	}

	return 0
}

func runBackup(cmd *cobra.Command, args []string, env environment) error {
	stdout := cmd.OutOrStdout()

	if len(args) < 3 {
		_, _ = fmt.Fprint(stdout, cmd.UsageString())
		return nil
	}

	apiURL, apiKey, destination := args[0], args[1], args[2]

	// Get flags
	logLevel, _ := cmd.Flags().GetString("log-level")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	parallel, _ := cmd.Flags().GetInt("parallel")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	writeManifest, _ := cmd.Flags().GetBool("manifest")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	auth := gitlab.AuthPrivateToken
	if v, ok := cmd.Flags().Lookup("auth").Value.(*authModeValue); ok {
		auth = v.mode
	}

	if parallel < 1 || parallel > core.MaxParallel {
		return fmt.Errorf("parallel must be between 1 and %d", core.MaxParallel)
	}

	if pageSize < 1 || pageSize > 100 {
		return fmt.Errorf("page-size must be between 1 and 100")
	}

	if maxPages < 1 {
		return fmt.Errorf("max-pages must be at least 1")
	}

	if timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	logger := setupLogger(logLevel, jsonOutput, stdout, cmd.ErrOrStderr())

	if len(args) > 3 {
		logger.Debug("ignoring extra arguments", slog.Any("args", args[3:]))
	}

	fs := env.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	// checked here as well so nothing else is touched for a bad destination
	if err := core.ValidateDestination(fs, destination); err != nil {
		return err
	}

	cloner := env.cloner
	if cloner == nil && !dryRun {
		gitClient, err := git.NewClient()
		if err != nil {
			return err
		}

		if version, err := gitClient.Version(cmd.Context()); err == nil {
			logger.Debug("using git", slog.String("path", gitClient.GitPath), slog.String("version", version))
		}

		cloner = gitClient
	}

	client, err := gitlab.NewClient(gitlab.Config{
		BaseURL:    apiURL,
		Token:      apiKey,
		Auth:       auth,
		UserAgent:  application.UserAgent(),
		Timeout:    timeout,
		HTTPClient: env.httpClient,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	logger.Debug("configuration",
		slog.String("api_url", client.BaseURL()),
		slog.String("auth", auth.String()),
		slog.Int("parallel", parallel),
		slog.Int("page_size", pageSize),
		slog.Int("max_pages", maxPages),
		slog.Bool("dry_run", dryRun),
	)

	discoverer := core.NewDiscoverer(client, core.DiscoveryOptions{
		PageSize: pageSize,
		MaxPages: maxPages,
		Logger:   logger,
	})

	materializer := core.NewMaterializer(core.MaterializeOptions{
		Fs:       fs,
		Cloner:   cloner,
		Parallel: parallel,
		Progress: cli.NewConsole(stdout),
		Logger:   logger,
	})

	backup := core.NewBackup(discoverer, materializer, core.BackupOptions{
		Destination:   destination,
		APIURL:        client.BaseURL(),
		Fs:            fs,
		Now:           env.now,
		DryRun:        dryRun,
		WriteManifest: writeManifest,
		Out:           stdout,
		Logger:        logger,
	})

	report, err := backup.Execute(cmd.Context())
	if err != nil {
		return err
	}

	if !dryRun {
		cli.PrintSummary(stdout, report)
	}

	return nil
}

// setupLogger creates a configured slog.Logger
func setupLogger(levelStr string, jsonOutput bool, stdout, stderr io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(stdout, opts)
	} else {
		handler = slog.NewTextHandler(stderr, opts)
	}

	return slog.New(handler)
}
