package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tendant/stateful-content/pkg/statefulcontent"
	"github.com/tendant/stateful-content/pkg/statefulcontent/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const envPrefix = "STATEFUL_CONTENT_"

func main() {
	_ = godotenv.Load()

	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the contentctl command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "contentctl",
		Short: "Inspect Contentful courses and their publishing state",
		Long: `contentctl fetches courses, lessons and home layouts from Contentful
and prints them with the publishing state of every entry.

In preview mode with --editorial, each entry is compared to its published
version and marked upToDate, draft or pendingChanges.

Credentials are read from STATEFUL_CONTENT_* environment variables (or .env).
Use --fixtures to work offline against a JSON fixtures file.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("mode", "", "API mode: delivery or preview")
	rootCmd.PersistentFlags().String("locale", "", "locale code, e.g. en-US")
	rootCmd.PersistentFlags().Bool("editorial", false, "resolve entry state (preview mode only)")
	rootCmd.PersistentFlags().String("fixtures", "", "serve entries from a JSON fixtures file")
	rootCmd.PersistentFlags().Bool("json", false, "print JSON instead of a tree")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewCourseCommand())
	rootCmd.AddCommand(NewCoursesCommand())
	rootCmd.AddCommand(NewLessonCommand())
	rootCmd.AddCommand(NewLayoutCommand())

	return rootCmd
}

// newServiceFromFlags loads configuration from the environment and applies
// command line overrides on top.
func newServiceFromFlags(cmd *cobra.Command) (*statefulcontent.Service, error) {
	flags := cmd.Flags()
	opts := []config.Option{config.WithEnv(envPrefix)}

	if path, _ := flags.GetString("fixtures"); path != "" {
		opts = append(opts, config.WithFixtures(path))
	}
	if mode, _ := flags.GetString("mode"); mode != "" {
		opts = append(opts, config.WithAPIMode(mode))
	}
	if locale, _ := flags.GetString("locale"); locale != "" {
		opts = append(opts, config.WithLocale(locale))
	}
	if flags.Changed("editorial") {
		editorial, _ := flags.GetBool("editorial")
		opts = append(opts, config.WithEditorialFeatures(editorial))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelWarn
	if verbose, _ := flags.GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	return cfg.BuildService(
		statefulcontent.WithLogger(logger),
		statefulcontent.WithMetrics(statefulcontent.NewLoggingMetrics(logger)),
	)
}
