package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/QTest-hq/sdkgen/internal/config"
	"github.com/QTest-hq/sdkgen/internal/events"
	"github.com/QTest-hq/sdkgen/internal/generator"
	"github.com/QTest-hq/sdkgen/internal/history"
	"github.com/QTest-hq/sdkgen/internal/packaging"
	"github.com/QTest-hq/sdkgen/internal/publish"
	"github.com/QTest-hq/sdkgen/internal/watch"
)

type generateFlags struct {
	configPath string
	overrides  config.ProjectConfig
	bump       string
	verify     bool
	link       bool
	commit     bool
	watch      bool
	debounce   time.Duration
}

func generateCmd(cfg *config.Config) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a client SDK from IR files",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runGenerate(ctx, cmd, cfg, &f)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", ".", "Project directory or sdkgen.yaml path")
	cmd.Flags().StringVarP(&f.overrides.IRDir, "ir", "i", "", "Directory of IR JSON files")
	cmd.Flags().StringVarP(&f.overrides.Output, "output", "o", "", "Output directory")
	cmd.Flags().StringVarP(&f.overrides.Language, "language", "l", "", "Target language (typescript, javascript, python, go, kotlin, dart)")
	cmd.Flags().StringVarP(&f.overrides.Name, "name", "n", "", "SDK package name")
	cmd.Flags().StringVarP(&f.overrides.Package, "package", "p", "", "Go module path or Kotlin package")
	cmd.Flags().StringVar(&f.overrides.Version, "version", "", "SDK package version")
	cmd.Flags().StringVar(&f.overrides.BaseURL, "base-url", "", "Base URL for classes without their own (implies --link)")
	cmd.Flags().StringVar(&f.bump, "bump", "", "Bump the last recorded version (patch, minor, major)")
	cmd.Flags().BoolVar(&f.verify, "verify", false, "Parse generated files and fail on syntax errors")
	cmd.Flags().BoolVar(&f.link, "link", false, "Replace the base URL placeholder with configured URLs")
	cmd.Flags().BoolVar(&f.commit, "commit", false, "Commit the output directory with git")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Regenerate when IR or config files change")
	cmd.Flags().DurationVar(&f.debounce, "debounce", watch.DefaultDebounce, "Quiet period before regenerating in watch mode")

	return cmd
}

func runGenerate(ctx context.Context, cmd *cobra.Command, cfg *config.Config, f *generateFlags) error {
	switch f.bump {
	case "", packaging.BumpPatch, packaging.BumpMinor, packaging.BumpMajor:
	default:
		return fmt.Errorf("invalid --bump %q (want patch, minor or major)", f.bump)
	}

	project, projectFile, err := loadProject(f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load project config: %w", err)
	}
	project.Merge(&f.overrides)
	if err := project.Validate(); err != nil {
		return err
	}

	recorder, closeRecorder, err := openRecorder(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRecorder()

	publisher, closePublisher := openPublisher(ctx, cfg)
	defer closePublisher()

	version, err := resolveVersion(ctx, recorder, project, f.bump)
	if err != nil {
		return err
	}

	r := &runner{
		project:   project,
		version:   version,
		workers:   cfg.Workers,
		verify:    f.verify,
		link:      f.link || f.overrides.BaseURL != "",
		commit:    f.commit,
		gen:       generator.NewGenerator(),
		committer: publish.NewGitCommitter(cfg.GitAuthor, cfg.GitEmail),
		recorder:  recorder,
		publisher: publisher,
		out:       cmd.OutOrStdout(),
	}

	fmt.Fprintf(r.out, "🔍 Generating %s SDK %s %s from %s\n", project.Language, packageName(project), version, project.IRDir)
	if _, err := r.run(ctx); err != nil && !f.watch {
		return err
	} else if err != nil {
		fmt.Fprintf(r.out, "❌ %v\n", err)
	}

	if !f.watch {
		return nil
	}

	paths := []string{project.IRDir}
	if _, err := os.Stat(projectFile); err == nil {
		paths = append(paths, projectFile)
	}
	w, err := watch.New(f.debounce, paths...)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "👀 Watching %v (Ctrl+C to stop)\n", paths)
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		log.Info().Strs("changed", changed).Msg("regenerating")

		reloaded, _, err := loadProject(f.configPath)
		if err != nil {
			fmt.Fprintf(r.out, "❌ %v\n", err)
			return err
		}
		reloaded.Merge(&f.overrides)
		if err := reloaded.Validate(); err != nil {
			fmt.Fprintf(r.out, "❌ %v\n", err)
			return err
		}
		r.project = reloaded

		if _, err := r.run(ctx); err != nil {
			fmt.Fprintf(r.out, "❌ %v\n", err)
			return err
		}
		return nil
	})
}

func openRecorder(ctx context.Context, cfg *config.Config) (history.Recorder, func(), error) {
	if cfg.DatabaseURL == "" {
		return history.Nop{}, func() {}, nil
	}

	db, err := history.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database %s: %w", maskConnectionString(cfg.DatabaseURL), err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return history.NewStore(db), db.Close, nil
}

// openPublisher connects to NATS when configured. An unreachable server
// disables events rather than failing the run.
func openPublisher(ctx context.Context, cfg *config.Config) (events.Publisher, func()) {
	if cfg.NATSURL == "" {
		return events.Nop{}, func() {}
	}

	client, err := events.NewClient(cfg.NATSURL)
	if err != nil {
		log.Warn().Err(err).Msg("events disabled")
		return events.Nop{}, func() {}
	}
	if err := client.Setup(ctx); err != nil {
		log.Warn().Err(err).Msg("events disabled")
		client.Close()
		return events.Nop{}, func() {}
	}
	return client, client.Close
}
