package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/QTest-hq/sdkgen/internal/config"
	"github.com/QTest-hq/sdkgen/internal/emitter"
	"github.com/QTest-hq/sdkgen/internal/events"
	"github.com/QTest-hq/sdkgen/internal/history"
	"github.com/QTest-hq/sdkgen/internal/packaging"
	"github.com/QTest-hq/sdkgen/internal/publish"
	"github.com/QTest-hq/sdkgen/internal/verify"
)

func linkCmd(cfg *config.Config) *cobra.Command {
	var (
		configPath string
		outputDir  string
		baseURL    string
		classURLs  map[string]string
	)

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Replace the base URL placeholder in generated class files",
		Long: `link substitutes each generated class file's base URL placeholder with the
URL its class is deployed at. URLs come from sdkgen.yaml and may be overridden
with --class Name=URL and --url.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _, err := loadProject(configPath)
			if err != nil {
				return fmt.Errorf("failed to load project config: %w", err)
			}

			urls := publish.URLs{Classes: project.URLs(), Default: project.BaseURL}
			for class, u := range classURLs {
				urls.Classes[class] = u
			}
			if baseURL != "" {
				urls.Default = baseURL
			}
			if outputDir == "" {
				outputDir = project.Output
			}

			linked, err := publish.Link(outputDir, urls)
			if err != nil {
				return err
			}

			publisher, closePublisher := openPublisher(cmd.Context(), cfg)
			defer closePublisher()

			event := &events.Event{
				Kind:     events.KindLinked,
				Package:  packageName(project),
				Language: project.Language,
				Output:   outputDir,
				Files:    len(linked),
			}
			if m, err := publish.ReadManifest(outputDir); err == nil {
				event.RunID = m.RunID
				event.Package, event.Language, event.Version = m.Package, string(m.Language), m.Version
			}
			if err := publisher.Publish(cmd.Context(), event); err != nil {
				log.Warn().Err(err).Msg("failed to publish event")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🔗 Linked %d class files in %s\n", len(linked), outputDir)
			for _, p := range linked {
				fmt.Fprintf(out, "  ✓ %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", ".", "Project directory or sdkgen.yaml path")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Generated SDK directory (default: project output)")
	cmd.Flags().StringVar(&baseURL, "url", "", "Base URL for classes without their own")
	cmd.Flags().StringToStringVar(&classURLs, "class", nil, "Per-class base URL, e.g. --class Cart=https://cart.example.com")

	return cmd
}

func verifyCmd(cfg *config.Config) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "verify [dir]",
		Short: "Check a generated SDK for syntax errors and placeholder misuse",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				dir = args[0]
			}

			files, err := readOutput(dir)
			if err != nil {
				return err
			}

			issues, err := verify.NewVerifier(cfg.Workers).Files(cmd.Context(), files)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintf(out, "✅ %d files verified in %s\n", len(files), dir)
				return nil
			}

			fmt.Fprintf(out, "❌ %d issues in %s:\n", len(issues), dir)
			for _, i := range issues {
				fmt.Fprintf(out, "  %s\n", i)
			}
			return errVerifyFailed
		},
	}

	cmd.Flags().StringVarP(&dir, "output", "o", "sdk", "Generated SDK directory")

	return cmd
}

// readOutput loads the files of a generated SDK directory. Unlinked class
// files are identified by the output manifest; linked ones are checked as
// plain sources because their placeholder is gone.
func readOutput(dir string) ([]emitter.File, error) {
	m, err := publish.ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	var files []emitter.File
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() {
			if path != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		// The output manifest and writer temp files
		if strings.HasPrefix(name, ".") {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		files = append(files, emitter.File{Path: rel, Content: string(data), Class: m.Files[rel]})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	return files, nil
}

func languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported target languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := emitter.NewRegistry()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LANGUAGE\tTYPES\tMODELS\tPACKAGE")
			for _, lang := range reg.List() {
				e, err := reg.Get(lang)
				if err != nil {
					return err
				}
				typing, models := "inline", "-"
				if e.Static() {
					typing, models = "static", e.ModelsFileName()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", lang, typing, models, packaging.FileName(lang))
			}
			return w.Flush()
		},
	}
}

func historyCmd(cfg *config.Config) *cobra.Command {
	var (
		pkg      string
		language string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			ctx := cmd.Context()

			db, err := history.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", maskConnectionString(cfg.DatabaseURL), err)
			}
			defer db.Close()
			if err := db.Migrate(ctx); err != nil {
				return err
			}

			runs, err := history.NewStore(db).List(ctx, pkg, language, limit)
			if err != nil {
				return err
			}
			return printRuns(cmd, runs)
		},
	}

	cmd.Flags().StringVarP(&pkg, "package", "p", "", "Filter by package")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Filter by language")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to show")

	return cmd
}

func printRuns(cmd *cobra.Command, runs []history.Run) error {
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tPACKAGE\tLANGUAGE\tVERSION\tCLASSES\tFILES\tCOMMIT")
	for _, r := range runs {
		commit := "-"
		if r.CommitSHA != nil && len(*r.CommitSHA) >= 8 {
			commit = (*r.CommitSHA)[:8]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Package, r.Language, r.Version, len(r.Classes), r.Files, commit)
	}
	return w.Flush()
}

func initCmd() *cobra.Command {
	var (
		dir      string
		language string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default sdkgen.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(dir, config.ProjectFile)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			project := config.DefaultProjectConfig()
			if language != "" {
				project.Language = language
			}
			if err := project.Validate(); err != nil {
				return err
			}
			if err := config.SaveProjectConfig(dir, project); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "📄 Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Project directory")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Target language")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
