package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/sdkgen/internal/config"
	"github.com/QTest-hq/sdkgen/internal/emitter"
	"github.com/QTest-hq/sdkgen/internal/events"
	"github.com/QTest-hq/sdkgen/internal/generator"
	"github.com/QTest-hq/sdkgen/internal/history"
	"github.com/QTest-hq/sdkgen/internal/loader"
	"github.com/QTest-hq/sdkgen/internal/packaging"
	"github.com/QTest-hq/sdkgen/internal/publish"
	"github.com/QTest-hq/sdkgen/internal/verify"
)

var errVerifyFailed = errors.New("generated output failed verification")

// loadProject reads the project configuration at path, a directory or a
// file, and resolves its relative directories against the file's location.
func loadProject(path string) (*config.ProjectConfig, string, error) {
	info, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, "", err
	}

	var (
		project *config.ProjectConfig
		base    string
		file    string
	)
	if err == nil && !info.IsDir() {
		project, err = config.LoadProjectFile(path)
		base, file = filepath.Dir(path), path
	} else {
		project, err = config.LoadProjectConfig(path)
		base, file = path, filepath.Join(path, config.ProjectFile)
	}
	if err != nil {
		return nil, "", err
	}

	project.IRDir = resolve(base, project.IRDir)
	project.Output = resolve(base, project.Output)
	return project, file, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// packageName is the name handed to emitters and package manifests: the
// explicit package (Go module path, Kotlin package) when set, else the
// project name.
func packageName(p *config.ProjectConfig) string {
	if p.Package != "" {
		return p.Package
	}
	return p.Name
}

// runner executes one generation pipeline: load, generate, verify, write,
// link, commit, record and announce.
type runner struct {
	project   *config.ProjectConfig
	version   string
	workers   int
	verify    bool
	link      bool
	commit    bool
	gen       *generator.Generator
	committer *publish.GitCommitter
	recorder  history.Recorder
	publisher events.Publisher
	out       io.Writer
}

// resolveVersion returns the version to publish. With bump set, the highest
// recorded version is bumped; without history the configured version is
// used as is.
func resolveVersion(ctx context.Context, rec history.Recorder, p *config.ProjectConfig, bump string) (string, error) {
	if p.Version == "" {
		p.Version = packaging.DefaultVersion
	}
	if bump == "" {
		return packaging.Normalize(p.Version)
	}

	last, err := rec.LastVersion(ctx, packageName(p), p.Language)
	if err != nil {
		return "", err
	}
	if last == "" {
		log.Info().Str("version", p.Version).Msg("no recorded runs, using configured version")
		return packaging.Normalize(p.Version)
	}
	return packaging.Bump(last, bump)
}

type runResult struct {
	Output   *generator.Output
	Manifest *publish.Manifest
	Commit   string
	Linked   []string
}

func (r *runner) run(ctx context.Context) (*runResult, error) {
	p := r.project
	lang := emitter.Language(p.Language)

	units, err := loader.Load(ctx, p.IRDir, p.ClassConfigs())
	if err != nil {
		return nil, err
	}

	out, err := r.gen.Generate(ctx, generator.Input{
		Units:          units,
		Language:       lang,
		PackageName:    packageName(p),
		PackageVersion: r.version,
	})
	if err != nil {
		return nil, err
	}

	for _, s := range out.Skipped {
		fmt.Fprintf(r.out, "  ⚠️  Skip %s (%s): %s\n", s.SourceFile, s.Class, s.Reason)
	}

	if r.verify {
		issues, err := verify.NewVerifier(r.workers).Files(ctx, out.Files)
		if err != nil {
			return nil, err
		}
		if len(issues) > 0 {
			fmt.Fprintf(r.out, "❌ %d verification issues:\n", len(issues))
			for _, i := range issues {
				fmt.Fprintf(r.out, "  %s\n", i)
			}
			return nil, errVerifyFailed
		}
	}

	m, err := publish.NewWriter(p.Output, r.workers).Write(ctx, publish.Run{
		Language: lang,
		Package:  packageName(p),
		Version:  r.version,
	}, out.Files)
	if err != nil {
		return nil, err
	}
	res := &runResult{Output: out, Manifest: m}

	if r.link {
		res.Linked, err = publish.Link(p.Output, publish.URLs{Classes: p.URLs(), Default: p.BaseURL})
		if err != nil {
			return nil, err
		}
	}

	if r.commit {
		res.Commit, err = r.committer.Commit(p.Output, fmt.Sprintf("sdk %s %s", p.Language, r.version))
		if errors.Is(err, publish.ErrNothingToCommit) {
			log.Info().Str("dir", p.Output).Msg("output unchanged, nothing to commit")
		} else if err != nil {
			return nil, err
		}
	}

	classes := make([]string, 0, len(out.Classes()))
	for _, f := range out.Classes() {
		classes = append(classes, f.Class)
	}

	run := &history.Run{
		Package:  packageName(p),
		Language: p.Language,
		Version:  r.version,
		Output:   p.Output,
		Classes:  classes,
		Files:    len(out.Files),
		Skipped:  len(out.Skipped),
	}
	if res.Commit != "" {
		run.CommitSHA = &res.Commit
	}
	if err := r.recorder.Record(ctx, run); err != nil {
		log.Warn().Err(err).Msg("failed to record run")
	}

	event := &events.Event{
		Kind:     events.KindGenerated,
		RunID:    m.RunID,
		Package:  packageName(p),
		Language: p.Language,
		Version:  r.version,
		Output:   p.Output,
		Classes:  classes,
		Files:    len(out.Files),
		Commit:   res.Commit,
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Msg("failed to publish event")
	}

	fmt.Fprintf(r.out, "✅ Generated %d files (%d classes) for %s in %s\n", len(out.Files), len(classes), p.Language, p.Output)
	if len(out.Unresolved) > 0 {
		fmt.Fprintf(r.out, "  ⚠️  Unresolved types typed dynamically: %v\n", out.Unresolved)
	}
	if len(res.Linked) > 0 {
		fmt.Fprintf(r.out, "🔗 Linked %d class files\n", len(res.Linked))
	}
	if res.Commit != "" {
		fmt.Fprintf(r.out, "📦 Committed %s\n", res.Commit[:8])
	}

	return res, nil
}
