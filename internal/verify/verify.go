// Package verify parses generated SDK files with tree-sitter and reports
// syntax errors and misplaced base URL sentinels.
package verify

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"golang.org/x/sync/errgroup"

	"github.com/QTest-hq/sdkgen/internal/emitter"
)

// IssueKind classifies a verification finding
type IssueKind string

const (
	IssueSyntax   IssueKind = "syntax"
	IssueSentinel IssueKind = "sentinel"
)

// Issue is one problem found in a generated file
type Issue struct {
	Path    string    `json:"path"`
	Line    int       `json:"line,omitempty"`
	Column  int       `json:"column,omitempty"`
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", i.Path, i.Line, i.Column, i.Kind, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Path, i.Kind, i.Message)
}

type grammar struct {
	language *sitter.Language
	strings  map[string]bool
}

func set(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

// grammarFor returns the grammar for a generated file, by extension. Files
// without a grammar are only checked textually.
func grammarFor(p string) (*grammar, bool) {
	switch strings.ToLower(path.Ext(p)) {
	case ".ts":
		return &grammar{typescript.GetLanguage(), set("string", "template_string")}, true
	case ".js":
		return &grammar{javascript.GetLanguage(), set("string", "template_string")}, true
	case ".py":
		return &grammar{python.GetLanguage(), set("string")}, true
	case ".go":
		return &grammar{golang.GetLanguage(), set("interpreted_string_literal", "raw_string_literal")}, true
	case ".kt":
		return &grammar{kotlin.GetLanguage(), set("string_literal", "line_string_literal", "multi_line_string_literal")}, true
	}
	return nil, false
}

// Supported reports whether p is parsed rather than only checked textually.
func Supported(p string) bool {
	_, ok := grammarFor(p)
	return ok
}

// Verifier checks generated files. It is safe for concurrent use.
type Verifier struct {
	workers int
}

// NewVerifier creates a verifier running at most workers parses at once
func NewVerifier(workers int) *Verifier {
	if workers <= 0 {
		workers = 4
	}
	return &Verifier{workers: workers}
}

// Files verifies every file and returns all issues ordered by path and
// line.
func (v *Verifier) Files(ctx context.Context, files []emitter.File) ([]Issue, error) {
	results := make([][]Issue, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i, f := range files {
		g.Go(func() error {
			issues, err := v.File(gctx, f)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Path, err)
			}
			results[i] = issues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Issue
	for _, r := range results {
		all = append(all, r...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Path != all[j].Path {
			return all[i].Path < all[j].Path
		}
		return all[i].Line < all[j].Line
	})
	return all, nil
}

// File verifies one file. Class files must carry the sentinel exactly once,
// inside a string literal; every other file must not carry it at all.
func (v *Verifier) File(ctx context.Context, f emitter.File) ([]Issue, error) {
	source := []byte(f.Content)
	var issues []Issue

	want := 0
	if f.Class != "" {
		want = 1
	}
	if n := strings.Count(f.Content, emitter.BaseURLSentinel); n != want {
		issues = append(issues, Issue{
			Path:    f.Path,
			Kind:    IssueSentinel,
			Message: fmt.Sprintf("base url sentinel appears %d times, want %d", n, want),
		})
	}

	g, ok := grammarFor(f.Path)
	if !ok {
		return issues, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.language)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		issues = append(issues, syntaxIssues(f.Path, root, source)...)
	}

	if f.Class != "" {
		if off := strings.Index(f.Content, emitter.BaseURLSentinel); off >= 0 {
			if !insideString(root, g.strings, uint32(off), uint32(off+len(emitter.BaseURLSentinel))) {
				line, col := position(source, off)
				issues = append(issues, Issue{
					Path:    f.Path,
					Line:    line,
					Column:  col,
					Kind:    IssueSentinel,
					Message: "base url sentinel is not inside a string literal",
				})
			}
		}
	}

	return issues, nil
}

func syntaxIssues(p string, root *sitter.Node, source []byte) []Issue {
	var issues []Issue

	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	walkTree(cursor, func(n *sitter.Node) {
		switch {
		case n.IsMissing():
			issues = append(issues, issueAt(p, n, fmt.Sprintf("missing %s", n.Type())))
		case n.IsError():
			snippet := n.Content(source)
			if len(snippet) > 40 {
				snippet = snippet[:40] + "..."
			}
			issues = append(issues, issueAt(p, n, fmt.Sprintf("unexpected %q", snippet)))
		}
	})

	if len(issues) == 0 {
		issues = append(issues, Issue{Path: p, Kind: IssueSyntax, Message: "syntax error"})
	}
	return issues
}

func issueAt(p string, n *sitter.Node, msg string) Issue {
	pt := n.StartPoint()
	return Issue{
		Path:    p,
		Line:    int(pt.Row) + 1,
		Column:  int(pt.Column) + 1,
		Kind:    IssueSyntax,
		Message: msg,
	}
}

func insideString(root *sitter.Node, types map[string]bool, start, end uint32) bool {
	found := false

	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	walkTree(cursor, func(n *sitter.Node) {
		if !found && types[n.Type()] && n.StartByte() < start && n.EndByte() > end {
			found = true
		}
	})
	return found
}

// walkTree visits every node in document order.
func walkTree(cursor *sitter.TreeCursor, fn func(*sitter.Node)) {
	for {
		fn(cursor.CurrentNode())

		if cursor.GoToFirstChild() {
			continue
		}

		for {
			if cursor.GoToNextSibling() {
				break
			}
			if !cursor.GoToParent() {
				return
			}
		}
	}
}

func position(source []byte, off int) (line, col int) {
	line = 1 + strings.Count(string(source[:off]), "\n")
	col = off - strings.LastIndex(string(source[:off]), "\n")
	return line, col
}
