package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Run is one recorded generation run
type Run struct {
	ID        uuid.UUID `json:"id"`
	Package   string    `json:"package"`
	Language  string    `json:"language"`
	Version   string    `json:"version"`
	Output    string    `json:"output"`
	Classes   []string  `json:"classes"`
	Files     int       `json:"files"`
	Skipped   int       `json:"skipped"`
	CommitSHA *string   `json:"commit_sha,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder persists runs. Store is the PostgreSQL implementation; Nop is used
// when no database is configured.
type Recorder interface {
	Record(ctx context.Context, run *Run) error
	List(ctx context.Context, pkg, language string, limit int) ([]Run, error)
	LastVersion(ctx context.Context, pkg, language string) (string, error)
}

// Store provides run history operations
type Store struct {
	db *DB
}

// NewStore creates a new store
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Record inserts a run, assigning its ID and creation time.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.CreatedAt = time.Now().UTC()
	if run.Classes == nil {
		run.Classes = []string{}
	}

	_, err := s.db.pool.Exec(ctx, `
		INSERT INTO sdk_runs (id, package, language, version, output, classes, files, skipped, commit_sha, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, run.ID, run.Package, run.Language, run.Version, run.Output, run.Classes, run.Files, run.Skipped, run.CommitSHA, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// Get gets a run by ID. It returns nil when there is none.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	run := &Run{}
	err := s.db.pool.QueryRow(ctx, `
		SELECT id, package, language, version, output, classes, files, skipped, commit_sha, created_at
		FROM sdk_runs WHERE id = $1
	`, id).Scan(&run.ID, &run.Package, &run.Language, &run.Version, &run.Output,
		&run.Classes, &run.Files, &run.Skipped, &run.CommitSHA, &run.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// List returns the most recent runs, newest first. Empty pkg or language
// match everything.
func (s *Store) List(ctx context.Context, pkg, language string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.pool.Query(ctx, `
		SELECT id, package, language, version, output, classes, files, skipped, commit_sha, created_at
		FROM sdk_runs
		WHERE ($1 = '' OR package = $1) AND ($2 = '' OR language = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, pkg, language, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Package, &run.Language, &run.Version, &run.Output,
			&run.Classes, &run.Files, &run.Skipped, &run.CommitSHA, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// LastVersion returns the highest version recorded for the package and
// language, or "" when none was.
func (s *Store) LastVersion(ctx context.Context, pkg, language string) (string, error) {
	rows, err := s.db.pool.Query(ctx, `
		SELECT DISTINCT version FROM sdk_runs WHERE package = $1 AND language = $2
	`, pkg, language)
	if err != nil {
		return "", fmt.Errorf("failed to query versions: %w", err)
	}

	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return "", fmt.Errorf("failed to scan versions: %w", err)
	}

	return Highest(versions), nil
}

// Highest returns the greatest semantic version in versions. Entries that do
// not parse are ignored.
func Highest(versions []string) string {
	var best *semver.Version
	var raw string
	for _, v := range versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			continue
		}
		if best == nil || sv.GreaterThan(best) {
			best, raw = sv, v
		}
	}
	return raw
}

// Nop records nothing
type Nop struct{}

func (Nop) Record(context.Context, *Run) error { return nil }

func (Nop) List(context.Context, string, string, int) ([]Run, error) { return nil, nil }

func (Nop) LastVersion(context.Context, string, string) (string, error) { return "", nil }
