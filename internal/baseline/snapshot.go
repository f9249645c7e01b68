// Package baseline captures the pre-run fingerprints of production paths and
// later detects whether any of them changed out of band.
//
// Baseline paths are slash-separated and relative to the production root,
// e.g. "scripts/deploy.sh". The snapshot is written once into the workspace
// and never modified.
package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/stagehand/internal/clock"
	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/domain"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/fsutil"
)

// Snapshotter captures baseline snapshots against one production root.
type Snapshotter struct {
	productionRoot string
	categories     []constants.Category
	concurrency    int
	clock          clock.Clock
	logger         zerolog.Logger
}

// Option configures a Snapshotter or Detector.
type Option func(*settings)

type settings struct {
	categories  []constants.Category
	concurrency int
	clock       clock.Clock
	logger      zerolog.Logger
}

// WithCategories sets the production category subtrees that are snapshotted.
func WithCategories(categories []constants.Category) Option {
	return func(s *settings) {
		if len(categories) > 0 {
			s.categories = categories
		}
	}
}

// WithConcurrency bounds the number of files fingerprinted at once.
func WithConcurrency(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock sets the clock used for capture timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *settings) { s.clock = clock.OrReal(c) }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

func applyOptions(opts []Option) settings {
	s := settings{
		categories:  constants.DefaultCategories(),
		concurrency: constants.DefaultFingerprintConcurrency,
		clock:       clock.RealClock{},
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewSnapshotter creates a Snapshotter for productionRoot.
func NewSnapshotter(productionRoot string, opts ...Option) *Snapshotter {
	s := applyOptions(opts)
	return &Snapshotter{
		productionRoot: productionRoot,
		categories:     s.categories,
		concurrency:    s.concurrency,
		clock:          s.clock,
		logger:         s.logger,
	}
}

// CandidatePaths returns every regular file under the given category
// subtrees of productionRoot, as sorted root-relative slash paths.
// Including every file keeps the candidate set a superset of what a stage
// could overwrite.
func CandidatePaths(productionRoot string, categories []constants.Category) ([]string, error) {
	var paths []string
	for _, c := range categories {
		files, err := fsutil.ListFiles(filepath.Join(productionRoot, c.String()))
		if err != nil {
			return nil, fmt.Errorf("failed to list production %s: %w", c, err)
		}
		for _, f := range files {
			paths = append(paths, path.Join(c.String(), f))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Candidates returns the candidate paths for ws. A workspace with no
// previous version has nothing to diff against and gets an empty set.
func (s *Snapshotter) Candidates(ws *domain.Workspace) ([]string, error) {
	if ws.PreviousVersion == nil {
		return []string{}, nil
	}
	return CandidatePaths(s.productionRoot, s.categories)
}

// Capture fingerprints every candidate path and persists the snapshot into
// the workspace. It may be called once per workspace; a second call returns
// ErrBaselineExists.
func (s *Snapshotter) Capture(ctx context.Context, ws *domain.Workspace, candidates []string) (*domain.BaselineSnapshot, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	if _, err := os.Stat(ws.BaselinePath()); err == nil {
		return nil, fmt.Errorf("workspace '%s': %w", ws.Version, sherrors.ErrBaselineExists)
	}

	entries, err := fingerprintAll(ctx, s.productionRoot, candidates, s.concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to capture baseline for '%s': %w", ws.Version, err)
	}

	snap := &domain.BaselineSnapshot{
		Version:       ws.Version,
		CapturedAt:    s.clock.Now(),
		Entries:       entries,
		SchemaVersion: constants.BaselineSchemaVersion,
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal baseline: %w", err)
	}

	if err := fsutil.WriteOnce(ws.BaselinePath(), data, fsutil.FilePerm); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("workspace '%s': %w", ws.Version, sherrors.ErrBaselineExists)
		}
		return nil, fmt.Errorf("failed to write baseline: %w", err)
	}

	absent := 0
	for _, fp := range entries {
		if !fp.Exists {
			absent++
		}
	}
	s.logger.Info().
		Str("version", ws.Version).
		Str("run_id", ws.RunID).
		Int("paths", len(entries)).
		Int("absent", absent).
		Msg("baseline captured")

	return snap, nil
}

// Load reads the baseline snapshot stored in ws.
func Load(ws *domain.Workspace) (*domain.BaselineSnapshot, error) {
	data, err := os.ReadFile(ws.BaselinePath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workspace '%s': %w", ws.Version, sherrors.ErrBaselineMissing)
		}
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}

	var snap domain.BaselineSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("baseline for '%s' is unreadable: %w", ws.Version, sherrors.ErrWorkspaceCorrupted)
	}
	if snap.Entries == nil {
		snap.Entries = map[string]domain.Fingerprint{}
	}
	return &snap, nil
}

// fingerprintAll fingerprints paths relative to root with at most limit
// workers. The first error cancels the remaining work.
func fingerprintAll(ctx context.Context, root string, paths []string, limit int) (map[string]domain.Fingerprint, error) {
	results := make([]domain.Fingerprint, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, rel := range paths {
		g.Go(func() error {
			if err := ctxutil.Canceled(gctx); err != nil {
				return err
			}
			abs, err := fsutil.SafeJoin(root, rel)
			if err != nil {
				return err
			}
			fp, err := FingerprintFile(abs)
			if err != nil {
				return err
			}
			results[i] = fp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make(map[string]domain.Fingerprint, len(paths))
	for i, rel := range paths {
		entries[rel] = results[i]
	}
	return entries, nil
}
