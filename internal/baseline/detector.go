package baseline

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/stagehand/internal/ctxutil"
	"github.com/mrz1836/stagehand/internal/domain"
	"github.com/mrz1836/stagehand/internal/fsutil"
)

// Detector compares a workspace's frozen baseline against current production.
//
// Detection is a point-in-time check, not a lock: production can still change
// between Detect returning and the committer moving files.
type Detector struct {
	productionRoot string
	concurrency    int
	logger         zerolog.Logger
}

// NewDetector creates a Detector for productionRoot.
func NewDetector(productionRoot string, opts ...Option) *Detector {
	s := applyOptions(opts)
	return &Detector{
		productionRoot: productionRoot,
		concurrency:    s.concurrency,
		logger:         s.logger,
	}
}

// Detect re-fingerprints every baselined path and returns those whose
// content, existence, or readability changed, sorted by path.
// A path that cannot be fingerprinted now is reported as a conflict.
//
// targets are production-root-relative paths the caller is about to write.
// When ws has a previous version its baseline covered every file under the
// categories, so a target missing from it was absent at capture time and is
// checked as absent. Without a previous version targets add nothing.
func (d *Detector) Detect(ctx context.Context, ws *domain.Workspace, targets ...string) ([]domain.Conflict, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	snap, err := Load(ws)
	if err != nil {
		return nil, err
	}

	expected := make(map[string]domain.Fingerprint, len(snap.Entries)+len(targets))
	for p, fp := range snap.Entries {
		expected[p] = fp
	}
	if ws.PreviousVersion != nil {
		for _, t := range targets {
			if _, ok := expected[t]; !ok {
				expected[t] = domain.AbsentFingerprint()
			}
		}
	}

	paths := make([]string, 0, len(expected))
	for p := range expected {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	found := make([]*domain.Conflict, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i, rel := range paths {
		recorded := expected[rel]
		g.Go(func() error {
			if err := ctxutil.Canceled(gctx); err != nil {
				return err
			}
			found[i] = d.check(rel, recorded)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	conflicts := make([]domain.Conflict, 0)
	for _, c := range found {
		if c != nil {
			conflicts = append(conflicts, *c)
		}
	}

	if len(conflicts) > 0 {
		d.logger.Warn().
			Str("version", ws.Version).
			Str("run_id", ws.RunID).
			Int("conflicts", len(conflicts)).
			Int("checked", len(paths)).
			Msg("production changed since baseline")
	} else {
		d.logger.Debug().
			Str("version", ws.Version).
			Int("checked", len(paths)).
			Msg("no conflicts against baseline")
	}

	return conflicts, nil
}

func (d *Detector) check(rel string, recorded domain.Fingerprint) *domain.Conflict {
	abs, err := fsutil.SafeJoin(d.productionRoot, rel)
	if err != nil {
		return &domain.Conflict{ProductionPath: rel, Recorded: recorded, Reason: "invalid path: " + err.Error()}
	}

	current, err := FingerprintFile(abs)
	if err != nil {
		return &domain.Conflict{ProductionPath: rel, Recorded: recorded, Reason: "unreadable: " + err.Error()}
	}
	if current.Equal(recorded) {
		return nil
	}
	return &domain.Conflict{ProductionPath: rel, Recorded: recorded, Current: current}
}
