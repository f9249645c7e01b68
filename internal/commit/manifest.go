package commit

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mrz1836/stagehand/internal/constants"
	"github.com/mrz1836/stagehand/internal/domain"
	sherrors "github.com/mrz1836/stagehand/internal/errors"
	"github.com/mrz1836/stagehand/internal/fsutil"
)

// StageCategories maps a stage index to the category its output directory holds.
type StageCategories map[int]constants.Category

// DefaultStageCategories is the layout used when none is configured:
// stage 1 writes scripts, stage 2 writes commands.
func DefaultStageCategories() StageCategories {
	return StageCategories{1: constants.CategoryScripts, 2: constants.CategoryCommands}
}

// BuildManifest derives the move list for ws.
//
// Every regular file under a category directory is an entry, in the category
// of the directory holding it, whichever stage wrote it. Files reported by
// successful stages and paths recorded by an interrupted commit are entries
// even when they are no longer staged, so the committer can tell a finished
// move from a missing file. Entries are sorted by category, then by path.
//
// A workspace holding anything the manifest cannot carry (files outside the
// category directories, symlinks, devices) is refused with ErrManifestInvalid.
func BuildManifest(ws *domain.Workspace, productionRoot string, categories []constants.Category, stages StageCategories) ([]domain.ManifestEntry, error) {
	known := make(map[constants.Category]bool, len(categories))
	for _, c := range categories {
		known[c] = true
	}

	stray, err := strayFiles(ws, known)
	if err != nil {
		return nil, err
	}
	if len(stray) > 0 {
		return nil, fmt.Errorf("workspace '%s' holds files outside the manifest: %s: %w",
			ws.Version, strings.Join(stray, ", "), sherrors.ErrManifestInvalid)
	}

	rels := make(map[string]constants.Category)
	for _, c := range categories {
		files, err := fsutil.ListFiles(ws.CategoryDir(c))
		if err != nil {
			return nil, fmt.Errorf("failed to list staged %s: %w", c, err)
		}
		for _, f := range files {
			rels[path.Join(c.String(), f)] = c
		}
	}

	for _, stage := range ws.RecordedStages() {
		result := ws.StageResults[stage]
		if !result.Success {
			continue
		}
		category, ok := stages[stage]
		if !ok || !known[category] {
			return nil, fmt.Errorf("stage %d has no category: %w", stage, sherrors.ErrManifestInvalid)
		}
		for _, file := range result.FilesWritten {
			if _, err := fsutil.SafeJoin(ws.CategoryDir(category), file); err != nil {
				return nil, fmt.Errorf("stage %d file %q: %w", stage, file, err)
			}
			rels[path.Join(category.String(), filepath.ToSlash(filepath.Clean(filepath.FromSlash(file))))] = category
		}
	}

	if ws.Commit != nil {
		recorded := ws.Commit.Moved
		if ws.Commit.Moving != "" {
			recorded = append(append([]string{}, recorded...), ws.Commit.Moving)
		}
		for _, rel := range recorded {
			category, err := categoryOf(rel, known)
			if err != nil {
				return nil, err
			}
			rels[rel] = category
		}
	}

	entries := make([]domain.ManifestEntry, 0, len(rels))
	for rel, category := range rels {
		staged, err := fsutil.SafeJoin(ws.Path, rel)
		if err != nil {
			return nil, err
		}
		production, err := fsutil.SafeJoin(productionRoot, rel)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.ManifestEntry{
			Path:           rel,
			StagedPath:     staged,
			ProductionPath: production,
			Category:       category,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Path < entries[j].Path
	})

	return entries, nil
}

// categoryOf returns the category named by the first segment of rel.
func categoryOf(rel string, known map[constants.Category]bool) (constants.Category, error) {
	first, rest, ok := strings.Cut(rel, "/")
	category := constants.Category(first)
	if !ok || rest == "" || !known[category] {
		return "", fmt.Errorf("recorded commit path %q is not in a category: %w", rel, sherrors.ErrManifestInvalid)
	}
	return category, nil
}

// strayFiles lists workspace-relative paths a commit would not carry:
// anything at the workspace root besides its metadata and category
// directories, and anything under a category directory that is neither a
// directory nor a regular file.
func strayFiles(ws *domain.Workspace, known map[constants.Category]bool) ([]string, error) {
	entries, err := os.ReadDir(ws.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace '%s': %w", ws.Version, err)
	}

	var stray []string
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir() && known[constants.Category(name)]:
			found, err := irregularFiles(filepath.Join(ws.Path, name))
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				stray = append(stray, path.Join(name, f))
			}
		case e.Type().IsRegular() && isMetadataFile(name):
		case e.IsDir():
			files, err := fsutil.ListFiles(filepath.Join(ws.Path, name))
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				stray = append(stray, path.Join(name, f))
			}
		default:
			stray = append(stray, name)
		}
	}
	sort.Strings(stray)
	return stray, nil
}

// irregularFiles lists entries under root that are neither directories nor regular files.
func irregularFiles(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		found = append(found, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return found, nil
}

// isMetadataFile reports whether name is one of the workspace's own documents,
// their lock files, or an interrupted atomic write of one.
func isMetadataFile(name string) bool {
	for _, doc := range []string{constants.WorkspaceFileName, constants.BaselineFileName} {
		switch name {
		case doc, doc + constants.LockFileSuffix, doc + constants.TempFileSuffix:
			return true
		}
	}
	return false
}
