package recovery

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/mrz1836/stagehand/internal/constants"
)

// Line kinds in a FileDiff.
const (
	LineContext = "context"
	LineAdded   = "added"
	LineRemoved = "removed"
)

// DiffLine is one line of a staged-versus-production diff.
type DiffLine struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	OldLine int    `json:"old_line,omitempty"`
	NewLine int    `json:"new_line,omitempty"`
}

// FileDiff compares one staged file with the production file it would replace.
type FileDiff struct {
	Category       constants.Category `json:"category"`
	StagedPath     string             `json:"staged_path"`
	ProductionPath string             `json:"production_path"`
	New            bool               `json:"new"`
	Binary         bool               `json:"binary,omitempty"`
	Truncated      bool               `json:"truncated,omitempty"`
	Lines          []DiffLine         `json:"lines,omitempty"`
}

// diffFile builds the diff for one staged file. A missing production file
// diffs against empty content.
func diffFile(category constants.Category, staged, production string, maxLines int) (FileDiff, error) {
	fd := FileDiff{Category: category, StagedPath: staged, ProductionPath: production}

	after, err := os.ReadFile(staged) //#nosec G304 -- staged path is under the workspace root
	if err != nil {
		return fd, err
	}
	before, err := os.ReadFile(production) //#nosec G304 -- production path is under the production root
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fd, err
		}
		fd.New = true
	}

	if !utf8.Valid(before) || !utf8.Valid(after) {
		fd.Binary = true
		return fd, nil
	}

	if lineCount(string(before))+lineCount(string(after)) > maxLines {
		fd.Truncated = true
		return fd, nil
	}

	fd.Lines = textDiff(string(before), string(after))
	return fd, nil
}

// textDiff returns a line-level diff of before and after.
func textDiff(before, after string) []DiffLine {
	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DiffLine
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		chunk := strings.Split(d.Text, "\n")
		if len(chunk) > 0 && chunk[len(chunk)-1] == "" {
			chunk = chunk[:len(chunk)-1]
		}
		for _, text := range chunk {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				lines = append(lines, DiffLine{Type: LineContext, Text: text, OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				lines = append(lines, DiffLine{Type: LineRemoved, Text: text, OldLine: oldLine})
				oldLine++
			case diffmatchpatch.DiffInsert:
				lines = append(lines, DiffLine{Type: LineAdded, Text: text, NewLine: newLine})
				newLine++
			}
		}
	}
	return lines
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
