// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package finish implements the artifact-finishing pass that runs over a
// converter output directory: asset relocation, intermediate pruning,
// packaging into a verified archive, and document annotation.
//
// Each step is safe to re-run on a partially finished directory. The one
// exception is annotation, which the packager performs at most once per
// successful packaging pass.
package finish

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/pdf2md/pkg/types"
)

var (
	// ErrPackaging reports that the archive could not be written.
	ErrPackaging = errors.New("packaging failed")

	// ErrIntegrity reports that a written archive failed verification.
	ErrIntegrity = errors.New("archive failed verification")

	// ErrArchiveExists reports that the archive is already present and the
	// policy forbids replacing it.
	ErrArchiveExists = errors.New("archive already exists")

	// ErrNoDocument reports that no Markdown document could be located.
	ErrNoDocument = errors.New("no markdown document found")
)

// Job identifies the directory and document a pipeline run operates on.
type Job struct {
	// Dir is the converter output directory.
	Dir string

	// Document is the Markdown file name inside Dir.
	Document string
}

// DocumentPath returns the full path of the Markdown document.
func (j Job) DocumentPath() string {
	return filepath.Join(j.Dir, j.Document)
}

// Stem returns the document name without its extension.
func (j Job) Stem() string {
	return strings.TrimSuffix(j.Document, filepath.Ext(j.Document))
}

// Report collects what a pipeline run did.
type Report struct {
	// Stages lists the names of the stages that ran, in order.
	Stages []string `json:"stages" yaml:"stages"`

	// Relocated is true when a legacy asset directory was moved.
	Relocated bool `json:"relocated" yaml:"relocated"`

	// Items holds the per-entry results of moves and deletions.
	Items []types.ItemResult `json:"items" yaml:"items"`

	// Archive is set when assets were packaged.
	Archive *types.Archive `json:"archive,omitempty" yaml:"archive,omitempty"`

	// Annotated is true when the archive notice was added to the document.
	Annotated bool `json:"annotated" yaml:"annotated"`
}

// Failed returns the item results that carry an error.
func (r *Report) Failed() []types.ItemResult {
	var out []types.ItemResult
	for _, it := range r.Items {
		if !it.OK() {
			out = append(out, it)
		}
	}
	return out
}

func (r *Report) add(items ...types.ItemResult) {
	r.Items = append(r.Items, items...)
}

// Scan lists the converter output in dir. The document is excluded from
// the asset list; assets are returned in name order.
func Scan(dir, document string) (types.ConversionOutput, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return types.ConversionOutput{}, fmt.Errorf("reading output directory %s: %w", dir, err)
	}

	out := types.ConversionOutput{
		Dir:          dir,
		DocumentPath: filepath.Join(dir, document),
	}
	for _, e := range entries {
		if e.Name() == document {
			continue
		}
		kind := types.AssetFile
		if e.IsDir() {
			kind = types.AssetDirectory
		}
		out.Assets = append(out.Assets, types.AssetEntry{
			Path: filepath.Join(dir, e.Name()),
			Kind: kind,
		})
	}
	sort.Slice(out.Assets, func(i, j int) bool {
		return out.Assets[i].Path < out.Assets[j].Path
	})
	return out, nil
}

// LocateDocument returns the Markdown file name in dir. It prefers
// <stem>.md when stem is non-empty and falls back to the only .md file in
// the directory.
func LocateDocument(dir, stem string) (string, error) {
	if stem != "" {
		name := stem + ".md"
		if fileExists(filepath.Join(dir, name)) {
			return name, nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading output directory %s: %w", dir, err)
	}
	var found []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			found = append(found, e.Name())
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", fmt.Errorf("%w in %s", ErrNoDocument, dir)
	default:
		return "", fmt.Errorf("%d markdown files in %s, specify one: %s", len(found), dir, strings.Join(found, ", "))
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
