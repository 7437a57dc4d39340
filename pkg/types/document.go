// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pdf2md pipeline:
// converter output, archives, per-item results, run records, and
// configuration.
package types

import (
	"path/filepath"
	"time"
)

// ConversionStatus indicates the outcome of processing one PDF.
type ConversionStatus string

const (
	ConversionNone    ConversionStatus = "none"
	ConversionDone    ConversionStatus = "converted"
	ConversionPartial ConversionStatus = "partial"
	ConversionFailed  ConversionStatus = "failed"
)

// AssetKind distinguishes file assets from directory assets.
type AssetKind string

const (
	AssetFile      AssetKind = "file"
	AssetDirectory AssetKind = "directory"
)

// AssetEntry is one direct child of a converter output directory other than
// the document itself.
type AssetEntry struct {
	// Path is the absolute or output-relative path of the entry.
	Path string `json:"path" yaml:"path"`

	// Kind is file or directory.
	Kind AssetKind `json:"kind" yaml:"kind"`
}

// ConversionOutput describes the directory an external converter produced
// for a single PDF: one Markdown document plus auxiliary assets.
type ConversionOutput struct {
	// Dir is the converter output directory (<output root>/<stem>).
	Dir string `json:"dir" yaml:"dir"`

	// DocumentPath is the path to the Markdown file inside Dir.
	DocumentPath string `json:"document_path" yaml:"document_path"`

	// Assets lists the remaining direct children of Dir in name order.
	Assets []AssetEntry `json:"assets" yaml:"assets"`
}

// DocumentName returns the base name of the Markdown document.
func (o ConversionOutput) DocumentName() string {
	return filepath.Base(o.DocumentPath)
}

// Archive is a verified asset archive written by the packager.
type Archive struct {
	Path        string `json:"path" yaml:"path"`
	MemberCount int    `json:"member_count" yaml:"member_count"`
}

// ItemResult records the outcome of a best-effort move or delete on one
// filesystem entry. Err is nil on success.
type ItemResult struct {
	Path   string `json:"path" yaml:"path"`
	Action string `json:"action" yaml:"action"`
	Err    error  `json:"-" yaml:"-"`
}

// OK reports whether the action succeeded.
func (r ItemResult) OK() bool { return r.Err == nil }

// Param is one key/value pair of a run's parameter snapshot.
type Param struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// RunRecord describes a single document-processing invocation. Records are
// append-only.
type RunRecord struct {
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	SourceFile string    `json:"source_file" yaml:"source_file"`
	Params     []Param   `json:"params" yaml:"params"`
	OutputPath string    `json:"output_path" yaml:"output_path"`
}
