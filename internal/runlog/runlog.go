// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog records document-processing runs: a human-readable,
// append-only text log in the output root and an optional SQLite index of
// the same records.
package runlog

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/pdf2md/pkg/types"
)

const (
	// TimeLayout is the timestamp format used in log blocks.
	TimeLayout = "2006-01-02 15:04:05"

	// Delimiter separates successive blocks in the log file.
	Delimiter = "----------------------------------------"
)

// Format renders rec as a log block terminated by a newline.
func Format(rec types.RunRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Time: %s\n", rec.Timestamp.Format(TimeLayout))
	b.WriteString("Processed Files:\n")
	fmt.Fprintf(&b, "- %s\n", rec.SourceFile)
	b.WriteString("Conversion Parameters:\n")
	for _, p := range rec.Params {
		fmt.Fprintf(&b, "- %s: %s\n", p.Key, p.Value)
	}
	fmt.Fprintf(&b, "Output Path: %s\n", rec.OutputPath)
	return b.String()
}

// Append adds rec to the log file at path, creating the file if needed.
// Existing content is never rewritten; every block after the first is
// preceded by Delimiter on its own line.
func Append(path string, rec types.RunRecord) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat run log %s: %w", path, err)
	}

	block := Format(rec)
	if info.Size() > 0 {
		block = "\n" + Delimiter + "\n" + block
	}
	if _, err := f.WriteString(block); err != nil {
		return fmt.Errorf("writing run log %s: %w", path, err)
	}
	return f.Close()
}

// Split parses the content of a log file back into its blocks, without
// the delimiter lines.
func Split(content string) []string {
	var blocks []string
	for _, part := range strings.Split(content, "\n"+Delimiter+"\n") {
		if strings.TrimSpace(part) != "" {
			blocks = append(blocks, part)
		}
	}
	return blocks
}
