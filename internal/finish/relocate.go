// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package finish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// Relocate moves the legacy asset directory in dir to target and rewrites
// legacy path prefixes in the document.
//
// When target does not exist, legacy is renamed. When it does, every entry
// of legacy is moved into target, replacing same-named entries, and the
// emptied legacy directory is removed. A failed move is returned as an item
// result and does not stop the remaining moves. A missing legacy directory
// or a missing document is not an error, and relocating a directory onto
// itself does nothing.
func Relocate(dir, legacy, target, document string, w io.Writer) (bool, []types.ItemResult, error) {
	legacyDir := filepath.Join(dir, legacy)
	targetDir := filepath.Join(dir, target)

	if filepath.Clean(legacy) == filepath.Clean(target) {
		return false, nil, nil
	}

	var (
		items     []types.ItemResult
		relocated bool
	)

	if dirExists(legacyDir) {
		if dirExists(targetDir) {
			fmt.Fprintf(w, "warning: %s already exists, merging %s into it\n", targetDir, legacy)
			items = mergeInto(legacyDir, targetDir)
			err := os.Remove(legacyDir)
			items = append(items, types.ItemResult{Path: legacyDir, Action: "remove", Err: err})
		} else {
			if err := rename(legacyDir, targetDir); err != nil {
				return false, nil, fmt.Errorf("renaming %s to %s: %w", legacyDir, targetDir, err)
			}
		}
		relocated = true
		fmt.Fprintf(w, "relocated: %s -> %s\n", legacy, target)
	}

	if document == "" {
		return relocated, items, nil
	}
	changed, err := rewritePrefix(filepath.Join(dir, document), legacy+"/", target+"/")
	if err != nil {
		return relocated, items, err
	}
	if changed {
		fmt.Fprintf(w, "rewrote asset links in %s\n", document)
	}
	return relocated, items, nil
}

// mergeInto moves each entry of src into dst, removing any existing entry
// of the same name first.
func mergeInto(src, dst string) []types.ItemResult {
	entries, err := os.ReadDir(src)
	if err != nil {
		return []types.ItemResult{{Path: src, Action: "read", Err: err}}
	}

	items := make([]types.ItemResult, 0, len(entries))
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dst, e.Name())

		if _, err := os.Lstat(to); err == nil {
			if err := removeAll(to); err != nil {
				items = append(items, types.ItemResult{Path: from, Action: "move", Err: fmt.Errorf("replacing %s: %w", to, err)})
				continue
			}
		}
		items = append(items, types.ItemResult{Path: from, Action: "move", Err: rename(from, to)})
	}
	return items
}

// rewritePrefix replaces every occurrence of oldPrefix with newPrefix in
// the file at path. A missing file is a no-op. The file is only written
// when its content changes.
func rewritePrefix(path, oldPrefix, newPrefix string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	content := string(data)
	updated := strings.ReplaceAll(content, oldPrefix, newPrefix)
	if updated == content {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// Relocator is the pipeline stage wrapping Relocate.
type Relocator struct {
	Legacy string
	Target string
}

// Name returns "relocate".
func (r Relocator) Name() string { return "relocate" }

// Run relocates the job's legacy asset directory and records moved entries.
func (r Relocator) Run(ctx context.Context, job Job, rep *Report, w io.Writer) error {
	relocated, items, err := Relocate(job.Dir, r.Legacy, r.Target, job.Document, w)
	rep.Relocated = relocated
	rep.add(items...)
	return err
}
