// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package finish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// originSuffix names the copy of the source PDF some converters leave in
// their output directory.
const originSuffix = "_origin.pdf"

// Pruner removes the converter's intermediate <stem>_origin.pdf copy.
type Pruner struct{}

// Name returns "prune".
func (Pruner) Name() string { return "prune" }

// Run deletes <stem>_origin.pdf from the job directory if it exists.
func (Pruner) Run(ctx context.Context, job Job, rep *Report, w io.Writer) error {
	path := filepath.Join(job.Dir, job.Stem()+originSuffix)
	if _, err := os.Lstat(path); err != nil {
		return nil
	}
	err := remove(path)
	rep.add(types.ItemResult{Path: path, Action: "delete", Err: err})
	if err != nil {
		fmt.Fprintf(w, "warning: could not remove %s: %v\n", filepath.Base(path), err)
		return nil
	}
	fmt.Fprintf(w, "removed intermediate file: %s\n", filepath.Base(path))
	return nil
}
