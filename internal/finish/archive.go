// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package finish

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// tmpSuffix marks an archive that is still being written.
const tmpSuffix = ".partial"

// Filesystem operations that tests replace to simulate failures.
var (
	verify    = VerifyArchive
	rename    = os.Rename
	remove    = os.Remove
	removeAll = os.RemoveAll
)

// Package compresses every direct child of dir except the document and the
// archive itself into archiveName, verifies the archive, and only then
// moves it into place and deletes the originals.
//
// Top-level files are stored under their bare name; files below a directory
// keep their slash-separated path relative to dir. When there is nothing to
// package, Package returns a nil archive and no error.
//
// Errors wrapping ErrPackaging or ErrIntegrity mean no original was
// deleted and an existing archive was left as it was. Individual deletion
// failures are returned as item results. Symbolic links are archived as
// links.
func Package(dir, document, archiveName string, policy types.ArchivePolicy, w io.Writer) (*types.Archive, []types.ItemResult, error) {
	files, dirs, err := collectAssets(dir, document, archiveName)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 && len(dirs) == 0 {
		fmt.Fprintln(w, "nothing to package")
		return nil, nil, nil
	}

	archivePath := filepath.Join(dir, archiveName)
	if _, err := os.Stat(archivePath); err == nil && policy != types.ArchiveOverwrite {
		return nil, nil, fmt.Errorf("%w: %s (policy %q)", ErrArchiveExists, archivePath, policy)
	}

	// Verify the partial archive before it replaces an existing one.
	tmpPath := archivePath + tmpSuffix
	count, err := writeArchive(tmpPath, dir, files, dirs)
	if err != nil {
		os.Remove(tmpPath)
		return nil, nil, fmt.Errorf("%w: %v", ErrPackaging, err)
	}
	if err := verify(tmpPath, count); err != nil {
		os.Remove(tmpPath)
		return nil, nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	if err := rename(tmpPath, archivePath); err != nil {
		os.Remove(tmpPath)
		return nil, nil, fmt.Errorf("%w: moving archive into place: %v", ErrPackaging, err)
	}
	fmt.Fprintf(w, "packaged: %d file(s) into %s\n", count, archiveName)

	items := make([]types.ItemResult, 0, len(files)+len(dirs)+1)
	for _, f := range files {
		items = append(items, types.ItemResult{Path: f, Action: "delete", Err: remove(f)})
	}
	for _, d := range dirs {
		items = append(items, types.ItemResult{Path: d, Action: "delete", Err: removeAll(d)})
	}
	for _, it := range items {
		if !it.OK() {
			fmt.Fprintf(w, "warning: could not delete %s: %v\n", it.Path, it.Err)
		}
	}

	return &types.Archive{Path: archivePath, MemberCount: count}, items, nil
}

// collectAssets partitions the direct children of dir into files and
// directories, skipping the document, the archive, and a leftover partial
// archive.
func collectAssets(dir, document, archiveName string) (files, dirs []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading output directory %s: %w", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if name == document || name == archiveName || name == archiveName+tmpSuffix {
			continue
		}
		path := filepath.Join(dir, name)
		if e.IsDir() {
			dirs = append(dirs, path)
		} else {
			files = append(files, path)
		}
	}
	return files, dirs, nil
}

// writeArchive writes a deflate zip at path and returns its member count.
func writeArchive(path, root string, files, dirs []string) (int, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}

	zw := zip.NewWriter(out)
	count := 0
	add := func(src string) error {
		rel, err := filepath.Rel(root, src)
		if err != nil {
			return err
		}
		if err := addFile(zw, src, filepath.ToSlash(rel)); err != nil {
			return err
		}
		count++
		return nil
	}

	for _, f := range files {
		if err = add(f); err != nil {
			break
		}
	}
	if err == nil {
		for _, d := range dirs {
			err = filepath.WalkDir(d, func(p string, de fs.DirEntry, walkErr error) error {
				if walkErr != nil {
					return walkErr
				}
				if de.IsDir() {
					return nil
				}
				return add(p)
			})
			if err != nil {
				break
			}
		}
	}

	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// addFile stores src under name. A symbolic link is stored as a link whose
// content is its target, as zip -y does, and is never followed.
func addFile(zw *zip.Writer, src, name string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("header for %s: %w", src, err)
	}
	hdr.Name = name

	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return fmt.Errorf("reading link %s: %w", src, err)
		}
		hdr.Method = zip.Store
		dst, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("adding %s: %w", name, err)
		}
		_, err = io.WriteString(dst, target)
		return err
	}
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("compressing %s: %w", src, err)
	}
	return nil
}

// VerifyArchive checks that path is a readable zip with exactly want
// members, each of which decompresses with a matching checksum.
func VerifyArchive(path string, want int) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer r.Close()

	if len(r.File) != want {
		return fmt.Errorf("%s has %d members, want %d", path, len(r.File), want)
	}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("opening member %s: %w", f.Name, err)
		}
		_, err = io.Copy(io.Discard, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("reading member %s: %w", f.Name, err)
		}
	}
	return nil
}

// Packager is the pipeline stage wrapping Package and Annotate.
type Packager struct {
	ArchiveName string
	Policy      types.ArchivePolicy
}

// Name returns "package".
func (p Packager) Name() string { return "package" }

// Run packages the job's assets and annotates the document once the archive
// is in place.
func (p Packager) Run(ctx context.Context, job Job, rep *Report, w io.Writer) error {
	archive, items, err := Package(job.Dir, job.Document, p.ArchiveName, p.Policy, w)
	rep.add(items...)
	if err != nil || archive == nil {
		return err
	}
	rep.Archive = archive

	if !fileExists(job.DocumentPath()) {
		return nil
	}
	if err := Annotate(job.DocumentPath(), p.ArchiveName); err != nil {
		rep.add(types.ItemResult{Path: job.DocumentPath(), Action: "annotate", Err: err})
		fmt.Fprintf(w, "warning: %v\n", err)
		return nil
	}
	rep.Annotated = true
	return nil
}
