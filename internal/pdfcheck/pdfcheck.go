// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfcheck validates input PDFs before they are handed to an
// external converter, so that a broken file fails fast instead of after a
// long model load.
package pdfcheck

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNotPDF reports that a file does not start with a PDF header.
var ErrNotPDF = errors.New("not a PDF file")

var pdfMagic = []byte("%PDF-")

func init() {
	// pdfcpu would otherwise create a config directory under the user's
	// config home on first use.
	api.DisableConfigDir()
}

// Info summarizes a validated PDF.
type Info struct {
	Path  string
	Size  int64
	Pages int
}

// Inspect checks that path is a regular file with a PDF header, validates
// its structure in relaxed mode, and counts its pages.
func Inspect(path string) (Info, error) {
	info := Info{Path: path}

	st, err := os.Stat(path)
	if err != nil {
		return info, err
	}
	if st.IsDir() {
		return info, fmt.Errorf("%s is a directory", path)
	}
	info.Size = st.Size()

	if err := checkHeader(path); err != nil {
		return info, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return info, fmt.Errorf("validating %s: %w", path, err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return info, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	info.Pages = pages
	return info, nil
}

func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return fmt.Errorf("%w: %s", ErrNotPDF, path)
	}
	return nil
}
