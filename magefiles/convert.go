//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds the CLI and converts the PDF named by $PDF, or every PDF
// in input/ when $PDF is unset.
func Convert() error {
	mg.Deps(Build, Init)

	args := []string{"convert"}
	if pdf := os.Getenv("PDF"); pdf != "" {
		args = append(args, pdf)
	} else {
		entries, err := os.ReadDir("input")
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				args = append(args, e.Name())
			}
		}
		if len(args) == 1 {
			fmt.Println("No PDFs in input/.")
			return nil
		}
	}
	return sh.RunV(binPath(), args...)
}

// Finish builds the CLI and runs the finishing pass on the directory named
// by $DIR.
func Finish() error {
	mg.Deps(Build)

	dir := os.Getenv("DIR")
	if dir == "" {
		return fmt.Errorf("set DIR to a converted output directory")
	}
	return sh.RunV(binPath(), "finish", dir, "--report", "yaml")
}

// History builds the CLI and lists recent runs.
func History() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "history")
}
