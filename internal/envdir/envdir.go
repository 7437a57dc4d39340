// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package envdir loads environment variables for the external converter
// from a directory of plain-text files. Each file represents one variable:
// the filename is the variable name and the file contents (trimmed) are the
// value.
//
// Typical entries: HF_TOKEN, HF_ENDPOINT, MODELSCOPE_DOMAIN.
package envdir

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load reads all files in dir and returns a map of variable name to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files and names that are not valid variable names produce a
// warning on w but do not abort.
func Load(dir string, w io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading env directory %s: %w", dir, err)
	}

	vars := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !validName.MatchString(name) {
			fmt.Fprintf(w, "warning: skipping env file %s: not a valid variable name\n", name)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read env file %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			vars[name] = value
		}
	}

	return vars, nil
}
