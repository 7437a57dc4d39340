// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package finish

import (
	"fmt"
	"os"
)

// Notice returns the paragraph prepended to a document whose assets were
// packaged into archiveName.
func Notice(archiveName string) string {
	return fmt.Sprintf("> **Note:** Images and other assets have been compressed into `%s` to save space. Unzip it to view images.\n\n", archiveName)
}

// Annotate prepends Notice(archiveName) to the document at path. Calling it
// twice adds the notice twice.
func Annotate(path, archiveName string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := os.WriteFile(path, append([]byte(Notice(archiveName)), data...), 0o644); err != nil {
		return fmt.Errorf("annotating %s: %w", path, err)
	}
	return nil
}
