// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/pdf2md/internal/container"
	"github.com/pdiddy/pdf2md/pkg/types"
)

const imageMarkitdown = "markitdown:latest"

// MarkitdownConverter converts PDFs by piping them through the markitdown
// container image. It produces a document with no assets, so the finishing
// pass has nothing to package.
type MarkitdownConverter struct {
	runtime container.Runtime
}

// NewMarkitdownConverter creates a converter that uses the given container
// runtime to run the markitdown image. It verifies that the markitdown image
// exists locally before returning.
func NewMarkitdownConverter(rt container.Runtime) (*MarkitdownConverter, error) {
	if err := rt.ImageExists(imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt}, nil
}

func (m *MarkitdownConverter) Name() string { return "markitdown" }

// Convert pipes the PDF at pdfPath through the markitdown container and
// writes <outputRoot>/<stem>/<stem>.md.
func (m *MarkitdownConverter) Convert(ctx context.Context, pdfPath, outputRoot string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, imageMarkitdown, f, &out); err != nil {
		return "", fmt.Errorf("%w: converting %s with markitdown: %v", ErrExternalTool, pdfPath, err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("%w: markitdown produced empty output for %s", ErrExternalTool, pdfPath)
	}

	name := stem(pdfPath)
	outDir := filepath.Join(outputRoot, name)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", outDir, err)
	}
	if err := os.WriteFile(filepath.Join(outDir, name+".md"), out.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing markdown for %s: %w", pdfPath, err)
	}
	return outDir, nil
}

func (m *MarkitdownConverter) Params() []types.Param {
	return []types.Param{
		{Key: "Backend", Value: m.Name()},
		{Key: "Container Runtime", Value: m.runtime.Name()},
		{Key: "Image", Value: imageMarkitdown},
	}
}
