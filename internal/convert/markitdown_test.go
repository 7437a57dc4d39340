// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRuntime implements container.Runtime for testing.
type fakeRuntime struct {
	imageErr error
	output   string
	runErr   error
}

func (f *fakeRuntime) Name() string    { return "docker" }
func (f *fakeRuntime) Available() bool { return true }

func (f *fakeRuntime) ImageExists(image string) error { return f.imageErr }

func (f *fakeRuntime) Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error {
	if f.runErr != nil {
		return f.runErr
	}
	if _, err := io.ReadAll(stdin); err != nil {
		return err
	}
	_, err := io.WriteString(stdout, f.output)
	return err
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "2301.07041.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o644))
	return path
}

func TestNewMarkitdownConverter_ImageMissing(t *testing.T) {
	_, err := NewMarkitdownConverter(&fakeRuntime{imageErr: errors.New("no such image")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "markitdown image not available in docker")
}

func TestMarkitdownConverter_Convert(t *testing.T) {
	tests := []struct {
		name    string
		rt      *fakeRuntime
		wantErr bool
	}{
		{name: "writes markdown", rt: &fakeRuntime{output: "# Paper\n"}},
		{name: "container failure", rt: &fakeRuntime{runErr: errors.New("exit 1")}, wantErr: true},
		{name: "empty output", rt: &fakeRuntime{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMarkitdownConverter(tt.rt)
			require.NoError(t, err)

			root := t.TempDir()
			outDir, err := m.Convert(context.Background(), writePDF(t), root)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrExternalTool)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, "2301.07041"), outDir)

			data, err := os.ReadFile(filepath.Join(outDir, "2301.07041.md"))
			require.NoError(t, err)
			assert.Equal(t, "# Paper\n", string(data))
			assert.Equal(t, "docker", m.Params()[1].Value)
		})
	}
}
