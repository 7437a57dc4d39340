// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExec answers LookPath and RunSilent from fixed sets and hands piped
// runs to pipe. Every command line it sees is recorded.
type fakeExec struct {
	onPath map[string]bool
	ok     map[string]bool
	pipe   func(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error
	calls  []string
}

func (f *fakeExec) LookPath(file string) (string, error) {
	if f.onPath[file] {
		return "/usr/bin/" + file, nil
	}
	return "", exec.ErrNotFound
}

func (f *fakeExec) RunSilent(name string, args ...string) error {
	line := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, line)
	if f.ok[line] {
		return nil
	}
	return errors.New("exit status 1")
}

func (f *fakeExec) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.calls = append(f.calls, strings.Join(append([]string{name}, args...), " "))
	if f.pipe == nil {
		return nil
	}
	return f.pipe(ctx, args, stdin, stdout)
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name   string
		onPath []string
		ok     []string
		want   string
	}{
		{name: "docker", onPath: []string{"docker"}, ok: []string{"docker info"}, want: "docker"},
		{name: "podman only", onPath: []string{"podman"}, ok: []string{"podman info"}, want: "podman"},
		{name: "docker daemon down", onPath: []string{"docker", "podman"}, ok: []string{"podman info"}, want: "podman"},
		{name: "docker preferred", onPath: []string{"docker", "podman"}, ok: []string{"docker info", "podman info"}, want: "docker"},
		{name: "none", onPath: nil},
		{name: "installed but not running", onPath: []string{"docker", "podman"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeExec{onPath: map[string]bool{}, ok: map[string]bool{}}
			for _, b := range tt.onPath {
				f.onPath[b] = true
			}
			for _, c := range tt.ok {
				f.ok[c] = true
			}

			rt, err := detectRuntime(f)
			if tt.want == "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "no container runtime available")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rt.Name())
		})
	}
}

func TestImageExists_UsesRuntimeSubcommand(t *testing.T) {
	tests := []struct {
		name string
		rt   func(executor) *runtime
		want string
	}{
		{name: "docker", rt: newDockerRuntime, want: "docker image inspect markitdown:latest"},
		{name: "podman", rt: newPodmanRuntime, want: "podman image exists markitdown:latest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeExec{ok: map[string]bool{tt.want: true}}
			require.NoError(t, tt.rt(f).ImageExists("markitdown:latest"))
			assert.Equal(t, []string{tt.want}, f.calls)

			missing := &fakeExec{}
			err := tt.rt(missing).ImageExists("markitdown:latest")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "markitdown:latest")
		})
	}
}

func TestRun_NetworkIsolatedThrowawayContainer(t *testing.T) {
	f := &fakeExec{pipe: func(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
		pdf, err := io.ReadAll(stdin)
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, "# converted "+string(pdf))
		return err
	}}

	var out bytes.Buffer
	err := newPodmanRuntime(f).Run(context.Background(), "markitdown:latest", strings.NewReader("%PDF-1.7"), &out)
	require.NoError(t, err)
	assert.Equal(t, "# converted %PDF-1.7", out.String())
	assert.Equal(t, []string{"podman run --rm -i --network none markitdown:latest"}, f.calls)
}

func TestRun_ToolFailure(t *testing.T) {
	f := &fakeExec{pipe: func(context.Context, []string, io.Reader, io.Writer) error {
		return errors.New("exit status 2")
	}}
	err := newDockerRuntime(f).Run(context.Background(), "markitdown:latest", strings.NewReader(""), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running docker container markitdown:latest")
	assert.Contains(t, err.Error(), "exit status 2")
}

func TestRun_Context(t *testing.T) {
	t.Run("deadline reaches the container", func(t *testing.T) {
		f := &fakeExec{pipe: func(ctx context.Context, _ []string, _ io.Reader, _ io.Writer) error {
			<-ctx.Done()
			return errors.New("signal: killed")
		}}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := newDockerRuntime(f).Run(ctx, "markitdown:latest", strings.NewReader(""), io.Discard)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("cancelled before start", func(t *testing.T) {
		f := &fakeExec{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := newDockerRuntime(f).Run(ctx, "markitdown:latest", strings.NewReader(""), io.Discard)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, f.calls)
	})
}

func TestOSExecutor_RunPipedStopsOnCancel(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := (&osExecutor{}).RunPiped(ctx, "sleep", []string{"10"}, strings.NewReader(""), io.Discard)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
