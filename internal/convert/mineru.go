// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/pdf2md/internal/launcher"
	"github.com/pdiddy/pdf2md/pkg/types"
)

// toolLauncher runs an external tool; *launcher.Launcher implements it.
type toolLauncher interface {
	Launch(ctx context.Context, cfg launcher.Config) error
}

// MineruConverter converts PDFs with the MinerU command-line tool. MinerU
// writes <outputRoot>/<stem>/ containing <stem>.md, an images/ directory,
// layout JSON, and an <stem>_origin.pdf copy.
type MineruConverter struct {
	cfg      types.ConverterConfig
	command  []string
	extraEnv map[string]string
	launch   toolLauncher
}

// NewMineruConverter resolves the MinerU executable and returns a converter
// that starts it through l. extraEnv is added to the tool's environment
// after the settings derived from cfg.
func NewMineruConverter(cfg types.ConverterConfig, extraEnv map[string]string, l toolLauncher) *MineruConverter {
	command := []string{cfg.Executable}
	if cfg.Executable == "" {
		command = launcher.ResolveTool("mineru", cfg.CondaPrefix)
	}
	return &MineruConverter{cfg: cfg, command: command, extraEnv: extraEnv, launch: l}
}

func (m *MineruConverter) Name() string { return "mineru" }

// Command returns the resolved command used to start MinerU.
func (m *MineruConverter) Command() []string { return m.command }

// LaunchConfig returns the full invocation for converting pdfPath into
// outputRoot. The cache directory is made absolute so the tool sees the
// same location regardless of its working directory.
func (m *MineruConverter) LaunchConfig(pdfPath, outputRoot string) (launcher.Config, error) {
	cacheDir, err := filepath.Abs(m.cfg.CacheDir)
	if err != nil {
		return launcher.Config{}, fmt.Errorf("resolving cache dir: %w", err)
	}

	env := map[string]string{
		"HF_HOME":                         filepath.Join(cacheDir, "huggingface"),
		"MODELSCOPE_CACHE":                filepath.Join(cacheDir, "modelscope"),
		"HF_HUB_DISABLE_SYMLINKS_WARNING": "1",
	}
	if m.cfg.VisibleDevices != "" {
		env["CUDA_VISIBLE_DEVICES"] = m.cfg.VisibleDevices
	}
	if m.cfg.ModelSource != "" {
		env["MINERU_MODEL_SOURCE"] = m.cfg.ModelSource
	}
	for k, v := range m.extraEnv {
		env[k] = v
	}

	args := []string{"-p", pdfPath, "-o", outputRoot}
	for _, opt := range []struct{ flag, value string }{
		{"-m", m.cfg.Method},
		{"-b", m.cfg.ToolBackend},
		{"--device", m.cfg.Device},
		{"--source", m.cfg.ModelSource},
	} {
		if opt.value != "" {
			args = append(args, opt.flag, opt.value)
		}
	}

	return launcher.Config{
		Command: m.command,
		Args:    args,
		Env:     env,
		Prepend: launcher.CUDALibraryDirs(m.cfg.CondaPrefix),
	}, nil
}

// Convert runs MinerU on pdfPath and returns <outputRoot>/<stem>.
func (m *MineruConverter) Convert(ctx context.Context, pdfPath, outputRoot string) (string, error) {
	cfg, err := m.LaunchConfig(pdfPath, outputRoot)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.Env["HF_HOME"], 0o755); err != nil {
		return "", fmt.Errorf("creating model cache: %w", err)
	}
	if err := os.MkdirAll(cfg.Env["MODELSCOPE_CACHE"], 0o755); err != nil {
		return "", fmt.Errorf("creating model cache: %w", err)
	}

	if err := m.launch.Launch(ctx, cfg); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExternalTool, err)
	}
	return filepath.Join(outputRoot, stem(pdfPath)), nil
}

func (m *MineruConverter) Params() []types.Param {
	return []types.Param{
		{Key: "Backend", Value: m.Name()},
		{Key: "Method", Value: m.cfg.Method},
		{Key: "Processing Backend", Value: m.cfg.ToolBackend},
		{Key: "Device", Value: m.cfg.Device},
		{Key: "Model Source", Value: m.cfg.ModelSource},
	}
}
