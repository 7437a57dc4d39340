// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2md/internal/container"
	"github.com/pdiddy/pdf2md/internal/convert"
	"github.com/pdiddy/pdf2md/internal/envdir"
	"github.com/pdiddy/pdf2md/internal/launcher"
	"github.com/pdiddy/pdf2md/internal/runlog"
	"github.com/pdiddy/pdf2md/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert PDF files to Markdown and finish the output",
	Long: `Convert runs the configured backend on each PDF, then relocates the
converter's images/ directory to assets/, rewrites Markdown links, removes
the intermediate <name>_origin.pdf copy, packages remaining assets into
assets.zip, and appends a record to the run log.

A bare file name that does not exist is looked up in the input directory.
With no arguments, convert prompts for a path on stdin.`,
	RunE: runConvert,
}

func init() {
	addPipelineFlags(convertCmd)
	convertCmd.Flags().String("input-dir", "", "directory searched for bare PDF names (default: input)")
	convertCmd.Flags().String("backend", "", "conversion backend: mineru or markitdown (default: mineru)")
	convertCmd.Flags().String("executable", "", "path to the mineru executable (default: discovered)")
	convertCmd.Flags().String("method", "", "mineru parse method: auto, txt, or ocr")
	convertCmd.Flags().String("device", "", "inference device, e.g. cuda or cpu")
	convertCmd.Flags().String("model-source", "", "model source: local, huggingface, or modelscope")
	convertCmd.Flags().String("cache-dir", "", "model cache directory (default: .cache)")
	convertCmd.Flags().String("env-dir", "", "directory of extra environment variable files (default: .env.d)")
	convertCmd.Flags().Duration("timeout", 0, "maximum time per conversion (default: no limit)")
	convertCmd.Flags().Bool("skip-model-check", false, "do not check ~/mineru.json for the pipeline models")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), cmd)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		path, err := promptPath(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		args = []string{path}
	}

	out := cmd.OutOrStdout()
	skipCheck, _ := cmd.Flags().GetBool("skip-model-check")
	conv, err := newConverter(cfg, !skipCheck, out, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	index, err := openIndex(cfg)
	if err != nil {
		return err
	}
	if index != nil {
		defer index.Close()
	}

	p := convert.NewProcessor(cfg, conv, index, out)
	result := p.ProcessBatch(cmd.Context(), args)
	if result.HasFailures() {
		return fmt.Errorf("%d of %d document(s) failed or finished partially", result.Failed+result.Partial, result.Total())
	}
	return nil
}

// newConverter builds the backend selected in cfg.
func newConverter(cfg types.PipelineConfig, checkModels bool, stdout, stderr io.Writer) (convert.Converter, error) {
	switch cfg.Converter.Backend {
	case types.BackendMarkitdown:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		return convert.NewMarkitdownConverter(rt)

	default:
		extra, err := envdir.Load(cfg.Converter.EnvDir, stderr)
		if err != nil {
			return nil, err
		}
		if len(extra) > 0 {
			fmt.Fprintf(stderr, "Loaded converter environment: %v\n", sortedNames(extra))
		}

		m := convert.NewMineruConverter(cfg.Converter, extra, launcher.New(stdout, stderr))
		fmt.Fprintf(stdout, "mineru command: %s\n", strings.Join(m.Command(), " "))
		if checkModels {
			if home, err := os.UserHomeDir(); err == nil {
				st, err := launcher.CheckModels(home)
				if err != nil {
					fmt.Fprintf(stderr, "warning: %v\n", err)
				} else {
					st.Report(stdout)
				}
			}
		}
		return m, nil
	}
}

// openIndex opens the run index in the output root, or returns nil when
// indexing is disabled.
func openIndex(cfg types.PipelineConfig) (*runlog.Index, error) {
	if !cfg.RunLog.Index {
		return nil, nil
	}
	if err := os.MkdirAll(cfg.OutputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}
	return runlog.OpenIndex(filepath.Join(cfg.OutputRoot, cfg.RunLog.IndexFile))
}

// promptPath asks for a PDF path on in and strips one pair of surrounding
// quotes, as left by drag-and-drop in most terminals.
func promptPath(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprintln(out, "Please enter the path to the PDF file to process:")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading path: %w", err)
	}
	path := unquote(strings.TrimSpace(line))
	if path == "" {
		return "", fmt.Errorf("no PDF path provided")
	}
	return path, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}
