// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf2md/internal/convert"
	"github.com/pdiddy/pdf2md/internal/finish"
	"github.com/pdiddy/pdf2md/pkg/types"
)

var finishCmd = &cobra.Command{
	Use:   "finish <output-dir>",
	Short: "Run only the finishing pass on a converted directory",
	Long: `Finish relocates assets, prunes intermediates, and packages assets of a
directory that a converter already produced. The run log is written to the
directory's parent unless --output is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runFinish,
}

func init() {
	addPipelineFlags(finishCmd)
	finishCmd.Flags().String("document", "", "Markdown file name inside the directory (default: located automatically)")
	finishCmd.Flags().String("report", "", "print a report of the pass: yaml or json")

	rootCmd.AddCommand(finishCmd)
}

func runFinish(cmd *cobra.Command, args []string) error {
	dir := filepath.Clean(args[0])
	if !cmd.Flags().Changed("output") {
		viper.Set("output_root", filepath.Dir(dir))
	}
	cfg, err := loadConfig(viper.GetViper(), cmd)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("report")
	if format != "" && format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported report format %q: use yaml or json", format)
	}

	index, err := openIndex(cfg)
	if err != nil {
		return err
	}
	if index != nil {
		defer index.Close()
	}

	document, _ := cmd.Flags().GetString("document")
	p := convert.NewProcessor(cfg, nil, index, cmd.OutOrStdout())
	res := p.Finish(cmd.Context(), dir, document)

	if format != "" && res.Report != nil {
		if err := writeReport(cmd.OutOrStdout(), format, res.Report); err != nil {
			return err
		}
	}
	if res.Status != types.ConversionDone {
		return fmt.Errorf("finishing %s: %s", dir, res.Status)
	}
	return nil
}

// reportView is the serialized form of a finish.Report.
type reportView struct {
	Stages    []string       `json:"stages" yaml:"stages"`
	Relocated bool           `json:"relocated" yaml:"relocated"`
	Archive   *types.Archive `json:"archive,omitempty" yaml:"archive,omitempty"`
	Annotated bool           `json:"annotated" yaml:"annotated"`
	Items     []itemView     `json:"items" yaml:"items"`
}

type itemView struct {
	Path   string `json:"path" yaml:"path"`
	Action string `json:"action" yaml:"action"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newReportView(rep *finish.Report) reportView {
	v := reportView{
		Stages:    rep.Stages,
		Relocated: rep.Relocated,
		Archive:   rep.Archive,
		Annotated: rep.Annotated,
		Items:     make([]itemView, 0, len(rep.Items)),
	}
	for _, it := range rep.Items {
		iv := itemView{Path: it.Path, Action: it.Action}
		if it.Err != nil {
			iv.Error = it.Err.Error()
		}
		v.Items = append(v.Items, iv)
	}
	return v
}

func writeReport(w io.Writer, format string, rep *finish.Report) error {
	v := newReportView(rep)
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func sortedNames(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
