// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert drives an external PDF-to-Markdown converter and the
// finishing pass over its output, one document at a time.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/pdf2md/internal/finish"
	"github.com/pdiddy/pdf2md/internal/pdfcheck"
	"github.com/pdiddy/pdf2md/internal/runlog"
	"github.com/pdiddy/pdf2md/pkg/types"
)

var (
	// ErrMissingInput reports that a PDF or output directory does not exist.
	ErrMissingInput = errors.New("missing input")

	// ErrInvalidInput reports that the input file is not a usable PDF.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExternalTool reports that the external converter failed.
	ErrExternalTool = errors.New("external converter failed")
)

// Converter runs an external tool that turns one PDF into a directory
// holding one Markdown file plus auxiliary assets.
type Converter interface {
	// Name identifies the backend in logs and run records.
	Name() string

	// Convert converts pdfPath and returns the output directory, which is
	// <outputRoot>/<pdf stem>.
	Convert(ctx context.Context, pdfPath, outputRoot string) (string, error)

	// Params describes the converter settings for the run record.
	Params() []types.Param
}

// Result is the outcome of processing one document.
type Result struct {
	Source    string
	OutputDir string
	Status    types.ConversionStatus
	Report    *finish.Report
	Err       error
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Converted int
	Partial   int
	Failed    int
	Results   []Result
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Partial + r.Failed
}

// HasFailures reports whether any document failed or finished partially.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0 || r.Partial > 0
}

// Processor converts documents and finishes their output.
type Processor struct {
	cfg       types.PipelineConfig
	converter Converter
	finisher  *finish.Pipeline
	index     *runlog.Index
	inspect   func(string) (pdfcheck.Info, error)
	now       func() time.Time
	w         io.Writer
}

// NewProcessor creates a processor that writes progress to w. The index
// may be nil, and so may the converter when only Finish is used.
func NewProcessor(cfg types.PipelineConfig, c Converter, index *runlog.Index, w io.Writer) *Processor {
	return &Processor{
		cfg:       cfg,
		converter: c,
		finisher:  finish.Default(cfg.Finish),
		index:     index,
		inspect:   pdfcheck.Inspect,
		now:       time.Now,
		w:         w,
	}
}

// ResolveInput returns the PDF path for arg: arg itself when it exists,
// otherwise arg inside the configured input directory.
func (p *Processor) ResolveInput(arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}
	if p.cfg.InputDir != "" {
		candidate := filepath.Join(p.cfg.InputDir, arg)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		return "", fmt.Errorf("%w: %s (also checked %s)", ErrMissingInput, arg, candidate)
	}
	return "", fmt.Errorf("%w: %s", ErrMissingInput, arg)
}

// Process converts one PDF, finishes its output directory, and records
// the run. Failures are reported in the result, never panicked.
func (p *Processor) Process(ctx context.Context, arg string) Result {
	res := Result{Source: arg, Status: types.ConversionFailed}

	pdfPath, err := p.ResolveInput(arg)
	if err != nil {
		return p.fail(ctx, res, err)
	}
	res.Source = pdfPath
	fmt.Fprintf(p.w, "processing: %s\n", pdfPath)

	info, err := p.inspect(pdfPath)
	if err != nil {
		return p.fail(ctx, res, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}
	fmt.Fprintf(p.w, "pages: %d\n", info.Pages)

	if err := os.MkdirAll(p.cfg.OutputRoot, 0o755); err != nil {
		return p.fail(ctx, res, fmt.Errorf("creating output root: %w", err))
	}

	convCtx := ctx
	if p.cfg.Converter.Timeout > 0 {
		var cancel context.CancelFunc
		convCtx, cancel = context.WithTimeout(ctx, p.cfg.Converter.Timeout)
		defer cancel()
	}

	fmt.Fprintf(p.w, "running %s...\n", p.converter.Name())
	outDir, err := p.converter.Convert(convCtx, pdfPath, p.cfg.OutputRoot)
	if err != nil {
		if !errors.Is(err, ErrExternalTool) {
			err = fmt.Errorf("%w: %v", ErrExternalTool, err)
		}
		return p.fail(ctx, res, err)
	}
	res.OutputDir = outDir

	if st, err := os.Stat(outDir); err != nil || !st.IsDir() {
		return p.fail(ctx, res, fmt.Errorf("%w: output directory %s not found", ErrMissingInput, outDir))
	}

	document, err := finish.LocateDocument(outDir, stem(pdfPath))
	if err != nil {
		return p.fail(ctx, res, err)
	}

	params := append(p.converter.Params(), types.Param{Key: "Pages", Value: strconv.Itoa(info.Pages)})
	return p.finishAndRecord(ctx, res, finish.Job{Dir: outDir, Document: document}, filepath.Base(pdfPath), params)
}

// Finish runs only the finishing pass on an existing output directory and
// records the run. An empty document name is located automatically.
func (p *Processor) Finish(ctx context.Context, dir, document string) Result {
	res := Result{Source: dir, OutputDir: dir, Status: types.ConversionFailed}

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return p.fail(ctx, res, fmt.Errorf("%w: output directory %s", ErrMissingInput, dir))
	}
	if document == "" {
		document, err = finish.LocateDocument(dir, filepath.Base(dir))
		if err != nil {
			return p.fail(ctx, res, err)
		}
	}
	res.Source = document

	params := []types.Param{{Key: "Mode", Value: "finish only"}}
	return p.finishAndRecord(ctx, res, finish.Job{Dir: dir, Document: document}, document, params)
}

func (p *Processor) finishAndRecord(ctx context.Context, res Result, job finish.Job, source string, params []types.Param) Result {
	rep, err := p.finisher.Run(ctx, job, p.w)
	res.Report = rep
	res.Err = err

	switch {
	case err != nil:
		res.Status = types.ConversionPartial
		fmt.Fprintf(p.w, "warning: finishing %s: %v\n", job.Dir, err)
	case len(rep.Failed()) > 0:
		res.Status = types.ConversionPartial
	default:
		res.Status = types.ConversionDone
	}
	for _, it := range rep.Failed() {
		fmt.Fprintf(p.w, "warning: %s %s: %v\n", it.Action, it.Path, it.Err)
	}

	archive := "none"
	if rep.Archive != nil {
		archive = fmt.Sprintf("%s (%d files)", filepath.Base(rep.Archive.Path), rep.Archive.MemberCount)
	}
	params = append(params, types.Param{Key: "Archive", Value: archive})

	rec := types.RunRecord{
		Timestamp:  p.now(),
		SourceFile: source,
		Params:     params,
		OutputPath: p.cfg.OutputRoot,
	}
	logPath := filepath.Join(p.cfg.OutputRoot, p.cfg.RunLog.FileName)
	if err := runlog.Append(logPath, rec); err != nil {
		fmt.Fprintf(p.w, "warning: %v\n", err)
	} else {
		fmt.Fprintf(p.w, "updated run log: %s\n", logPath)
	}
	p.record(ctx, rec, res)

	fmt.Fprintf(p.w, "%s: %s\n", res.Status, job.DocumentPath())
	return res
}

func (p *Processor) fail(ctx context.Context, res Result, err error) Result {
	res.Status = types.ConversionFailed
	res.Err = err
	fmt.Fprintf(p.w, "failed:  %s (%v)\n", res.Source, err)

	var params []types.Param
	if p.converter != nil {
		params = p.converter.Params()
	}
	p.record(ctx, types.RunRecord{
		Timestamp:  p.now(),
		SourceFile: filepath.Base(res.Source),
		Params:     params,
		OutputPath: p.cfg.OutputRoot,
	}, res)
	return res
}

func (p *Processor) record(ctx context.Context, rec types.RunRecord, res Result) {
	if p.index == nil {
		return
	}
	e := runlog.Entry{RunRecord: rec, Status: res.Status}
	if res.Report != nil && res.Report.Archive != nil {
		e.ArchiveMembers = res.Report.Archive.MemberCount
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	if _, err := p.index.Record(ctx, e); err != nil {
		fmt.Fprintf(p.w, "warning: %v\n", err)
	}
}

// ProcessBatch processes each argument in order and prints a summary.
func (p *Processor) ProcessBatch(ctx context.Context, args []string) BatchResult {
	var result BatchResult
	for _, arg := range args {
		if ctx.Err() != nil {
			break
		}
		res := p.Process(ctx, arg)
		result.Results = append(result.Results, res)
		switch res.Status {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionPartial:
			result.Partial++
		default:
			result.Failed++
		}
	}
	fmt.Fprintf(p.w, "\nBatch summary: %d converted, %d partial, %d failed (total: %d)\n",
		result.Converted, result.Partial, result.Failed, result.Total())
	return result
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
