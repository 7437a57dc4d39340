// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package finish

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// Stage is one named step of the finishing pass. A stage records what it
// did in the report; a returned error stops the stages after it.
type Stage interface {
	Name() string
	Run(ctx context.Context, job Job, rep *Report, w io.Writer) error
}

// Pipeline runs stages strictly in order.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline from the given stages.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Default builds the relocate, prune, and package stages from cfg.
// Pruning and packaging are skipped when disabled in cfg.
func Default(cfg types.FinishConfig) *Pipeline {
	p := NewPipeline(Relocator{Legacy: cfg.LegacyAssetDir, Target: cfg.AssetDir})
	if cfg.PruneOrigin {
		p.Append(Pruner{})
	}
	if cfg.Package {
		p.Append(Packager{ArchiveName: cfg.ArchiveName, Policy: cfg.ArchivePolicy})
	}
	return p
}

// Append adds a stage at the end of the pipeline.
func (p *Pipeline) Append(s Stage) {
	p.stages = append(p.stages, s)
}

// Names returns the stage names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes every stage against job. It stops at the first stage error
// or when ctx is cancelled and returns the report gathered so far.
func (p *Pipeline) Run(ctx context.Context, job Job, w io.Writer) (*Report, error) {
	rep := &Report{}
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Stages = append(rep.Stages, s.Name())
		if err := s.Run(ctx, job, rep, w); err != nil {
			return rep, fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	return rep, nil
}
