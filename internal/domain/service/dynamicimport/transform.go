package dynamicimport

import (
	"errors"
	"fmt"
	"nextdynamic/internal/domain/errors/domain"
	"nextdynamic/internal/domain/valueobject"
)

// CallSiteReport describes what the pass did with one helper call.
type CallSiteReport struct {
	Line       uint32     `json:"line" yaml:"line"`
	Column     uint32     `json:"column" yaml:"column"`
	Specifiers []string   `json:"specifiers" yaml:"specifiers,omitempty"`
	Bindings   []string   `json:"bindings" yaml:"bindings,omitempty"`
	Rewritten  bool       `json:"rewritten" yaml:"rewritten"`
	SkipReason SkipReason `json:"skip_reason" yaml:"skip_reason,omitempty"`
}

// Result is the outcome of transforming one file.
type Result struct {
	Output           []byte
	Changed          bool
	CallSites        []CallSiteReport
	ImportsInserted  int
	ImportsReused    int
	EditsApplied     int
	RewrittenCalls   int
	SkippedCallSites int
}

// Transformer runs the pass over parsed files. It holds no per-file state
// and is safe for concurrent use.
type Transformer struct {
	opts Options
}

// NewTransformer creates a Transformer, applying defaults to empty fields.
func NewTransformer(opts Options) (*Transformer, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transform options: %w", err)
	}
	return &Transformer{opts: opts}, nil
}

// Options returns the effective options.
func (t *Transformer) Options() Options {
	return t.opts
}

// Transform rewrites every helper call of the tree. A file without helper
// calls is returned unchanged.
func (t *Transformer) Transform(tree *valueobject.ParseTree) (*Result, error) {
	if tree == nil {
		return nil, errors.New("parse tree cannot be nil")
	}
	source := tree.Source()
	if len(source) == 0 {
		return nil, domain.ErrEmptySource
	}
	program := tree.RootNode()

	result := &Result{}
	calls := matchCalls(source, program, collectHelperBindings(source, program, t.opts))
	if len(calls) == 0 {
		result.Output = source
		return result, nil
	}

	registry := newModuleIDImports(source, program, t.opts)
	edits := &editSet{}

	for _, call := range calls {
		report := CallSiteReport{
			Line:   call.StartPos.Row + 1,
			Column: call.StartPos.Column + 1,
		}

		site, reason := analyzeCall(source, call)
		if reason != SkipNone {
			report.SkipReason = reason
			result.addReport(report)
			continue
		}
		report.Specifiers = site.specifiers()

		plan := registry.plan(source, site)
		group := append([]edit{}, plan.inserts...)
		if t.opts.Mode.RequiresTransition() {
			group = append(group, transitionEdits(source, site)...)
		}
		optionEdits, reason := optionsEdits(source, site, plan.names)
		if reason != SkipNone {
			report.SkipReason = reason
			result.addReport(report)
			continue
		}
		group = append(group, optionEdits...)

		if !edits.accepts(group) {
			report.SkipReason = SkipOverlappingEdit
			result.addReport(report)
			continue
		}
		edits.add(group)
		registry.commit(plan)

		report.Bindings = plan.names
		report.Rewritten = true
		result.ImportsInserted += len(plan.inserts)
		result.ImportsReused += len(plan.names) - len(plan.inserts)
		result.addReport(report)
	}

	output, err := edits.apply(source)
	if err != nil {
		return nil, err
	}
	result.Output = output
	result.EditsApplied = edits.len()
	result.Changed = string(output) != string(source)
	return result, nil
}

func (r *Result) addReport(report CallSiteReport) {
	if report.Rewritten {
		r.RewrittenCalls++
	} else {
		r.SkippedCallSites++
	}
	r.CallSites = append(r.CallSites, report)
}
