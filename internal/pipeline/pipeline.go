// Package pipeline runs the full schema generation flow: parse every source,
// merge the fragments, enrich, validate, and emit for the requested target.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/schemasmith/schemasmith/internal/dialect"
	"github.com/schemasmith/schemasmith/internal/emit"
	"github.com/schemasmith/schemasmith/internal/enrich"
	"github.com/schemasmith/schemasmith/internal/errs"
	"github.com/schemasmith/schemasmith/internal/logger"
	"github.com/schemasmith/schemasmith/internal/model"
	"github.com/schemasmith/schemasmith/internal/normalize"
	"github.com/schemasmith/schemasmith/internal/parser"
	"github.com/schemasmith/schemasmith/internal/validate"
)

// OutputFormat selects the emitted representation.
type OutputFormat string

const (
	FormatDDL      OutputFormat = "ddl"
	FormatJSON     OutputFormat = "json"
	FormatXML      OutputFormat = "xml"
	FormatDocument OutputFormat = "document"
)

// Source is one raw input to parse.
type Source struct {
	Input string
	Type  parser.InputType
	Hints parser.Hints
}

// Request describes one generation run. Requests share no state; every run is
// isolated.
type Request struct {
	Sources        []Source
	TargetDialect  dialect.ID
	Format         OutputFormat
	EmitOptions    emit.Options
	EnrichConfig   enrich.Config
	ValidateConfig validate.Config
	MergePolicy    normalize.MergePolicy
}

// Result is everything a run produced. Diagnostics accumulate across all
// stages in stage order.
type Result struct {
	RequestID   string
	Model       *model.SchemaModel
	Diagnostics []model.Diagnostic
	Output      string
}

// Generate runs the pipeline. It returns an error only when no output could
// be produced at all; recoverable per-source failures surface as Error
// diagnostics instead.
func Generate(ctx context.Context, req Request) (*Result, error) {
	if len(req.Sources) == 0 {
		return nil, errs.New(errs.KindInvalidInput, "no input sources")
	}
	if req.Format == "" {
		req.Format = FormatDDL
	}

	res := &Result{RequestID: uuid.NewString()}
	log := logger.FromContext(ctx).With().Str("request_id", res.RequestID).Logger()

	fragments, diags := parseAll(ctx, log, req.Sources)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if len(fragments) == 0 {
		return res, errs.New(errs.KindParse, "every input source failed to parse")
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	start := time.Now()
	merged, diags := normalize.Normalize(fragments, req.MergePolicy)
	res.Diagnostics = append(res.Diagnostics, diags...)
	log.Stage("normalize", time.Since(start))

	start = time.Now()
	enriched, diags := enrich.Enrich(merged, req.EnrichConfig)
	res.Diagnostics = append(res.Diagnostics, diags...)
	log.Stage("enrich", time.Since(start))
	res.Model = enriched
	if err := ctx.Err(); err != nil {
		return res, err
	}

	start = time.Now()
	diags = validate.Validate(enriched, req.TargetDialect, req.ValidateConfig)
	res.Diagnostics = append(res.Diagnostics, diags...)
	log.Stage("validate", time.Since(start))

	// Only validation errors block emission. Earlier stages report their own
	// Error diagnostics (a failed source, a dropped duplicate) after already
	// recovering from them.
	if model.HasErrors(diags) {
		return res, errs.New(errs.KindValidation, "model has blocking validation errors")
	}

	start = time.Now()
	out, err := emitOutput(enriched, req)
	if err != nil {
		return res, err
	}
	res.Output = out
	log.Stage("emit", time.Since(start))

	return res, nil
}

// parseAll fans the sources out to their parsers. A failing source
// contributes an Error diagnostic and no fragment; the rest proceed.
func parseAll(ctx context.Context, log *logger.Logger, sources []Source) ([]*model.Fragment, []model.Diagnostic) {
	type sourceResult struct {
		fragment *model.Fragment
		diags    []model.Diagnostic
	}
	results := make([]sourceResult, len(sources))

	var wg sync.WaitGroup
	for i := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()

			if src.Hints.SourceID == "" {
				src.Hints.SourceID = uuid.NewString()
			}
			p, err := parser.ForInput(src.Type)
			if err == nil {
				start := time.Now()
				var diags []model.Diagnostic
				results[i].fragment, diags, err = p.Parse(ctx, src.Input, src.Hints)
				results[i].diags = diags
				log.With().Str("source", src.Hints.SourceName).Dur("took", time.Since(start)).Logger().
					Debugf("parsed %s input", src.Type)
			}
			if err != nil {
				results[i].fragment = nil
				results[i].diags = append(results[i].diags, model.Errorf(model.Location{},
					model.CodeSourceFailed,
					"source %q failed to parse: %v", sourceLabel(src), err))
			}
		}(i, sources[i])
	}
	wg.Wait()

	var fragments []*model.Fragment
	var diags []model.Diagnostic
	for _, r := range results {
		if r.fragment != nil {
			fragments = append(fragments, r.fragment)
		}
		diags = append(diags, r.diags...)
	}
	return fragments, diags
}

func sourceLabel(src Source) string {
	if src.Hints.SourceName != "" {
		return src.Hints.SourceName
	}
	return string(src.Type)
}

func emitOutput(m *model.SchemaModel, req Request) (string, error) {
	var emitter emit.Emitter
	switch req.Format {
	case FormatJSON:
		emitter = &emit.CanonicalJSONEmitter{}
	case FormatXML:
		emitter = &emit.CanonicalXMLEmitter{}
	case FormatDocument:
		emitter = &emit.DocumentEmitter{}
	case FormatDDL:
		var err error
		if emitter, err = emit.For(req.TargetDialect); err != nil {
			return "", err
		}
	default:
		return "", errs.Newf(errs.KindInvalidInput, "unknown output format %q", req.Format)
	}
	return emitter.Emit(m, req.EmitOptions)
}
