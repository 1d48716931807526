package extraction

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type pipelineState int

const (
	stateStart pipelineState = iota
	stateExecute
	stateError
	stateSuccess
	stateEnd
)

// Pipeline drives a working record through
// Start -> Execute -> {Error | Success} -> End. Domain failures are
// recorded on the record; the pipeline itself never returns an error.
type Pipeline struct {
	registry *Registry
	logger   *zap.SugaredLogger
}

func NewPipeline(registry *Registry) *Pipeline {
	return &Pipeline{
		registry: registry,
		logger:   zap.S().Named("pipeline"),
	}
}

// Run executes the state machine to completion. On return the record holds
// either a result or an error code/message pair, never both empty.
func (p *Pipeline) Run(ctx context.Context, rec *Record) *Record {
	state := stateStart
	for state != stateEnd {
		switch state {
		case stateStart:
			state = p.start(rec)
		case stateExecute:
			state = p.execute(ctx, rec)
		case stateError:
			state = p.fail(rec)
		case stateSuccess:
			state = p.succeed(rec)
		}
	}
	return rec
}

func (p *Pipeline) start(rec *Record) pipelineState {
	p.logger.Infow("extraction started", "form_code", rec.FormCode, "utterance_length", len(rec.Utterance))

	if rec.Utterance == "" {
		rec.setError(CodeInvalidRequest, "utterance is required")
		return stateError
	}
	if rec.FormCode == "" {
		rec.setError(CodeInvalidRequest, "form_code is required")
		return stateError
	}
	if !p.registry.IsRegistered(rec.FormCode) {
		rec.setError(CodeInvalidRequest, fmt.Sprintf("unknown form_code: %s", rec.FormCode))
		return stateError
	}
	return stateExecute
}

// execute sequences the five executor sub-steps. Each step is guarded: a
// record that already failed skips the remaining steps, so at most one
// sub-step failure is ever recorded.
func (p *Pipeline) execute(ctx context.Context, rec *Record) (next pipelineState) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorw("executor panic", "form_code", rec.FormCode, "panic", r)
			rec.setError(CodeInternalError, fmt.Sprintf("executor error: %v", r))
			next = stateError
		}
	}()

	executor, err := p.registry.GetExecutor(rec.FormCode)
	if err != nil {
		p.recordError(rec, err)
		return stateError
	}

	p.runStep(rec, func() error {
		prompt, err := executor.BuildPrompt(rec.Utterance)
		if err != nil {
			return err
		}
		rec.Prompt = prompt
		return nil
	})

	p.runStep(rec, func() error {
		raw, err := executor.CallModel(ctx, rec.Prompt)
		if err != nil {
			return err
		}
		rec.RawModelOutput = raw
		return nil
	})

	p.runStep(rec, func() error {
		fields, err := executor.ParseResponse(rec.RawModelOutput)
		if err != nil {
			return err
		}
		rec.ParsedFields = fields
		return nil
	})

	p.runStep(rec, func() error {
		validated, err := executor.Validate(rec.ParsedFields)
		if err != nil {
			return err
		}
		rec.ValidatedFields = validated
		return nil
	})

	p.runStep(rec, func() error {
		result, err := executor.PostProcess(rec.ValidatedFields, rec.Utterance)
		if err != nil {
			return err
		}
		rec.Result = result
		return nil
	})

	if rec.Failed() {
		return stateError
	}
	return stateSuccess
}

func (p *Pipeline) runStep(rec *Record, step func() error) {
	if rec.Failed() {
		return
	}
	if err := step(); err != nil {
		p.recordError(rec, err)
	}
}

func (p *Pipeline) recordError(rec *Record, err error) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		rec.setError(stageErr.Code, stageErr.Error())
		return
	}
	rec.setError(CodeInternalError, err.Error())
}

func (p *Pipeline) fail(rec *Record) pipelineState {
	p.logger.Errorw("extraction failed",
		"form_code", rec.FormCode,
		"error_code", rec.ErrorCode,
		"error_message", rec.ErrorMessage,
	)

	if rec.Result == nil {
		if rec.ErrorCode == "" {
			rec.setError(CodeInternalError, "unknown error occurred")
		}
		rec.Result = Fields{
			"error":         true,
			"error_code":    rec.ErrorCode,
			"error_message": rec.ErrorMessage,
		}
	}
	return stateEnd
}

func (p *Pipeline) succeed(rec *Record) pipelineState {
	p.logger.Infow("extraction succeeded", "form_code", rec.FormCode)

	if rec.Result == nil {
		rec.Result = rec.ValidatedFields
		if rec.Result == nil {
			rec.Result = Fields{}
		}
	}
	return stateEnd
}
