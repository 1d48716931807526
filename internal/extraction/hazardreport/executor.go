// Package hazardreport implements the extraction executor for the
// hazard_report form type: prompt template, field ruleset and the
// keyword-driven post-processing rules.
package hazardreport

import (
	"context"
	"embed"
	"io/fs"
	"strconv"
	"strings"

	"github.com/formweave/extraction-planner/internal/extraction"
	"github.com/formweave/extraction-planner/internal/llm"
	"github.com/formweave/extraction-planner/internal/tplengine"
)

const FormCode = "hazard_report"

const templateName = "hazard_report"

//go:embed templates
var templateFS embed.FS

// keywordOverrides maps utterance keywords to check-type codes, in
// priority order. The first keyword found wins.
var keywordOverrides = []struct {
	keyword   string
	checkType int
}{
	{"专项", checkTypeSpecial},
	{"月度", checkTypeMonthly},
	{"季度", checkTypeQuarterly},
}

type Executor struct {
	renderer tplengine.Renderer
	llm      llm.Client
	rules    *extraction.Ruleset
}

var _ extraction.Executor = (*Executor)(nil)

// NewExecutor builds the hazard-report executor on top of the given
// completion client.
func NewExecutor(client llm.Client) (*Executor, error) {
	templates, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}

	return &Executor{
		renderer: tplengine.New(templates, ".tpl"),
		llm:      client,
		rules:    newRuleset(),
	}, nil
}

// Register installs a singleton hazard-report executor into the registry.
func Register(registry *extraction.Registry, client llm.Client) error {
	executor, err := NewExecutor(client)
	if err != nil {
		return err
	}
	return registry.Register(FormCode, func() (extraction.Executor, error) {
		return executor, nil
	})
}

func (e *Executor) BuildPrompt(utterance string) (string, error) {
	prompt, err := e.renderer.Render(templateName, map[string]any{"user_input": utterance})
	if err != nil {
		return "", extraction.NewTemplateError(err)
	}
	return prompt, nil
}

func (e *Executor) CallModel(ctx context.Context, prompt string) (string, error) {
	raw, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return "", extraction.NewModelError(err)
	}
	return raw, nil
}

func (e *Executor) ParseResponse(raw string) (extraction.Fields, error) {
	return extraction.ParseJSONResponse(raw)
}

func (e *Executor) Validate(fields extraction.Fields) (extraction.Fields, error) {
	return e.rules.Apply(fields)
}

// PostProcess applies the deterministic keyword overrides and numeric
// coercion on top of the validated fields. The utterance keyword scan only
// runs when the model did not already pick the leader-led check type.
func (e *Executor) PostProcess(validated extraction.Fields, utterance string) (extraction.Fields, error) {
	result := make(extraction.Fields, len(validated))
	for k, v := range validated {
		result[k] = v
	}

	if ct, _ := result["checkType"].(int); ct != checkTypeLeaderLed {
		normalized := strings.ToLower(utterance)
		for _, override := range keywordOverrides {
			if strings.Contains(normalized, override.keyword) {
				result["checkType"] = override.checkType
				break
			}
		}
	}

	coerceFloat(result, "checkMoney")
	coerceInt(result, "checkScore")

	return result, nil
}

// coerceFloat forces the named field to float64, dropping it when the
// value cannot be read as a number.
func coerceFloat(fields extraction.Fields, name string) {
	value, ok := fields[name]
	if !ok || value == nil {
		return
	}
	switch v := value.(type) {
	case float64:
	case int:
		fields[name] = float64(v)
	case string:
		if v == "" {
			delete(fields, name)
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			delete(fields, name)
			return
		}
		fields[name] = f
	default:
		delete(fields, name)
	}
}

func coerceInt(fields extraction.Fields, name string) {
	value, ok := fields[name]
	if !ok || value == nil {
		return
	}
	switch v := value.(type) {
	case int:
	case float64:
		fields[name] = int(v)
	case string:
		if v == "" {
			delete(fields, name)
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			delete(fields, name)
			return
		}
		fields[name] = n
	default:
		delete(fields, name)
	}
}
