package extraction

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// Executor implements the five-stage extraction pipeline for one form
// type. Each stage reports failures through a *StageError so the pipeline
// can tag the working record without the error escaping.
type Executor interface {
	BuildPrompt(utterance string) (string, error)
	CallModel(ctx context.Context, prompt string) (string, error)
	ParseResponse(raw string) (Fields, error)
	Validate(fields Fields) (Fields, error)
	PostProcess(validated Fields, utterance string) (Fields, error)
}

var fencedBlockRe = regexp.MustCompile("(?s)```(json)?(.*?)```")

// ParseJSONResponse strips the first fenced code block, if any, and decodes
// the remaining text as a JSON object. Shared by executors since model
// output framing does not vary per form type.
func ParseJSONResponse(raw string) (Fields, error) {
	cleaned := strings.TrimSpace(raw)
	if m := fencedBlockRe.FindStringSubmatch(cleaned); m != nil {
		cleaned = strings.TrimSpace(m[2])
	}

	var fields Fields
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, NewMalformedResponseError(err)
	}
	return fields, nil
}
