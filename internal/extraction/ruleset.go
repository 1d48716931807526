package extraction

import (
	"math"
	"strconv"

	"go.uber.org/zap"
)

type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindFloat
)

// FieldRule is one declarative validation rule. Required fields with no
// default abort the pipeline when absent; enumerated fields outside their
// legal set are silently replaced by the default (or dropped when no
// default exists) so extraction yield stays high.
type FieldRule struct {
	Name      string
	Kind      FieldKind
	Required  bool
	Default   func() any
	Allowed   []int
	Normalize func(string) string
}

// Ruleset is the per-form validation rule collection consumed by
// executors. Advisory, when set, may log a warning about cross-field
// expectations but never rejects the record.
type Ruleset struct {
	FormCode string
	Rules    []FieldRule
	Advisory func(Fields) string
}

// Apply validates the parsed fields against the ruleset and returns the
// validated field map. An empty string value counts as absent. The only
// fatal outcome is a required field with no default being absent.
func (rs *Ruleset) Apply(fields Fields) (Fields, error) {
	logger := zap.S().Named("validation").With("form_code", rs.FormCode)
	out := make(Fields, len(rs.Rules))

	for i := range rs.Rules {
		rule := &rs.Rules[i]

		value, present := fields[rule.Name]
		if value == nil {
			present = false
		}
		if s, ok := value.(string); ok && s == "" {
			present = false
		}

		if !present {
			if rule.Default != nil {
				out[rule.Name] = rule.Default()
				continue
			}
			if rule.Required {
				return nil, NewSchemaValidationError(rule.Name)
			}
			continue
		}

		switch rule.Kind {
		case KindInt:
			n, ok := toInt(value)
			if !ok || !rule.allows(n) {
				logger.Warnw("field value outside legal set", "field", rule.Name, "value", value)
				if rule.Default != nil {
					out[rule.Name] = rule.Default()
				}
				continue
			}
			out[rule.Name] = n
		case KindFloat:
			f, ok := toFloat(value)
			if !ok {
				logger.Warnw("field value is not numeric", "field", rule.Name, "value", value)
				if rule.Default != nil {
					out[rule.Name] = rule.Default()
				}
				continue
			}
			out[rule.Name] = f
		default:
			s, ok := value.(string)
			if !ok {
				logger.Warnw("field value is not a string", "field", rule.Name, "value", value)
				if rule.Default != nil {
					out[rule.Name] = rule.Default()
				}
				continue
			}
			if rule.Normalize != nil {
				s = rule.Normalize(s)
			}
			out[rule.Name] = s
		}
	}

	if rs.Advisory != nil {
		if warning := rs.Advisory(out); warning != "" {
			logger.Warnw(warning)
		}
	}

	return out, nil
}

func (r *FieldRule) allows(n int) bool {
	if len(r.Allowed) == 0 {
		return true
	}
	for _, allowed := range r.Allowed {
		if n == allowed {
			return true
		}
	}
	return false
}

// toInt accepts the shapes JSON decoding and model output produce for
// integers: whole floats, ints and numeric strings.
func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
