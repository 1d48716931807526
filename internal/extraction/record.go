package extraction

// Fields is the dynamic field map a form extraction produces.
type Fields map[string]any

// Record is the mutable working state threaded through the pipeline for a
// single extraction. It is owned by exactly one in-flight request or task
// and is never shared between requests.
type Record struct {
	Utterance string
	FormCode  string

	Prompt          string
	RawModelOutput  string
	ParsedFields    Fields
	ValidatedFields Fields
	Result          Fields

	ErrorCode    string
	ErrorMessage string
}

// NewRecord returns a fresh working record for the given request inputs.
func NewRecord(utterance, formCode string) *Record {
	return &Record{Utterance: utterance, FormCode: formCode}
}

// Failed reports whether an earlier stage already recorded a failure.
// Every stage checks this before running so a broken record passes through
// the rest of the pipeline untouched.
func (r *Record) Failed() bool {
	return r.ErrorCode != ""
}

func (r *Record) setError(code, message string) {
	r.ErrorCode = code
	r.ErrorMessage = message
}
