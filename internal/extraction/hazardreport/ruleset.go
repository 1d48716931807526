package hazardreport

import (
	"fmt"
	"regexp"
	"time"

	"github.com/formweave/extraction-planner/internal/extraction"
	"go.uber.org/zap"
)

// Check types recognized by the hazard-report form.
const (
	checkTypeRoutine   = 1
	checkTypeSpecial   = 3
	checkTypeMonthly   = 4
	checkTypeQuarterly = 6
	checkTypeLeaderLed = 8
)

var nonDigitRe = regexp.MustCompile(`\D`)

func currentDate() string {
	return time.Now().Format("20060102")
}

func intDefault(n int) func() any {
	return func() any { return n }
}

// normalizeCheckDate canonicalizes model-produced dates to YYYYMMDD.
// Four digits get the current year, six digits the current century; any
// value that still fails calendar validation falls back to today.
func normalizeCheckDate(value string) string {
	digits := nonDigitRe.ReplaceAllString(value, "")

	switch len(digits) {
	case 4:
		digits = fmt.Sprintf("%d%s", time.Now().Year(), digits)
	case 6:
		digits = "20" + digits
	case 8:
	default:
		zap.S().Named("validation").Warnw("invalid checkDate format", "value", value)
		return currentDate()
	}

	if _, err := time.Parse("20060102", digits); err != nil {
		zap.S().Named("validation").Warnw("invalid checkDate value", "value", value)
		return currentDate()
	}
	return digits
}

func newRuleset() *extraction.Ruleset {
	return &extraction.Ruleset{
		FormCode: FormCode,
		Rules: []extraction.FieldRule{
			{Name: "underCheckOrg", Kind: extraction.KindString, Required: true},
			{Name: "checkDate", Kind: extraction.KindString, Default: func() any { return currentDate() }, Normalize: normalizeCheckDate},
			{Name: "hiddenTroubleLevel", Kind: extraction.KindInt, Default: intDefault(7), Allowed: []int{5, 6, 7, 8}},
			{Name: "checkType", Kind: extraction.KindInt, Default: intDefault(checkTypeRoutine), Allowed: []int{1, 3, 4, 5, 6, 8}},
			{Name: "hiddenTroubleType", Kind: extraction.KindInt, Allowed: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}},
			{Name: "illegalType", Kind: extraction.KindInt, Allowed: []int{1, 2, 3, 4}},
			{Name: "checkMoney", Kind: extraction.KindFloat},
			{Name: "checkScore", Kind: extraction.KindInt},
			{Name: "checkLeader", Kind: extraction.KindInt, Allowed: []int{1, 2, 3, 4, 6, 7, 8, 9, 10, 11, 13, 14}},
		},
		Advisory: func(fields extraction.Fields) string {
			if ct, ok := fields["checkType"].(int); ok && ct == checkTypeLeaderLed {
				if _, ok := fields["checkLeader"]; !ok {
					return "leader-led check without a checkLeader"
				}
			}
			return ""
		},
	}
}
