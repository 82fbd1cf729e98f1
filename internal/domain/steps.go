package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/grafana/regexp"
)

// Step structure messages.
const (
	msgStepNotObject     = `Each entry in "steps" must be an object`
	msgStepNumericKey    = `Each step must have exactly one numeric key (e.g., "1")`
	msgStepEmptyAction   = `Each step's numeric key must map to a non-empty action`
	msgStepEmptyExpected = `If present, "expected" must be a non-empty string`
)

var stepKeyRegex = regexp.MustCompile(`^\d+$`)

// Step is a well-formed front matter step.
type Step struct {
	Number   uint64
	Action   string
	Expected string
}

// ParseStep validates one element of a steps collection.
// The returned message is empty when the element is a well-formed step.
func ParseStep(v Value) (Step, string) {
	if v.Kind() != KindObject {
		return Step{}, msgStepNotObject
	}

	var numeric []string
	for _, k := range v.Keys() {
		if stepKeyRegex.MatchString(k) {
			numeric = append(numeric, k)
		}
	}
	if len(numeric) != 1 {
		return Step{}, msgStepNumericKey
	}
	key := numeric[0]

	action, _ := v.Field(key)
	text, ok := action.Str()
	if !ok || strings.TrimSpace(text) == "" {
		return Step{}, msgStepEmptyAction
	}

	step := Step{Action: text}
	if expected, present := v.Field("expected"); present {
		e, ok := expected.Str()
		if !ok || strings.TrimSpace(e) == "" {
			return Step{}, msgStepEmptyExpected
		}
		step.Expected = e
	}

	n, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return Step{}, fmt.Sprintf("Step number %q is out of range", key)
	}
	step.Number = n
	return step, ""
}

// CheckSteps validates the steps field of a document at p.
// Values other than arrays have nothing to check. The first malformed
// element stops the check; otherwise the step numbers, sorted, must be
// exactly 1..n.
func CheckSteps(p string, steps Value) []Finding {
	items, ok := steps.Items()
	if !ok {
		return nil
	}

	nums := make([]uint64, 0, len(items))
	for _, item := range items {
		step, msg := ParseStep(item)
		if msg != "" {
			return []Finding{{Kind: FindingStepStructure, Path: p, Message: msg}}
		}
		nums = append(nums, step.Number)
	}

	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	for i, n := range nums {
		if n != uint64(i+1) {
			return []Finding{{
				Kind:    FindingStepSequence,
				Path:    p,
				Message: fmt.Sprintf("Step numbers must be sequential starting at 1 (found %s)", joinNumbers(nums)),
			}}
		}
	}
	return nil
}

func joinNumbers(nums []uint64) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.FormatUint(n, 10)
	}
	return strings.Join(parts, ", ")
}
