package codec

import "github.com/goliatone/go-questionnaire/pkg/model"

// ToggleOption adds or removes value from current. Every other selected value
// survives, and the result follows the option order of q.
func ToggleOption(q model.Question, current []string, value string, checked bool) []string {
	next := make([]string, 0, len(current)+1)
	present := false
	for _, selected := range current {
		if selected == value {
			present = true
			if !checked {
				continue
			}
		}
		next = append(next, selected)
	}
	if checked && !present {
		next = append(next, value)
	}
	return OrderSelection(q, next)
}

// OrderSelection orders values by the question's sorted options and drops
// duplicates. Values unknown to the option list are kept after the known
// ones, in their original order.
func OrderSelection(q model.Question, values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	wanted := make(map[string]struct{}, len(values))
	for _, value := range values {
		wanted[value] = struct{}{}
	}

	out := make([]string, 0, len(wanted))
	for _, option := range q.SortedOptions() {
		if _, ok := wanted[option.Value]; ok {
			out = append(out, option.Value)
			delete(wanted, option.Value)
		}
	}
	for _, value := range values {
		if _, ok := wanted[value]; ok {
			out = append(out, value)
			delete(wanted, value)
		}
	}
	return out
}
