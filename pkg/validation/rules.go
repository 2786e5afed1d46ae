package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRule is returned when a rule string names a rule the validator
// does not implement.
var ErrUnknownRule = errors.New("validation: unknown rule")

// Rule is one parsed constraint, e.g. "between:1,10" becomes
// Rule{Name: "between", Params: []string{"1", "10"}}.
type Rule struct {
	Name   string
	Params []string
}

func (r Rule) String() string {
	if len(r.Params) == 0 {
		return r.Name
	}
	return r.Name + ":" + strings.Join(r.Params, ",")
}

type ruleSpec struct {
	minParams int
	implicit  bool
	check     checkFunc
}

var registry map[string]ruleSpec

func init() {
	registry = map[string]ruleSpec{
		"required":    {implicit: true, check: checkRequired},
		"required_if": {minParams: 2, implicit: true, check: checkRequiredIf},
		"accepted":    {implicit: true, check: checkAccepted},
		"nullable":    {check: pass},
		"sometimes":   {check: pass},
		"bail":        {check: pass},
		"string":      {check: checkString},
		"email":       {check: checkEmail},
		"url":         {check: checkURL},
		"numeric":     {check: checkNumeric},
		"integer":     {check: checkInteger},
		"boolean":     {check: checkBoolean},
		"min":         {minParams: 1, check: checkMin},
		"max":         {minParams: 1, check: checkMax},
		"between":     {minParams: 2, check: checkBetween},
		"size":        {minParams: 1, check: checkSize},
		"in":          {minParams: 1, check: checkIn},
		"not_in":      {minParams: 1, check: checkNotIn},
		"regex":       {minParams: 1, check: checkRegex},
		"alpha":       {check: checkAlpha},
		"alpha_num":   {check: checkAlphaNum},
		"alpha_dash":  {check: checkAlphaDash},
		"same":        {minParams: 1, check: checkSame},
		"different":   {minParams: 1, check: checkDifferent},
		"confirmed":   {check: checkConfirmed},
		"date":        {check: checkDate},
	}
}

// ParseRules splits and parses rule strings. Each entry may hold several
// pipe-separated rules; entries starting with "regex:" are taken verbatim so
// patterns may contain pipes.
func ParseRules(raw []string) ([]Rule, error) {
	var rules []Rule
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := []string{entry}
		if !strings.HasPrefix(entry, "regex:") {
			parts = strings.Split(entry, "|")
		}
		for _, part := range parts {
			rule, err := parseRule(part)
			if err != nil {
				return nil, err
			}
			if rule.Name != "" {
				rules = append(rules, rule)
			}
		}
	}
	return rules, nil
}

func parseRule(raw string) (Rule, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Rule{}, nil
	}
	name, params, hasParams := strings.Cut(raw, ":")
	rule := Rule{Name: strings.ToLower(strings.TrimSpace(name))}
	if hasParams {
		if rule.Name == "regex" {
			rule.Params = []string{params}
		} else {
			for _, param := range strings.Split(params, ",") {
				rule.Params = append(rule.Params, strings.TrimSpace(param))
			}
		}
	}

	spec, ok := registry[rule.Name]
	if !ok {
		return Rule{}, fmt.Errorf("%w %q", ErrUnknownRule, rule.Name)
	}
	if len(rule.Params) < spec.minParams {
		return Rule{}, fmt.Errorf("validation: rule %q requires %d parameter(s)", rule.Name, spec.minParams)
	}
	return rule, nil
}

func hasRule(rules []Rule, name string) bool {
	for _, rule := range rules {
		if rule.Name == name {
			return true
		}
	}
	return false
}
