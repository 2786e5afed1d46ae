package visibility

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Rule converts blueprint condition maps into a single rule string. Every `if`
// condition must hold and no `unless` condition may hold. An empty result
// means the field is always visible.
//
// Condition values use the blueprint shorthand:
//
//	"is true" / "is false"   boolean comparison
//	"equals x" / "x"         equality
//	"not x"                  inequality
//	"> 3", ">= 3", "< 3"     numeric comparison
//	"contains x"             substring or list membership
//	"empty" / "not empty"    presence
func Rule(ifConds, unlessConds map[string]string) string {
	var parts []string
	for _, field := range sortedKeys(ifConds) {
		parts = append(parts, conditionExpr(field, ifConds[field]))
	}
	if len(unlessConds) > 0 {
		var unless []string
		for _, field := range sortedKeys(unlessConds) {
			unless = append(unless, conditionExpr(field, unlessConds[field]))
		}
		parts = append(parts, "!("+strings.Join(unless, " || ")+")")
	}
	return strings.Join(parts, " && ")
}

func conditionExpr(field, condition string) string {
	cond := strings.TrimSpace(condition)
	lower := strings.ToLower(cond)

	switch {
	case lower == "empty":
		return "!" + field
	case lower == "not empty":
		return field
	case strings.HasPrefix(lower, "is "):
		return fmt.Sprintf("%s == %s", field, literal(strings.TrimSpace(cond[3:])))
	case strings.HasPrefix(lower, "equals "):
		return fmt.Sprintf("%s == %s", field, literal(strings.TrimSpace(cond[7:])))
	case strings.HasPrefix(lower, "not "):
		return fmt.Sprintf("%s != %s", field, literal(strings.TrimSpace(cond[4:])))
	case strings.HasPrefix(lower, "contains "):
		return fmt.Sprintf("%s contains %s", field, strconv.Quote(strings.TrimSpace(cond[9:])))
	}

	for _, op := range []string{">=", "<=", "==", "!=", ">", "<"} {
		if strings.HasPrefix(cond, op) {
			return fmt.Sprintf("%s %s %s", field, op, literal(strings.TrimSpace(cond[len(op):])))
		}
	}
	return fmt.Sprintf("%s == %s", field, literal(cond))
}

func literal(raw string) string {
	switch strings.ToLower(raw) {
	case "true", "false", "null":
		return strings.ToLower(raw)
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return raw
	}
	return strconv.Quote(raw)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		if strings.TrimSpace(key) != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
