package pbtest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// matchFilter evaluates a conjunction of field = "value" clauses, the only
// filter shape the wrappers emit. Anything else is an error so tests catch
// unescaped input instead of silently matching nothing.
func matchFilter(rec map[string]any, filter string) (bool, error) {
	for _, clause := range strings.Split(filter, "&&") {
		field, want, err := parseClause(strings.TrimSpace(clause))
		if err != nil {
			return false, err
		}
		got, ok := rec[field]
		if !ok || fmt.Sprint(got) != want {
			return false, nil
		}
	}
	return true, nil
}

func parseClause(clause string) (field, value string, err error) {
	idx := strings.Index(clause, "=")
	if idx < 0 {
		return "", "", fmt.Errorf("unsupported filter clause %q", clause)
	}
	field = strings.TrimSpace(clause[:idx])
	if !isIdentifier(field) {
		return "", "", fmt.Errorf("bad filter field %q", field)
	}
	value, err = strconv.Unquote(strings.TrimSpace(clause[idx+1:]))
	if err != nil {
		return "", "", fmt.Errorf("bad filter value in %q: %w", clause, err)
	}
	return field, value, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}

// sortRecords applies a comma separated sort expression, rightmost key first
// so the leftmost wins. A leading minus flips to descending.
func sortRecords(records []map[string]any, expr string) {
	keys := strings.Split(expr, ",")
	for i := len(keys) - 1; i >= 0; i-- {
		key := strings.TrimSpace(keys[i])
		desc := strings.HasPrefix(key, "-")
		field := strings.TrimPrefix(strings.TrimPrefix(key, "-"), "+")
		if field == "" {
			continue
		}
		sort.SliceStable(records, func(a, b int) bool {
			left, right := fmt.Sprint(records[a][field]), fmt.Sprint(records[b][field])
			if desc {
				return left > right
			}
			return left < right
		})
	}
}

func paginate(items []map[string]any, page, perPage int) ([]map[string]any, int) {
	totalPages := (len(items) + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start >= len(items) {
		return []map[string]any{}, totalPages
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], totalPages
}
