package runner

import (
	"strings"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/suite"
)

// shouldRun applies the name and tag filters.
func (r *Runner) shouldRun(tc *suite.TestCase) bool {
	if r.config.NameFilter != "" && !matchesPattern(tc.Name, r.config.NameFilter) {
		return false
	}
	if len(r.config.TagsFilter) > 0 && !hasAnyTag(tc, r.config.TagsFilter) {
		return false
	}
	return true
}

// matchesPattern supports a leading and/or trailing '*'. Without a '*' the
// pattern must equal the name. Matching ignores case.
func matchesPattern(name, pattern string) bool {
	name = strings.ToLower(name)
	pattern = strings.ToLower(pattern)

	prefix := strings.HasPrefix(pattern, "*")
	suffix := strings.HasSuffix(pattern, "*")
	core := strings.Trim(pattern, "*")

	switch {
	case prefix && suffix:
		return strings.Contains(name, core)
	case prefix:
		return strings.HasSuffix(name, core)
	case suffix:
		return strings.HasPrefix(name, core)
	default:
		return name == pattern
	}
}

func hasAnyTag(tc *suite.TestCase, filters []string) bool {
	for _, f := range filters {
		if tc.HasTag(f) {
			return true
		}
	}
	return false
}
