package match

import (
	"strings"

	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
)

// FilterByType keeps matches whose event type equals eventType, ignoring case
// and surrounding space. An empty eventType keeps everything.
func FilterByType(matches []domain.MatchResult, eventType string) []domain.MatchResult {
	return filter(matches, eventType, func(m domain.MatchResult) string { return m.Event.Type })
}

// FilterBySeverity keeps matches whose event severity equals severity, with
// the same rules as FilterByType.
func FilterBySeverity(matches []domain.MatchResult, severity string) []domain.MatchResult {
	return filter(matches, severity, func(m domain.MatchResult) string { return m.Event.Severity })
}

func filter(matches []domain.MatchResult, want string, field func(domain.MatchResult) string) []domain.MatchResult {
	want = strings.TrimSpace(want)
	if want == "" {
		return matches
	}
	out := make([]domain.MatchResult, 0, len(matches))
	for _, m := range matches {
		if strings.EqualFold(strings.TrimSpace(field(m)), want) {
			out = append(out, m)
		}
	}
	return out
}
