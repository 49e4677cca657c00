// Package joblevel assigns a seniority label to a posting from keyword rules.
package joblevel

import (
	"regexp"
	"strings"

	"JobRadar/internal/domain"
)

// Patterns are evaluated in priority order; the first match wins, so a
// "Senior Graduate Programme Apprentice" title resolves to Apprentice.
var rules = []struct {
	level   domain.JobLevel
	pattern *regexp.Regexp
}{
	{domain.LevelApprentice, regexp.MustCompile(`\b(apprentice|apprenticeship|intern(ship)?|trainee)\b`)},
	{domain.LevelGraduate, regexp.MustCompile(`\b(graduate|entry[- ]level|early[- ]career|recent[- ]graduate)\b`)},
	{domain.LevelJunior, regexp.MustCompile(`\b(junior|jr|early[- ]level|entry[- ]position)\b`)},
	{domain.LevelSenior, regexp.MustCompile(`\b(senior|sr|lead|principal|head|expert|specialist|manager|architect|chief|consultant|director)\b`)},
	{domain.LevelMid, regexp.MustCompile(`\b(mid[- ]?level|associate|intermediate|experienced|analyst)\b`)},
}

// Classify runs the priority chain against title+description, then against
// the title alone if nothing matched, and falls back to Unknown.
func Classify(title, description string) domain.JobLevel {
	title = strings.ToLower(title)
	description = strings.ToLower(description)

	if level, ok := match(title + " " + description); ok {
		return level
	}
	if level, ok := match(title); ok {
		return level
	}
	return domain.LevelUnknown
}

// Assign stamps every record in the batch with its level.
func Assign(records []domain.JobRecord) []domain.JobRecord {
	for i := range records {
		records[i].JobLevel = Classify(records[i].Title, records[i].Description)
	}
	return records
}

func match(text string) (domain.JobLevel, bool) {
	for _, rule := range rules {
		if rule.pattern.MatchString(text) {
			return rule.level, true
		}
	}
	return "", false
}
