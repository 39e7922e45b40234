package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jovanglig/aigeniusresume/internal/models"
)

// ReconcileKeywords checks the model's keyword lists against the résumé text.
// A "strong" keyword that never appears in the résumé is moved to "missing",
// and a "missing" keyword that does appear is moved to "strong". Both lists
// are de-duplicated case-insensitively, keeping first occurrences.
func ReconcileKeywords(report *models.ScoreReport, resumeText string) {
	var strong, missing []string
	resume := newTermMatcher(resumeText)

	for _, kw := range report.Keywords.Strong {
		if resume.mentions(kw) {
			strong = append(strong, kw)
		} else {
			missing = append(missing, kw)
		}
	}
	for _, kw := range report.Keywords.Missing {
		if resume.mentions(kw) {
			strong = append(strong, kw)
		} else {
			missing = append(missing, kw)
		}
	}

	strong = dedupe(strong, nil)
	report.Keywords.Strong = strong
	report.Keywords.Missing = dedupe(missing, strong)
}

// AddMatchedSkills marks résumé skills the job description asks for as strong.
func AddMatchedSkills(report *models.ScoreReport, skills []string, jobDescription string) {
	jd := newTermMatcher(jobDescription)
	for _, skill := range skills {
		if jd.mentions(skill) {
			report.Keywords.Strong = append(report.Keywords.Strong, skill)
		}
	}
	report.Keywords.Strong = dedupe(report.Keywords.Strong, nil)
	report.Keywords.Missing = dedupe(report.Keywords.Missing, report.Keywords.Strong)
}

// termMatcher finds whole terms in a text, ignoring case. A term boundary is
// the start or end of the text or any rune that is not a letter or number.
type termMatcher struct {
	text string
}

func newTermMatcher(text string) termMatcher {
	return termMatcher{text: strings.ToLower(text)}
}

func (m termMatcher) mentions(keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return false
	}

	for from := 0; from < len(m.text); {
		i := strings.Index(m.text[from:], keyword)
		if i < 0 {
			return false
		}
		start := from + i
		if m.boundaryBefore(start) && m.boundaryAt(start+len(keyword)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(m.text[start:])
		from = start + size
	}
	return false
}

func (m termMatcher) boundaryBefore(i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(m.text[:i])
	return !isTermRune(r)
}

func (m termMatcher) boundaryAt(i int) bool {
	if i >= len(m.text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(m.text[i:])
	return !isTermRune(r)
}

func isTermRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

func dedupe(list []string, exclude []string) []string {
	seen := make(map[string]bool, len(list)+len(exclude))
	for _, e := range exclude {
		seen[strings.ToLower(strings.TrimSpace(e))] = true
	}

	out := make([]string, 0, len(list))
	for _, item := range list {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(item))
	}
	return out
}
