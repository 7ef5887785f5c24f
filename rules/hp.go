package rules

import (
	"regexp"
	"strings"
)

// HP uses dot-separated hierarchical codes: "13.B9.Az" is a specific jam
// code under the "13.B9" category. The parent is derived by truncating the
// last dot segment.
var (
	// Strict format: two digits, then one or two dot-separated alphanumeric
	// segments of exactly two characters.
	hpExactPattern = regexp.MustCompile(`\b\d{2}\.[0-9A-Za-z]{2}(?:\.[0-9A-Za-z]{2})?\b`)

	// Loose fallback: any dot-separated run starting with digits, for codes
	// that drift from the strict segment widths.
	hpLoosePattern = regexp.MustCompile(`\b\d{2,3}(?:\.[0-9A-Za-z]{1,4}){1,3}\b`)

	// HP part numbers: RM1-1234 or RM1-1234-000 style assembly numbers.
	hpPartPattern = regexp.MustCompile(`\b[A-Z]{2}\d-\d{4}(?:-\d{3})?\b`)
)

type hpRules struct{}

var _ RuleSet = hpRules{}

func (hpRules) Manufacturer() string { return "hp" }

func (hpRules) FindCandidates(text string) []Candidate {
	return matchPatterns(text, hpExactPattern, hpLoosePattern)
}

// DeriveParentCode truncates the last dot segment: "13.B9.Az" -> "13.B9".
// A code with a single segment has no parent.
func (hpRules) DeriveParentCode(code string) (string, bool) {
	idx := strings.LastIndex(code, ".")
	if idx <= 0 {
		return "", false
	}
	return code[:idx], true
}

func (hpRules) FindPartCandidates(text string) []Candidate {
	return matchPatterns(text, hpPartPattern, nil)
}

// matchPatterns collects exact matches first, then loose matches that do not
// overlap an exact span. Candidates come back in order of appearance.
func matchPatterns(text string, exact, loose *regexp.Regexp) []Candidate {
	var out []Candidate
	claimed := make([][2]int, 0, 4)

	if exact != nil {
		for _, span := range exact.FindAllStringIndex(text, -1) {
			out = append(out, Candidate{
				Code:  text[span[0]:span[1]],
				Start: span[0],
				End:   span[1],
				Exact: true,
			})
			claimed = append(claimed, [2]int{span[0], span[1]})
		}
	}

	if loose != nil {
	next:
		for _, span := range loose.FindAllStringIndex(text, -1) {
			for _, c := range claimed {
				if span[0] < c[1] && span[1] > c[0] {
					continue next
				}
			}
			out = append(out, Candidate{
				Code:  text[span[0]:span[1]],
				Start: span[0],
				End:   span[1],
			})
		}
	}

	// Restore document order across the two passes.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Start < out[j-1].Start; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
