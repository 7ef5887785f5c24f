package rules

import "regexp"

// Canon uses a flat E-code space ("E045", "E202-0001"). There is no derivable
// hierarchy: DeriveParentCode always reports no parent.
var (
	canonExactPattern = regexp.MustCompile(`\bE\d{3}(?:-\d{4})?\b`)
	canonLoosePattern = regexp.MustCompile(`\bE\d{2,4}\b`)
	canonPartPattern  = regexp.MustCompile(`\b[A-Z]{2}\d-\d{4}-\d{3}\b`)
)

type canonRules struct{}

var _ RuleSet = canonRules{}

func (canonRules) Manufacturer() string { return "canon" }

func (canonRules) FindCandidates(text string) []Candidate {
	return matchPatterns(text, canonExactPattern, canonLoosePattern)
}

func (canonRules) DeriveParentCode(code string) (string, bool) {
	return "", false
}

func (canonRules) FindPartCandidates(text string) []Candidate {
	return matchPatterns(text, canonPartPattern, nil)
}
