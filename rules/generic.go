package rules

import "regexp"

// Unknown manufacturers get loose patterns only: a short letter prefix
// followed by digits, optionally dash- or dot-joined. No hierarchy.
var (
	genericLoosePattern = regexp.MustCompile(`\b[A-Z]{1,3}[-.]?\d{2,4}\b`)
	genericPartPattern  = regexp.MustCompile(`\b[A-Z0-9]{2,4}-\d{3,5}(?:-[A-Z0-9]{2,4})?\b`)
)

type genericRules struct{}

var _ RuleSet = genericRules{}

func (genericRules) Manufacturer() string { return "generic" }

func (genericRules) FindCandidates(text string) []Candidate {
	return matchPatterns(text, nil, genericLoosePattern)
}

func (genericRules) DeriveParentCode(code string) (string, bool) {
	return "", false
}

func (genericRules) FindPartCandidates(text string) []Candidate {
	return matchPatterns(text, genericPartPattern, nil)
}
