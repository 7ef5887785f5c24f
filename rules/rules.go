// Copyright 2025 Nexfix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package rules provides per-manufacturer parsing rules for error codes and
// part numbers found in service-manual text.
//
// Each manufacturer has its own code grammar: some use dot-separated
// hierarchical codes where a parent category is derivable from the code
// string itself, others use flat code spaces with no hierarchy. A RuleSet
// captures that grammar as pure functions so it can be unit tested in
// isolation. Dispatch happens by manufacturer identifier via ForManufacturer,
// never by runtime type inspection.
package rules

import "strings"

// Candidate is a possible error-code or part-number mention found in text.
type Candidate struct {
	// Code is the matched code string.
	Code string

	// Start and End delimit the match span within the scanned text.
	Start int
	End   int

	// Exact reports whether the match satisfied the manufacturer's strict
	// code format rather than a loose pattern. Exact matches score a higher
	// base confidence.
	Exact bool
}

// RuleSet exposes one manufacturer's code grammar.
// Implementations must be stateless and safe for concurrent use.
type RuleSet interface {
	// Manufacturer returns the normalized identifier this rule set serves.
	Manufacturer() string

	// FindCandidates scans text for error-code mentions.
	// Candidates are returned in order of appearance.
	FindCandidates(text string) []Candidate

	// DeriveParentCode derives the parent category code from a code string.
	// It is a pure function of the string: no lookups, no state.
	// The second return value is false when the code has no parent,
	// either because the manufacturer has no hierarchy or because the code
	// is already top level.
	DeriveParentCode(code string) (string, bool)

	// FindPartCandidates scans text for part-number mentions.
	FindPartCandidates(text string) []Candidate
}

// ForManufacturer selects the rule set for a manufacturer identifier.
// Identifiers are matched case-insensitively; unknown manufacturers fall
// back to a generic rule set with loose patterns and no hierarchy.
func ForManufacturer(id string) RuleSet {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "hp", "hewlett-packard":
		return hpRules{}
	case "canon":
		return canonRules{}
	default:
		return genericRules{}
	}
}
