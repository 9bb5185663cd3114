package insurance

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// RuleSet holds all dated rule versions for one (insurance type, category)
// pair, sorted by effective-from date. Temporal selection happens against
// this explicit list; there is no mutable "current" rule.
type RuleSet struct {
	TypeID     uuid.UUID
	CategoryID uuid.UUID
	rules      []InsuranceRule
}

// NewRuleSet builds a sorted rule set from rule rows.
func NewRuleSet(typeID, categoryID uuid.UUID, rules []InsuranceRule) *RuleSet {
	sorted := make([]InsuranceRule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})
	return &RuleSet{TypeID: typeID, CategoryID: categoryID, rules: sorted}
}

// RuleResolution is the outcome of selecting a rule for a reference date.
// Overlap marks a data-integrity violation upstream: more than one rule was
// active on the date and the latest effective-from version won.
type RuleResolution struct {
	Rule    *InsuranceRule
	Overlap bool
}

// ActiveAt selects the single rule valid on the reference date. When several
// versions overlap, the one with the latest effective-from date wins and the
// resolution is flagged so the caller can log a warning; amounts are never
// averaged. A nil rule means no version covers the date.
func (s *RuleSet) ActiveAt(ref time.Time) RuleResolution {
	var matches []InsuranceRule
	for _, r := range s.rules {
		if r.ActiveAt(ref) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return RuleResolution{}
	case 1:
		return RuleResolution{Rule: &matches[0]}
	default:
		// rules are sorted ascending, so the last match has the
		// latest effective_from
		return RuleResolution{Rule: &matches[len(matches)-1], Overlap: true}
	}
}

// Len returns the number of rule versions in the set.
func (s *RuleSet) Len() int {
	return len(s.rules)
}
