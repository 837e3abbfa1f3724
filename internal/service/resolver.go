package service

import (
	"strings"
	"unicode/utf8"

	"hs-compliance/internal/models"
	"hs-compliance/pkg/normalize"
)

// minReverseKeyLen is the exclusive lower bound, in runes, for index keys
// considered when the query contains the key.
const minReverseKeyLen = 5

// Resolve maps an item name to a code. Tiers are tried in order and the
// first hit wins:
//
//  1. the normalized name is itself a key
//  2. some key contains the name
//  3. the name contains some key longer than five runes
//
// Tiers 2 and 3 return the first qualifying key in index insertion order,
// so the answer for an ambiguous name depends on the order the source
// document listed its codes.
func Resolve(itemName string, terms *models.TermIndex) (models.Resolution, bool) {
	query := normalize.Term(itemName)
	if query == "" || terms == nil {
		return models.Resolution{}, false
	}

	if code, ok := terms.Lookup(query); ok {
		return models.Resolution{Code: code, Term: query, Tier: models.MatchTierExact}, true
	}

	var res models.Resolution
	found := false
	terms.Range(func(term, code string) bool {
		if strings.Contains(term, query) {
			res = models.Resolution{Code: code, Term: term, Tier: models.MatchTierKeyContainsQuery}
			found = true
		}
		return !found
	})
	if found {
		return res, true
	}

	terms.Range(func(term, code string) bool {
		if utf8.RuneCountInString(term) > minReverseKeyLen && strings.Contains(query, term) {
			res = models.Resolution{Code: code, Term: term, Tier: models.MatchTierQueryContainsKey}
			found = true
		}
		return !found
	})
	return res, found
}

// ResolveDescription maps a free-text description to a code by comparing it
// with registry descriptions: equality first, then a description containing
// the query, then the query containing a description.
func ResolveDescription(description string, registry *models.Registry) (models.Resolution, bool) {
	query := normalize.Term(description)
	if query == "" || registry == nil {
		return models.Resolution{}, false
	}

	type candidate struct {
		code string
		desc string
	}
	candidates := make([]candidate, 0, registry.Len())
	registry.Range(func(c models.ClassificationCode) bool {
		if desc := normalize.Term(c.Description); desc != "" {
			candidates = append(candidates, candidate{code: c.Code, desc: desc})
		}
		return true
	})

	for _, c := range candidates {
		if c.desc == query {
			return models.Resolution{Code: c.code, Term: c.desc, Tier: models.MatchTierExact}, true
		}
	}
	for _, c := range candidates {
		if strings.Contains(c.desc, query) {
			return models.Resolution{Code: c.code, Term: c.desc, Tier: models.MatchTierKeyContainsQuery}, true
		}
	}
	for _, c := range candidates {
		if utf8.RuneCountInString(c.desc) > minReverseKeyLen && strings.Contains(query, c.desc) {
			return models.Resolution{Code: c.code, Term: c.desc, Tier: models.MatchTierQueryContainsKey}, true
		}
	}
	return models.Resolution{}, false
}
