package models

type DecisionTier string

const (
	DecisionTierExact   DecisionTier = "exact"
	DecisionTierChapter DecisionTier = "chapter"
	DecisionTierUnknown DecisionTier = "unknown"
	// DecisionTierUnresolved marks an item-name query that matched no code.
	DecisionTierUnresolved DecisionTier = "unresolved"
)

type ComplianceVerdict struct {
	Code        string       `json:"code,omitempty"`
	Exists      bool         `json:"exists"`
	Allowed     bool         `json:"allowed"`
	Policy      string       `json:"policy,omitempty"`
	Description string       `json:"description,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	Tier        DecisionTier `json:"tier"`
}

type MatchTier string

const (
	MatchTierExact            MatchTier = "exact"
	MatchTierKeyContainsQuery MatchTier = "key_contains_query"
	MatchTierQueryContainsKey MatchTier = "query_contains_key"
)

// Resolution is a code found for a free-text query, with the index key
// that matched and the tier that produced it.
type Resolution struct {
	Code string    `json:"code"`
	Term string    `json:"matched_term"`
	Tier MatchTier `json:"tier"`
}

// CheckResult is a verdict plus, for item-name queries, how the name was
// resolved to a code.
type CheckResult struct {
	ComplianceVerdict
	Resolution *Resolution `json:"resolution,omitempty"`
}
