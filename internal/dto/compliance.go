package dto

import "hs-compliance/internal/models"

// CheckComplianceRequest is accepted as a JSON body or as query parameters.
type CheckComplianceRequest struct {
	Code     string `json:"code" query:"code" validate:"omitempty,max=32" example:"8471.30.00.00"`
	ItemName string `json:"item_name" query:"item_name" validate:"omitempty,max=256" example:"laptop"`
}

type ResolveItemRequest struct {
	ItemName string `json:"item_name" validate:"required,max=256" example:"laptop"`
}

type ResolveDescriptionRequest struct {
	Description string `json:"description" validate:"required,max=1024" example:"breeding horses"`
}

type ResolveResponse struct {
	Found       bool             `json:"found"`
	Code        string           `json:"code,omitempty"`
	MatchedTerm string           `json:"matched_term,omitempty"`
	Tier        models.MatchTier `json:"tier,omitempty"`
	Record      *CodeResponse    `json:"record,omitempty"`
}

type ListCodesQuery struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=1000"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

type CodeResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Policy      string `json:"policy"`
	Allowed     bool   `json:"allowed"`
}

type CodeListResponse struct {
	Codes  []CodeResponse `json:"codes"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}
