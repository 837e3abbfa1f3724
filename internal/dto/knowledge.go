package dto

import "hs-compliance/internal/models"

type SearchRequest struct {
	Query string `json:"query" validate:"required,max=2000" example:"import licence for firearms"`
	TopK  int    `json:"top_k" validate:"omitempty,min=1,max=50" example:"5"`
}

type SearchResponse struct {
	Query   string                 `json:"query"`
	Results []models.ScoredPassage `json:"results"`
}

type AskRequest struct {
	Question string `json:"question" validate:"required,max=2000" example:"Do laptops need an import licence?"`
	TopK     int    `json:"top_k" validate:"omitempty,min=1,max=50" example:"5"`
}
