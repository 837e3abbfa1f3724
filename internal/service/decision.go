package service

import (
	"context"
	"fmt"
	"strings"

	"hs-compliance/internal/models"
	"hs-compliance/pkg/metrics"

	"go.uber.org/zap"
)

// DecisionEngine classifies a code as allowed, blocked or unknown.
type DecisionEngine struct {
	permitted []string
	explainer Explainer
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewDecisionEngine(permitted []string, explainer Explainer, m *metrics.Metrics, logger *zap.Logger) *DecisionEngine {
	return &DecisionEngine{
		permitted: permitted,
		explainer: explainer,
		metrics:   m,
		logger:    logger,
	}
}

// IsPermitted reports whether policy is one of the permitted labels,
// ignoring case.
func (e *DecisionEngine) IsPermitted(policy string) bool {
	policy = strings.TrimSpace(policy)
	for _, p := range e.permitted {
		if strings.EqualFold(policy, p) {
			return true
		}
	}
	return false
}

// Decide runs the tiers in order: exact registry hit, chapter inference from
// the 4- and 2-digit prefixes, then a generated explanation for an unknown
// code. It never fails; a failing explainer degrades to a fixed message.
func (e *DecisionEngine) Decide(ctx context.Context, code string, registry *models.Registry) models.ComplianceVerdict {
	verdict := e.decide(ctx, code, registry)
	e.metrics.RecordCheck(string(verdict.Tier), verdict.Allowed)
	return verdict
}

func (e *DecisionEngine) decide(ctx context.Context, code string, registry *models.Registry) models.ComplianceVerdict {
	if record, ok := registry.Get(code); ok {
		return models.ComplianceVerdict{
			Code:        code,
			Exists:      true,
			Allowed:     e.IsPermitted(record.Policy),
			Policy:      record.Policy,
			Description: record.Description,
			Tier:        models.DecisionTierExact,
		}
	}

	if len(code) >= 4 {
		if verdict, ok := e.inferFromChapter(code, registry); ok {
			return verdict
		}
	}

	return models.ComplianceVerdict{
		Code:    code,
		Exists:  false,
		Allowed: false,
		Reason:  e.explain(ctx, code),
		Tier:    models.DecisionTierUnknown,
	}
}

// inferFromChapter looks at registry codes sharing the heading (4-digit) or
// chapter (2-digit) prefix. "First" means first in registry insertion order.
func (e *DecisionEngine) inferFromChapter(code string, registry *models.Registry) (models.ComplianceVerdict, bool) {
	heading, chapter := code[:4], code[:2]

	var firstSharing, firstPermitted *models.ClassificationCode
	registry.Range(func(c models.ClassificationCode) bool {
		if !strings.HasPrefix(c.Code, heading) && !strings.HasPrefix(c.Code, chapter) {
			return true
		}
		if firstSharing == nil {
			rec := c
			firstSharing = &rec
		}
		if e.IsPermitted(c.Policy) {
			rec := c
			firstPermitted = &rec
			return false
		}
		return true
	})

	if firstSharing == nil {
		return models.ComplianceVerdict{}, false
	}

	if firstPermitted != nil {
		return models.ComplianceVerdict{
			Code:    code,
			Exists:  true,
			Allowed: true,
			Policy:  firstPermitted.Policy,
			Description: fmt.Sprintf("Code %s is not listed, but heading %s (chapter %s) has permitted categories, e.g. %s %s",
				code, heading, chapter, firstPermitted.Code, firstPermitted.Description),
			Tier: models.DecisionTierChapter,
		}, true
	}

	return models.ComplianceVerdict{
		Code:    code,
		Exists:  true,
		Allowed: false,
		Policy:  firstSharing.Policy,
		Description: fmt.Sprintf("Code %s is not listed and heading %s (chapter %s) has no permitted categories",
			code, heading, chapter),
		Tier: models.DecisionTierChapter,
	}, true
}

func (e *DecisionEngine) explain(ctx context.Context, code string) string {
	if e.explainer != nil {
		reason, err := e.explainer.ExplainUnknownCode(ctx, code)
		if err == nil && strings.TrimSpace(reason) != "" {
			return strings.TrimSpace(reason)
		}
		if err != nil {
			e.logger.Warn("Unknown code explanation failed, using template", zap.String("code", code), zap.Error(err))
		}
	}
	return UnknownCodeMessage(code)
}

func UnknownCodeMessage(code string) string {
	return fmt.Sprintf("Code %s was not found in the tariff schedule and no related heading or chapter is listed. "+
		"Please verify the code with the customs authority before shipping.", code)
}
