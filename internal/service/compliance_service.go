package service

import (
	"context"
	"fmt"
	"strings"

	"hs-compliance/internal/models"
	"hs-compliance/pkg/metrics"
	"hs-compliance/pkg/normalize"

	"go.uber.org/zap"
)

const resolutionTierNone = "none"

type ComplianceService struct {
	knowledge SnapshotProvider
	engine    *DecisionEngine
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewComplianceService(knowledge SnapshotProvider, engine *DecisionEngine, m *metrics.Metrics, logger *zap.Logger) *ComplianceService {
	return &ComplianceService{
		knowledge: knowledge,
		engine:    engine,
		metrics:   m,
		logger:    logger,
	}
}

// Check returns the verdict for a code, or for the code an item name
// resolves to. The code wins when both are given. An item name that matches
// nothing yields a blocked verdict, not an error. Resolution and decision
// read the same snapshot.
func (s *ComplianceService) Check(ctx context.Context, code, itemName string) (*models.CheckResult, error) {
	snapshot := s.knowledge.Snapshot()
	code = normalize.Code(code)
	itemName = strings.TrimSpace(itemName)

	if code != "" {
		verdict := s.engine.Decide(ctx, code, snapshot.Codes)
		return &models.CheckResult{ComplianceVerdict: verdict}, nil
	}
	if itemName == "" {
		return nil, ErrMissingRequiredField
	}

	resolution, _, ok := s.resolveItem(snapshot, itemName)
	if !ok {
		s.metrics.RecordCheck(string(models.DecisionTierUnresolved), false)
		return &models.CheckResult{
			ComplianceVerdict: models.ComplianceVerdict{
				Exists:  false,
				Allowed: false,
				Reason:  UnresolvedItemMessage(itemName),
				Tier:    models.DecisionTierUnresolved,
			},
		}, nil
	}

	verdict := s.engine.Decide(ctx, resolution.Code, snapshot.Codes)
	return &models.CheckResult{ComplianceVerdict: verdict, Resolution: &resolution}, nil
}

// ResolveItem maps an item name to a code. The returned record is nil when
// the matched code has no registry entry.
func (s *ComplianceService) ResolveItem(itemName string) (models.Resolution, *models.ClassificationCode, bool) {
	return s.resolveItem(s.knowledge.Snapshot(), itemName)
}

func (s *ComplianceService) resolveItem(snapshot *models.KnowledgeSnapshot, itemName string) (models.Resolution, *models.ClassificationCode, bool) {
	resolution, ok := Resolve(itemName, snapshot.Terms)
	s.recordResolution(resolution, ok)
	if !ok {
		return resolution, nil, false
	}
	s.logger.Debug("Item resolved",
		zap.String("item", itemName),
		zap.String("code", resolution.Code),
		zap.String("tier", string(resolution.Tier)),
	)
	return resolution, lookup(snapshot, resolution.Code), true
}

func (s *ComplianceService) ResolveDescription(description string) (models.Resolution, *models.ClassificationCode, bool) {
	snapshot := s.knowledge.Snapshot()
	resolution, ok := ResolveDescription(description, snapshot.Codes)
	s.recordResolution(resolution, ok)
	if !ok {
		return resolution, nil, false
	}
	return resolution, lookup(snapshot, resolution.Code), true
}

func lookup(snapshot *models.KnowledgeSnapshot, code string) *models.ClassificationCode {
	record, ok := snapshot.Codes.Get(code)
	if !ok {
		return nil
	}
	return &record
}

// ListCodes returns one page of codes in registry order and the total count.
func (s *ComplianceService) ListCodes(limit, offset int) ([]models.ClassificationCode, int) {
	all := s.knowledge.Snapshot().Codes.All()
	total := len(all)

	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []models.ClassificationCode{}, total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total
}

func (s *ComplianceService) GetCode(code string) (models.ClassificationCode, error) {
	record, ok := s.knowledge.Snapshot().Codes.Get(normalize.Code(code))
	if !ok {
		return models.ClassificationCode{}, ErrCodeNotFound
	}
	return record, nil
}

func (s *ComplianceService) recordResolution(resolution models.Resolution, ok bool) {
	if ok {
		s.metrics.RecordResolution(string(resolution.Tier))
		return
	}
	s.metrics.RecordResolution(resolutionTierNone)
}

func UnresolvedItemMessage(itemName string) string {
	return fmt.Sprintf("No classification code matches %q in the tariff schedule. "+
		"Try a more specific product name or check the HS code directly.", itemName)
}

func (s *ComplianceService) IsPermitted(policy string) bool {
	return s.engine.IsPermitted(policy)
}
