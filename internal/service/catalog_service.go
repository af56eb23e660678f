package service

import (
	"context"
	"encoding/json"
	"time"

	domain "enrollment-platform/internal/domain/enrollment"
	interfaces "enrollment-platform/internal/interfaces/infrastructure"
	serviceInterfaces "enrollment-platform/internal/interfaces/service"
	"enrollment-platform/pkg/logger"

	"github.com/google/uuid"
)

const (
	EligibleUniverseTTL = 2 * time.Minute
	StudentSelectionTTL = 10 * time.Minute
	EnrolledCountTTL    = 24 * time.Hour
)

var _ serviceInterfaces.CatalogService = (*CatalogService)(nil)

// CatalogService projects the offering catalog into a student's eligible
// universe: the window bound to their cohort plus the subject -> class type
// -> offering tree, each offering annotated with its enrolled count.
type CatalogService struct {
	catalogRepo  interfaces.CatalogRepository
	cacheService interfaces.CacheService
}

func NewCatalogService(catalogRepo interfaces.CatalogRepository, cacheService interfaces.CacheService) *CatalogService {
	return &CatalogService{
		catalogRepo:  catalogRepo,
		cacheService: cacheService,
	}
}

// EligibleUniverse reads through the cache. Cached universes may carry
// slightly stale enrolled counts; the commit path re-validates capacity
// transactionally, so staleness here only affects advisory display and the
// validator's early capacity rejection.
func (s *CatalogService) EligibleUniverse(ctx context.Context, studentID uuid.UUID) (*domain.EligibleUniverse, error) {
	if cached, err := s.cacheService.GetEligibleUniverse(ctx, studentID); err == nil && cached != "" {
		var universe domain.EligibleUniverse
		if err := json.Unmarshal([]byte(cached), &universe); err == nil && universe.Window != nil && universe.Tree != nil {
			universe.Tree.Rebuild()
			return &universe, nil
		}
		logger.Warn("Discarding undecodable cached universe for student %s", studentID)
	}

	window, rows, err := s.catalogRepo.FetchEligibleOfferings(ctx, studentID)
	if err != nil {
		return nil, err
	}

	universe := &domain.EligibleUniverse{
		Window: window,
		Tree:   domain.BuildOfferingTree(rows),
	}

	if data, err := json.Marshal(universe); err == nil {
		if err := s.cacheService.SetEligibleUniverse(ctx, studentID, string(data), EligibleUniverseTTL); err != nil {
			logger.Warn("Failed to cache eligible universe for student %s: %v", studentID, err)
		}
	}

	return universe, nil
}
