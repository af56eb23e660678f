package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	domain "enrollment-platform/internal/domain/enrollment"
	interfaces "enrollment-platform/internal/interfaces/infrastructure"
	serviceInterfaces "enrollment-platform/internal/interfaces/service"
	"enrollment-platform/pkg/logger"

	"github.com/google/uuid"
)

const IdempotencyRetention = 24 * time.Hour

var _ serviceInterfaces.EnrollmentService = (*EnrollmentService)(nil)

type SubmitSelectionRequest = serviceInterfaces.SubmitSelectionRequest
type SubmitSelectionResponse = serviceInterfaces.SubmitSelectionResponse
type CurrentSelectionResponse = serviceInterfaces.CurrentSelectionResponse

// EnrollmentService is the selection resolver. One call either atomically
// replaces the student's full selection for their bound window or rejects
// the whole batch; there is no partial or pending state.
type EnrollmentService struct {
	catalogService  serviceInterfaces.CatalogService
	catalogRepo     interfaces.CatalogRepository
	studentRepo     interfaces.StudentRepository
	selectionRepo   interfaces.SelectionRepository
	auditRepo       interfaces.AuditRepository
	cacheService    interfaces.CacheService
	queueService    interfaces.QueueService
	idempotencyRepo interfaces.IdempotencyRepository
	validator       *SelectionValidator
	clock           domain.Clock
}

func NewEnrollmentService(
	catalogService serviceInterfaces.CatalogService,
	catalogRepo interfaces.CatalogRepository,
	studentRepo interfaces.StudentRepository,
	selectionRepo interfaces.SelectionRepository,
	auditRepo interfaces.AuditRepository,
	cacheService interfaces.CacheService,
	queueService interfaces.QueueService,
	idempotencyRepo interfaces.IdempotencyRepository,
	clock domain.Clock,
) *EnrollmentService {
	return &EnrollmentService{
		catalogService:  catalogService,
		catalogRepo:     catalogRepo,
		studentRepo:     studentRepo,
		selectionRepo:   selectionRepo,
		auditRepo:       auditRepo,
		cacheService:    cacheService,
		queueService:    queueService,
		idempotencyRepo: idempotencyRepo,
		validator:       NewSelectionValidator(),
		clock:           clock,
	}
}

// SubmitSelection validates and commits a candidate offering set. An empty
// set withdraws the student from everything they hold for the window.
// Privileged callers bypass only the temporal window gate; every other
// check applies to them unchanged.
func (s *EnrollmentService) SubmitSelection(ctx context.Context, req *SubmitSelectionRequest) (*SubmitSelectionResponse, error) {
	logger.Info("Processing selection for student %s with %d offering(s)", req.StudentID, len(req.OfferingIDs))

	if req.IdempotencyKey != "" {
		record, isDuplicate, err := s.checkIdempotency(ctx, req)
		if err != nil {
			return nil, domain.NewInfrastructure("idempotency check failed", err)
		}
		if isDuplicate {
			var cachedResponse SubmitSelectionResponse
			if err := json.Unmarshal([]byte(record.ResponseData), &cachedResponse); err == nil {
				logger.Info("Replaying stored response for idempotency key %s", req.IdempotencyKey)
				return &cachedResponse, nil
			}
		}
	}

	student, err := s.studentRepo.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, domain.NewInfrastructure("failed to load student", err)
	}
	if student == nil {
		return nil, domain.NewNotFound(domain.ReasonNoCohortBinding, "student record not found")
	}
	if student.Status != "active" {
		return nil, domain.NewNotFound(domain.ReasonNoCohortBinding, "student record is not active")
	}

	candidateIDs := dedupeIDs(req.OfferingIDs)

	universe, err := s.catalogService.EligibleUniverse(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	if !req.Privileged {
		now := s.clock.Now()
		if !universe.Window.Contains(now) {
			return nil, domain.NewNotFound(domain.ReasonWindowClosed,
				fmt.Sprintf("enrollment window %q is not open", universe.Window.Name))
		}
	}

	priorIDs, err := s.selectionRepo.CurrentSelection(ctx, req.StudentID, universe.Window.WindowID)
	if err != nil {
		return nil, domain.NewInfrastructure("failed to read current selection", err)
	}
	held := make(map[int64]bool, len(priorIDs))
	for _, id := range priorIDs {
		held[id] = true
	}

	accepted, err := s.validator.Validate(universe, candidateIDs, held)
	if err != nil {
		return nil, err
	}

	// The store repeats the capacity check under its transaction; a seat
	// consumed between the read above and this commit fails the whole
	// submission with the same CONFLICT outcome.
	if err := s.selectionRepo.ReplaceSelection(ctx, req.StudentID, universe.Window.WindowID, accepted); err != nil {
		return nil, err
	}

	s.invalidateAfterCommit(ctx, req.StudentID, priorIDs, accepted)

	event := interfaces.SelectionEvent{
		EventType:   interfaces.EventSelectionCommitted,
		StudentID:   req.StudentID,
		WindowID:    universe.Window.WindowID,
		OfferingIDs: accepted,
		PriorIDs:    priorIDs,
		Timestamp:   s.clock.Now(),
	}
	if len(accepted) == 0 {
		event.EventType = interfaces.EventSelectionWithdrawn
	}
	if err := s.queueService.EnqueueSelectionEvent(ctx, event); err != nil {
		logger.Warn("Failed to enqueue selection event for student %s: %v", req.StudentID, err)
	}

	response := &SubmitSelectionResponse{
		AcceptedIDs: accepted,
		Message:     "selection committed",
	}
	if len(accepted) == 0 {
		response.Message = "selection withdrawn"
	}

	if req.IdempotencyKey != "" {
		if err := s.storeIdempotencyResult(ctx, req, response); err != nil {
			logger.Warn("Failed to store idempotency result: %v", err)
		}
	}

	logger.Info("Committed %d offering(s) for student %s in window %d",
		len(accepted), req.StudentID, universe.Window.WindowID)
	return response, nil
}

// CurrentSelection returns the student's committed offering ids for their
// bound window.
func (s *EnrollmentService) CurrentSelection(ctx context.Context, studentID uuid.UUID) (*CurrentSelectionResponse, error) {
	if cached, err := s.cacheService.GetStudentSelection(ctx, studentID); err == nil && cached != "" {
		var response CurrentSelectionResponse
		if err := json.Unmarshal([]byte(cached), &response); err == nil {
			return &response, nil
		}
	}

	universe, err := s.catalogService.EligibleUniverse(ctx, studentID)
	if err != nil {
		return nil, err
	}

	offeringIDs, err := s.selectionRepo.CurrentSelection(ctx, studentID, universe.Window.WindowID)
	if err != nil {
		return nil, domain.NewInfrastructure("failed to read current selection", err)
	}

	response := &CurrentSelectionResponse{
		WindowID:    universe.Window.WindowID,
		OfferingIDs: offeringIDs,
	}

	if data, err := json.Marshal(response); err == nil {
		if err := s.cacheService.SetStudentSelection(ctx, studentID, string(data), StudentSelectionTTL); err != nil {
			logger.Warn("Failed to cache selection for student %s: %v", studentID, err)
		}
	}

	return response, nil
}

// ProcessSelectionEvent runs post-commit work on a queue worker: append the
// audit record and refresh the enrolled-count cache for every offering the
// commit touched.
func (s *EnrollmentService) ProcessSelectionEvent(ctx context.Context, event interfaces.SelectionEvent) error {
	audit := &domain.SelectionAudit{
		AuditID:     uuid.New(),
		StudentID:   event.StudentID,
		WindowID:    event.WindowID,
		EventType:   string(event.EventType),
		OfferingIDs: joinIDs(event.OfferingIDs),
		RecordedAt:  event.Timestamp,
	}
	if err := s.auditRepo.Create(ctx, audit); err != nil {
		return fmt.Errorf("failed to record selection audit: %w", err)
	}

	for _, offeringID := range dedupeIDs(append(append([]int64{}, event.PriorIDs...), event.OfferingIDs...)) {
		count, err := s.catalogRepo.FetchEnrolledCount(ctx, offeringID)
		if err != nil {
			logger.Warn("Failed to refresh enrolled count for offering %d: %v", offeringID, err)
			continue
		}
		if err := s.cacheService.SetEnrolledCount(ctx, offeringID, count, EnrolledCountTTL); err != nil {
			logger.Warn("Failed to cache enrolled count for offering %d: %v", offeringID, err)
		}
	}

	return nil
}

func (s *EnrollmentService) invalidateAfterCommit(ctx context.Context, studentID uuid.UUID, priorIDs, acceptedIDs []int64) {
	if err := s.cacheService.InvalidateStudentCache(ctx, studentID); err != nil {
		logger.Warn("Failed to invalidate caches for student %s: %v", studentID, err)
	}
	for _, offeringID := range dedupeIDs(append(append([]int64{}, priorIDs...), acceptedIDs...)) {
		if err := s.cacheService.InvalidateOfferingCache(ctx, offeringID); err != nil {
			logger.Warn("Failed to invalidate cache for offering %d: %v", offeringID, err)
		}
	}
}

func (s *EnrollmentService) checkIdempotency(ctx context.Context, req *SubmitSelectionRequest) (*interfaces.IdempotencyRecord, bool, error) {
	record, err := s.idempotencyRepo.GetByKey(ctx, req.IdempotencyKey)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, false, nil
		}
		return nil, false, err
	}
	if record == nil {
		return nil, false, nil
	}

	if record.IsExpired(s.clock.Now()) {
		if err := s.idempotencyRepo.Delete(ctx, req.IdempotencyKey); err != nil {
			logger.Warn("Failed to delete expired idempotency key %s: %v", req.IdempotencyKey, err)
		}
		return nil, false, nil
	}

	if record.RequestHash != s.requestHash(req) {
		return nil, false, fmt.Errorf("idempotency key already used with different request data")
	}
	return record, true, nil
}

func (s *EnrollmentService) storeIdempotencyResult(ctx context.Context, req *SubmitSelectionRequest, response *SubmitSelectionResponse) error {
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response data: %w", err)
	}

	now := s.clock.Now()
	return s.idempotencyRepo.Create(ctx, &interfaces.IdempotencyRecord{
		Key:          req.IdempotencyKey,
		StudentID:    req.StudentID,
		RequestHash:  s.requestHash(req),
		ResponseData: string(responseJSON),
		StatusCode:   200,
		ProcessedAt:  now,
		ExpiresAt:    now.Add(IdempotencyRetention),
	})
}

func (s *EnrollmentService) requestHash(req *SubmitSelectionRequest) string {
	data := map[string]any{
		"student_id":   req.StudentID.String(),
		"offering_ids": req.OfferingIDs,
	}
	jsonData, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}

// dedupeIDs removes repeated ids preserving first-seen order. Submitting
// the same offering twice in one payload is set-equivalent to once.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
