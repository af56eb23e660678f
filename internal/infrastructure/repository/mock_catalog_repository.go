package repository

import (
	"context"
	"sync"

	domain "enrollment-platform/internal/domain/enrollment"
	interfaces "enrollment-platform/internal/interfaces/infrastructure"

	"github.com/google/uuid"
)

var _ interfaces.CatalogRepository = (*MockCatalogRepository)(nil)

// MockCatalogRepository serves a fixed catalog from memory. Enrolled counts
// are derived live from an attached MockSelectionRepository so read-time
// capacity behaves like the SQL projection does.
type MockCatalogRepository struct {
	mu       sync.RWMutex
	windows  map[uuid.UUID]*domain.EnrollmentWindow
	rows     map[uuid.UUID][]domain.OfferingRow
	selStore *MockSelectionRepository
}

func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{
		windows: make(map[uuid.UUID]*domain.EnrollmentWindow),
		rows:    make(map[uuid.UUID][]domain.OfferingRow),
	}
}

// BindStudent registers a student's window binding and eligible rows.
func (r *MockCatalogRepository) BindStudent(studentID uuid.UUID, window *domain.EnrollmentWindow, rows []domain.OfferingRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[studentID] = window
	r.rows[studentID] = rows
}

// AttachSelectionStore wires the store used to derive enrolled counts.
func (r *MockCatalogRepository) AttachSelectionStore(store *MockSelectionRepository) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selStore = store
}

func (r *MockCatalogRepository) FetchEligibleOfferings(ctx context.Context, studentID uuid.UUID) (*domain.EnrollmentWindow, []domain.OfferingRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	window, ok := r.windows[studentID]
	if !ok {
		return nil, nil, domain.NewNotFound(domain.ReasonNoCohortBinding,
			"student has no active enrollment window")
	}

	rows := make([]domain.OfferingRow, len(r.rows[studentID]))
	copy(rows, r.rows[studentID])
	if r.selStore != nil {
		for i := range rows {
			rows[i].Enrolled = r.selStore.ActiveCount(rows[i].OfferingID)
		}
	}

	windowCopy := *window
	return &windowCopy, rows, nil
}

func (r *MockCatalogRepository) FetchEnrolledCount(ctx context.Context, offeringID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.selStore != nil {
		return r.selStore.ActiveCount(offeringID), nil
	}
	return 0, nil
}
