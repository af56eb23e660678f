package repository

import (
	"context"
	"sync"

	domain "enrollment-platform/internal/domain/enrollment"
	interfaces "enrollment-platform/internal/interfaces/infrastructure"

	"github.com/google/uuid"
)

var _ interfaces.StudentRepository = (*MockStudentRepository)(nil)

// MockStudentRepository serves student records from memory.
type MockStudentRepository struct {
	mu       sync.Mutex
	students map[uuid.UUID]*domain.Student
}

func NewMockStudentRepository() *MockStudentRepository {
	return &MockStudentRepository{
		students: make(map[uuid.UUID]*domain.Student),
	}
}

// Add registers a student record.
func (r *MockStudentRepository) Add(student *domain.Student) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.students[student.StudentID] = student
}

func (r *MockStudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	student, ok := r.students[id]
	if !ok {
		return nil, nil
	}
	copied := *student
	return &copied, nil
}

func (r *MockStudentRepository) GetByStudentNumber(ctx context.Context, studentNumber string) (*domain.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, student := range r.students {
		if student.StudentNumber == studentNumber {
			copied := *student
			return &copied, nil
		}
	}
	return nil, nil
}

var _ interfaces.AuditRepository = (*MockAuditRepository)(nil)

// MockAuditRepository collects audit records in memory.
type MockAuditRepository struct {
	mu     sync.Mutex
	audits []*domain.SelectionAudit
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (r *MockAuditRepository) Create(ctx context.Context, audit *domain.SelectionAudit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits = append(r.audits, audit)
	return nil
}

func (r *MockAuditRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*domain.SelectionAudit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.SelectionAudit
	for _, audit := range r.audits {
		if audit.StudentID == studentID {
			out = append(out, audit)
		}
	}
	return out, nil
}
