package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "enrollment-platform/internal/domain/enrollment"
	interfaces "enrollment-platform/internal/interfaces/infrastructure"

	"github.com/google/uuid"
)

var _ interfaces.SelectionRepository = (*MockSelectionRepository)(nil)

type selectionKey struct {
	studentID uuid.UUID
	windowID  int64
}

// MockSelectionRepository keeps selections in memory behind one mutex,
// mirroring the transactional contract of the SQL store: the capacity
// recount and the replace happen under the same critical section, and a
// capacity failure leaves prior state untouched.
type MockSelectionRepository struct {
	mu         sync.Mutex
	capacities map[int64]int
	active     map[selectionKey][]int64
}

// NewMockSelectionRepository takes per-offering capacities used by the
// commit-time recount.
func NewMockSelectionRepository(capacities map[int64]int) *MockSelectionRepository {
	return &MockSelectionRepository{
		capacities: capacities,
		active:     make(map[selectionKey][]int64),
	}
}

func (r *MockSelectionRepository) CurrentSelection(ctx context.Context, studentID uuid.UUID, windowID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	held := r.active[selectionKey{studentID, windowID}]
	out := make([]int64, len(held))
	copy(out, held)
	return out, nil
}

func (r *MockSelectionRepository) ReplaceSelection(ctx context.Context, studentID uuid.UUID, windowID int64, offeringIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := selectionKey{studentID, windowID}

	// Count active holders per candidate offering, excluding this
	// student's own rows: they are superseded before the recount in the
	// real store.
	var fullIDs []int64
	for _, offeringID := range offeringIDs {
		capacity, ok := r.capacities[offeringID]
		if !ok {
			return domain.NewNotFound(domain.ReasonUnknownOffering,
				fmt.Sprintf("offering %d no longer exists", offeringID), offeringID)
		}
		count := 0
		for holder, held := range r.active {
			if holder == key {
				continue
			}
			for _, id := range held {
				if id == offeringID {
					count++
				}
			}
		}
		if count >= capacity {
			fullIDs = append(fullIDs, offeringID)
		}
	}
	if len(fullIDs) > 0 {
		sort.Slice(fullIDs, func(i, j int) bool { return fullIDs[i] < fullIDs[j] })
		return domain.NewConflict(domain.ReasonCapacityFull,
			"selected offering(s) filled up before your submission committed", fullIDs...)
	}

	if len(offeringIDs) == 0 {
		delete(r.active, key)
		return nil
	}

	replaced := make([]int64, len(offeringIDs))
	copy(replaced, offeringIDs)
	sort.Slice(replaced, func(i, j int) bool { return replaced[i] < replaced[j] })
	r.active[key] = replaced
	return nil
}

// ActiveCount returns the number of students currently holding an offering.
func (r *MockSelectionRepository) ActiveCount(offeringID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, held := range r.active {
		for _, id := range held {
			if id == offeringID {
				count++
			}
		}
	}
	return count
}
