package service

import (
	"context"
	"sync"
	"testing"
	"time"

	domain "enrollment-platform/internal/domain/enrollment"
	"enrollment-platform/internal/infrastructure/cache"
	"enrollment-platform/internal/infrastructure/queue"
	"enrollment-platform/internal/infrastructure/repository"

	"github.com/google/uuid"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type enrollmentFixture struct {
	catalogRepo   *repository.MockCatalogRepository
	studentRepo   *repository.MockStudentRepository
	selectionRepo *repository.MockSelectionRepository
	service       *EnrollmentService
	clock         *fixedClock
	window        *domain.EnrollmentWindow
}

func newEnrollmentFixture(capacities map[int64]int) *enrollmentFixture {
	catalogRepo := repository.NewMockCatalogRepository()
	studentRepo := repository.NewMockStudentRepository()
	selectionRepo := repository.NewMockSelectionRepository(capacities)
	catalogRepo.AttachSelectionStore(selectionRepo)

	window := &domain.EnrollmentWindow{
		WindowID: 1,
		Name:     "Semester 1",
		StartsAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	clock := &fixedClock{now: time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)}

	cacheService := cache.NewMemoryCache()
	catalogService := NewCatalogService(catalogRepo, cacheService)
	enrollmentService := NewEnrollmentService(
		catalogService,
		catalogRepo,
		studentRepo,
		selectionRepo,
		repository.NewMockAuditRepository(),
		cacheService,
		queue.NewInMemoryQueue(100, 0),
		repository.NewMemoryIdempotencyRepository(),
		clock,
	)

	return &enrollmentFixture{
		catalogRepo:   catalogRepo,
		studentRepo:   studentRepo,
		selectionRepo: selectionRepo,
		service:       enrollmentService,
		clock:         clock,
		window:        window,
	}
}

func (f *enrollmentFixture) bind(studentID uuid.UUID, rows ...domain.OfferingRow) {
	f.studentRepo.Add(&domain.Student{
		StudentID:     studentID,
		StudentNumber: studentID.String()[:8],
		Status:        "active",
	})
	f.catalogRepo.BindStudent(studentID, f.window, rows)
}

func TestEnrollmentService_SubmitAndReadBack(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{101: 100, 102: 25, 201: 100})
	studentID := uuid.New()
	fixture.bind(studentID,
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
		testRow(102, 1, "CS101", domain.ClassTypeTutorial, 2, 600, 660, 25, 0),
		testRow(201, 2, "CS102", domain.ClassTypeLecture, 3, 540, 660, 100, 0),
	)

	response, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentID,
		OfferingIDs: []int64{101, 102, 201},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(response.AcceptedIDs) != 3 {
		t.Fatalf("Expected 3 accepted offerings, got %v", response.AcceptedIDs)
	}

	selection, err := fixture.service.CurrentSelection(context.Background(), studentID)
	if err != nil {
		t.Fatalf("Expected no error reading selection, got %v", err)
	}
	if selection.WindowID != 1 {
		t.Errorf("Expected window id 1, got %d", selection.WindowID)
	}
	if len(selection.OfferingIDs) != 3 {
		t.Errorf("Expected 3 held offerings, got %v", selection.OfferingIDs)
	}
}

func TestEnrollmentService_DuplicateIdsInPayloadAreSetEquivalent(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{101: 100})
	studentID := uuid.New()
	fixture.bind(studentID,
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
	)

	response, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentID,
		OfferingIDs: []int64{101, 101, 101},
	})
	if err != nil {
		t.Fatalf("Expected repeated ids to commit as a set, got %v", err)
	}
	if len(response.AcceptedIDs) != 1 || response.AcceptedIDs[0] != 101 {
		t.Errorf("Expected accepted [101], got %v", response.AcceptedIDs)
	}
}

func TestEnrollmentService_WindowBoundaries(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{101: 100})
	studentID := uuid.New()
	fixture.bind(studentID,
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
	)

	// Exactly at the opening instant: accepted.
	fixture.clock.Set(fixture.window.StartsAt)
	if _, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentID,
		OfferingIDs: []int64{101},
	}); err != nil {
		t.Fatalf("Expected submission at window start to succeed, got %v", err)
	}

	// Exactly at the closing instant: rejected.
	fixture.clock.Set(fixture.window.EndsAt)
	_, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentID,
		OfferingIDs: []int64{101},
	})
	domainErr, ok := domain.AsError(err)
	if !ok || domainErr.Kind != domain.KindNotFound {
		t.Fatalf("Expected NOT_FOUND at window end, got %v", err)
	}
	if domainErr.Reason != domain.ReasonWindowClosed {
		t.Errorf("Expected reason %s, got %s", domain.ReasonWindowClosed, domainErr.Reason)
	}
}

func TestEnrollmentService_PrivilegedBypassesWindowGate(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{101: 100})
	studentID := uuid.New()
	fixture.bind(studentID,
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
	)

	fixture.clock.Set(fixture.window.EndsAt.Add(24 * time.Hour))

	response, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentID,
		OfferingIDs: []int64{101},
		Privileged:  true,
	})
	if err != nil {
		t.Fatalf("Expected privileged submission outside the window to succeed, got %v", err)
	}
	if len(response.AcceptedIDs) != 1 {
		t.Errorf("Expected 1 accepted offering, got %v", response.AcceptedIDs)
	}
}

func TestEnrollmentService_PrivilegedStillValidated(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{101: 100, 201: 100})
	studentID := uuid.New()
	fixture.bind(studentID,
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
		testRow(201, 2, "CS102", domain.ClassTypeLecture, 1, 600, 720, 100, 0),
	)

	_, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentID,
		OfferingIDs: []int64{101, 201},
		Privileged:  true,
	})
	domainErr, ok := domain.AsError(err)
	if !ok || domainErr.Reason != domain.ReasonScheduleClash {
		t.Fatalf("Expected schedule clash for privileged caller, got %v", err)
	}
}

func TestEnrollmentService_ReplaceSupersedesPriorSelection(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{101: 1, 201: 100})
	studentA := uuid.New()
	studentB := uuid.New()
	rows := []domain.OfferingRow{
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 1, 0),
		testRow(201, 2, "CS102", domain.ClassTypeLecture, 2, 540, 660, 100, 0),
	}
	fixture.bind(studentA, rows...)
	fixture.bind(studentB, rows...)

	if _, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentA,
		OfferingIDs: []int64{101},
	}); err != nil {
		t.Fatalf("Expected first submission to succeed, got %v", err)
	}

	// Replacing releases the held seat atomically with the new commit.
	if _, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentA,
		OfferingIDs: []int64{201},
	}); err != nil {
		t.Fatalf("Expected replacement to succeed, got %v", err)
	}

	selection, err := fixture.service.CurrentSelection(context.Background(), studentA)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(selection.OfferingIDs) != 1 || selection.OfferingIDs[0] != 201 {
		t.Errorf("Expected held offerings [201], got %v", selection.OfferingIDs)
	}

	// The freed seat in 101 is available to another student.
	if _, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentB,
		OfferingIDs: []int64{101},
	}); err != nil {
		t.Fatalf("Expected freed seat to be claimable, got %v", err)
	}
}

func TestEnrollmentService_EmptySetWithdraws(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{101: 100})
	studentID := uuid.New()
	fixture.bind(studentID,
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
	)

	if _, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentID,
		OfferingIDs: []int64{101},
	}); err != nil {
		t.Fatalf("Expected submission to succeed, got %v", err)
	}

	response, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentID,
		OfferingIDs: nil,
	})
	if err != nil {
		t.Fatalf("Expected withdrawal to succeed, got %v", err)
	}
	if len(response.AcceptedIDs) != 0 {
		t.Errorf("Expected no accepted offerings, got %v", response.AcceptedIDs)
	}

	selection, err := fixture.service.CurrentSelection(context.Background(), studentID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(selection.OfferingIDs) != 0 {
		t.Errorf("Expected empty selection after withdrawal, got %v", selection.OfferingIDs)
	}
	if fixture.selectionRepo.ActiveCount(101) != 0 {
		t.Errorf("Expected offering 101 to have no holders, got %d", fixture.selectionRepo.ActiveCount(101))
	}
}

func TestEnrollmentService_NoCohortBinding(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{})

	studentID := uuid.New()
	fixture.studentRepo.Add(&domain.Student{
		StudentID:     studentID,
		StudentNumber: studentID.String()[:8],
		Status:        "active",
	})

	_, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentID,
		OfferingIDs: []int64{101},
	})
	domainErr, ok := domain.AsError(err)
	if !ok || domainErr.Kind != domain.KindNotFound {
		t.Fatalf("Expected NOT_FOUND for unbound student, got %v", err)
	}
	if domainErr.Reason != domain.ReasonNoCohortBinding {
		t.Errorf("Expected reason %s, got %s", domain.ReasonNoCohortBinding, domainErr.Reason)
	}
}

func TestEnrollmentService_UnknownStudentRejected(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{})

	_, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   uuid.New(),
		OfferingIDs: []int64{101},
	})
	domainErr, ok := domain.AsError(err)
	if !ok || domainErr.Kind != domain.KindNotFound {
		t.Fatalf("Expected NOT_FOUND for unknown student, got %v", err)
	}
	if domainErr.Reason != domain.ReasonNoCohortBinding {
		t.Errorf("Expected reason %s, got %s", domain.ReasonNoCohortBinding, domainErr.Reason)
	}
}

func TestEnrollmentService_InactiveStudentRejected(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{101: 30})
	row := testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 30, 0)

	studentID := uuid.New()
	fixture.studentRepo.Add(&domain.Student{
		StudentID:     studentID,
		StudentNumber: studentID.String()[:8],
		Status:        "suspended",
	})
	fixture.catalogRepo.BindStudent(studentID, fixture.window, []domain.OfferingRow{row})

	_, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:   studentID,
		OfferingIDs: []int64{101},
	})
	domainErr, ok := domain.AsError(err)
	if !ok || domainErr.Kind != domain.KindNotFound {
		t.Fatalf("Expected NOT_FOUND for inactive student, got %v", err)
	}
}

// TestEnrollmentService_ConcurrentSingleSeat drives many students at one
// seat. The commit-time recount must admit exactly one, with every other
// submission failing as a capacity conflict regardless of what the read-time
// check saw.
func TestEnrollmentService_ConcurrentSingleSeat(t *testing.T) {
	const contenders = 16

	fixture := newEnrollmentFixture(map[int64]int{101: 1})
	row := testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 1, 0)

	students := make([]uuid.UUID, contenders)
	for i := range students {
		students[i] = uuid.New()
		fixture.bind(students[i], row)
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
				StudentID:   students[idx],
				OfferingIDs: []int64{101},
			})
			errs[idx] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		domainErr, ok := domain.AsError(err)
		if !ok || domainErr.Kind != domain.KindConflict {
			t.Fatalf("Expected CONFLICT for losing contender, got %v", err)
		}
		if domainErr.Reason != domain.ReasonCapacityFull {
			t.Errorf("Expected reason %s, got %s", domain.ReasonCapacityFull, domainErr.Reason)
		}
	}

	if successes != 1 {
		t.Fatalf("Expected exactly 1 successful commit for 1 seat, got %d", successes)
	}
	if count := fixture.selectionRepo.ActiveCount(101); count != 1 {
		t.Fatalf("Expected 1 active holder of offering 101, got %d", count)
	}
}

func TestEnrollmentService_IdempotentReplay(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{101: 100})
	studentID := uuid.New()
	fixture.bind(studentID,
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
	)

	req := &SubmitSelectionRequest{
		StudentID:      studentID,
		OfferingIDs:    []int64{101},
		IdempotencyKey: "submit-once",
	}

	first, err := fixture.service.SubmitSelection(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected first submission to succeed, got %v", err)
	}

	// The retry replays the stored response even though the window has
	// closed in the meantime: nothing is re-validated or re-committed.
	fixture.clock.Set(fixture.window.EndsAt.Add(time.Hour))

	second, err := fixture.service.SubmitSelection(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected idempotent retry to succeed, got %v", err)
	}
	if len(second.AcceptedIDs) != len(first.AcceptedIDs) {
		t.Errorf("Expected replayed response %v, got %v", first.AcceptedIDs, second.AcceptedIDs)
	}
}

func TestEnrollmentService_IdempotencyKeyReuseWithDifferentPayload(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{101: 100, 201: 100})
	studentID := uuid.New()
	fixture.bind(studentID,
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
		testRow(201, 2, "CS102", domain.ClassTypeLecture, 2, 540, 660, 100, 0),
	)

	if _, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:      studentID,
		OfferingIDs:    []int64{101},
		IdempotencyKey: "reused-key",
	}); err != nil {
		t.Fatalf("Expected first submission to succeed, got %v", err)
	}

	_, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:      studentID,
		OfferingIDs:    []int64{201},
		IdempotencyKey: "reused-key",
	})
	if err == nil {
		t.Fatal("Expected error for key reuse with different payload, got nil")
	}
}

// TestEnrollmentService_IdempotencyRetentionFollowsClock pins record expiry
// to the service clock: a record stays replayable until the clock that
// stamped it moves past the retention window, and only then is the key
// released for a fresh submission.
func TestEnrollmentService_IdempotencyRetentionFollowsClock(t *testing.T) {
	fixture := newEnrollmentFixture(map[int64]int{101: 100, 201: 100})
	studentID := uuid.New()
	fixture.bind(studentID,
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
		testRow(201, 2, "CS102", domain.ClassTypeLecture, 2, 540, 660, 100, 0),
	)

	req := &SubmitSelectionRequest{
		StudentID:      studentID,
		OfferingIDs:    []int64{101},
		IdempotencyKey: "retained-key",
	}
	if _, err := fixture.service.SubmitSelection(context.Background(), req); err != nil {
		t.Fatalf("Expected first submission to succeed, got %v", err)
	}

	// Just inside retention the record replays, however far wall clock
	// has drifted from the injected one.
	fixture.clock.Set(fixture.clock.Now().Add(IdempotencyRetention - time.Minute))
	replayed, err := fixture.service.SubmitSelection(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected replay inside retention, got %v", err)
	}
	if len(replayed.AcceptedIDs) != 1 || replayed.AcceptedIDs[0] != 101 {
		t.Errorf("Expected replayed accepted ids [101], got %v", replayed.AcceptedIDs)
	}

	// Past retention the record is discarded and the key is reusable,
	// even with a different payload.
	fixture.clock.Set(fixture.clock.Now().Add(2 * time.Minute))
	fresh, err := fixture.service.SubmitSelection(context.Background(), &SubmitSelectionRequest{
		StudentID:      studentID,
		OfferingIDs:    []int64{201},
		IdempotencyKey: "retained-key",
	})
	if err != nil {
		t.Fatalf("Expected expired key to be reusable, got %v", err)
	}
	if len(fresh.AcceptedIDs) != 1 || fresh.AcceptedIDs[0] != 201 {
		t.Errorf("Expected fresh accepted ids [201], got %v", fresh.AcceptedIDs)
	}
}
