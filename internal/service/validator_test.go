package service

import (
	"testing"
	"time"

	domain "enrollment-platform/internal/domain/enrollment"
)

func testRow(id, subjectID int64, code string, classType domain.ClassType, day, start, end, capacity, enrolled int) domain.OfferingRow {
	return domain.OfferingRow{
		OfferingID:  id,
		GroupID:     subjectID,
		SubjectID:   subjectID,
		SubjectCode: code,
		SubjectName: code,
		Lecturer:    "Dr. Test",
		ClassType:   classType,
		GroupNumber: 1,
		Venue:       "Room 1",
		DayOfWeek:   day,
		StartMinute: start,
		EndMinute:   end,
		Capacity:    capacity,
		Enrolled:    enrolled,
	}
}

func testUniverse(rows ...domain.OfferingRow) *domain.EligibleUniverse {
	return &domain.EligibleUniverse{
		Window: &domain.EnrollmentWindow{
			WindowID: 1,
			Name:     "Semester 1",
			StartsAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		Tree: domain.BuildOfferingTree(rows),
	}
}

func TestSelectionValidator_AcceptsValidSelection(t *testing.T) {
	validator := NewSelectionValidator()
	universe := testUniverse(
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 10),
		testRow(102, 1, "CS101", domain.ClassTypeTutorial, 2, 600, 660, 25, 5),
		testRow(201, 2, "CS102", domain.ClassTypeLecture, 3, 540, 660, 100, 20),
	)

	accepted, err := validator.Validate(universe, []int64{101, 102, 201}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(accepted) != 3 {
		t.Fatalf("Expected 3 accepted offerings, got %d", len(accepted))
	}
	for i, want := range []int64{101, 102, 201} {
		if accepted[i] != want {
			t.Errorf("Expected accepted[%d] = %d, got %d", i, want, accepted[i])
		}
	}
}

func TestSelectionValidator_UnknownOfferings(t *testing.T) {
	validator := NewSelectionValidator()
	universe := testUniverse(
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
	)

	_, err := validator.Validate(universe, []int64{101, 999, 888}, nil)
	if err == nil {
		t.Fatal("Expected error for unknown offerings, got nil")
	}

	domainErr, ok := domain.AsError(err)
	if !ok {
		t.Fatalf("Expected domain error, got %v", err)
	}
	if domainErr.Kind != domain.KindNotFound {
		t.Errorf("Expected kind %s, got %s", domain.KindNotFound, domainErr.Kind)
	}
	if domainErr.Reason != domain.ReasonUnknownOffering {
		t.Errorf("Expected reason %s, got %s", domain.ReasonUnknownOffering, domainErr.Reason)
	}
	// Every unknown id is reported, not just the first.
	if len(domainErr.OfferingIDs) != 2 {
		t.Fatalf("Expected 2 offending ids, got %v", domainErr.OfferingIDs)
	}
	if domainErr.OfferingIDs[0] != 999 || domainErr.OfferingIDs[1] != 888 {
		t.Errorf("Expected offending ids [999 888], got %v", domainErr.OfferingIDs)
	}
}

func TestSelectionValidator_DuplicateClassType(t *testing.T) {
	validator := NewSelectionValidator()
	// Two tutorial sections of the same subject on different days: no time
	// clash, still rejected as a duplicate class type.
	universe := testUniverse(
		testRow(101, 1, "CS101", domain.ClassTypeTutorial, 1, 540, 600, 25, 0),
		testRow(102, 1, "CS101", domain.ClassTypeTutorial, 2, 540, 600, 25, 0),
		testRow(103, 1, "CS101", domain.ClassTypeLecture, 3, 540, 660, 100, 0),
	)

	_, err := validator.Validate(universe, []int64{101, 102, 103}, nil)
	if err == nil {
		t.Fatal("Expected error for duplicate class type, got nil")
	}

	domainErr, ok := domain.AsError(err)
	if !ok || domainErr.Kind != domain.KindConflict {
		t.Fatalf("Expected CONFLICT domain error, got %v", err)
	}
	if domainErr.Reason != domain.ReasonDuplicateClassType {
		t.Errorf("Expected reason %s, got %s", domain.ReasonDuplicateClassType, domainErr.Reason)
	}
	if len(domainErr.OfferingIDs) != 2 {
		t.Fatalf("Expected both duplicate ids, got %v", domainErr.OfferingIDs)
	}
	if domainErr.OfferingIDs[0] != 101 || domainErr.OfferingIDs[1] != 102 {
		t.Errorf("Expected offending ids [101 102], got %v", domainErr.OfferingIDs)
	}
}

func TestSelectionValidator_ScheduleClash(t *testing.T) {
	validator := NewSelectionValidator()
	universe := testUniverse(
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
		testRow(201, 2, "CS102", domain.ClassTypeLecture, 1, 600, 720, 100, 0),
		testRow(301, 3, "CS201", domain.ClassTypeLecture, 2, 540, 660, 100, 0),
	)

	_, err := validator.Validate(universe, []int64{101, 201, 301}, nil)
	if err == nil {
		t.Fatal("Expected error for schedule clash, got nil")
	}

	domainErr, ok := domain.AsError(err)
	if !ok || domainErr.Kind != domain.KindConflict {
		t.Fatalf("Expected CONFLICT domain error, got %v", err)
	}
	if domainErr.Reason != domain.ReasonScheduleClash {
		t.Errorf("Expected reason %s, got %s", domain.ReasonScheduleClash, domainErr.Reason)
	}
	if len(domainErr.OfferingIDs) != 2 {
		t.Fatalf("Expected the 2 clashing ids, got %v", domainErr.OfferingIDs)
	}
	if domainErr.OfferingIDs[0] != 101 || domainErr.OfferingIDs[1] != 201 {
		t.Errorf("Expected offending ids [101 201], got %v", domainErr.OfferingIDs)
	}
}

func TestSelectionValidator_TouchingIntervalsDoNotClash(t *testing.T) {
	validator := NewSelectionValidator()
	// One ends at minute 660, the next starts at 660: back to back is fine.
	universe := testUniverse(
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
		testRow(201, 2, "CS102", domain.ClassTypeLecture, 1, 660, 780, 100, 0),
	)

	accepted, err := validator.Validate(universe, []int64{101, 201}, nil)
	if err != nil {
		t.Fatalf("Expected no error for touching intervals, got %v", err)
	}
	if len(accepted) != 2 {
		t.Errorf("Expected 2 accepted offerings, got %d", len(accepted))
	}
}

func TestSelectionValidator_CapacityFull(t *testing.T) {
	validator := NewSelectionValidator()
	universe := testUniverse(
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 30, 30),
		testRow(201, 2, "CS102", domain.ClassTypeLecture, 2, 540, 660, 30, 10),
	)

	_, err := validator.Validate(universe, []int64{101, 201}, nil)
	if err == nil {
		t.Fatal("Expected error for full offering, got nil")
	}

	domainErr, ok := domain.AsError(err)
	if !ok || domainErr.Kind != domain.KindConflict {
		t.Fatalf("Expected CONFLICT domain error, got %v", err)
	}
	if domainErr.Reason != domain.ReasonCapacityFull {
		t.Errorf("Expected reason %s, got %s", domain.ReasonCapacityFull, domainErr.Reason)
	}
	if len(domainErr.OfferingIDs) != 1 || domainErr.OfferingIDs[0] != 101 {
		t.Errorf("Expected offending ids [101], got %v", domainErr.OfferingIDs)
	}
}

func TestSelectionValidator_HeldOfferingExemptFromCapacity(t *testing.T) {
	validator := NewSelectionValidator()
	// The student already holds 101; re-selecting it at full capacity is not
	// a net-new seat.
	universe := testUniverse(
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 30, 30),
	)

	held := map[int64]bool{101: true}
	accepted, err := validator.Validate(universe, []int64{101}, held)
	if err != nil {
		t.Fatalf("Expected held offering to pass the capacity check, got %v", err)
	}
	if len(accepted) != 1 || accepted[0] != 101 {
		t.Errorf("Expected accepted [101], got %v", accepted)
	}
}

func TestSelectionValidator_MembershipCheckedBeforeConflicts(t *testing.T) {
	validator := NewSelectionValidator()
	// Batch contains both an unknown id and a duplicate class type pair; the
	// membership failure wins.
	universe := testUniverse(
		testRow(101, 1, "CS101", domain.ClassTypeTutorial, 1, 540, 600, 25, 0),
		testRow(102, 1, "CS101", domain.ClassTypeTutorial, 2, 540, 600, 25, 0),
	)

	_, err := validator.Validate(universe, []int64{101, 102, 999}, nil)
	domainErr, ok := domain.AsError(err)
	if !ok {
		t.Fatalf("Expected domain error, got %v", err)
	}
	if domainErr.Reason != domain.ReasonUnknownOffering {
		t.Errorf("Expected reason %s, got %s", domain.ReasonUnknownOffering, domainErr.Reason)
	}
}

func TestSelectionValidator_EmptyCandidateSet(t *testing.T) {
	validator := NewSelectionValidator()
	universe := testUniverse(
		testRow(101, 1, "CS101", domain.ClassTypeLecture, 1, 540, 660, 100, 0),
	)

	accepted, err := validator.Validate(universe, nil, nil)
	if err != nil {
		t.Fatalf("Expected empty set to validate, got %v", err)
	}
	if len(accepted) != 0 {
		t.Errorf("Expected no accepted offerings, got %v", accepted)
	}
}
