package service

import (
	"fmt"

	domain "enrollment-platform/internal/domain/enrollment"
)

// SelectionValidator is the pure decision core of the resolver. It holds no
// state and performs no I/O: given the eligible universe, the candidate
// offering ids and the student's currently held set, it either accepts the
// batch or fails with a domain error naming every offending offering.
//
// Checks run in stages. Within a stage every violation in the batch is
// collected before failing, so one response reports every problem of that
// category at once.
type SelectionValidator struct{}

func NewSelectionValidator() *SelectionValidator {
	return &SelectionValidator{}
}

// Validate runs membership, duplicate-class-type, schedule-collision and
// capacity checks against the candidate batch. The capacity check here is
// read-time only; the selection store repeats it under its commit
// transaction, which is the authoritative gate.
func (v *SelectionValidator) Validate(universe *domain.EligibleUniverse, candidateIDs []int64, held map[int64]bool) ([]int64, error) {
	// Membership: every candidate must resolve inside the universe.
	var unknownIDs []int64
	rows := make([]*domain.OfferingRow, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		row, ok := universe.Tree.Lookup(id)
		if !ok {
			unknownIDs = append(unknownIDs, id)
			continue
		}
		rows = append(rows, row)
	}
	if len(unknownIDs) > 0 {
		return nil, domain.NewNotFound(domain.ReasonUnknownOffering,
			fmt.Sprintf("%d selected offering(s) do not exist in your eligible catalog", len(unknownIDs)),
			unknownIDs...)
	}

	// One offering per (subject, class type). Evaluated independently of
	// the collision check: catalog data could in principle let two
	// sections of the same class type avoid a time clash, and that must
	// still be rejected here.
	type subjectTypeKey struct {
		subjectID int64
		classType domain.ClassType
	}
	byKey := make(map[subjectTypeKey][]int64)
	keyOrder := make([]subjectTypeKey, 0, len(rows))
	for _, row := range rows {
		key := subjectTypeKey{row.SubjectID, row.ClassType}
		if _, seen := byKey[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		byKey[key] = append(byKey[key], row.OfferingID)
	}
	var duplicateIDs []int64
	for _, key := range keyOrder {
		if ids := byKey[key]; len(ids) > 1 {
			duplicateIDs = append(duplicateIDs, ids...)
		}
	}
	if len(duplicateIDs) > 0 {
		return nil, domain.NewConflict(domain.ReasonDuplicateClassType,
			"you may hold at most one section per class type of a subject",
			duplicateIDs...)
	}

	// Pairwise schedule collision, keyed by day. Re-selecting the
	// identical offering is not a clash with itself; any other same-day
	// overlap is, regardless of subject.
	clashSet := make(map[int64]bool)
	var clashIDs []int64
	markClash := func(id int64) {
		if !clashSet[id] {
			clashSet[id] = true
			clashIDs = append(clashIDs, id)
		}
	}
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			if rows[i].OfferingID == rows[j].OfferingID {
				continue
			}
			if rows[i].Overlaps(rows[j]) {
				markClash(rows[i].OfferingID)
				markClash(rows[j].OfferingID)
			}
		}
	}
	if len(clashIDs) > 0 {
		return nil, domain.NewConflict(domain.ReasonScheduleClash,
			"selected offerings overlap in time", clashIDs...)
	}

	// Read-time capacity. An offering the student already holds is not a
	// net-new seat, so re-selecting it at full capacity is fine.
	var fullIDs []int64
	for _, row := range rows {
		if row.Enrolled >= row.Capacity && !held[row.OfferingID] {
			fullIDs = append(fullIDs, row.OfferingID)
		}
	}
	if len(fullIDs) > 0 {
		return nil, domain.NewConflict(domain.ReasonCapacityFull,
			"selected offering(s) have no remaining seats", fullIDs...)
	}

	accepted := make([]int64, 0, len(rows))
	for _, row := range rows {
		accepted = append(accepted, row.OfferingID)
	}
	return accepted, nil
}
