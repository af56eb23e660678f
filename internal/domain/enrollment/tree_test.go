package domain

import (
	"encoding/json"
	"testing"
)

func sampleRows() []OfferingRow {
	return []OfferingRow{
		{OfferingID: 101, SubjectID: 1, SubjectCode: "CS101", SubjectName: "Programming I", Lecturer: "Dr. Stone", ClassType: ClassTypeLecture, GroupNumber: 1, Venue: "LT-1", DayOfWeek: 1, StartMinute: 540, EndMinute: 660, Capacity: 120},
		{OfferingID: 102, SubjectID: 1, SubjectCode: "CS101", SubjectName: "Programming I", Lecturer: "Dr. Stone", ClassType: ClassTypeLecture, GroupNumber: 2, Venue: "LT-2", DayOfWeek: 2, StartMinute: 540, EndMinute: 660, Capacity: 120},
		{OfferingID: 103, SubjectID: 1, SubjectCode: "CS101", SubjectName: "Programming I", Lecturer: "Dr. Stone", ClassType: ClassTypeTutorial, GroupNumber: 1, Venue: "TR-5", DayOfWeek: 3, StartMinute: 600, EndMinute: 720, Capacity: 30},
		{OfferingID: 205, SubjectID: 2, SubjectCode: "MA102", SubjectName: "Calculus", Lecturer: "Prof. Reed", ClassType: ClassTypeLecture, GroupNumber: 1, Venue: "LT-3", DayOfWeek: 4, StartMinute: 480, EndMinute: 600, Capacity: 200},
		{OfferingID: 206, SubjectID: 2, SubjectCode: "MA102", SubjectName: "Calculus", Lecturer: "Prof. Reed", ClassType: ClassTypePractical, GroupNumber: 1, Venue: "Lab-1", DayOfWeek: 5, StartMinute: 840, EndMinute: 960, Capacity: 25},
	}
}

func TestBuildOfferingTree_GroupingOrder(t *testing.T) {
	tree := BuildOfferingTree(sampleRows())

	if len(tree.Subjects) != 2 {
		t.Fatalf("Expected 2 subjects, got %d", len(tree.Subjects))
	}

	first := tree.Subjects[0]
	if first.SubjectCode != "CS101" {
		t.Errorf("Expected first subject CS101 (first occurrence wins), got %s", first.SubjectCode)
	}
	if len(first.ClassTypes) != 2 {
		t.Fatalf("Expected 2 class types under CS101, got %d", len(first.ClassTypes))
	}
	if first.ClassTypes[0].ClassType != ClassTypeLecture {
		t.Errorf("Expected lecture class type first, got %s", first.ClassTypes[0].ClassType)
	}
	if len(first.ClassTypes[0].Offerings) != 2 {
		t.Errorf("Expected 2 parallel lecture sections, got %d", len(first.ClassTypes[0].Offerings))
	}
	if first.ClassTypes[0].Offerings[0].OfferingID != 101 || first.ClassTypes[0].Offerings[1].OfferingID != 102 {
		t.Error("Expected lecture sections to keep row order 101, 102")
	}

	second := tree.Subjects[1]
	if second.SubjectCode != "MA102" {
		t.Errorf("Expected second subject MA102, got %s", second.SubjectCode)
	}
	if second.Lecturer != "Prof. Reed" {
		t.Errorf("Expected lecturer Prof. Reed, got %s", second.Lecturer)
	}
}

func TestOfferingTree_Lookup(t *testing.T) {
	tree := BuildOfferingTree(sampleRows())

	row, ok := tree.Lookup(206)
	if !ok {
		t.Fatal("Expected offering 206 to be indexed")
	}
	if row.ClassType != ClassTypePractical || row.Venue != "Lab-1" {
		t.Errorf("Lookup returned wrong row: %+v", row)
	}

	if _, ok := tree.Lookup(999); ok {
		t.Error("Expected lookup of unknown offering to fail")
	}

	if tree.OfferingCount() != 5 {
		t.Errorf("Expected 5 offerings indexed, got %d", tree.OfferingCount())
	}
}

func TestOfferingTree_RebuildAfterSerialization(t *testing.T) {
	tree := BuildOfferingTree(sampleRows())

	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("Failed to marshal tree: %v", err)
	}

	var restored OfferingTree
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal tree: %v", err)
	}

	if _, ok := restored.Lookup(101); ok {
		t.Fatal("Expected index to be empty before Rebuild")
	}

	restored.Rebuild()
	row, ok := restored.Lookup(101)
	if !ok {
		t.Fatal("Expected offering 101 after Rebuild")
	}
	if row.SubjectCode != "CS101" {
		t.Errorf("Expected subject CS101, got %s", row.SubjectCode)
	}
}

func TestClassOffering_OverlapsWith(t *testing.T) {
	a := &ClassOffering{DayOfWeek: 1, StartMinute: 540, EndMinute: 660}

	cases := []struct {
		name    string
		other   ClassOffering
		overlap bool
	}{
		{"same interval", ClassOffering{DayOfWeek: 1, StartMinute: 540, EndMinute: 660}, true},
		{"partial overlap", ClassOffering{DayOfWeek: 1, StartMinute: 600, EndMinute: 720}, true},
		{"touching end to start", ClassOffering{DayOfWeek: 1, StartMinute: 660, EndMinute: 780}, false},
		{"touching start to end", ClassOffering{DayOfWeek: 1, StartMinute: 480, EndMinute: 540}, false},
		{"different day", ClassOffering{DayOfWeek: 2, StartMinute: 540, EndMinute: 660}, false},
		{"contained", ClassOffering{DayOfWeek: 1, StartMinute: 570, EndMinute: 630}, true},
	}

	for _, tc := range cases {
		if got := a.OverlapsWith(&tc.other); got != tc.overlap {
			t.Errorf("%s: expected overlap=%v, got %v", tc.name, tc.overlap, got)
		}
	}
}
