package domain

// OfferingTree is the two-level grouping of a student's eligible offerings:
// subjects in first-seen order, class types in first-seen order within each
// subject, offerings appended in the order their rows arrived. Insertion
// order is kept explicitly with ordered key slices alongside the lookup
// maps, so consumers can rely on stable positions without depending on map
// iteration order.
type OfferingTree struct {
	Subjects []SubjectNode `json:"subjects"`

	index map[int64]*OfferingRow
}

// SubjectNode groups a subject's offerings by class type.
type SubjectNode struct {
	SubjectID   int64           `json:"subject_id"`
	SubjectCode string          `json:"subject_code"`
	SubjectName string          `json:"subject_name"`
	Lecturer    string          `json:"lecturer"`
	ClassTypes  []ClassTypeNode `json:"class_types"`
}

// ClassTypeNode holds the parallel sections of one class type.
type ClassTypeNode struct {
	ClassType ClassType     `json:"class_type"`
	Offerings []OfferingRow `json:"offerings"`
}

// BuildOfferingTree shapes projection rows into the nested tree. The first
// occurrence of a subject or class type establishes its position; later
// rows append into the established group.
func BuildOfferingTree(rows []OfferingRow) *OfferingTree {
	subjectOrder := make([]int64, 0, len(rows))
	subjectAt := make(map[int64]int)

	typeOrder := make(map[int64][]ClassType)
	typeAt := make(map[int64]map[ClassType]int)

	grouped := make(map[int64]map[ClassType][]OfferingRow)

	for _, row := range rows {
		if _, seen := subjectAt[row.SubjectID]; !seen {
			subjectAt[row.SubjectID] = len(subjectOrder)
			subjectOrder = append(subjectOrder, row.SubjectID)
			typeAt[row.SubjectID] = make(map[ClassType]int)
			grouped[row.SubjectID] = make(map[ClassType][]OfferingRow)
		}
		if _, seen := typeAt[row.SubjectID][row.ClassType]; !seen {
			typeAt[row.SubjectID][row.ClassType] = len(typeOrder[row.SubjectID])
			typeOrder[row.SubjectID] = append(typeOrder[row.SubjectID], row.ClassType)
		}
		grouped[row.SubjectID][row.ClassType] = append(grouped[row.SubjectID][row.ClassType], row)
	}

	tree := &OfferingTree{
		Subjects: make([]SubjectNode, 0, len(subjectOrder)),
		index:    make(map[int64]*OfferingRow, len(rows)),
	}

	for _, subjectID := range subjectOrder {
		first := grouped[subjectID][typeOrder[subjectID][0]][0]
		node := SubjectNode{
			SubjectID:   subjectID,
			SubjectCode: first.SubjectCode,
			SubjectName: first.SubjectName,
			Lecturer:    first.Lecturer,
			ClassTypes:  make([]ClassTypeNode, 0, len(typeOrder[subjectID])),
		}
		for _, classType := range typeOrder[subjectID] {
			node.ClassTypes = append(node.ClassTypes, ClassTypeNode{
				ClassType: classType,
				Offerings: grouped[subjectID][classType],
			})
		}
		tree.Subjects = append(tree.Subjects, node)
	}

	for i := range tree.Subjects {
		for j := range tree.Subjects[i].ClassTypes {
			offerings := tree.Subjects[i].ClassTypes[j].Offerings
			for k := range offerings {
				tree.index[offerings[k].OfferingID] = &offerings[k]
			}
		}
	}

	return tree
}

// Lookup resolves an offering id inside the tree. Offering ids are the only
// addressing key shared between the eligibility read and the commit call.
func (t *OfferingTree) Lookup(offeringID int64) (*OfferingRow, bool) {
	row, ok := t.index[offeringID]
	return row, ok
}

// Rebuild restores the id index after the tree crossed a serialization
// boundary (the index is not part of the JSON shape).
func (t *OfferingTree) Rebuild() {
	t.index = make(map[int64]*OfferingRow)
	for i := range t.Subjects {
		for j := range t.Subjects[i].ClassTypes {
			offerings := t.Subjects[i].ClassTypes[j].Offerings
			for k := range offerings {
				t.index[offerings[k].OfferingID] = &offerings[k]
			}
		}
	}
}

// OfferingCount returns the number of offerings in the tree.
func (t *OfferingTree) OfferingCount() int {
	return len(t.index)
}
