package table

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"gitlab.com/dirk.krummacker/person-palace/pkg/model"
)

// Column is a sortable column of the persons table.
type Column string

// The sortable columns. NoColumn means the records are shown in server order.
const (
	NoColumn Column = ""
	Name     Column = "Name"
	Company  Column = "Company"
	Title    Column = "Title"
	Phone    Column = "Phone"
	DOB      Column = "DOB"
)

// Columns lists the sortable columns in display order.
var Columns = []Column{Name, Company, Title, Phone, DOB}

// ParseColumn returns the column with the given name, ignoring case.
func ParseColumn(s string) (Column, error) {
	for _, c := range Columns {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return NoColumn, fmt.Errorf("unknown column %q", s)
}

// Direction is the sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// SortState is the sort key and direction of a table.
type SortState struct {
	Key       Column
	Direction Direction
}

// Toggle returns the state after a click on the header of col: a new column becomes the key in
// ascending order, a click on the current key flips the direction.
func (s SortState) Toggle(col Column) SortState {
	if s.Key != col {
		return SortState{Key: col, Direction: Ascending}
	}
	if s.Direction == Ascending {
		return SortState{Key: col, Direction: Descending}
	}
	return SortState{Key: col, Direction: Ascending}
}

// value returns the value of the column for p. Nil means the value is missing.
func value(p *model.Person, col Column) *string {
	var v *string
	switch col {
	case Name:
		v = &p.Name
	case Company:
		v = p.Company
	case Title:
		v = p.Title
	case Phone:
		v = p.Phone
	case DOB:
		v = p.DOB
	}
	if v == nil || *v == "" {
		return nil
	}
	return v
}

// SortPersons returns a sorted copy of records. Records with a missing value in the key column
// come last in both directions. Present values are compared with the collation rules of lang.
// The sort is stable, so sorting twice with the same state yields the same order.
func SortPersons(records []model.Person, state SortState, lang language.Tag) []model.Person {
	sorted := slices.Clone(records)
	if state.Key == NoColumn {
		return sorted
	}
	coll := collate.New(lang)
	slices.SortStableFunc(sorted, func(a, b model.Person) int {
		va, vb := value(&a, state.Key), value(&b, state.Key)
		switch {
		case va == nil && vb == nil:
			return 0
		case va == nil:
			return 1
		case vb == nil:
			return -1
		}
		c := coll.CompareString(*va, *vb)
		if state.Direction == Descending {
			c = -c
		}
		return c
	})
	return sorted
}
