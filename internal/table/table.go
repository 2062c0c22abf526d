package table

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"

	"gitlab.com/dirk.krummacker/person-palace/pkg/model"
)

// State is what the table body shows.
type State int

const (
	Loading State = iota
	Empty
	Populated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Empty:
		return "empty"
	default:
		return "populated"
	}
}

// Row is a table row with the availability of its actions.
type Row struct {
	Person        model.Person
	EditEnabled   bool
	DeleteEnabled bool
}

// View is a renderable snapshot of the table.
type View struct {
	State State
	Sort  SortState
	Rows  []Row
}

// Table holds the sort state of the persons table. The records themselves are passed in on
// every call.
type Table struct {
	sort SortState
	lang language.Tag
}

// New returns a table without a sort key that collates according to lang.
func New(lang language.Tag) *Table {
	return &Table{lang: lang}
}

// Sort returns the current sort state.
func (t *Table) Sort() SortState {
	return t.sort
}

// SetSort replaces the sort state.
func (t *Table) SetSort(s SortState) {
	t.sort = s
}

// Toggle handles a click on the header of col and returns the new sort state.
func (t *Table) Toggle(col Column) SortState {
	t.sort = t.sort.Toggle(col)
	return t.sort
}

// View builds the view of records. loading means the list is being fetched for the first time
// and takes precedence over an empty list. busy means a mutation is in flight and disables the
// row actions.
func (t *Table) View(records []model.Person, loading bool, busy bool) View {
	v := View{Sort: t.sort}
	switch {
	case loading:
		v.State = Loading
		return v
	case len(records) == 0:
		v.State = Empty
		return v
	}
	v.State = Populated
	for _, p := range SortPersons(records, t.sort, t.lang) {
		v.Rows = append(v.Rows, Row{Person: p, EditEnabled: !busy, DeleteEnabled: !busy})
	}
	return v
}

// Render writes the view as an aligned text table.
func Render(w io.Writer, v View) error {
	switch v.State {
	case Loading:
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	case Empty:
		_, err := fmt.Fprintln(w, "No persons found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := []string{"ID"}
	for _, c := range Columns {
		h := string(c)
		if c == v.Sort.Key {
			if v.Sort.Direction == Ascending {
				h += " ^"
			} else {
				h += " v"
			}
		}
		headers = append(headers, h)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, r := range v.Rows {
		p := r.Person
		fmt.Fprintln(tw, strings.Join([]string{p.ID, p.Name, deref(p.Company), deref(p.Title), deref(p.Phone), deref(p.DOB)}, "\t"))
	}
	return tw.Flush()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
