// Package form implements the person form: its open/closed state, the field values, their
// validation and the conversion into a request payload.
package form

import (
	"errors"
	"time"

	"gitlab.com/dirk.krummacker/person-palace/pkg/model"
)

// ErrClosed is returned when a closed form is submitted.
var ErrClosed = errors.New("form is not open")

// Mode tells whether the form creates a new person or edits an existing one.
type Mode int

const (
	Create Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "create"
}

// Values are the form fields. An empty string means the field was left blank. DOB is a date for
// the picker; it is nil when no date is chosen.
type Values struct {
	Name    string `validate:"required"`
	Company string `validate:"max=50"`
	Title   string `validate:"max=50"`
	Phone   string
	DOB     *time.Time
}

// ValuesFrom returns the form values for editing p. A DOB that cannot be parsed is dropped.
func ValuesFrom(p model.Person) Values {
	v := Values{
		Name:    p.Name,
		Company: deref(p.Company),
		Title:   deref(p.Title),
		Phone:   deref(p.Phone),
	}
	if p.DOB != nil && *p.DOB != "" {
		if d, err := model.ParseDate(*p.DOB); err == nil {
			v.DOB = &d
		}
	}
	return v
}

// Form is a reusable create/edit form. It does not call the API itself; Submit hands the payload
// to the caller.
type Form struct {
	open   bool
	mode   Mode
	values Values
	busy   bool
}

// New returns a closed form.
func New() *Form {
	return &Form{}
}

// Open opens the form. On the transition from closed to open the values are reset: to the
// values of defaults in edit mode, or to blank values in create mode when defaults is nil.
// Opening an open form changes nothing.
func (f *Form) Open(defaults *model.Person) {
	if f.open {
		return
	}
	f.open = true
	f.busy = false
	if defaults == nil {
		f.mode = Create
		f.values = Values{}
		return
	}
	f.mode = Edit
	f.values = ValuesFrom(*defaults)
}

// Close closes the form. The values are kept until the next Open resets them.
func (f *Form) Close() {
	f.open = false
	f.busy = false
}

func (f *Form) IsOpen() bool   { return f.open }
func (f *Form) Mode() Mode     { return f.mode }
func (f *Form) Values() Values { return f.values }

// SetValues replaces the field values, as typing into the inputs would.
func (f *Form) SetValues(v Values) {
	f.values = v
}

// SetBusy marks the form as saving. The caller sets it while a request is in flight.
func (f *Form) SetBusy(busy bool) { f.busy = busy }
func (f *Form) Busy() bool        { return f.busy }

// SubmitLabel is the caption of the submit button.
func (f *Form) SubmitLabel() string {
	if f.busy {
		return "Saving..."
	}
	return "Save"
}

// Validate checks the current values. It returns nil or ValidationErrors.
func (f *Form) Validate() error {
	return check(f.values)
}

// Submit validates the values and returns the request payload. The payload never contains the
// identifier. The date of birth is sent as yyyy-mm-dd or omitted when no date is chosen. In
// create mode blank optional fields are omitted; in edit mode they are sent as empty strings so
// that clearing a field clears it on the server.
func (f *Form) Submit() (model.PersonUpdate, error) {
	if !f.open {
		return model.PersonUpdate{}, ErrClosed
	}
	if err := f.Validate(); err != nil {
		return model.PersonUpdate{}, err
	}
	v := f.values
	payload := model.PersonUpdate{Name: model.String(v.Name)}
	optional := func(s string) *string {
		if s == "" && f.mode == Create {
			return nil
		}
		return model.String(s)
	}
	payload.Company = optional(v.Company)
	payload.Title = optional(v.Title)
	payload.Phone = optional(v.Phone)
	if v.DOB != nil {
		payload.DOB = model.String(model.FormatDate(*v.DOB))
	}
	return payload, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
