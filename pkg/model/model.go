package model

import "time"

// DateLayout is the wire format of the DOB field.
const DateLayout = "2006-01-02"

// MaxTextLength is the largest allowed number of characters for Company and Title.
const MaxTextLength = 50

// Person is the data structure for a person that we know.
// All fields with the exception of the ID and Name fields are optional. The ID is assigned by the
// server on creation and never changes afterwards.
type Person struct {
	ID      string  `json:"id"                db:"id"`
	Name    string  `json:"Name"              db:"name"`
	Company *string `json:"Company,omitempty" db:"company"`
	Title   *string `json:"Title,omitempty"   db:"title"`
	Phone   *string `json:"Phone,omitempty"   db:"phone"`
	DOB     *string `json:"DOB,omitempty"     db:"dob"`
}

// PersonCreate is the request body for creating a person. It has no ID field because the ID is
// assigned by the server.
type PersonCreate struct {
	Name    string  `json:"Name"              db:"name"    binding:"required"`
	Company *string `json:"Company,omitempty" db:"company" binding:"omitempty,max=50"`
	Title   *string `json:"Title,omitempty"   db:"title"   binding:"omitempty,max=50"`
	Phone   *string `json:"Phone,omitempty"   db:"phone"`
	DOB     *string `json:"DOB,omitempty"     db:"dob"     binding:"omitempty,datetime=2006-01-02"`
}

// PersonUpdate is the request body for a partial update. A nil field is unset: it is omitted from
// the JSON and left unchanged on the server. A pointer to an empty string clears the field.
type PersonUpdate struct {
	Name    *string `json:"Name,omitempty"    binding:"omitempty,min=1"`
	Company *string `json:"Company,omitempty" binding:"omitempty,max=50"`
	Title   *string `json:"Title,omitempty"   binding:"omitempty,max=50"`
	Phone   *string `json:"Phone,omitempty"`
	DOB     *string `json:"DOB,omitempty"     binding:"omitempty,datetime=2006-01-02"`
}

// IsEmpty returns true if no field of the update is set.
func (u PersonUpdate) IsEmpty() bool {
	return u.Name == nil && u.Company == nil && u.Title == nil && u.Phone == nil && u.DOB == nil
}

// Create converts the update into a creation request. An unset name becomes the empty string.
func (u PersonUpdate) Create() PersonCreate {
	c := PersonCreate{
		Company: u.Company,
		Title:   u.Title,
		Phone:   u.Phone,
		DOB:     u.DOB,
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	return c
}

// Apply returns a copy of p with all set fields of u written over it. The ID is kept.
func (u PersonUpdate) Apply(p Person) Person {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Company != nil {
		p.Company = u.Company
	}
	if u.Title != nil {
		p.Title = u.Title
	}
	if u.Phone != nil {
		p.Phone = u.Phone
	}
	if u.DOB != nil {
		p.DOB = u.DOB
	}
	return p
}

// ParseDate parses a wire date of the form yyyy-mm-dd.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate formats the calendar date of t as yyyy-mm-dd.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}
