// Package page holds the state of the persons page: the cached list, the sortable table, the
// person form and the delete confirmation. It issues the API calls and refreshes the list after
// every successful mutation.
package page

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"gitlab.com/dirk.krummacker/person-palace/internal/confirm"
	"gitlab.com/dirk.krummacker/person-palace/internal/form"
	"gitlab.com/dirk.krummacker/person-palace/internal/logging"
	"gitlab.com/dirk.krummacker/person-palace/internal/notify"
	"gitlab.com/dirk.krummacker/person-palace/internal/query"
	"gitlab.com/dirk.krummacker/person-palace/internal/table"
	"gitlab.com/dirk.krummacker/person-palace/pkg/model"
)

// PersonsKey is the cache key of the persons list.
const PersonsKey = "persons"

// Notification texts.
const (
	titleError     = "Error"
	titleSaved     = "Saved!"
	titleDeleted   = "Deleted!"
	textSaved      = "Person was successfully saved."
	textDeleted    = "Person was removed."
	textSaveFailed = "Failed to save person."
	textDelFailed  = "Failed to delete person."
	textNoDeleteID = "Cannot delete: person ID is missing."
	textNoUpdateID = "Cannot update: person ID is missing."
)

var (
	// ErrBusy is returned when a mutation is requested while the same kind of mutation is
	// still in flight.
	ErrBusy = errors.New("a request is already in flight")
	// ErrNotConfirming is returned by ConfirmDelete when no delete awaits confirmation.
	ErrNotConfirming = errors.New("no delete awaiting confirmation")
)

// MissingIdentifierError is returned when a record without an identifier is about to be
// updated or deleted. No request is sent in that case.
type MissingIdentifierError struct {
	Op     string
	Person model.Person
}

func (e *MissingIdentifierError) Error() string {
	return "cannot " + e.Op + ": person ID is missing"
}

// API is the persons REST API as used by the page.
type API interface {
	List(ctx context.Context) ([]model.Person, error)
	Create(ctx context.Context, in model.PersonCreate) (model.Person, error)
	Update(ctx context.Context, id string, in model.PersonUpdate) (model.Person, error)
	Delete(ctx context.Context, id string) error
}

// Page is safe for concurrent use. Mutations are gated by busy flags: a second save while a
// save is in flight, or a second delete while a delete is in flight, fails with ErrBusy.
type Page struct {
	mu     sync.Mutex
	api    API
	notify notify.Notifier
	log    logrus.FieldLogger
	cache  *query.Client
	table  *table.Table
	form   *form.Form
	gate   *confirm.Gate

	editing *model.Person
	// formSession and gateSession count the openings of the form and the gate. A request
	// only changes the modal that started it if the session is still the same.
	formSession uint64
	gateSession uint64
	saving      bool
	deleting    bool
}

// Option configures a Page.
type Option func(*Page)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Page) { p.log = log }
}

// WithLocale sets the language used for sorting the table.
func WithLocale(lang language.Tag) Option {
	return func(p *Page) { p.table = table.New(lang) }
}

// WithCache shares a query cache with other components.
func WithCache(c *query.Client) Option {
	return func(p *Page) { p.cache = c }
}

// New returns a page with closed modals and an empty cache.
func New(api API, n notify.Notifier, opts ...Option) *Page {
	p := &Page{
		api:    api,
		notify: n,
		log:    logging.Discard(),
		cache:  query.NewClient(),
		table:  table.New(language.English),
		form:   form.New(),
		gate:   confirm.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Persons returns the persons list, from the cache if it is fresh.
func (p *Page) Persons(ctx context.Context) ([]model.Person, error) {
	persons, err := query.Get(ctx, p.cache, PersonsKey, p.api.List)
	if err != nil {
		p.log.WithError(err).Error("loading persons failed")
		p.notify.Error(titleError, err.Error())
		return nil, err
	}
	return persons, nil
}

// Refresh invalidates the cached list and fetches it again.
func (p *Page) Refresh(ctx context.Context) ([]model.Person, error) {
	p.cache.Invalidate(PersonsKey)
	return p.Persons(ctx)
}

// View returns the table view of the cached list without fetching.
func (p *Page) View() table.View {
	persons, _ := query.Peek[[]model.Person](p.cache, PersonsKey)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table.View(persons, p.cache.IsLoading(PersonsKey), p.saving || p.deleting)
}

// ToggleSort handles a click on a column header.
func (p *Page) ToggleSort(col table.Column) table.SortState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.table.Toggle(col)
}

// SetSort replaces the sort state of the table.
func (p *Page) SetSort(s table.SortState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table.SetSort(s)
}

// OpenCreate opens the form for a new person. It returns false if the form is already open.
func (p *Page) OpenCreate() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.form.IsOpen() {
		return false
	}
	p.editing = nil
	p.formSession++
	p.form.Open(nil)
	return true
}

// OpenEdit opens the form pre-filled with person. It returns false if the form is already
// open.
func (p *Page) OpenEdit(person model.Person) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.form.IsOpen() {
		return false
	}
	p.editing = &person
	p.formSession++
	p.form.Open(&person)
	return true
}

// CloseForm closes the form and forgets the edit target. A save in flight is not cancelled.
func (p *Page) CloseForm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form.Close()
	p.editing = nil
}

// SetFormValues replaces the values of the open form.
func (p *Page) SetFormValues(v form.Values) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form.SetValues(v)
}

// FormValues returns the values of the form.
func (p *Page) FormValues() form.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form.Values()
}

// FormOpen returns true if the form is open.
func (p *Page) FormOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form.IsOpen()
}

// EditTarget returns the person being edited, or nil in create mode or when the form is closed.
func (p *Page) EditTarget() *model.Person {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.editing == nil {
		return nil
	}
	e := *p.editing
	return &e
}

// SubmitLabel is the caption of the form's submit button.
func (p *Page) SubmitLabel() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form.SubmitLabel()
}

// SubmitForm validates the form and creates or updates the person. Validation errors are
// returned as form.ValidationErrors without any request. On success the list is refreshed and
// the form is closed; on failure the form stays open and an error is shown.
func (p *Page) SubmitForm(ctx context.Context) error {
	p.mu.Lock()
	if !p.form.IsOpen() {
		p.mu.Unlock()
		return form.ErrClosed
	}
	if p.saving {
		p.mu.Unlock()
		return ErrBusy
	}
	payload, err := p.form.Submit()
	if err != nil {
		p.mu.Unlock()
		return err
	}
	var editing *model.Person
	if p.editing != nil {
		e := *p.editing
		editing = &e
	}
	if editing != nil && editing.ID == "" {
		p.mu.Unlock()
		p.log.WithField("name", editing.Name).Error("cannot update person without id")
		p.notify.Error(titleError, textNoUpdateID)
		return &MissingIdentifierError{Op: "update", Person: *editing}
	}
	session := p.formSession
	p.saving = true
	p.form.SetBusy(true)
	p.mu.Unlock()

	var saved model.Person
	if editing != nil {
		p.log.WithField("id", editing.ID).Debug("updating person")
		saved, err = p.api.Update(ctx, editing.ID, payload)
	} else {
		saved, err = p.api.Create(ctx, payload.Create())
	}

	p.mu.Lock()
	p.saving = false
	current := p.formSession == session && p.form.IsOpen()
	if current {
		p.form.SetBusy(false)
	}
	if err != nil {
		p.mu.Unlock()
		p.log.WithError(err).Error("saving person failed")
		p.notify.Error(titleError, errorText(err, textSaveFailed))
		return err
	}
	p.cache.Invalidate(PersonsKey)
	if current {
		p.form.Close()
		p.editing = nil
	}
	p.mu.Unlock()

	p.log.WithField("id", saved.ID).Info("person saved")
	p.notify.Success(titleSaved, textSaved)
	// the save succeeded; a failed refetch is reported by Persons through the notifier
	_, _ = p.Persons(ctx)
	return nil
}

// RequestDelete opens the confirmation for deleting person. It returns false while a delete is
// in flight.
func (p *Page) RequestDelete(person model.Person) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleting {
		return false
	}
	p.gateSession++
	p.gate.Open(person)
	return true
}

// CancelDelete closes the confirmation without deleting. It returns false while the delete is
// in flight.
func (p *Page) CancelDelete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gate.Cancel()
}

// DeleteTarget returns the person awaiting delete confirmation, or nil.
func (p *Page) DeleteTarget() *model.Person {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gate.Target()
}

// ConfirmLabel is the caption of the confirm button.
func (p *Page) ConfirmLabel() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gate.ConfirmLabel()
}

// ConfirmDelete deletes the person awaiting confirmation. A person without identifier is
// rejected with a MissingIdentifierError before any request. On success the list is refreshed
// and the confirmation is closed; on failure it stays open and an error is shown.
func (p *Page) ConfirmDelete(ctx context.Context) error {
	p.mu.Lock()
	target := p.gate.Target()
	if target == nil {
		p.mu.Unlock()
		return ErrNotConfirming
	}
	if p.deleting {
		p.mu.Unlock()
		return ErrBusy
	}
	if target.ID == "" {
		p.mu.Unlock()
		p.log.WithField("name", target.Name).Error("cannot delete person without id")
		p.notify.Error(titleError, textNoDeleteID)
		return &MissingIdentifierError{Op: "delete", Person: *target}
	}
	session := p.gateSession
	p.deleting = true
	p.gate.SetBusy(true)
	p.mu.Unlock()

	p.log.WithField("id", target.ID).Debug("deleting person")
	err := p.api.Delete(ctx, target.ID)

	p.mu.Lock()
	p.deleting = false
	current := p.gateSession == session && p.gate.IsOpen()
	if current {
		p.gate.SetBusy(false)
	}
	if err != nil {
		p.mu.Unlock()
		p.log.WithError(err).WithField("id", target.ID).Error("deleting person failed")
		p.notify.Error(titleError, errorText(err, textDelFailed))
		return err
	}
	p.cache.Invalidate(PersonsKey)
	if current {
		p.gate.Close()
	}
	p.mu.Unlock()

	p.log.WithField("id", target.ID).Info("person deleted")
	p.notify.Success(titleDeleted, textDeleted)
	// the delete succeeded; a failed refetch is reported by Persons through the notifier
	_, _ = p.Persons(ctx)
	return nil
}

// errorText returns the message of err, or fallback if it has none.
func errorText(err error, fallback string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
