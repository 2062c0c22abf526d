package page

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitlab.com/dirk.krummacker/person-palace/internal/client"
	"gitlab.com/dirk.krummacker/person-palace/internal/form"
	"gitlab.com/dirk.krummacker/person-palace/internal/table"
	"gitlab.com/dirk.krummacker/person-palace/pkg/model"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) List(ctx context.Context) ([]model.Person, error) {
	args := m.Called(ctx)
	persons, _ := args.Get(0).([]model.Person)
	return persons, args.Error(1)
}

func (m *mockAPI) Create(ctx context.Context, in model.PersonCreate) (model.Person, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.Person), args.Error(1)
}

func (m *mockAPI) Update(ctx context.Context, id string, in model.PersonUpdate) (model.Person, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(model.Person), args.Error(1)
}

func (m *mockAPI) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type toast struct {
	Kind        string
	Title       string
	Description string
}

type recorder struct {
	mu     sync.Mutex
	toasts []toast
}

func (r *recorder) Success(title string, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, toast{"success", title, description})
}

func (r *recorder) Error(title string, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, toast{"error", title, description})
}

func (r *recorder) all() []toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]toast(nil), r.toasts...)
}

var (
	ctx = context.Background()
	ann = model.Person{ID: "a1", Name: "Ann", Company: model.String("ACME")}
	bo  = model.Person{ID: "b2", Name: "Bo", DOB: model.String("2000-01-01")}
)

func newPage(t *testing.T) (*Page, *mockAPI, *recorder) {
	api := &mockAPI{}
	t.Cleanup(func() { api.AssertExpectations(t) })
	rec := &recorder{}
	return New(api, rec), api, rec
}

// TestPersonsCached verifies that the list is fetched once and then served from the cache.
func TestPersonsCached(t *testing.T) {
	p, api, _ := newPage(t)
	api.On("List", mock.Anything).Return([]model.Person{ann}, nil).Once()

	for i := 0; i < 3; i++ {
		persons, err := p.Persons(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.Person{ann}, persons)
	}
	assert.Equal(t, table.Populated, p.View().State)
}

// TestViewBeforeLoad verifies that the table is empty before the first fetch and never
// fetches on its own.
func TestViewBeforeLoad(t *testing.T) {
	p, _, _ := newPage(t)
	assert.Equal(t, table.Empty, p.View().State)
}

// TestPersonsError verifies that a failed fetch is shown as a notification.
func TestPersonsError(t *testing.T) {
	p, api, rec := newPage(t)
	api.On("List", mock.Anything).Return(nil, &client.RequestError{Op: client.OpFetch, StatusCode: 500}).Once()

	_, err := p.Persons(ctx)
	require.Error(t, err)
	assert.Equal(t, []toast{{"error", "Error", "failed to fetch persons (status 500)"}}, rec.all())
}

// TestCreate walks through the create flow: open, fill in, submit, list refreshed, form closed.
func TestCreate(t *testing.T) {
	p, api, rec := newPage(t)
	created := model.Person{ID: "c3", Name: "Cy"}
	api.On("List", mock.Anything).Return([]model.Person{ann}, nil).Once()
	api.On("Create", mock.Anything, model.PersonCreate{Name: "Cy", Phone: model.String("123")}).Return(created, nil).Once()
	api.On("List", mock.Anything).Return([]model.Person{ann, created}, nil).Once()

	_, err := p.Persons(ctx)
	require.NoError(t, err)

	require.True(t, p.OpenCreate())
	assert.Nil(t, p.EditTarget())
	p.SetFormValues(form.Values{Name: "Cy", Phone: "123"})
	require.NoError(t, p.SubmitForm(ctx))

	assert.False(t, p.FormOpen())
	assert.Equal(t, []toast{{"success", "Saved!", "Person was successfully saved."}}, rec.all())
	v := p.View()
	require.Len(t, v.Rows, 2)
	assert.Equal(t, "c3", v.Rows[1].Person.ID)
}

// TestCreateRefetchFails verifies that a save still succeeds when the list cannot be fetched
// afterwards, and that the failed fetch is shown after the success notification.
func TestCreateRefetchFails(t *testing.T) {
	p, api, rec := newPage(t)
	created := model.Person{ID: "c3", Name: "Cy"}
	api.On("Create", mock.Anything, model.PersonCreate{Name: "Cy"}).Return(created, nil).Once()
	api.On("List", mock.Anything).Return(nil, &client.RequestError{Op: client.OpFetch, StatusCode: 503}).Once()

	require.True(t, p.OpenCreate())
	p.SetFormValues(form.Values{Name: "Cy"})
	require.NoError(t, p.SubmitForm(ctx))

	assert.False(t, p.FormOpen())
	assert.Equal(t, []toast{
		{"success", "Saved!", "Person was successfully saved."},
		{"error", "Error", "failed to fetch persons (status 503)"},
	}, rec.all())
}

// TestEdit verifies that an edit sends an update for the record's identifier with blank fields
// as empty strings.
func TestEdit(t *testing.T) {
	p, api, rec := newPage(t)
	want := model.PersonUpdate{
		Name:    model.String("Ann"),
		Company: model.String(""),
		Title:   model.String(""),
		Phone:   model.String(""),
	}
	api.On("Update", mock.Anything, "a1", want).Return(model.Person{ID: "a1", Name: "Ann"}, nil).Once()
	api.On("List", mock.Anything).Return([]model.Person{{ID: "a1", Name: "Ann"}}, nil).Once()

	require.True(t, p.OpenEdit(ann))
	assert.Equal(t, "a1", p.EditTarget().ID)
	v := p.FormValues()
	assert.Equal(t, "ACME", v.Company)
	v.Company = ""
	p.SetFormValues(v)
	require.NoError(t, p.SubmitForm(ctx))

	assert.False(t, p.FormOpen())
	assert.Nil(t, p.EditTarget())
	assert.Equal(t, "Saved!", rec.all()[0].Title)
}

// TestSubmitInvalid verifies that validation errors block the request and keep the form open.
func TestSubmitInvalid(t *testing.T) {
	p, _, rec := newPage(t)
	require.True(t, p.OpenCreate())
	p.SetFormValues(form.Values{Company: "ACME"})

	err := p.SubmitForm(ctx)
	var ve form.ValidationErrors
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve, "Name")
	assert.True(t, p.FormOpen())
	assert.Empty(t, rec.all())
}

// TestSubmitFailure verifies that a failed save keeps the form open with its values and shows
// the error.
func TestSubmitFailure(t *testing.T) {
	p, api, rec := newPage(t)
	api.On("Create", mock.Anything, mock.Anything).
		Return(model.Person{}, &client.RequestError{Op: client.OpCreate, StatusCode: 400}).Once()

	require.True(t, p.OpenCreate())
	p.SetFormValues(form.Values{Name: "Cy"})
	err := p.SubmitForm(ctx)

	var re *client.RequestError
	require.True(t, errors.As(err, &re))
	assert.True(t, p.FormOpen())
	assert.Equal(t, "Cy", p.FormValues().Name)
	assert.Equal(t, "Save", p.SubmitLabel())
	assert.Equal(t, []toast{{"error", "Error", "failed to create persons (status 400)"}}, rec.all())
}

func TestSubmitClosedForm(t *testing.T) {
	p, _, _ := newPage(t)
	assert.ErrorIs(t, p.SubmitForm(ctx), form.ErrClosed)
}

// TestSubmitBusy verifies that a second save while the first is in flight is refused, and that
// the button shows the busy label meanwhile.
func TestSubmitBusy(t *testing.T) {
	p, api, _ := newPage(t)
	release := make(chan struct{})
	started := make(chan struct{})
	api.On("Create", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { close(started); <-release }).
		Return(model.Person{ID: "c3", Name: "Cy"}, nil).Once()
	api.On("List", mock.Anything).Return([]model.Person{}, nil).Once()

	require.True(t, p.OpenCreate())
	p.SetFormValues(form.Values{Name: "Cy"})
	done := make(chan error, 1)
	go func() { done <- p.SubmitForm(ctx) }()

	<-started
	assert.Equal(t, "Saving...", p.SubmitLabel())
	for _, r := range p.View().Rows {
		assert.False(t, r.EditEnabled)
	}
	assert.ErrorIs(t, p.SubmitForm(ctx), ErrBusy)

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("submit did not finish")
	}
	api.AssertNumberOfCalls(t, "Create", 1)
}

// TestSaveAfterClose verifies that a save finishing after the form was closed and reopened
// still refreshes the list but leaves the new form session alone.
func TestSaveAfterClose(t *testing.T) {
	p, api, rec := newPage(t)
	release := make(chan struct{})
	started := make(chan struct{})
	api.On("Update", mock.Anything, "a1", mock.Anything).
		Run(func(mock.Arguments) { close(started); <-release }).
		Return(ann, nil).Once()
	api.On("List", mock.Anything).Return([]model.Person{ann}, nil).Once()

	require.True(t, p.OpenEdit(ann))
	done := make(chan error, 1)
	go func() { done <- p.SubmitForm(ctx) }()
	<-started

	p.CloseForm()
	require.True(t, p.OpenCreate())
	p.SetFormValues(form.Values{Name: "new"})

	close(release)
	require.NoError(t, <-done)
	assert.True(t, p.FormOpen())
	assert.Equal(t, "new", p.FormValues().Name)
	assert.Nil(t, p.EditTarget())
	assert.Equal(t, "Saved!", rec.all()[0].Title)
}

// TestUpdateMissingID verifies that editing a record without identifier sends nothing.
func TestUpdateMissingID(t *testing.T) {
	p, _, rec := newPage(t)
	require.True(t, p.OpenEdit(model.Person{Name: "Nobody"}))

	err := p.SubmitForm(ctx)
	var mie *MissingIdentifierError
	require.True(t, errors.As(err, &mie))
	assert.Equal(t, "update", mie.Op)
	assert.Equal(t, []toast{{"error", "Error", "Cannot update: person ID is missing."}}, rec.all())
}

// TestOpenWhileOpen verifies that opening the form twice keeps the first session.
func TestOpenWhileOpen(t *testing.T) {
	p, _, _ := newPage(t)
	require.True(t, p.OpenEdit(ann))
	assert.False(t, p.OpenCreate())
	assert.False(t, p.OpenEdit(bo))
	assert.Equal(t, "a1", p.EditTarget().ID)
}

// TestDelete walks through the delete flow: request, confirm, list refreshed.
func TestDelete(t *testing.T) {
	p, api, rec := newPage(t)
	api.On("List", mock.Anything).Return([]model.Person{ann, bo}, nil).Once()
	api.On("Delete", mock.Anything, "a1").Return(nil).Once()
	api.On("List", mock.Anything).Return([]model.Person{bo}, nil).Once()

	_, err := p.Persons(ctx)
	require.NoError(t, err)

	require.True(t, p.RequestDelete(ann))
	assert.Equal(t, "Ann", p.DeleteTarget().Name)
	assert.Equal(t, "Delete", p.ConfirmLabel())
	require.NoError(t, p.ConfirmDelete(ctx))

	assert.Nil(t, p.DeleteTarget())
	assert.Equal(t, []toast{{"success", "Deleted!", "Person was removed."}}, rec.all())
	v := p.View()
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "b2", v.Rows[0].Person.ID)
}

// TestCancelDelete verifies that cancelling sends nothing.
func TestCancelDelete(t *testing.T) {
	p, _, rec := newPage(t)
	require.True(t, p.RequestDelete(ann))
	assert.True(t, p.CancelDelete())
	assert.Nil(t, p.DeleteTarget())
	assert.ErrorIs(t, p.ConfirmDelete(ctx), ErrNotConfirming)
	assert.Empty(t, rec.all())
}

// TestDeleteMissingID verifies that a record without identifier is rejected before any
// request.
func TestDeleteMissingID(t *testing.T) {
	p, _, rec := newPage(t)
	require.True(t, p.RequestDelete(model.Person{Name: "Nobody"}))

	err := p.ConfirmDelete(ctx)
	var mie *MissingIdentifierError
	require.True(t, errors.As(err, &mie))
	assert.Equal(t, "delete", mie.Op)
	assert.Equal(t, "Nobody", mie.Person.Name)
	assert.Equal(t, []toast{{"error", "Error", "Cannot delete: person ID is missing."}}, rec.all())
}

// TestDeleteFailure verifies that a failed delete keeps the confirmation open.
func TestDeleteFailure(t *testing.T) {
	p, api, rec := newPage(t)
	api.On("Delete", mock.Anything, "a1").Return(&client.RequestError{Op: client.OpDelete, StatusCode: 404}).Once()

	require.True(t, p.RequestDelete(ann))
	err := p.ConfirmDelete(ctx)
	require.Error(t, err)
	assert.Equal(t, "a1", p.DeleteTarget().ID)
	assert.Equal(t, "Delete", p.ConfirmLabel())
	assert.Equal(t, []toast{{"error", "Error", "failed to delete persons (status 404)"}}, rec.all())
}

// TestDeleteBusy verifies that the confirmation can neither be cancelled nor confirmed again
// while the delete is in flight.
func TestDeleteBusy(t *testing.T) {
	p, api, _ := newPage(t)
	release := make(chan struct{})
	started := make(chan struct{})
	api.On("Delete", mock.Anything, "a1").
		Run(func(mock.Arguments) { close(started); <-release }).
		Return(nil).Once()
	api.On("List", mock.Anything).Return([]model.Person{}, nil).Once()

	require.True(t, p.RequestDelete(ann))
	done := make(chan error, 1)
	go func() { done <- p.ConfirmDelete(ctx) }()
	<-started

	assert.Equal(t, "Deleting...", p.ConfirmLabel())
	assert.False(t, p.CancelDelete())
	assert.False(t, p.RequestDelete(bo))
	assert.ErrorIs(t, p.ConfirmDelete(ctx), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Nil(t, p.DeleteTarget())
	api.AssertNumberOfCalls(t, "Delete", 1)
}

// TestRefresh verifies that Refresh bypasses the cache.
func TestRefresh(t *testing.T) {
	p, api, _ := newPage(t)
	api.On("List", mock.Anything).Return([]model.Person{ann}, nil).Once()
	api.On("List", mock.Anything).Return([]model.Person{ann, bo}, nil).Once()

	_, err := p.Persons(ctx)
	require.NoError(t, err)
	persons, err := p.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, persons, 2)
}

func TestToggleSort(t *testing.T) {
	p, api, _ := newPage(t)
	api.On("List", mock.Anything).Return([]model.Person{bo, ann}, nil).Once()
	_, err := p.Persons(ctx)
	require.NoError(t, err)

	assert.Equal(t, table.SortState{Key: table.Name, Direction: table.Ascending}, p.ToggleSort(table.Name))
	assert.Equal(t, "a1", p.View().Rows[0].Person.ID)
	p.SetSort(table.SortState{Key: table.Name, Direction: table.Descending})
	assert.Equal(t, "b2", p.View().Rows[0].Person.ID)
}
