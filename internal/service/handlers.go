package service

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"gitlab.com/dirk.krummacker/person-palace/pkg/model"
)

// findPersons responds with the list of all persons as JSON. An empty database yields an empty
// array.
//
// REST API call:
//
//	> curl "http://localhost:8080/persons"
func (s *Service) findPersons(c *gin.Context) {
	persons := []model.Person{}
	if err := s.selectAll.Select(&persons); err != nil {
		s.internalError(c, errors.Wrap(err, "select persons"))
		return
	}
	c.IndentedJSON(http.StatusOK, persons)
}

// createPerson inserts the person specified in the request's JSON into the database. It responds
// with the full person data including the newly assigned id.
//
// Example REST API call:
//
//	> curl http://localhost:8080/persons --request "POST" --include --header "Content-Type: application/json" --data '{"Name": "Erika Mustermann", "Company": "ACME", "DOB": "1969-03-02"}'
func (s *Service) createPerson(c *gin.Context) {
	var in model.PersonCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": bindMessage(err)})
		return
	}
	person := model.Person{
		ID:      uuid.NewString(),
		Name:    in.Name,
		Company: in.Company,
		Title:   in.Title,
		Phone:   in.Phone,
		DOB:     in.DOB,
	}
	if _, err := s.insert.Exec(&person); err != nil {
		s.internalError(c, errors.Wrap(err, "insert person"))
		return
	}
	s.metrics.mutations.WithLabelValues("create").Inc()
	s.log.WithField("id", person.ID).Debug("person created")
	c.IndentedJSON(http.StatusCreated, person)
}

// findPersonByID locates the person whose ID value matches the id parameter of the request URL,
// then returns that person as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/persons/0b6c3b9e-4c8e-4c38-9a39-4d3f3c1f8a41
func (s *Service) findPersonByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	person, found, err := s.selectPerson(id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if !found {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "person not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, person)
}

// updatePersonByID updates the person whose ID value matches the id parameter of the request URL.
// Only the values present in the JSON are written; an empty string clears an optional value. It
// responds with the new version of the person.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/persons/0b6c3b9e-4c8e-4c38-9a39-4d3f3c1f8a41 --request "PUT" --include --header "Content-Type: application/json" --data '{"Phone": "81970"}'
//	> curl http://localhost:8080/persons/0b6c3b9e-4c8e-4c38-9a39-4d3f3c1f8a41 --request "PUT" --include --header "Content-Type: application/json" --data '{"Title": ""}'
func (s *Service) updatePersonByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var submitted model.PersonUpdate
	if err := c.ShouldBindJSON(&submitted); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": bindMessage(err)})
		return
	}

	// It only makes sense to continue if we have at least one value to update.
	if submitted.IsEmpty() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "no values to be updated"})
		return
	}

	var sets []string
	var args []interface{}
	for _, col := range []struct {
		name  string
		value *string
	}{
		{"name", submitted.Name},
		{"company", submitted.Company},
		{"title", submitted.Title},
		{"phone", submitted.Phone},
		{"dob", submitted.DOB},
	} {
		if col.value != nil {
			sets = append(sets, col.name+"=?")
			args = append(args, *col.value)
		}
	}
	args = append(args, id)
	query := "UPDATE persons SET " + strings.Join(sets, ", ") + " WHERE id=?"

	// The DSN sets clientFoundRows, so an update without changes still counts the matched row.
	result, err := s.db.Exec(query, args...)
	if err != nil {
		s.internalError(c, errors.Wrap(err, "update person"))
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.internalError(c, errors.Wrap(err, "update person"))
		return
	}
	if rowsAffected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "person not found"})
		return
	}
	s.metrics.mutations.WithLabelValues("update").Inc()

	// In the HTTP response, return the full person after the update.
	person, found, err := s.selectPerson(id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if !found {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "person not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, person)
}

// deletePersonByID deletes the person whose ID value matches the id parameter of the request URL
// from the database.
//
// Example REST API call:
//
//	> curl http://localhost:8080/persons/0b6c3b9e-4c8e-4c38-9a39-4d3f3c1f8a41 --request "DELETE"
func (s *Service) deletePersonByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := s.deleteWhereId.Exec(id)
	if err != nil {
		s.internalError(c, errors.Wrap(err, "delete person"))
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.internalError(c, errors.Wrap(err, "delete person"))
		return
	}
	if rowsAffected == 0 {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "person not found"})
		return
	}
	s.metrics.mutations.WithLabelValues("delete").Inc()
	c.Status(http.StatusNoContent)
}

func (s *Service) selectPerson(id string) (model.Person, bool, error) {
	var persons []model.Person
	if err := s.selectWhereId.Select(&persons, id); err != nil {
		return model.Person{}, false, errors.Wrap(err, "select person")
	}
	if len(persons) == 0 {
		return model.Person{}, false, nil
	}
	return persons[0], true, nil
}

// internalError logs err and responds with status 500 without exposing details.
func (s *Service) internalError(c *gin.Context, err error) {
	s.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
}

// parseID returns the id parameter in canonical form. An id that is not a UUID cannot exist, so
// the request is answered with 404 without reaching out to the database.
func parseID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return "", false
	}
	return id.String(), true
}

// bindMessage turns a binding error into a message for the client. Constraint violations name
// the offending fields.
func bindMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return "invalid JSON"
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	sort.Strings(msgs)
	return "invalid person: " + strings.Join(msgs, ", ")
}
