// Package clienttest provides an in-memory persons API for tests of code that talks to the API
// over HTTP.
package clienttest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gitlab.com/dirk.krummacker/person-palace/pkg/model"
)

// Server is an in-memory implementation of the persons API. It keeps the insertion order of the
// records and counts the requests per method.
type Server struct {
	URL string

	mu       sync.Mutex
	persons  []model.Person
	requests map[string]int
}

// Start starts the fake API. It is shut down when the test ends.
func Start(t testing.TB) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{persons: []model.Person{}, requests: map[string]int{}}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		s.mu.Lock()
		s.requests[c.Request.Method]++
		s.mu.Unlock()
	})
	router.GET("/persons", s.list)
	router.POST("/persons", s.create)
	router.GET("/persons/:id", s.get)
	router.PUT("/persons/:id", s.update)
	router.DELETE("/persons/:id", s.delete)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	s.URL = server.URL
	return s
}

// Seed appends persons as they are, without assigning identifiers.
func (s *Server) Seed(persons ...model.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons = append(s.persons, persons...)
}

// Persons returns a copy of the stored records.
func (s *Server) Persons() []model.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Person{}, s.persons...)
}

// Count returns the number of requests received with the given method.
func (s *Server) Count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method]
}

func (s *Server) list(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.persons)
}

func (s *Server) create(c *gin.Context) {
	var in model.PersonCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	p := model.Person{ID: uuid.NewString(), Name: in.Name, Company: in.Company, Title: in.Title, Phone: in.Phone, DOB: in.DOB}
	s.mu.Lock()
	s.persons = append(s.persons, p)
	s.mu.Unlock()
	c.JSON(http.StatusCreated, p)
}

func (s *Server) get(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(c.Param("id")); i >= 0 {
		c.JSON(http.StatusOK, s.persons[i])
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "person not found"})
}

func (s *Server) update(c *gin.Context) {
	var in model.PersonUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(c.Param("id")); i >= 0 {
		s.persons[i] = in.Apply(s.persons[i])
		c.JSON(http.StatusOK, s.persons[i])
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "person not found"})
}

func (s *Server) delete(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(c.Param("id")); i >= 0 {
		s.persons = append(s.persons[:i], s.persons[i+1:]...)
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "person not found"})
}

// index returns the position of the person with the given id, or -1. The caller holds mu.
func (s *Server) index(id string) int {
	for i, p := range s.persons {
		if p.ID == id {
			return i
		}
	}
	return -1
}
