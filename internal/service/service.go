// Package service implements the persons REST API on top of a MySQL database.
package service

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Service serves the persons API. It holds the database handle, the prepared statements and the
// metrics.
type Service struct {
	db  *sqlx.DB
	log logrus.FieldLogger

	// insert is a prepared statement for creating a person on the database.
	insert *sqlx.NamedStmt
	// selectAll is a prepared statement for selecting all persons.
	selectAll *sqlx.Stmt
	// selectWhereId is a prepared statement for selecting persons with a given id.
	selectWhereId *sqlx.Stmt
	// deleteWhereId is a prepared statement for deleting a person with a given id.
	deleteWhereId *sqlx.Stmt

	gatherer prometheus.Gatherer
	metrics  *metrics
}

// NewService wraps the specified sql database with sqlx and prepares all statements. The database
// argument can be a real database for production use or a mock database within unit tests. The
// metrics are registered on reg.
func NewService(sqlDB *sql.DB, log logrus.FieldLogger, reg *prometheus.Registry) (*Service, error) {
	s := &Service{
		db:       sqlx.NewDb(sqlDB, "mysql"),
		log:      log,
		gatherer: reg,
	}
	var err error
	s.metrics, err = newMetrics(reg)
	if err != nil {
		return nil, err
	}

	// Prepared statements offer a significant speed increase if executed many times.
	s.insert, err = s.db.PrepareNamed(`
		INSERT INTO persons (id, name, company, title, phone, dob)
		VALUES (:id, :name, :company, :title, :phone, :dob)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare insert")
	}
	s.selectAll, err = s.db.Preparex(`
		SELECT * FROM persons ORDER BY name, id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare select all")
	}
	s.selectWhereId, err = s.db.Preparex(`
		SELECT * FROM persons WHERE id = ?
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare select by id")
	}
	s.deleteWhereId, err = s.db.Preparex(`
		DELETE FROM persons WHERE id = ?
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare delete by id")
	}
	return s, nil
}

// Close releases the prepared statements. The database itself is left open.
func (s *Service) Close() error {
	var first error
	for _, closer := range []interface{ Close() error }{s.insert, s.selectAll, s.selectWhereId, s.deleteWhereId} {
		if err := closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Router initializes the REST API router and registers all endpoints. Request logging can be
// turned off; panics are always recovered.
func (s *Service) Router(requestLogging bool) *gin.Engine {
	router := gin.New()
	if requestLogging {
		router.Use(gin.Logger())
	} else {
		s.log.Info("Turning off HTTP request logging.")
	}
	router.Use(gin.Recovery(), s.metrics.middleware())

	router.GET("/persons", s.findPersons)
	router.POST("/persons", s.createPerson)
	router.GET("/persons/:id", s.findPersonByID)
	router.PUT("/persons/:id", s.updatePersonByID)
	router.DELETE("/persons/:id", s.deletePersonByID)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	return router
}
