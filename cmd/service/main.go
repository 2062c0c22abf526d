package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gitlab.com/dirk.krummacker/person-palace/internal/config"
	"gitlab.com/dirk.krummacker/person-palace/internal/logging"
	"gitlab.com/dirk.krummacker/person-palace/internal/service"
)

// Usage example on the command line:
// > PORT=8080 DBUSER=dirk DBPWD=bullo92 GIN_MODE=release GIN_LOGGING=OFF go run main.go
func main() {
	cfg, err := config.LoadService()
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not load configuration:", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log)

	sqlDB, err := sql.Open("mysql", cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("could not open database")
	}
	defer sqlDB.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, cfg.Database.Name),
	)

	s, err := service.NewService(sqlDB, log, reg)
	if err != nil {
		log.WithError(err).Fatal("could not set up service")
	}
	defer s.Close()

	router := s.Router(!strings.EqualFold(cfg.GinLogging, "off"))
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithField("addr", addr).Info("serving persons API")
	if err := router.Run(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
