package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gitlab.com/dirk.krummacker/person-palace/internal/config"
	"gitlab.com/dirk.krummacker/person-palace/internal/logging"
)

// Usage example on the command line:
// > DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 go run main.go --file=../../scripts/database.sql
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:          "migration",
		Short:        "Execute the statements of an SQL file against the persons database",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadMigration()
			if err != nil {
				return err
			}
			log := logging.NewWithOutput(cfg.Log, cmd.ErrOrStderr())

			readFile, err := os.Open(file) // nosemgrep
			if err != nil {
				return err
			}
			defer readFile.Close()

			db, err := sqlx.Open("mysql", cfg.Database.DSN())
			if err != nil {
				return err
			}
			defer db.Close()
			return migrate(db, readFile, log)
		},
	}
	cmd.Flags().StringVar(&file, "file", "database.sql", "the sql file to execute")
	return cmd
}

// migrate executes the statements read from r one by one. A statement ends with the line that
// contains a semicolon.
func migrate(db *sqlx.DB, r io.Reader, log logrus.FieldLogger) error {
	fileScanner := bufio.NewScanner(r)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	count := 0
	for fileScanner.Scan() {
		line := fileScanner.Text()
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			sql := builder.String()
			if _, err := db.Exec(sql); err != nil {
				return errors.Wrapf(err, "statement %d", count+1)
			}
			count++
			builder = strings.Builder{}
		}
	}
	if err := fileScanner.Err(); err != nil {
		return err
	}
	log.WithField("statements", count).Info("migration done")
	return nil
}
