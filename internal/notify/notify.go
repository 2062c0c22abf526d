// Package notify delivers the short success and error messages of the console.
package notify

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Notifier shows transient notifications to the user.
type Notifier interface {
	Success(title string, description string)
	Error(title string, description string)
}

// Console writes notifications as single lines to Out.
type Console struct {
	Out io.Writer
}

func (c Console) Success(title string, description string) {
	fmt.Fprintf(c.Out, "[ok] %s %s\n", title, description)
}

func (c Console) Error(title string, description string) {
	fmt.Fprintf(c.Out, "[error] %s %s\n", title, description)
}

// Log forwards notifications to a logger.
type Log struct {
	Logger logrus.FieldLogger
}

func (l Log) Success(title string, description string) {
	l.Logger.WithField("title", title).Info(description)
}

func (l Log) Error(title string, description string) {
	l.Logger.WithField("title", title).Error(description)
}

// Multi sends every notification to all notifiers.
type Multi []Notifier

func (m Multi) Success(title string, description string) {
	for _, n := range m {
		n.Success(title, description)
	}
}

func (m Multi) Error(title string, description string) {
	for _, n := range m {
		n.Error(title, description)
	}
}
