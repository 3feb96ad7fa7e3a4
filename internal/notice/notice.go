// Package notice carries user-facing messages from the CRUD layer to
// whatever shell displays them.
package notice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/onexcrm/onexcrm/internal/entity"
)

// Level mirrors the message box kinds of the desktop shell.
type Level string

const (
	Info     Level = "info"
	Warning  Level = "warning"
	Critical Level = "critical"
)

// Notice is one message shown to the user.
type Notice struct {
	Level   Level  `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier displays notices.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(Notice) {})

// DBError builds the critical notice for a failed repository call. action is
// the verb used in the message, e.g. "add" or "fetch".
func DBError(err error, action, label string) Notice {
	if errors.Is(err, entity.ErrNoConnection) {
		return Notice{Level: Critical, Title: "DB Error", Message: "❌ Could not connect to database"}
	}
	msg := "⚠️ Failed to " + action
	if label != "" {
		msg += " " + strings.ToLower(label)
	}
	return Notice{Level: Critical, Title: "DB Error", Message: fmt.Sprintf("%s:\n%v", msg, err)}
}

// Recorder collects notices; the zero value is ready to use.
type Recorder struct {
	Notices []Notice
}

// Notify appends n.
func (r *Recorder) Notify(n Notice) {
	r.Notices = append(r.Notices, n)
}

// Last returns the most recent notice.
func (r *Recorder) Last() (Notice, bool) {
	if len(r.Notices) == 0 {
		return Notice{}, false
	}
	return r.Notices[len(r.Notices)-1], true
}

// Reset forgets recorded notices.
func (r *Recorder) Reset() {
	r.Notices = nil
}
