package form

import (
	"fmt"
	"strings"

	"github.com/onexcrm/onexcrm/internal/notice"
)

// Verdict is the guard's decision about a pending save.
type Verdict int

const (
	// VerdictProceed allows the save.
	VerdictProceed Verdict = iota
	// VerdictDuplicate refuses the save; the form stays open.
	VerdictDuplicate
	// VerdictAbort refuses the save and closes the form because the name
	// could not be verified.
	VerdictAbort
)

func (v Verdict) String() string {
	switch v {
	case VerdictDuplicate:
		return "duplicate"
	case VerdictAbort:
		return "abort"
	default:
		return "proceed"
	}
}

// Guard turns a name-existence lookup into a verdict and the matching notice.
// It must run before every insert or update of an entity with a unique name.
//
// The lookup and the write that follows are separate statements, so two
// concurrent saves of the same name can both pass; the partial unique index
// created by the seed script is what finally rejects the loser.
type Guard struct {
	Notifier notice.Notifier
}

// Check decides on name given the outcome of the existence lookup.
func (g Guard) Check(m Marker, label, field, name string, exists bool, lookupErr error) Verdict {
	switch {
	case lookupErr != nil:
		g.notify(notice.DBError(lookupErr, "check name of", label))
		return VerdictAbort
	case exists:
		g.Duplicate(m, label, field, name)
		return VerdictDuplicate
	default:
		m.SetMarked(field, false)
		return VerdictProceed
	}
}

// Duplicate reports name as taken and marks field.
func (g Guard) Duplicate(m Marker, label, field, name string) {
	g.notify(notice.Notice{
		Level:   notice.Warning,
		Title:   "Duplicate Name",
		Message: fmt.Sprintf("A %s with the name %q already exists.", strings.ToLower(label), name),
	})
	m.SetMarked(field, true)
}

func (g Guard) notify(n notice.Notice) {
	if g.Notifier != nil {
		g.Notifier.Notify(n)
	}
}
