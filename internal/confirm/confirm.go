// Package confirm implements the yes/no gate shown before a person is deleted.
package confirm

import "gitlab.com/dirk.krummacker/person-palace/pkg/model"

// Gate is closed until Open is called for a record. It is left either by Cancel, or by the
// caller closing it after a confirmed delete succeeded.
type Gate struct {
	target *model.Person
	busy   bool
}

// New returns a closed gate.
func New() *Gate {
	return &Gate{}
}

// Open asks for confirmation to delete p.
func (g *Gate) Open(p model.Person) {
	g.target = &p
	g.busy = false
}

// Cancel closes the gate without deleting. It does nothing while a delete is in flight.
func (g *Gate) Cancel() bool {
	if g.busy {
		return false
	}
	g.target = nil
	return true
}

// Close closes the gate after the delete has finished.
func (g *Gate) Close() {
	g.target = nil
	g.busy = false
}

// Target returns the record awaiting confirmation, or nil if the gate is closed.
func (g *Gate) Target() *model.Person {
	if g.target == nil {
		return nil
	}
	p := *g.target
	return &p
}

func (g *Gate) IsOpen() bool { return g.target != nil }

// SetBusy disables the confirm and cancel controls while the delete request is in flight.
func (g *Gate) SetBusy(busy bool) { g.busy = busy }
func (g *Gate) Busy() bool        { return g.busy }

// ConfirmLabel is the caption of the confirm button.
func (g *Gate) ConfirmLabel() string {
	if g.busy {
		return "Deleting..."
	}
	return "Delete"
}
