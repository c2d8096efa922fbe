package controller

import (
	"sync"

	"github.com/DDNStorage/qosd/errors"
)

// attached is the process-wide set of filesystems that currently have a
// QoS controller constructed for them (spec §6: "construction fails if
// QoS is already attached to the given filesystem", spec §7 DoubleAttach).
// Rule names are namespaced per filesystem's own server fleet, but
// nothing stops two Controller values from racing to manage the same
// filesystem within one process, so the guard lives here rather than on
// any single Controller instance.
var (
	attachedMu sync.Mutex
	attached   = make(map[string]bool)
)

func attach(filesystem string) error {
	attachedMu.Lock()
	defer attachedMu.Unlock()

	if attached[filesystem] {
		return errors.ErrDoubleAttach
	}
	attached[filesystem] = true
	return nil
}

func detach(filesystem string) {
	attachedMu.Lock()
	defer attachedMu.Unlock()
	delete(attached, filesystem)
}
