package indexdb

import (
	"errors"

	"dwarfhold.dev/internal/sim/world"
)

// Fanout forwards tick and audit entries to every non-nil sink.
type Fanout struct {
	Ticks  []world.TickLogger
	Audits []world.AuditLogger
}

func (f Fanout) WriteTick(e world.TickLogEntry) error {
	var errs []error
	for _, t := range f.Ticks {
		if t != nil {
			errs = append(errs, t.WriteTick(e))
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) WriteAudit(e world.AuditEntry) error {
	var errs []error
	for _, a := range f.Audits {
		if a != nil {
			errs = append(errs, a.WriteAudit(e))
		}
	}
	return errors.Join(errs...)
}
