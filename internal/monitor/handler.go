package monitor

import "errors"

// SampleHandler receives delta records as they are produced.
type SampleHandler interface {
	HandleRecord(target string, pid int, rec *Record) error
}

// MultiHandler fans a record out to several handlers.
type MultiHandler []SampleHandler

// HandleRecord delivers the record to every handler. All handlers see the
// record even when an earlier one fails; the errors are joined.
func (m MultiHandler) HandleRecord(target string, pid int, rec *Record) error {
	var errs []error
	for _, h := range m {
		if err := h.HandleRecord(target, pid, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
