package capture

import (
	"errors"
	"fmt"
)

// ErrNoSurface is returned when a strategy is constructed without a surface.
var ErrNoSurface = errors.New("capture: render surface is required")

// PersistError wraps a FrameSink failure. It is fatal to the capture loop;
// frames stored before the failure stay in the sink.
type PersistError struct {
	Index int
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("capture: store frame %d: %v", e.Index, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// IsPersistError reports whether err carries a PersistError.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}
