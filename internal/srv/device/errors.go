package device

import "fmt"

// HardwareIOError reports a failed SPI or GPIO write. The operation can be
// retried: the panel content is undefined until the next successful transfer.
type HardwareIOError struct {
	Op  string
	Err error
}

func (e *HardwareIOError) Error() string {
	return fmt.Sprintf("hardware i/o error on %s: %v", e.Op, e.Err)
}

func (e *HardwareIOError) Unwrap() error {
	return e.Err
}

func hardwareError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &HardwareIOError{Op: op, Err: err}
}
