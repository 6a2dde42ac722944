package renderer

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// DeviceError reports a failed allocation, transfer or kernel launch. It
// carries the source location of the failing call. Callers treat it as fatal.
type DeviceError struct {
	Op   string
	File string
	Line int
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s (%s:%d): %v", e.Op, e.File, e.Line, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// deviceError builds a DeviceError located at the line that calls it
func deviceError(op string, err error) *DeviceError {
	return deviceErrorAt(1, op, err)
}

// deviceErrorAt skips skip frames above its caller when recording the location
func deviceErrorAt(skip int, op string, err error) *DeviceError {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		file, line = "unknown", 0
	}
	return &DeviceError{Op: op, File: filepath.Base(file), Line: line, Err: err}
}
