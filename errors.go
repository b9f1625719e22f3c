package plugboard

import (
	"errors"
)

// Framework errors
var (
	// Host construction errors
	ErrLoggerNil   = errors.New("logger is nil")
	ErrRegistryNil = errors.New("registry is nil")

	// Observer errors
	ErrObserverNil = errors.New("observer is nil")

	// Options feeder errors
	ErrOptionsFileUnsupported = errors.New("unsupported options file format")
	ErrOptionsFileInvalid     = errors.New("options file is not a key/value mapping")
)
