package exitcode

import (
	"errors"
	"flag"
	"os"
)

const (
	Success = 0

	// The input had errors, or an output could not be written
	Failure = 1

	// The command line itself was invalid
	Usage = 2
)

type Coder interface {
	error
	ExitCode() int
}

// Maps an error to the process exit code:
//
//	nil => Success
//	errors implementing Coder => value returned by ExitCode
//	flag.ErrHelp => Usage
//	all other errors => Failure
func Get(err error) int {
	if err == nil {
		return Success
	}

	if coder := Coder(nil); errors.As(err, &coder) {
		return coder.ExitCode()
	}

	if errors.Is(err, flag.ErrHelp) {
		return Usage
	}

	return Failure
}

// Wraps an error so "Get" returns "code" for it. The message and the error
// chain are unchanged.
func Set(err error, code int) error {
	if err == nil {
		return nil
	}
	return codedError{err: err, code: code}
}

type codedError struct {
	err  error
	code int
}

func (e codedError) Error() string { return e.err.Error() }
func (e codedError) Unwrap() error { return e.err }
func (e codedError) ExitCode() int { return e.code }

func Exit(err error) {
	os.Exit(Get(err))
}
