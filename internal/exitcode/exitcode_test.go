package exitcode_test

import (
	"errors"
	"flag"
	"fmt"
	"testing"

	"github.com/luasharp/luasharp/internal/exitcode"
	"github.com/nalgeon/be"
)

func TestGet(t *testing.T) {
	base := exitcode.Set(errors.New("usage"), exitcode.Usage)
	wrapped := fmt.Errorf("wrapping: %w", base)

	tests := map[string]struct {
		err  error
		code int
	}{
		"nil":     {nil, exitcode.Success},
		"default": {errors.New("failed"), exitcode.Failure},
		"help":    {flag.ErrHelp, exitcode.Usage},
		"set":     {exitcode.Set(errors.New(""), 3), 3},
		"wrapped": {wrapped, exitcode.Usage},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			be.Equal(t, exitcode.Get(tt.err), tt.code)
		})
	}
}

func TestSetKeepsMessageAndChain(t *testing.T) {
	err := errors.New("hello")
	coded := exitcode.Set(err, exitcode.Usage)
	be.Equal(t, coded.Error(), "hello")
	be.True(t, errors.Is(coded, err))
	be.Err(t, exitcode.Set(nil, exitcode.Usage), nil)
}
