package runtime_test

import (
	"strings"
	"testing"

	"github.com/luasharp/luasharp/internal/runtime"
	"github.com/nalgeon/be"
)

func TestReferenceImplementationCoversContract(t *testing.T) {
	for _, name := range runtime.Contract {
		defined := strings.Contains(runtime.Code, "function CS."+name+"(") ||
			strings.Contains(runtime.Code, "CS."+name+" = ")
		be.True(t, defined)
	}
}

func TestContractNamesAreDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for _, name := range runtime.Contract {
		be.True(t, !seen[name])
		seen[name] = true
	}
}
