package lower

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luasharp/luasharp/internal/config"
	"github.com/luasharp/luasharp/internal/test"
)

// Runs every case in testdata/*.md. Options after the fence language map to
// lowering options: "types", "main", "exports" and "minify".
func TestSnapshots(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.md"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("No snapshot files found")
	}

	for _, file := range files {
		contents, err := os.ReadFile(file)
		if err != nil {
			t.Fatal(err)
		}
		cases, err := test.ExtractSnapshotCases(string(contents))
		if err != nil {
			t.Fatalf("%s: %v", file, err)
		}
		suite := strings.TrimSuffix(filepath.Base(file), ".md")

		for _, c := range cases {
			c := c
			t.Run(suite+"/"+c.Name, func(t *testing.T) {
				options := config.Options{
					EmitTypes:        c.Options["types"],
					CallEntryPoint:   c.Options["main"],
					ExportTypes:      c.Options["exports"],
					MinifyWhitespace: c.Options["minify"],
				}
				lua, errors := lowerForTest(t, c.Input, options)
				if c.IsError {
					if errors == "" {
						t.Fatalf("%s:%d: expected an error but got:\n%s", file, c.Line, lua)
					}
					test.AssertEqualWithDiff(t, errors, c.Expected)
					return
				}
				if errors != "" {
					t.Fatalf("%s:%d: unexpected errors:\n%s", file, c.Line, errors)
				}
				test.AssertEqualWithDiff(t, strings.TrimRight(lua, "\n"), c.Expected)
			})
		}
	}
}
