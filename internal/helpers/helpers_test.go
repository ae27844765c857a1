package helpers_test

import (
	"testing"

	"github.com/luasharp/luasharp/internal/helpers"
	"github.com/nalgeon/be"
)

func TestQuoteForLua(t *testing.T) {
	be.Equal(t, helpers.QuoteForLua("abc"), `"abc"`)
	be.Equal(t, helpers.QuoteForLua(`say "hi"`), `'say "hi"'`)
	be.Equal(t, helpers.QuoteForLua(`it's "x"`), `"it's \"x\""`)
	be.Equal(t, helpers.QuoteForLua("a\nb\\c"), `"a\nb\\c"`)
	be.Equal(t, helpers.QuoteForLua("\x01"), `"\1"`)
	be.Equal(t, helpers.QuoteForLua("héllo"), `"héllo"`)
}

func TestTypoDetector(t *testing.T) {
	detector := helpers.MakeTypoDetector([]string{"foreach", "switch", "lambda"})

	corrected, ok := detector.MaybeCorrectTypo("forech")
	be.True(t, ok)
	be.Equal(t, corrected, "foreach")

	corrected, ok = detector.MaybeCorrectTypo("swiitch")
	be.True(t, ok)
	be.Equal(t, corrected, "switch")

	corrected, ok = detector.MaybeCorrectTypo("lambdo")
	be.True(t, ok)
	be.Equal(t, corrected, "lambda")

	_, ok = detector.MaybeCorrectTypo("while")
	be.True(t, !ok)
}
