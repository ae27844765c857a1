package helpers

import "unicode/utf8"

// Suggests a correction for a misspelled word that is one deleted, inserted
// or replaced character away from a known word. Only words longer than three
// characters are considered since shorter ones produce too many false hits.
type TypoDetector struct {
	oneCharTypos map[string]string
}

func MakeTypoDetector(valid []string) TypoDetector {
	detector := TypoDetector{oneCharTypos: make(map[string]string)}

	for _, correct := range valid {
		if len(correct) > 3 {
			detector.oneCharTypos[correct] = correct
			for i, ch := range correct {
				detector.oneCharTypos[correct[:i]+correct[i+utf8.RuneLen(ch):]] = correct
			}
		}
	}

	return detector
}

func (detector TypoDetector) MaybeCorrectTypo(typo string) (string, bool) {
	// Check for a single deleted character
	if corrected, ok := detector.oneCharTypos[typo]; ok && corrected != typo {
		return corrected, true
	}

	// Check for a single inserted or replaced character
	for i, ch := range typo {
		if corrected, ok := detector.oneCharTypos[typo[:i]+typo[i+utf8.RuneLen(ch):]]; ok && corrected != typo {
			return corrected, true
		}
	}

	return "", false
}
