package detect

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/botsieve/botsieve/app/stream"
)

// Signal weights. All additive; the final score is clamped to [0,1].
const (
	weightDigitsInAuthor  = 0.20
	weightShortAuthor     = 0.10
	weightAllCapsAuthor   = 0.15
	weightPerSpamKeyword  = 0.10
	weightSpamKeywordCap  = 0.30
	weightLinks           = 0.25
	weightManyPictographs = 0.15
	weightRepeatedChars   = 0.10
	weightExtremeLength   = 0.10
	weightGenericPhrase   = 0.15
	pictographThreshold   = 5
	repeatedRunLength     = 4
	shortContentLength    = 10
	longContentLength     = 1000
)

var spamKeywords = []string{
	"click here", "check out", "visit", "subscribe",
	"earn money", "free", "free money", "winner", "congratulations",
	"limited time", "act now", "make money",
}

var genericPhrases = []string{
	"nice video", "great content", "awesome", "cool",
	"first", "early", "good", "nice", "love this",
}

var consecutiveDigitsRe = regexp.MustCompile(`[0-9]{4}`)

// pictographRanges covers the emoji blocks the scorer treats as
// pictographic symbols.
var pictographRanges = [][2]rune{
	{0x1F300, 0x1F5FF}, // symbols & pictographs
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F680, 0x1F6FF}, // transport & map symbols
	{0x1F1E6, 0x1F1FF}, // regional indicators
	{0x2600, 0x27BF},   // misc symbols & dingbats
}

// Scorer is the local heuristic fallback: a pure function over item
// content. No I/O, no randomness, no state; identical input always
// produces an identical score.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

func (s *Scorer) Run(item stream.Item) float64 {
	score := 0.0

	score += s.authorSignals(item.Author)
	score += s.contentSignals(item.Text)

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}

func (s *Scorer) authorSignals(author string) float64 {
	score := 0.0

	if consecutiveDigitsRe.MatchString(author) {
		score += weightDigitsInAuthor
	}

	runes := []rune(author)
	if len(runes) < 5 {
		score += weightShortAuthor
	}
	if len(runes) >= 4 && isAllUpper(runes) {
		score += weightAllCapsAuthor
	}

	return score
}

func (s *Scorer) contentSignals(text string) float64 {
	score := 0.0
	lower := strings.ToLower(text)

	if keywordScore := float64(countSpamKeywords(lower)) * weightPerSpamKeyword; keywordScore > 0 {
		if keywordScore > weightSpamKeywordCap {
			keywordScore = weightSpamKeywordCap
		}
		score += keywordScore
	}

	if strings.Contains(lower, "http") || strings.Contains(lower, "www.") {
		score += weightLinks
	}

	if countPictographs(text) > pictographThreshold {
		score += weightManyPictographs
	}

	if hasRepeatedRun(text, repeatedRunLength) {
		score += weightRepeatedChars
	}

	length := len([]rune(text))
	if length < shortContentLength || length > longContentLength {
		score += weightExtremeLength
	}

	if isGenericPhrase(lower) {
		score += weightGenericPhrase
	}

	return score
}

func countSpamKeywords(lower string) int {
	count := 0
	for _, keyword := range spamKeywords {
		if strings.Contains(lower, keyword) {
			count++
		}
	}
	return count
}

// countPictographs counts pictographic symbols in UTF-16 code units, so
// an emoji outside the basic plane counts as two. The vote corpus this
// scorer was tuned against counted surrogate halves individually;
// changing the unit would shift every threshold.
func countPictographs(text string) int {
	count := 0
	for _, r := range text {
		for _, rng := range pictographRanges {
			if r >= rng[0] && r <= rng[1] {
				count += utf16.RuneLen(r)
				break
			}
		}
	}
	return count
}

func hasRepeatedRun(text string, minRun int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= minRun {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

func isGenericPhrase(lower string) bool {
	trimmed := strings.TrimSpace(lower)
	for _, phrase := range genericPhrases {
		if trimmed == phrase {
			return true
		}
	}
	return false
}

func isAllUpper(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsUpper(r) || !unicode.IsLetter(r) {
			return false
		}
	}
	return len(runes) > 0
}
