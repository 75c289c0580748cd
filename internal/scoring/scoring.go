// Package scoring grades a submission against a test's answer key.
//
// Matching is membership-based on the whole token: a submitted "3-b" is
// correct if "3-b" appears anywhere in the expected set, regardless of
// position. This mirrors the behavior the product has always had; see
// the pinning test before changing it to positional matching.
package scoring

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

// tokenPattern is the canonical answer form: question number, hyphen,
// option letter a-d, case-insensitive.
var tokenPattern = regexp.MustCompile(`^\d+-[a-dA-D]$`)

// ValidToken reports whether s is a canonical answer token.
func ValidToken(s string) bool {
	return tokenPattern.MatchString(s)
}

// ParseTokens splits text into lines and keeps only canonical answer
// tokens, trimmed, in input order. Case is preserved; lower-case the
// result for submissions.
func ParseTokens(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if tokenPattern.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}

// ParseSubmission is ParseTokens with each token lower-cased.
func ParseSubmission(text string) []string {
	tokens := ParseTokens(text)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}
	return tokens
}

// Score counts submitted tokens present in the lower-cased expected set and
// returns the percentage of the expected count. The caller checks that both
// sequences are non-empty and of equal length.
func Score(expected, submitted []string) (score float64, correct int) {
	set := make(map[string]struct{}, len(expected))
	for _, a := range expected {
		set[strings.ToLower(a)] = struct{}{}
	}
	for _, a := range submitted {
		if _, ok := set[a]; ok {
			correct++
		}
	}
	return 100 * float64(correct) / float64(len(expected)), correct
}

type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierAverage   Tier = "average"
	TierLow       Tier = "low"
)

// TierFor maps a score to its feedback tier. Bounds are inclusive at the
// bottom: 86 is excellent, 85.9 is good.
func TierFor(score float64) Tier {
	switch {
	case score >= 86:
		return TierExcellent
	case score >= 70:
		return TierGood
	case score >= 50:
		return TierAverage
	default:
		return TierLow
	}
}

// TierLabel is the report wording for a tier.
func TierLabel(t Tier) string {
	switch t {
	case TierExcellent:
		return "A'lo"
	case TierGood:
		return "Yaxshi"
	case TierAverage:
		return "O'rtacha"
	default:
		return "Qoniqarsiz"
	}
}

var feedbackTemplates = map[Tier][]string{
	TierExcellent: {
		"Ajoyib natija, %s! %.1f%% - bu zo'r ko'rsatkich! Shunday davom et! 🔥",
		"%s, natijang %.1f%%! Sen a'lo darajada ishlayapsan! 🚀",
		"Bravo, %s! %.1f%% - harakat qilayotganing seziladi! 👏",
		"%s, sening %.1f%% natijang hayratlanarli! G'alaba yaqin! 🏆",
	},
	TierGood: {
		"%s, %.1f%% natijang juda yaxshi! Lekin yanada zo'r bo'lishing mumkin! 💡",
		"Juda yaxshi, %s! %.1f%% - yaxshi natija, ammo bundan ham yaxshiroq qila olasan! 😊",
		"Zo'r harakat, %s! %.1f%% natijani yana ham oshirish mumkin! 💪",
	},
	TierAverage: {
		"%s, sening natijang %.1f%%. Yaxshi harakat, lekin yana mashq kerak! 💡",
		"O'rtacha natija, %s (%.1f%%)! Keyingi safar yaxshiroq bo'lishiga ishonamiz! 😊",
		"%s, %.1f%% - yomon emas, ammo sen yaxshiroq natija chiqara olasan! 🔥",
	},
	TierLow: {
		"%s, harakatda davom et! %.1f%% - bu faqat boshlanishi! 🔥",
		"Unutma, %s, muhimi - o'rganish! %.1f%% keyingi safar ancha yaxshi bo'ladi! 🚀",
		"%s, %.1f%% natija seni tushkunlikka solmasin! Xatolardan o'rganamiz! 💪",
	},
}

// Feedback picks a random congratulatory template for the score's tier,
// filled with the display name and the score to one decimal place.
func Feedback(name string, score float64) string {
	pool := feedbackTemplates[TierFor(score)]
	return fmt.Sprintf(pool[rand.Intn(len(pool))], name, score)
}
