// Package matcher decides whether two Offers from different bookmakers
// describe the same real-world event, and aligns one Offer's outcome vector
// onto another's so that downstream components can treat column i across
// several offers as "the same real outcome".
//
// The algorithm (token extraction, abbreviation similarity, greedy
// reservation, outcome collation) is a direct port of the matching rules the
// rest of this codebase's lineage implements in its offer-correlation layer;
// it is pure and total — it never errors, and a false positive only produces
// a bogus market that a later dimension check (outcome-count mismatch) will
// reject.
package matcher

import (
	"strings"
	"unicode"

	"github.com/oddsarb/engine/internal/market"
)

const matchThreshold = 0.7

var noiseWords = map[string]struct{}{
	"":      {},
	"de":    {},
	"fc":    {},
	"sc":    {},
	"fk":    {},
	"city":  {},
	"club":  {},
	"state": {},
	"st.":   {},
}

// RoundDate snaps a unix timestamp to the nearest 30-minute slot.
func RoundDate(ts uint32) uint32 {
	return (ts + 15*60) / (30 * 60) * (30 * 60)
}

// Headline is the coarse key that must match before two Offers are even
// candidates for fuzzy comparison.
type Headline struct {
	RoundedDate uint32
	Game        market.Game
	Kind        market.Kind
	OutcomeLen  int
}

// GetHeadline extracts the Headline of an Offer.
func GetHeadline(o market.Offer) Headline {
	return Headline{
		RoundedDate: RoundDate(o.Date),
		Game:        o.Game,
		Kind:        o.Kind,
		OutcomeLen:  len(o.Outcomes),
	}
}

// token carries both the original slice (for case tests, i.e. is_abbr) and
// its alphanumeric-lowercased projection (for content comparison).
type token struct {
	original  string
	projected string
}

func isAbbr(original string) bool {
	for _, r := range original {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func project(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '-' || r == '/'
}

// getTokens splits a title on whitespace/-//, drops noise words and
// empty-projection pieces, and keeps both the original and projected forms
// of what remains.
func getTokens(title string) []token {
	pieces := strings.FieldsFunc(title, isSeparator)
	tokens := make([]token, 0, len(pieces))

	for _, piece := range pieces {
		if _, noise := noiseWords[strings.ToLower(piece)]; noise {
			continue
		}
		proj := project(piece)
		if proj == "" {
			continue
		}
		tokens = append(tokens, token{original: piece, projected: proj})
	}

	return tokens
}

// abbreviationSim walks abbr's projected characters one at a time against
// the first projected character of each token in title, advancing whenever
// the current target letter is matched.
func abbreviationSim(abbr token, title []token) float64 {
	target := []rune(abbr.projected)
	if len(target) == 0 {
		return 0
	}

	matched := 0
	idx := 0

	for _, t := range title {
		if idx >= len(target) {
			break
		}
		chars := []rune(t.projected)
		if len(chars) == 0 {
			continue
		}
		if chars[0] == target[idx] {
			idx++
			matched++
		}
	}

	return float64(matched) / float64(len(target))
}

func pairScore(lhs token, right []token) float64 {
	best := 0.0

	for _, rhs := range right {
		var s float64

		switch {
		case lhs.projected == rhs.projected:
			s = 1.0
		case len([]rune(lhs.projected)) > 3 && strings.HasPrefix(lhs.projected, rhs.projected):
			s = float64(len([]rune(rhs.projected))) / float64(len([]rune(lhs.projected)))
		case isAbbr(lhs.original):
			s = abbreviationSim(lhs, right)
		default:
			s = 0
		}

		if s > best {
			best = s
		}
	}

	return best
}

// tokensSim is the mean, over left's tokens, of each token's best score
// against right's tokens.
func tokensSim(left, right []token) float64 {
	if len(left) == 0 {
		return 0
	}

	var sum float64
	for _, l := range left {
		sum += pairScore(l, right)
	}

	return sum / float64(len(left))
}

// titlesSim is the (non-commutative tokenSim made commutative by taking the
// max of both directions) similarity between two titles.
func titlesSim(l, r string) float64 {
	lt := getTokens(l)
	rt := getTokens(r)

	a := tokensSim(lt, rt)
	b := tokensSim(rt, lt)

	if a > b {
		return a
	}
	return b
}

func coefsSim(x, y float64) float64 {
	diff := x - y
	if diff < 0 {
		diff = -diff
	}
	return 1 - diff/(x+y)
}

// CompareOffers reports whether left and right describe the same real
// event. Headlines must match exactly first; then, for each non-draw left
// outcome, the highest-titlesSim non-draw right outcome not already claimed
// by an earlier left outcome is greedily reserved, and the mean of those
// maxima must reach 0.7.
func CompareOffers(left, right market.Offer) bool {
	if GetHeadline(left) != GetHeadline(right) {
		return false
	}

	reserved := make([]bool, len(right.Outcomes))
	var sum float64
	count := 0

	for _, lo := range left.Outcomes {
		if lo.IsDraw() {
			continue
		}
		count++

		bestScore := -1.0
		bestIdx := -1

		for j, ro := range right.Outcomes {
			if ro.IsDraw() || reserved[j] {
				continue
			}
			s := titlesSim(lo.Title, ro.Title)
			if s > bestScore {
				bestScore = s
				bestIdx = j
			}
		}

		if bestIdx >= 0 {
			reserved[bestIdx] = true
			sum += bestScore
		}
	}

	if count == 0 {
		return false
	}

	return sum/float64(count) >= matchThreshold
}

// CollateOutcomes permutes candidate so that candidate[i] aligns with
// etalon[i], by repeatedly swapping in the remaining candidate outcome with
// the highest combined title/coefficient similarity to etalon[i].
func CollateOutcomes(etalon, candidate []market.Outcome) []market.Outcome {
	result := make([]market.Outcome, len(candidate))
	copy(result, candidate)

	for i := range etalon {
		bestScore := -1.0
		bestJ := i

		for j := i; j < len(result); j++ {
			s := 0.8*titlesSim(etalon[i].Title, result[j].Title) + 0.2*coefsSim(etalon[i].Coef, result[j].Coef)
			if s > bestScore {
				bestScore = s
				bestJ = j
			}
		}

		result[i], result[bestJ] = result[bestJ], result[i]
	}

	return result
}
