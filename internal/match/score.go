package match

import (
	"math"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/jaki95/plex-playlist-importer/internal/domain"
)

// Weights for blending the album similarity into the combined-key score.
// Tunable, but kept at the values the importer has always shipped with.
const (
	baseWeight  = 0.7
	albumWeight = 0.3
)

// Score rates how well a catalog candidate matches an entry, on a 0-100
// scale rounded to two decimals. The base score compares the normalized
// "<artist> - <title>" keys with a token-weighted ratio; when both sides
// carry an album name, a partial album match is blended in.
func Score(entry domain.Entry, candidate domain.Candidate) float64 {
	entryKey := Normalize(entry.CombinedKey())
	candidateKey := Normalize(candidate.Artist() + " - " + candidate.Title())

	score := weightedRatio(entryKey, candidateKey)

	if entry.AlbumName != "" && candidate.Album() != "" {
		albumScore := partialRatio(Normalize(entry.AlbumName), Normalize(candidate.Album()))
		score = score*baseWeight + albumScore*albumWeight
	}

	return math.Round(score*100) / 100
}

// weightedRatio is the order-independent, substring-tolerant similarity used
// for the combined keys: the best of the plain, token-sorted and token-set
// ratios. Taking the maximum keeps ties in favour of the higher raw
// character overlap.
func weightedRatio(a, b string) float64 {
	score := ratio(a, b)
	if s := tokenSortRatio(a, b); s > score {
		score = s
	}
	if s := tokenSetRatio(a, b); s > score {
		score = s
	}
	return score
}

// ratio is a plain Levenshtein similarity scaled to 0-100.
func ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	sim, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return 100 * float64(sim)
}

// tokenSortRatio compares the strings with their tokens sorted, so word
// order does not matter.
func tokenSortRatio(a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

// tokenSetRatio compares around the shared token set, so one side carrying
// extra tokens (a featuring credit, a version tag) is not penalised for the
// words both sides agree on.
func tokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return ratio(a, b)
	}

	var common, restA, restB []string
	for token := range setA {
		if _, ok := setB[token]; ok {
			common = append(common, token)
		} else {
			restA = append(restA, token)
		}
	}
	for token := range setB {
		if _, ok := setA[token]; !ok {
			restB = append(restB, token)
		}
	}
	sort.Strings(common)
	sort.Strings(restA)
	sort.Strings(restB)

	base := strings.Join(common, " ")
	combinedA := strings.TrimSpace(base + " " + strings.Join(restA, " "))
	combinedB := strings.TrimSpace(base + " " + strings.Join(restB, " "))

	best := ratio(base, combinedA)
	if s := ratio(base, combinedB); s > best {
		best = s
	}
	if s := ratio(combinedA, combinedB); s > best {
		best = s
	}
	return best
}

// partialRatio is a substring-tolerant similarity: the shorter string is
// compared against every same-length window of the longer one and the best
// window wins.
func partialRatio(a, b string) float64 {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		if len(longer) == 0 {
			return 100
		}
		return 0
	}

	best := 0.0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		window := string(longer[start : start+len(shorter)])
		if s := ratio(string(shorter), window); s > best {
			best = s
			if best == 100 {
				break
			}
		}
	}
	return best
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}
	return set
}
