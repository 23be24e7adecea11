package synth

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gosimple/unidecode"
)

var (
	reWindowSeconds = regexp.MustCompile(`\b(?:last|final|closing)\s+(\d+)\s*(?:seconds?|secs?|s)\b`)
	reWindowMinutes = regexp.MustCompile(`\b(?:last|final|closing)\s+(\d+)\s*(?:minutes?|mins?)\b`)
	reWindowMinute  = regexp.MustCompile(`\b(?:last|final|closing)\s+(?:minute|min)\b`)
	reMargin        = regexp.MustCompile(`\bwithin\s+(\d+)\s*(?:points?|pts)\b`)
	reGameID        = regexp.MustCompile(`\b(\d{5,10})\b`)

	namePart       = `[A-Z][A-Za-z.'-]*`
	nameSeq        = namePart + `(?:\s+` + namePart + `){0,2}`
	rePossessive   = regexp.MustCompile(`\b(` + nameSeq + `)'s\b`)
	reByFrom       = regexp.MustCompile(`\b(?:by|from)\s+(` + nameSeq + `)`)
	reWord         = regexp.MustCompile(`[a-z0-9][a-z0-9'-]*`)
	nonPlayerNames = map[string]bool{
		"nba": true, "game": true, "games": true, "finals": true, "the": true,
		"bulls": true, "jazz": true, "chicago": true, "utah": true, "which": true,
		"what": true, "who": true, "show": true, "list": true, "clutch": true,
	}
)

// normalized is the question in the two forms matching needs.
type normalized struct {
	// cased keeps capitalisation for player names.
	cased string
	// lower is folded and lowercased for keywords and numbers.
	lower string
	words []string
}

func normalize(question string) normalized {
	cased := strings.Join(strings.Fields(unidecode.Unidecode(question)), " ")
	cased = strings.NewReplacer("`", "'").Replace(cased)
	lower := strings.ToLower(cased)
	return normalized{cased: cased, lower: lower, words: reWord.FindAllString(lower, -1)}
}

// extract pulls every parameter the regexes recognise.
func extract(n normalized) map[string]any {
	out := map[string]any{}

	// Numbers stay as written so binding can reject the ones out of range.
	switch {
	case reWindowSeconds.MatchString(n.lower):
		out["window"] = reWindowSeconds.FindStringSubmatch(n.lower)[1]
	case reWindowMinutes.MatchString(n.lower):
		v, err := strconv.Atoi(reWindowMinutes.FindStringSubmatch(n.lower)[1])
		if err != nil || v > math.MaxInt32/60 {
			v = -1
		}
		out["window"] = v * 60
	case reWindowMinute.MatchString(n.lower):
		out["window"] = 60
	}

	if m := reMargin.FindStringSubmatch(n.lower); m != nil {
		out["margin"] = m[1]
	}

	if ids := reGameID.FindAllStringSubmatch(n.lower, -1); len(ids) > 0 {
		games := make([]string, 0, len(ids))
		seen := map[string]bool{}
		for _, m := range ids {
			id := canonicalGameID(m[1])
			if !seen[id] {
				seen[id] = true
				games = append(games, id)
			}
		}
		out["game"] = games
	}

	if team := teamMention(n); team != "" {
		out["team"] = team
	}

	if name := playerName(n.cased); name != "" {
		out["player"] = name
	}
	return out
}

func playerName(cased string) string {
	for _, re := range []*regexp.Regexp{rePossessive, reByFrom} {
		for _, m := range re.FindAllStringSubmatch(cased, -1) {
			fields := strings.Fields(m[1])
			for len(fields) > 0 && nonPlayerNames[strings.ToLower(fields[0])] {
				fields = fields[1:]
			}
			if len(fields) > 0 {
				return strings.Join(fields, " ")
			}
		}
	}
	return ""
}

// canonicalGameID strips the leading zeros NBA ids carry in some sources.
func canonicalGameID(id string) string {
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// gameIDForms returns the spellings a stored game id may have.
func gameIDForms(ids []string) []any {
	out := make([]any, 0, 2*len(ids))
	for _, id := range ids {
		c := canonicalGameID(id)
		out = append(out, c)
		if len(c) < 10 {
			out = append(out, strings.Repeat("0", 10-len(c))+c)
		}
	}
	return out
}

// keywordScore is the share of keyword groups with at least one hit.
func keywordScore(t Template, n normalized) float64 {
	if len(t.Keywords) == 0 {
		return 0
	}
	hits := 0
	for _, group := range t.Keywords {
		for _, term := range group {
			if termMatches(term, n) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(t.Keywords))
}

func termMatches(term string, n normalized) bool {
	prefix := strings.HasSuffix(term, "*")
	term = strings.TrimSuffix(term, "*")
	if strings.Contains(term, " ") {
		idx := strings.Index(" "+n.lower, " "+term)
		if idx < 0 {
			return false
		}
		if prefix {
			return true
		}
		end := idx + len(term)
		return end == len(n.lower) || !isWordByte(n.lower[end])
	}
	for _, w := range n.words {
		if w == term || (prefix && strings.HasPrefix(w, term)) {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
