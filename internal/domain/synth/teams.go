package synth

import (
	"regexp"
	"strings"
)

// teamWords maps lowercase nicknames and cities to a tricode. Entries in
// teamWordsCased double as ordinary English and only count when capitalised.
var teamWords = map[string]string{
	"hawks": "ATL", "atlanta": "ATL",
	"celtics": "BOS", "boston": "BOS",
	"nets": "BKN", "brooklyn": "BKN",
	"hornets": "CHA", "charlotte": "CHA",
	"bulls": "CHI", "chicago": "CHI",
	"cavaliers": "CLE", "cavs": "CLE", "cleveland": "CLE",
	"mavericks": "DAL", "mavs": "DAL", "dallas": "DAL",
	"nuggets": "DEN", "denver": "DEN",
	"pistons": "DET", "detroit": "DET",
	"warriors": "GSW",
	"rockets": "HOU", "houston": "HOU",
	"pacers": "IND", "indiana": "IND",
	"clippers": "LAC",
	"lakers": "LAL",
	"grizzlies": "MEM", "memphis": "MEM", "vancouver": "VAN",
	"heat": "MIA", "miami": "MIA",
	"bucks": "MIL", "milwaukee": "MIL",
	"timberwolves": "MIN", "wolves": "MIN", "minnesota": "MIN",
	"pelicans": "NOP",
	"knicks": "NYK",
	"thunder": "OKC", "sonics": "SEA", "supersonics": "SEA", "seattle": "SEA",
	"magic": "ORL", "orlando": "ORL",
	"76ers": "PHI", "sixers": "PHI", "philadelphia": "PHI",
	"suns": "PHX", "phoenix": "PHX",
	"blazers": "POR", "portland": "POR",
	"kings": "SAC", "sacramento": "SAC",
	"spurs": "SAS",
	"raptors": "TOR", "toronto": "TOR",
	"jazz": "UTA", "utah": "UTA",
	"wizards": "WAS", "bullets": "WAS",
}

var teamWordsCased = map[string]bool{
	"heat": true, "magic": true, "thunder": true, "kings": true, "nets": true, "suns": true, "jazz": true,
}

var teamPhrases = map[string]string{
	"golden state": "GSW", "los angeles": "LAL", "new york": "NYK",
	"new jersey": "NJN", "new orleans": "NOP", "oklahoma city": "OKC",
	"san antonio": "SAS", "trail blazers": "POR",
}

var reTricode = regexp.MustCompile(`\b[A-Z]{3}\b`)

// teamMention returns the tricode of the first team the question names.
func teamMention(n normalized) string {
	for _, m := range reTricode.FindAllString(n.cased, -1) {
		for _, code := range teamWords {
			if code == m {
				return m
			}
		}
	}
	for phrase, code := range teamPhrases {
		if termMatches(phrase, n) {
			return code
		}
	}
	for _, w := range strings.Fields(n.cased) {
		w = strings.TrimRight(w, ".,;:!?\"")
		w = strings.TrimSuffix(strings.TrimSuffix(w, "'s"), "'")
		lw := strings.ToLower(w)
		code, ok := teamWords[lw]
		if !ok {
			continue
		}
		if teamWordsCased[lw] && (w == "" || w[0] < 'A' || w[0] > 'Z') {
			continue
		}
		return code
	}
	return ""
}
