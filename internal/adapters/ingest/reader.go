package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/okian/clutch/internal/domain/model"
)

// NBA stats play-by-play columns.
const (
	colGameID       = "GAME_ID"
	colEventNum     = "EVENTNUM"
	colMsgType      = "EVENTMSGTYPE"
	colPeriod       = "PERIOD"
	colClock        = "PCTIMESTRING"
	colHomeDesc     = "HOMEDESCRIPTION"
	colNeutralDesc  = "NEUTRALDESCRIPTION"
	colVisitDesc    = "VISITORDESCRIPTION"
	colScore        = "SCORE"
	colPlayerID     = "PLAYER%d_ID"
	colPlayerName   = "PLAYER%d_NAME"
	colPlayerTeam   = "PLAYER%d_TEAM_ABBREVIATION"
	gzipMagic0      = 0x1f
	gzipMagic1      = 0x8b
	utf8ByteOrderMk = "\ufeff"
)

var requiredColumns = []string{colGameID, colEventNum, colMsgType, colPeriod, colClock}

// Batch is the parsed content of one input.
type Batch struct {
	Plays     []model.Play
	Malformed []*RowError
}

// Open opens a CSV file, gzip-compressed or not.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	r, err := Decompress(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return readCloser{Reader: r, close: f.Close}, nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (rc readCloser) Close() error { return rc.close() }

// Decompress transparently gunzips r when it starts with the gzip magic.
func Decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil || magic[0] != gzipMagic0 || magic[1] != gzipMagic1 {
		return br, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %w", ErrReadInput, err)
	}
	return zr, nil
}

// ReadPlays parses a play-by-play CSV. Rows that fail to parse are returned
// in Malformed; the rest are sorted by game, period and event number, and
// carry the home and visitor tricodes derived for their game.
func ReadPlays(r io.Reader) (Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Batch{}, fmt.Errorf("%w: %s", ErrMissingColumn, colGameID)
		}
		return Batch{}, fmt.Errorf("%w: header: %w", ErrReadInput, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, utf8ByteOrderMk)))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return Batch{}, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	var b Batch
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				b.Malformed = append(b.Malformed, &RowError{Line: line, Column: "csv", Err: err})
				continue
			}
			return Batch{}, fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		p, rerr := parseRow(idx, rec, line)
		if rerr != nil {
			b.Malformed = append(b.Malformed, rerr)
			continue
		}
		b.Plays = append(b.Plays, p)
	}

	assignTeams(b.Plays)
	sort.SliceStable(b.Plays, func(i, j int) bool {
		a, c := b.Plays[i], b.Plays[j]
		if a.GameID != c.GameID {
			return a.GameID < c.GameID
		}
		if a.Period != c.Period {
			return a.Period < c.Period
		}
		return a.Num < c.Num
	})
	return b, nil
}

func parseRow(idx map[string]int, rec []string, line int) (model.Play, *RowError) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	num := func(col string) (int, *RowError) {
		n, err := parseInt(get(col))
		if err != nil {
			return 0, &RowError{Line: line, Column: col, Err: err}
		}
		return n, nil
	}

	p := model.Play{Line: line, GameID: trimFloat(get(colGameID))}
	if p.GameID == "" {
		return p, &RowError{Line: line, Column: colGameID, Err: errors.New("empty")}
	}
	var rerr *RowError
	if p.Num, rerr = num(colEventNum); rerr != nil {
		return p, rerr
	}
	if p.MsgType, rerr = num(colMsgType); rerr != nil {
		return p, rerr
	}
	if p.Period, rerr = num(colPeriod); rerr != nil {
		return p, rerr
	}
	secs, err := parseClock(get(colClock))
	if err != nil {
		return p, &RowError{Line: line, Column: colClock, Err: err}
	}
	p.SecondsLeft = secs

	p.HomeDesc = optional(get(colHomeDesc))
	p.NeutralDesc = optional(get(colNeutralDesc))
	p.VisitDesc = optional(get(colVisitDesc))
	p.Score = get(colScore)

	for i := range p.Players {
		n := i + 1
		p.Players[i] = model.Participant{
			ID:   trimFloat(get(fmt.Sprintf(colPlayerID, n))),
			Name: get(fmt.Sprintf(colPlayerName, n)),
			Team: strings.ToUpper(get(fmt.Sprintf(colPlayerTeam, n))),
		}
	}
	return p, nil
}

// parseClock turns "m:ss" into seconds.
func parseClock(s string) (int, error) {
	m, sec, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("clock %q is not m:ss", s)
	}
	mins, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	secs, err := strconv.Atoi(sec)
	if err != nil || len(sec) != 2 || secs > 59 {
		return 0, fmt.Errorf("clock %q is not m:ss", s)
	}
	return mins*60 + secs, nil
}

// parseScore reads the "visitor - home" SCORE text.
func parseScore(s string) (model.Score, error) {
	v, h, ok := strings.Cut(s, "-")
	if !ok {
		return model.Score{}, fmt.Errorf("score %q is not visitor - home", s)
	}
	visitor, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return model.Score{}, fmt.Errorf("score %q: %w", s, err)
	}
	home, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return model.Score{}, fmt.Errorf("score %q: %w", s, err)
	}
	return model.Score{Home: home, Visitor: visitor}, nil
}

// parseInt accepts integers written as floats ("12.0"), as spreadsheet
// exports tend to produce.
func parseInt(s string) (int, error) {
	return strconv.Atoi(trimFloat(s))
}

func trimFloat(s string) string {
	return strings.TrimSuffix(s, ".0")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// assignTeams derives each game's tricodes from the PLAYER1 team of rows
// described from one side only. The most frequent code wins; ties go to the
// alphabetically first.
func assignTeams(plays []model.Play) {
	type tally map[string]int
	home := map[string]tally{}
	visitor := map[string]tally{}
	for _, p := range plays {
		team := p.Players[0].Team
		if team == "" {
			continue
		}
		var side map[string]tally
		switch {
		case p.HomeDesc != nil && p.VisitDesc == nil:
			side = home
		case p.VisitDesc != nil && p.HomeDesc == nil:
			side = visitor
		default:
			continue
		}
		if side[p.GameID] == nil {
			side[p.GameID] = tally{}
		}
		side[p.GameID][team]++
	}
	pick := func(t tally) string {
		best, n := "", 0
		for team, c := range t {
			if c > n || (c == n && team < best) {
				best, n = team, c
			}
		}
		return best
	}
	teams := map[string][2]string{}
	for i := range plays {
		id := plays[i].GameID
		t, ok := teams[id]
		if !ok {
			t = [2]string{pick(home[id]), pick(visitor[id])}
			teams[id] = t
		}
		plays[i].HomeTeam, plays[i].VisitorTeam = t[0], t[1]
	}
}
