package synth

import (
	"fmt"

	"github.com/okian/clutch/internal/domain/clutch"
	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/query"
)

const (
	varGame   = "g"
	varEvent  = "e"
	varPlayer = "p"
	varRole   = "r"
)

// builder turns validated parameters into a query.
type builder func(params map[string]any, policy clutch.Policy) (query.Query, error)

var builders = map[string]builder{
	"clutch_scoring": buildClutchScoring,
	"game_winners":   buildGameWinners,
	"player_clutch":  buildPlayerClutch,
	"game_clutch":    buildGameClutch,
}

// clutchPattern matches scorers of clutch baskets within window seconds.
// Windows inside the classifier window reuse the stored clutch flag; wider
// windows restate the policy so the stored flag does not cut them short.
func clutchPattern(name string, window int, policy clutch.Policy) *query.Builder {
	b := query.NewBuilder(name).
		Match(varGame, model.NodeGame).
		Match(varEvent, model.NodeEvent).
		Match(varPlayer, model.NodePlayer).
		InGame(varEvent, varGame).
		Performed(varRole, varPlayer, varEvent, model.RolePlayer1)

	if window <= policy.WindowSeconds {
		b.Where(varEvent, query.Eq(model.PropIsClutch, true))
		if window < policy.WindowSeconds {
			b.Where(varEvent, query.Lte(model.PropSecondsLeft, window))
		}
	} else {
		b.Where(varEvent,
			query.Gte(model.PropPeriod, policy.FinalPeriod),
			query.Lte(model.PropSecondsLeft, window),
			query.In(model.PropEventType, scoringTypes(policy)...),
		)
	}

	return b.
		Return(query.ColGame, varGame, model.PropGameID).
		Return(query.ColPeriod, varEvent, model.PropPeriod).
		Return(query.ColSecLeft, varEvent, model.PropSecondsLeft).
		Return(query.ColScorer, varPlayer, model.PropName).
		Return(query.ColScoreHome, varEvent, model.PropScoreHome).
		Return(query.ColScoreVisitor, varEvent, model.PropScoreVisitor).
		Return(query.ColHomeDesc, varEvent, model.PropHomeDesc).
		Return(query.ColVisitDesc, varEvent, model.PropVisitDesc).
		Return(query.ColRole, varRole, model.PropRole).
		OrderBy(query.ColGame, false).
		OrderBy(query.ColSecLeft, false).
		Param("window", window)
}

func scoringTypes(policy clutch.Policy) []any {
	var out []any
	for et := model.EventOther; et <= model.EventPeriodEnd; et++ {
		if policy.Scoring[et] {
			out = append(out, et.String())
		}
	}
	return out
}

func buildClutchScoring(params map[string]any, policy clutch.Policy) (query.Query, error) {
	return clutchPattern("clutch_scoring", params["window"].(int), policy).Build()
}

func buildGameWinners(params map[string]any, policy clutch.Policy) (query.Query, error) {
	margin := params["margin"].(int)
	return clutchPattern("game_winners", params["window"].(int), policy).
		Where(varEvent,
			query.Gte(model.PropScoreMargin, -margin),
			query.Lte(model.PropScoreMargin, margin),
		).
		Param("margin", margin).
		Build()
}

func buildPlayerClutch(params map[string]any, policy clutch.Policy) (query.Query, error) {
	player, _ := params["player"].(string)
	if player == "" {
		return query.Query{}, fmt.Errorf("%w: player is required", query.ErrInvalidQuery)
	}
	b := clutchPattern("player_clutch", params["window"].(int), policy).
		Where(varPlayer, query.ContainsFold(model.PropName, player)).
		Param("player", player)
	if games, ok := params["game"].([]string); ok && len(games) > 0 {
		b.Where(varGame, query.In(model.PropGameID, gameIDForms(games)...)).Param("game", games)
	}
	return b.Build()
}

func buildGameClutch(params map[string]any, policy clutch.Policy) (query.Query, error) {
	games, _ := params["game"].([]string)
	if len(games) == 0 {
		return query.Query{}, fmt.Errorf("%w: game is required", query.ErrInvalidQuery)
	}
	return clutchPattern("game_clutch", params["window"].(int), policy).
		Where(varGame, query.In(model.PropGameID, gameIDForms(games)...)).
		Param("game", games).
		Build()
}
