package repository

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/query"
	"github.com/okian/clutch/pkg/logger"
)

// Neo4jStore keeps the graph in Neo4j.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	log      logger.Logger
}

// NewNeo4jStore connects to uri and verifies connectivity. Uniqueness
// constraints are created best-effort.
func NewNeo4jStore(ctx context.Context, uri, user, password string, opts ...Option) (*Neo4jStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if user == "" {
		user = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""), func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = o.maxPoolSize
		cfg.SocketConnectTimeout = o.timeout
	})
	if err != nil {
		return nil, fmt.Errorf("%w: init driver: %w", ErrStoreUnavailable, err)
	}

	vctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("%w: verify connectivity: %w", ErrStoreUnavailable, err)
	}

	s := &Neo4jStore{driver: driver, database: o.database, log: o.log}
	s.ensureSchema(ctx)
	return s, nil
}

func (s *Neo4jStore) ensureSchema(ctx context.Context) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	stmts := []string{
		`CREATE CONSTRAINT game_id_unique IF NOT EXISTS FOR (g:Game) REQUIRE g.game_id IS UNIQUE`,
		`CREATE CONSTRAINT player_id_unique IF NOT EXISTS FOR (p:Player) REQUIRE p.player_id IS UNIQUE`,
		`CREATE CONSTRAINT event_id_unique IF NOT EXISTS FOR (e:Event) REQUIRE e.event_id IS UNIQUE`,
		`CREATE INDEX event_clutch IF NOT EXISTS FOR (e:Event) ON (e.is_clutch)`,
	}
	for _, q := range stmts {
		if res, err := session.Run(ctx, q, nil); err != nil {
			s.log.Warn(ctx, "neo4j schema init failed (continuing)", logger.Error(err))
		} else {
			_, _ = res.Consume(ctx)
		}
	}
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *Neo4jStore) write(ctx context.Context, cypher string, params map[string]any) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return classify(err)
}

func (s *Neo4jStore) PutGame(ctx context.Context, g model.Game) error {
	return s.write(ctx, `
MERGE (g:Game {game_id: $id})
ON CREATE SET g.home_team = $home, g.visitor_team = $visitor
`, map[string]any{"id": g.ID, "home": g.HomeTeam, "visitor": g.VisitorTeam})
}

func (s *Neo4jStore) PutPlayer(ctx context.Context, p model.Player) error {
	return s.write(ctx, `
MERGE (p:Player {player_id: $id})
ON CREATE SET p.name = $name
`, map[string]any{"id": p.ID, "name": p.Name})
}

func (s *Neo4jStore) PutEvent(ctx context.Context, ev model.Event) error {
	props := ev.Props()
	for k, v := range props {
		props[k] = cypherValue(v)
	}
	return s.write(ctx, `
MATCH (g:Game {game_id: $game_id})
MERGE (e:Event {event_id: $event_id})
ON CREATE SET e += $props
MERGE (e)-[:IN_GAME]->(g)
`, map[string]any{"game_id": ev.GameID, "event_id": ev.ID, "props": props})
}

func (s *Neo4jStore) PutPerformed(ctx context.Context, playerID, eventID string, role model.Role) error {
	return s.write(ctx, `
MATCH (p:Player {player_id: $player_id})
MATCH (e:Event {event_id: $event_id})
MERGE (p)-[:PERFORMED {role: $role}]->(e)
`, map[string]any{"player_id": playerID, "event_id": eventID, "role": string(role)})
}

// Query renders q to Cypher and runs it in a read transaction.
func (s *Neo4jStore) Query(ctx context.Context, q query.Query) ([]query.Tuple, error) {
	cypher, params, err := RenderCypher(q)
	if err != nil {
		return nil, err
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		tuples := make([]query.Tuple, len(records))
		for i, rec := range records {
			tuples[i] = query.Tuple(rec.AsMap())
		}
		return tuples, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	tuples, ok := out.([]query.Tuple)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected transaction result %T", ErrMalformedResult, out)
	}
	s.log.Debug(ctx, "neo4j query", logger.String("template", q.Template), logger.Int("tuples", len(tuples)))
	return tuples, nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	if s == nil || s.driver == nil {
		return nil
	}
	err := s.driver.Close(ctx)
	s.driver = nil
	return err
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}
