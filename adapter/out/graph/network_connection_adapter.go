package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"network_server/core/domain"
	"network_server/core/port/out"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sony/gobreaker"
)

// =============================================================================
// Neo4j Connection Graph Adapter
// =============================================================================

// ConnectionAdapter implements out.ConnectionGraph. Users are (:User)
// nodes; a connection is a [:CONNECTION] relationship from requester to
// recipient and a follow is a [:FOLLOWS] relationship.
type ConnectionAdapter struct {
	driver neo4j.DriverWithContext
	dbName string
	cb     *gobreaker.CircuitBreaker
}

func NewConnectionAdapter(driver neo4j.DriverWithContext, dbName string) *ConnectionAdapter {
	return &ConnectionAdapter{
		driver: driver,
		dbName: dbName,
		cb: newBreaker("neo4j-connections", func(err error) bool {
			return errors.Is(err, out.ErrActiveEdge)
		}),
	}
}

var activeStatuses = []string{string(domain.ConnectionPending), string(domain.ConnectionAccepted)}

// EnsureIndexes creates necessary indexes and constraints.
func (a *ConnectionAdapter) EnsureIndexes(ctx context.Context) error {
	session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.dbName})
	defer session.Close(ctx)

	queries := []string{
		`CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.user_id IS UNIQUE`,
		`CREATE INDEX connection_id_idx IF NOT EXISTS FOR ()-[c:CONNECTION]-() ON (c.id)`,
		`CREATE INDEX connection_status_idx IF NOT EXISTS FOR ()-[c:CONNECTION]-() ON (c.status)`,
	}

	for _, query := range queries {
		if _, err := session.Run(ctx, query, nil); err != nil {
			return fmt.Errorf("failed to create graph index: %w", err)
		}
	}
	return nil
}

// =============================================================================
// Execution
// =============================================================================

func (a *ConnectionAdapter) read(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	return a.cb.Execute(func() (any, error) {
		session := a.driver.NewSession(ctx, neo4j.SessionConfig{
			DatabaseName: a.dbName,
			AccessMode:   neo4j.AccessModeRead,
		})
		defer session.Close(ctx)
		return session.ExecuteRead(ctx, work)
	})
}

func (a *ConnectionAdapter) write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	return a.cb.Execute(func() (any, error) {
		session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.dbName})
		defer session.Close(ctx)
		return session.ExecuteWrite(ctx, work)
	})
}

// count runs a query returning a single "n" column.
func (a *ConnectionAdapter) count(ctx context.Context, write bool, query string, params map[string]any) (int, error) {
	work := func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return 0, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return 0, err
		}
		return getIntValue(rec, "n"), nil
	}

	var (
		v   any
		err error
	)
	if write {
		v, err = a.write(ctx, work)
	} else {
		v, err = a.read(ctx, work)
	}
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (a *ConnectionAdapter) connections(ctx context.Context, query string, params map[string]any) ([]*domain.Connection, error) {
	v, err := a.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		conns := make([]*domain.Connection, 0, len(records))
		for _, rec := range records {
			if c := connectionFromProps(getMapValue(rec, "props")); c != nil {
				conns = append(conns, c)
			}
		}
		return conns, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Connection), nil
}

func connectionFromProps(props map[string]any) *domain.Connection {
	if props == nil {
		return nil
	}
	id, err := uuid.Parse(propString(props, "id"))
	if err != nil {
		return nil
	}
	requester, _ := uuid.Parse(propString(props, "requester_id"))
	recipient, _ := uuid.Parse(propString(props, "recipient_id"))
	return &domain.Connection{
		ID:          id,
		RequesterID: requester,
		RecipientID: recipient,
		Status:      domain.ConnectionStatus(propString(props, "status")),
		Message:     propString(props, "message"),
		CreatedAt:   propTime(props, "created_at"),
		UpdatedAt:   propTime(props, "updated_at"),
	}
}

func (a *ConnectionAdapter) single(ctx context.Context, query string, params map[string]any) (*domain.Connection, error) {
	conns, err := a.connections(ctx, query, params)
	if err != nil || len(conns) == 0 {
		return nil, err
	}
	return conns[0], nil
}

// =============================================================================
// Connection Edges
// =============================================================================

func (a *ConnectionAdapter) GetConnection(ctx context.Context, id uuid.UUID) (*domain.Connection, error) {
	query := `
		MATCH ()-[c:CONNECTION {id: $id}]->()
		RETURN properties(c) AS props
	`
	conn, err := a.single(ctx, query, map[string]any{"id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

// FindBetween prefers the active edge, then the most recent one.
func (a *ConnectionAdapter) FindBetween(ctx context.Context, x, y uuid.UUID) (*domain.Connection, error) {
	query := `
		MATCH (a:User {user_id: $a})-[c:CONNECTION]-(b:User {user_id: $b})
		WITH c
		ORDER BY CASE WHEN c.status IN $active THEN 0 ELSE 1 END, c.updated_at DESC
		LIMIT 1
		RETURN properties(c) AS props
	`
	conn, err := a.single(ctx, query, map[string]any{
		"a":      x.String(),
		"b":      y.String(),
		"active": activeStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find connection: %w", err)
	}
	return conn, nil
}

// CreateConnection locks both user nodes before checking for an active
// edge, so concurrent requests between the same pair serialize.
func (a *ConnectionAdapter) CreateConnection(ctx context.Context, conn *domain.Connection) error {
	params := map[string]any{
		"id":        conn.ID.String(),
		"requester": conn.RequesterID.String(),
		"recipient": conn.RecipientID.String(),
		"status":    string(conn.Status),
		"message":   conn.Message,
		"createdAt": conn.CreatedAt,
		"updatedAt": conn.UpdatedAt,
		"active":    activeStatuses,
	}

	_, err := a.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		lock := `
			MERGE (a:User {user_id: $requester})
			MERGE (b:User {user_id: $recipient})
			SET a.locked_at = timestamp(), b.locked_at = timestamp()
			WITH a, b
			OPTIONAL MATCH (a)-[c:CONNECTION]-(b)
			WHERE c.status IN $active
			RETURN count(c) AS n
		`
		res, err := tx.Run(ctx, lock, params)
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		if getIntValue(rec, "n") > 0 {
			return nil, out.ErrActiveEdge
		}

		create := `
			MATCH (a:User {user_id: $requester}), (b:User {user_id: $recipient})
			CREATE (a)-[:CONNECTION {
				id: $id,
				requester_id: $requester,
				recipient_id: $recipient,
				status: $status,
				message: $message,
				created_at: $createdAt,
				updated_at: $updatedAt
			}]->(b)
		`
		_, err = tx.Run(ctx, create, params)
		return nil, err
	})
	if errors.Is(err, out.ErrActiveEdge) {
		return out.ErrActiveEdge
	}
	if err != nil {
		return fmt.Errorf("failed to create connection: %w", err)
	}
	return nil
}

func (a *ConnectionAdapter) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.ConnectionStatus) (bool, error) {
	query := `
		MATCH ()-[c:CONNECTION {id: $id}]->()
		WHERE c.status = $from
		SET c.status = $to, c.updated_at = $now
		RETURN count(c) AS n
	`
	n, err := a.count(ctx, true, query, map[string]any{
		"id":   id.String(),
		"from": string(from),
		"to":   string(to),
		"now":  time.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to update connection: %w", err)
	}
	return n == 1, nil
}

func (a *ConnectionAdapter) DeleteConnection(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		MATCH ()-[c:CONNECTION {id: $id}]->()
		DELETE c
		RETURN count(*) AS n
	`
	n, err := a.count(ctx, true, query, map[string]any{"id": id.String()})
	if err != nil {
		return false, fmt.Errorf("failed to delete connection: %w", err)
	}
	return n > 0, nil
}

func (a *ConnectionAdapter) ListConnections(ctx context.Context, userID uuid.UUID, status domain.ConnectionStatus) ([]*domain.Connection, error) {
	query := `
		MATCH (:User {user_id: $userID})-[c:CONNECTION]-()
		WHERE c.status = $status
		RETURN properties(c) AS props
		ORDER BY c.updated_at DESC
	`
	conns, err := a.connections(ctx, query, map[string]any{
		"userID": userID.String(),
		"status": string(status),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return conns, nil
}

// =============================================================================
// Traversals
// =============================================================================

func (a *ConnectionAdapter) ConnectedOrPendingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		MATCH (:User {user_id: $userID})-[c:CONNECTION]-(o:User)
		WHERE c.status IN $active
		RETURN DISTINCT o.user_id AS id
	`
	v, err := a.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"userID": userID.String(), "active": activeStatuses})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(records))
		for _, rec := range records {
			if id, err := uuid.Parse(getStringValue(rec, "id")); err == nil {
				ids = append(ids, id)
			}
		}
		return ids, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list connected users: %w", err)
	}
	return v.([]uuid.UUID), nil
}

func (a *ConnectionAdapter) MutualConnectionCount(ctx context.Context, x, y uuid.UUID) (int, error) {
	query := `
		MATCH (a:User {user_id: $a})-[:CONNECTION {status: 'accepted'}]-(m:User)
			-[:CONNECTION {status: 'accepted'}]-(b:User {user_id: $b})
		WHERE m <> a AND m <> b
		RETURN count(DISTINCT m) AS n
	`
	n, err := a.count(ctx, false, query, map[string]any{"a": x.String(), "b": y.String()})
	if err != nil {
		return 0, fmt.Errorf("failed to count mutual connections: %w", err)
	}
	return n, nil
}

func (a *ConnectionAdapter) MutualCounts(ctx context.Context, userID uuid.UUID, others []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(others))
	if len(others) == 0 {
		return counts, nil
	}

	ids := make([]string, 0, len(others))
	for _, o := range others {
		ids = append(ids, o.String())
	}

	query := `
		UNWIND $others AS otherID
		MATCH (u:User {user_id: $userID})-[:CONNECTION {status: 'accepted'}]-(m:User)
			-[:CONNECTION {status: 'accepted'}]-(o:User {user_id: otherID})
		WHERE m <> u AND m <> o
		RETURN otherID AS id, count(DISTINCT m) AS n
	`
	_, err := a.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"userID": userID.String(), "others": ids})
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			if id, err := uuid.Parse(getStringValue(rec, "id")); err == nil {
				counts[id] = getIntValue(rec, "n")
			}
		}
		return nil, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count mutual connections: %w", err)
	}
	return counts, nil
}

// SuggestCandidates walks accepted edges two hops out, skipping users that
// already share an active edge with userID, most mutual connections first.
func (a *ConnectionAdapter) SuggestCandidates(ctx context.Context, userID uuid.UUID, limit int) ([]out.GraphCandidate, error) {
	query := `
		MATCH (u:User {user_id: $userID})-[:CONNECTION {status: 'accepted'}]-(m:User)
			-[:CONNECTION {status: 'accepted'}]-(c:User)
		WHERE c <> u
			AND NOT EXISTS {
				MATCH (u)-[x:CONNECTION]-(c)
				WHERE x.status IN $active
			}
		RETURN c.user_id AS id, count(DISTINCT m) AS n
		ORDER BY n DESC, id
		LIMIT $limit
	`
	v, err := a.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"userID": userID.String(),
			"active": activeStatuses,
			"limit":  limit,
		})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		candidates := make([]out.GraphCandidate, 0, len(records))
		for _, rec := range records {
			id, err := uuid.Parse(getStringValue(rec, "id"))
			if err != nil {
				continue
			}
			candidates = append(candidates, out.GraphCandidate{
				UserID:            id,
				MutualConnections: getIntValue(rec, "n"),
			})
		}
		return candidates, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to suggest candidates: %w", err)
	}
	return v.([]out.GraphCandidate), nil
}

// =============================================================================
// Follows
// =============================================================================

func (a *ConnectionAdapter) Follow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	params := map[string]any{
		"follower":  followerID.String(),
		"following": followingID.String(),
		"now":       time.Now(),
	}
	v, err := a.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MERGE (a:User {user_id: $follower})
			MERGE (b:User {user_id: $following})
			WITH a, b
			OPTIONAL MATCH (a)-[f:FOLLOWS]->(b)
			RETURN count(f) AS n
		`, params)
		if err != nil {
			return false, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return false, err
		}
		if getIntValue(rec, "n") > 0 {
			return false, nil
		}

		_, err = tx.Run(ctx, `
			MATCH (a:User {user_id: $follower}), (b:User {user_id: $following})
			MERGE (a)-[f:FOLLOWS]->(b)
			ON CREATE SET f.created_at = $now
		`, params)
		return err == nil, err
	})
	if err != nil {
		return false, fmt.Errorf("failed to follow: %w", err)
	}
	return v.(bool), nil
}

func (a *ConnectionAdapter) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	query := `
		MATCH (:User {user_id: $follower})-[f:FOLLOWS]->(:User {user_id: $following})
		DELETE f
		RETURN count(*) AS n
	`
	n, err := a.count(ctx, true, query, map[string]any{
		"follower":  followerID.String(),
		"following": followingID.String(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to unfollow: %w", err)
	}
	return n > 0, nil
}

func (a *ConnectionAdapter) FollowCounts(ctx context.Context, userID uuid.UUID) (int, int, error) {
	query := `
		MATCH (u:User {user_id: $userID})
		RETURN size([(u)<-[:FOLLOWS]-() | 1]) AS followers,
			size([(u)-[:FOLLOWS]->() | 1]) AS following
	`
	v, err := a.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"userID": userID.String()})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			rec := res.Record()
			return [2]int{getIntValue(rec, "followers"), getIntValue(rec, "following")}, nil
		}
		return [2]int{}, res.Err()
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count follows: %w", err)
	}
	counts := v.([2]int)
	return counts[0], counts[1], nil
}

var _ out.ConnectionGraph = (*ConnectionAdapter)(nil)
