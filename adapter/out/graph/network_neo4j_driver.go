// Package graph implements the Neo4j connection graph.
package graph

import (
	"context"
	"fmt"
	"time"

	"network_server/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sony/gobreaker"
)

// NewDriver connects to Neo4j and verifies the server is reachable.
func NewDriver(ctx context.Context, url, username, password string) (neo4j.DriverWithContext, error) {
	auth := neo4j.NoAuth()
	if username != "" && password != "" {
		auth = neo4j.BasicAuth(username, password, "")
	}

	driver, err := neo4j.NewDriverWithContext(url, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	return driver, nil
}

// newBreaker trips after five consecutive failures, or a 60% failure rate
// over at least ten requests. isExpected errors do not count as failures.
func newBreaker(name string, isExpected func(error) bool) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || (isExpected != nil && isExpected(err))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithField("breaker", name).Warn("circuit breaker state changed from %s to %s", from.String(), to.String())
		},
	})
}

// =============================================================================
// Record Helpers
// =============================================================================

func getStringValue(record *neo4j.Record, key string) string {
	if val, ok := record.Get(key); ok && val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

func getIntValue(record *neo4j.Record, key string) int {
	if val, ok := record.Get(key); ok && val != nil {
		return toInt(val)
	}
	return 0
}

func getMapValue(record *neo4j.Record, key string) map[string]any {
	if val, ok := record.Get(key); ok && val != nil {
		if m, ok := val.(map[string]any); ok {
			return m
		}
	}
	return nil
}

func toInt(val any) int {
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func propString(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func propTime(props map[string]any, key string) time.Time {
	switch v := props[key].(type) {
	case time.Time:
		return v
	case int64:
		return time.UnixMilli(v)
	}
	return time.Time{}
}
