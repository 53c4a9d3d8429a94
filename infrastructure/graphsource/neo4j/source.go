package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/domain/network"
)

// NetworkQuery returns the user, their connections and the connections'
// connections, up to 100 rows.
const NetworkQuery = `
MATCH (user:User {id: $userId})-[r:CONNECTED_TO]-(connection:User)
OPTIONAL MATCH (connection)-[r2:CONNECTED_TO]-(secondDegree:User)
WHERE secondDegree <> user
RETURN user, connection, secondDegree, r, r2
LIMIT 100`

// Default node sizes per degree when the graph carries none
const (
	centralSize = 25
	firstSize   = 15
	secondSize  = 10
)

// Config holds Neo4j connection settings
type Config struct {
	URI      string
	User     string
	Password string
	Database string
}

// Runner executes a read query and returns every record
type Runner func(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error)

// Source reads a user's network from Neo4j
type Source struct {
	driver neo4j.DriverWithContext
	run    Runner
	logger *zap.Logger
}

// NewSource connects to Neo4j
func NewSource(cfg Config, logger *zap.Logger) (*Source, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	run := func(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
		result, err := neo4j.ExecuteQuery(ctx, driver, query, params,
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(cfg.Database),
			neo4j.ExecuteQueryWithReadersRouting(),
		)
		if err != nil {
			return nil, err
		}
		return result.Records, nil
	}

	return &Source{driver: driver, run: run, logger: logger}, nil
}

// NewSourceWithRunner creates a source over an arbitrary query runner
func NewSourceWithRunner(run Runner, logger *zap.Logger) *Source {
	return &Source{run: run, logger: logger}
}

// FetchNetwork runs NetworkQuery for userID
func (s *Source) FetchNetwork(ctx context.Context, userID string) (network.RawNetwork, error) {
	records, err := s.run(ctx, NetworkQuery, map[string]any{"userId": userID})
	if err != nil {
		return network.RawNetwork{}, fmt.Errorf("%w: %v", network.ErrDataSourceUnavailable, err)
	}

	raw := RecordsToNetwork(records)
	s.logger.Debug("Fetched network from neo4j",
		zap.String("user_id", userID),
		zap.Int("records", len(records)),
		zap.Int("nodes", len(raw.Nodes)),
		zap.Int("edges", len(raw.Edges)),
	)
	return raw, nil
}

// Ping verifies the database is reachable
func (s *Source) Ping(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.VerifyConnectivity(ctx)
}

// Close releases the driver
func (s *Source) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

// RecordsToNetwork maps NetworkQuery rows to a raw network. Nodes are keyed
// by their id property, falling back to the element id. Duplicates are left
// for the builder to collapse.
func RecordsToNetwork(records []*neo4j.Record) network.RawNetwork {
	var raw network.RawNetwork
	seen := make(map[string]bool)

	addNode := func(n neo4j.Node, group network.Group, size float64) string {
		id := nodeID(n)
		if !seen[id] {
			seen[id] = true
			raw.Nodes = append(raw.Nodes, network.RawNode{
				ID:    id,
				Label: nodeLabel(n, id),
				Group: string(group),
				Size:  floatProp(n.Props, "size", size),
			})
		}
		return id
	}

	for _, record := range records {
		user, ok := nodeValue(record, "user")
		if !ok {
			continue
		}
		userID := addNode(user, network.GroupCentral, centralSize)

		conn, ok := nodeValue(record, "connection")
		if !ok {
			continue
		}
		connID := addNode(conn, network.GroupFirst, firstSize)
		raw.Edges = append(raw.Edges, network.RawEdge{
			Source: userID,
			Target: connID,
			Weight: relWeight(record, "r"),
		})

		second, ok := nodeValue(record, "secondDegree")
		if !ok {
			continue
		}
		// a first degree connection also reachable at second degree keeps
		// its first degree group
		secondID := addNode(second, network.GroupSecond, secondSize)
		raw.Edges = append(raw.Edges, network.RawEdge{
			Source: connID,
			Target: secondID,
			Weight: relWeight(record, "r2"),
		})
	}
	return raw
}

func nodeValue(record *neo4j.Record, key string) (neo4j.Node, bool) {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return neo4j.Node{}, false
	}
	n, ok := v.(neo4j.Node)
	return n, ok
}

func relWeight(record *neo4j.Record, key string) float64 {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return 1
	}
	rel, ok := v.(neo4j.Relationship)
	if !ok {
		return 1
	}
	for _, name := range []string{"strength", "weight", "value"} {
		if _, present := rel.Props[name]; present {
			return floatProp(rel.Props, name, 1)
		}
	}
	return 1
}

func nodeID(n neo4j.Node) string {
	if id, ok := n.Props["id"].(string); ok && id != "" {
		return id
	}
	return n.ElementId
}

func nodeLabel(n neo4j.Node, fallback string) string {
	for _, key := range []string{"name", "label"} {
		if s, ok := n.Props[key].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func floatProp(props map[string]any, key string, fallback float64) float64 {
	switch v := props[key].(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}
