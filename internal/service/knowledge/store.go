package knowledge

import (
	"context"
	"fmt"
	"log"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sysengio/wysechat/internal/config"
	"github.com/sysengio/wysechat/internal/model/conversation"
)

// Fact is one (subject, relation, object) triple retrieved from the
// engineering knowledge graph.
type Fact struct {
	Subject  string
	Relation string
	Object   string
}

// String renders the triple as a prompt-ready sentence fragment.
func (f Fact) String() string {
	return fmt.Sprintf("%s %s %s", f.Subject, f.Relation, f.Object)
}

// Store answers enrichment queries against a Neo4j knowledge graph.
type Store interface {
	FactsForTopic(ctx context.Context, topic string) ([]Fact, error)
	GraphData(ctx context.Context, topic string) (*conversation.GraphData, error)
	Close(ctx context.Context) error
}

// Neo4jStore implements Store on the official Bolt driver.
type Neo4jStore struct {
	cfg    config.GraphConfig
	driver neo4j.DriverWithContext
}

// NewNeo4jStore connects to the configured database and verifies
// connectivity before returning; a store that cannot reach its database is a
// startup failure, not a latent one.
func NewNeo4jStore(ctx context.Context, cfg config.GraphConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}

	log.Printf("[knowledge] connected to neo4j at %s", cfg.URI)
	return &Neo4jStore{cfg: cfg, driver: driver}, nil
}

// Close releases the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

const factsQuery = `
MATCH (s {system_topic: $topic})-[r]->(t)
RETURN coalesce(s.label, s.name, '') AS subject,
       type(r) AS relation,
       coalesce(t.label, t.name, '') AS object
LIMIT $limit`

const termFactsQuery = `
MATCH (s)-[r]->(t)
WHERE any(term IN $terms WHERE toLower(coalesce(s.label, s.name, '')) CONTAINS term)
RETURN coalesce(s.label, s.name, '') AS subject,
       type(r) AS relation,
       coalesce(t.label, t.name, '') AS object
LIMIT $limit`

// FactsForTopic fetches relationship triples for the system topic, used to
// enrich generation prompts with known engineering facts. An exact topic
// match is tried first; when it comes back empty the lookup falls back to
// matching individual terms from the topic.
func (s *Neo4jStore) FactsForTopic(ctx context.Context, topic string) ([]Fact, error) {
	records, err := s.read(ctx, factsQuery, map[string]any{"topic": topic, "limit": 25})
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		if terms := TopicTerms(topic); len(terms) > 0 {
			records, err = s.read(ctx, termFactsQuery, map[string]any{"terms": terms, "limit": 25})
			if err != nil {
				return nil, err
			}
		}
	}

	facts := make([]Fact, 0, len(records))
	for _, record := range records {
		fact := Fact{
			Subject:  stringValue(record, "subject"),
			Relation: stringValue(record, "relation"),
			Object:   stringValue(record, "object"),
		}
		if fact.Subject == "" || fact.Object == "" {
			continue
		}
		facts = append(facts, fact)
	}
	return facts, nil
}

const graphQuery = `
MATCH (s {system_topic: $topic})-[r]->(t)
RETURN elementId(s) AS sourceId,
       coalesce(s.label, 'Node') AS sourceLabel,
       coalesce(s.group, 'Default') AS sourceGroup,
       coalesce(s.title, '') AS sourceTitle,
       elementId(t) AS targetId,
       coalesce(t.label, 'Node') AS targetLabel,
       coalesce(t.group, 'Default') AS targetGroup,
       coalesce(t.title, '') AS targetTitle,
       type(r) AS relation`

// GraphData fetches the stored visualization graph for a system topic.
func (s *Neo4jStore) GraphData(ctx context.Context, topic string) (*conversation.GraphData, error) {
	records, err := s.read(ctx, graphQuery, map[string]any{"topic": topic})
	if err != nil {
		return nil, err
	}
	return buildGraphData(records), nil
}

func (s *Neo4jStore) read(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.cfg.Database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j query failed: %w", err)
	}
	return result.([]*neo4j.Record), nil
}

// buildGraphData converts raw records into the deduplicated nodes/edges
// payload the chat page renders.
func buildGraphData(records []*neo4j.Record) *conversation.GraphData {
	data := &conversation.GraphData{
		Nodes: make([]conversation.GraphNode, 0, len(records)),
		Edges: make([]conversation.GraphEdge, 0, len(records)),
	}

	seen := make(map[string]bool)
	addNode := func(id, label, group, title string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		data.Nodes = append(data.Nodes, conversation.GraphNode{
			ID: id, Label: label, Group: group, Title: title,
		})
	}

	for _, record := range records {
		sourceID := stringValue(record, "sourceId")
		targetID := stringValue(record, "targetId")

		addNode(sourceID, stringValue(record, "sourceLabel"), stringValue(record, "sourceGroup"), stringValue(record, "sourceTitle"))
		addNode(targetID, stringValue(record, "targetLabel"), stringValue(record, "targetGroup"), stringValue(record, "targetTitle"))

		if sourceID != "" && targetID != "" {
			data.Edges = append(data.Edges, conversation.GraphEdge{
				From:  sourceID,
				To:    targetID,
				Label: stringValue(record, "relation"),
			})
		}
	}
	return data
}

func stringValue(record *neo4j.Record, key string) string {
	raw, ok := record.Get(key)
	if !ok || raw == nil {
		return ""
	}
	value, ok := raw.(string)
	if !ok {
		return ""
	}
	return value
}
