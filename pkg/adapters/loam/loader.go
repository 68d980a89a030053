package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts the Loam library to the arbor FlowLoader interface.
type Loader struct {
	Repo *loam.TypedRepository[FlowMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[FlowMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// GetFlow retrieves a flow document and returns it as editor JSON.
// Loam finds "signup.md" when asked for "signup".
func (l *Loader) GetFlow(id string) ([]byte, error) {
	ctx := context.Background()

	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: loam get failed for %s: %v", domain.ErrFlowNotFound, id, err)
	}

	g, err := buildGraph(doc.ID, doc.Data, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", id, err)
	}

	bytes, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal flow %s: %w", id, err)
	}
	return bytes, nil
}

func buildGraph(docID string, meta FlowMetadata, content string) (*domain.Graph, error) {
	rawID := meta.ID
	if rawID == "" {
		rawID = docID
	}

	description := meta.Description
	if description == "" {
		description = strings.TrimSpace(content)
	}

	nodes := make([]any, 0, len(meta.Nodes))
	for _, n := range meta.Nodes {
		nodes = append(nodes, n)
	}
	edges := make([]any, 0, len(meta.Edges))
	for _, e := range meta.Edges {
		edges = append(edges, e)
	}

	return compiler.FromMap(map[string]any{
		"id":          trimExtension(rawID),
		"name":        meta.Name,
		"description": description,
		"nodes":       nodes,
		"edges":       edges,
	})
}

// ListFlows lists the visible flows in the repository.
// Two documents resolving to the same ID are reported as a collision.
func (l *Loader) ListFlows() ([]string, error) {
	ctx := context.Background()
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		if doc.Data.Hidden {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
