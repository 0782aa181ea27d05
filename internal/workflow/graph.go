package workflow

import (
	"context"
	"fmt"
	"log"
)

// End marks the terminal node of a graph.
const End = "__END__"

// NodeFunc executes one stage against the shared state.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouterFunc picks the outgoing edge label from the current state. Routers
// must be pure: they inspect state and never mutate it or call services.
type RouterFunc[S any] func(state S) string

type edge[S any] struct {
	conditional bool
	to          string
	router      RouterFunc[S]
	branches    map[string]string
}

// Graph is a directed workflow of named nodes with plain and conditional
// edges. Execution is strictly sequential; the iteration cap is a safety net
// on top of whatever loop bound the routers enforce.
type Graph[S any] struct {
	nodes      map[string]NodeFunc[S]
	edges      map[string]edge[S]
	entryPoint string
}

func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes: make(map[string]NodeFunc[S]),
		edges: make(map[string]edge[S]),
	}
}

func (g *Graph[S]) AddNode(name string, fn NodeFunc[S]) {
	g.nodes[name] = fn
}

func (g *Graph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

func (g *Graph[S]) AddEdge(from, to string) {
	g.edges[from] = edge[S]{to: to}
}

func (g *Graph[S]) AddConditionalEdges(from string, router RouterFunc[S], branches map[string]string) {
	g.edges[from] = edge[S]{conditional: true, router: router, branches: branches}
}

// Execute runs the graph to completion and returns the final state. A node
// error aborts the run at that node; the partially updated state is returned
// alongside the error for inspection.
func (g *Graph[S]) Execute(ctx context.Context, initial S, maxIterations int) (S, error) {
	state := initial
	current := g.entryPoint

	if _, ok := g.nodes[current]; !ok {
		return state, fmt.Errorf("entry point node %q not found", current)
	}

	for i := 0; i < maxIterations; i++ {
		if current == End {
			return state, nil
		}
		fn, ok := g.nodes[current]
		if !ok {
			return state, fmt.Errorf("node %q not found in graph", current)
		}

		updated, err := fn(ctx, state)
		if err != nil {
			return state, fmt.Errorf("node %q: %w", current, err)
		}
		state = updated

		e, ok := g.edges[current]
		if !ok {
			return state, fmt.Errorf("node %q has no outgoing edge", current)
		}
		if e.conditional {
			decision := e.router(state)
			next, ok := e.branches[decision]
			if !ok {
				return state, fmt.Errorf("edge from %q has no branch for decision %q", current, decision)
			}
			log.Printf("workflow: %s -> %s (%s)", current, next, decision)
			current = next
		} else {
			log.Printf("workflow: %s -> %s", current, e.to)
			current = e.to
		}
	}
	return state, fmt.Errorf("workflow exceeded %d iterations without reaching end", maxIterations)
}
