package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	visited []string
}

func (c *counter) node(name string) NodeFunc[*counter] {
	return func(ctx context.Context, s *counter) (*counter, error) {
		s.visited = append(s.visited, name)
		return s, nil
	}
}

func TestGraphLinearExecution(t *testing.T) {
	c := &counter{}
	g := NewGraph[*counter]()
	g.AddNode("a", c.node("a"))
	g.AddNode("b", c.node("b"))
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddEdge("b", End)

	_, err := g.Execute(context.Background(), c, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, c.visited)
}

func TestGraphConditionalRouting(t *testing.T) {
	c := &counter{}
	g := NewGraph[*counter]()
	g.AddNode("a", c.node("a"))
	g.AddNode("left", c.node("left"))
	g.AddNode("right", c.node("right"))
	g.SetEntryPoint("a")
	g.AddConditionalEdges("a", func(s *counter) string { return "go-left" }, map[string]string{
		"go-left":  "left",
		"go-right": "right",
	})
	g.AddEdge("left", End)
	g.AddEdge("right", End)

	_, err := g.Execute(context.Background(), c, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "left"}, c.visited)
}

func TestGraphUnknownBranchFails(t *testing.T) {
	c := &counter{}
	g := NewGraph[*counter]()
	g.AddNode("a", c.node("a"))
	g.SetEntryPoint("a")
	g.AddConditionalEdges("a", func(s *counter) string { return "nowhere" }, map[string]string{})

	_, err := g.Execute(context.Background(), c, 10)
	assert.Error(t, err)
}

func TestGraphNodeErrorAbortsRun(t *testing.T) {
	boom := errors.New("boom")
	c := &counter{}
	g := NewGraph[*counter]()
	g.AddNode("a", c.node("a"))
	g.AddNode("b", func(ctx context.Context, s *counter) (*counter, error) { return s, boom })
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddEdge("b", End)

	_, err := g.Execute(context.Background(), c, 10)
	assert.ErrorIs(t, err, boom)
}

func TestGraphIterationCapPreventsInfiniteLoop(t *testing.T) {
	c := &counter{}
	g := NewGraph[*counter]()
	g.AddNode("a", c.node("a"))
	g.SetEntryPoint("a")
	g.AddEdge("a", "a")

	_, err := g.Execute(context.Background(), c, 5)
	require.Error(t, err)
	assert.Len(t, c.visited, 5)
}

func TestGraphMissingEntryPoint(t *testing.T) {
	g := NewGraph[*counter]()
	g.SetEntryPoint("missing")
	_, err := g.Execute(context.Background(), &counter{}, 5)
	assert.Error(t, err)
}
