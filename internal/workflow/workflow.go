package workflow

import (
	"context"

	"github.com/docqa/agent/internal/domain"
)

// Node names, matching the state machine stages.
const (
	nodeRetrieve = "retrieve"
	nodeGenerate = "generate"
	nodeValidate = "validate"
	nodeFinalize = "finalize"
)

// Options configure one workflow instance.
type Options struct {
	TopK         int
	MaxRetries   int
	MinChunkSize int
	Temperature  float64
}

// Workflow wires the four stages into a directed graph:
//
//	retrieve -> generate -> validate -> {generate (retry) | finalize}
//
// with the conversational path skipping validation entirely:
//
//	retrieve -> generate -> finalize
type Workflow struct {
	graph      *Graph[*State]
	maxRetries int
}

// New builds the workflow. Clients are injected and owned by the caller;
// one workflow instance serves any number of sequential or concurrent runs
// because all mutable data lives in the per-run State.
func New(llm domain.LLM, embedder domain.Embedder, store domain.VectorStore, opts Options) *Workflow {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 2
	}
	if opts.MinChunkSize <= 0 {
		opts.MinChunkSize = 50
	}

	retriever := &Retriever{LLM: llm, Embedder: embedder, Store: store, TopK: opts.TopK, MinChunkSize: opts.MinChunkSize}
	generator := &Generator{LLM: llm, Temperature: opts.Temperature}
	validator := &Validator{LLM: llm}
	finalizer := &Finalizer{}

	g := NewGraph[*State]()
	g.AddNode(nodeRetrieve, retriever.Node)
	g.AddNode(nodeGenerate, generator.Node)
	g.AddNode(nodeValidate, validator.Node)
	g.AddNode(nodeFinalize, finalizer.Node)
	g.SetEntryPoint(nodeRetrieve)

	g.AddEdge(nodeRetrieve, nodeGenerate)

	g.AddConditionalEdges(nodeGenerate, routeAfterGenerate, map[string]string{
		"validate": nodeValidate,
		"finalize": nodeFinalize,
	})

	g.AddConditionalEdges(nodeValidate, routeAfterValidate, map[string]string{
		"retry":  nodeGenerate,
		"finish": nodeFinalize,
	})

	g.AddEdge(nodeFinalize, End)

	return &Workflow{graph: g, maxRetries: opts.MaxRetries}
}

// routeAfterGenerate skips validation for conversational replies, which are
// never grounded and therefore never audited.
func routeAfterGenerate(s *State) string {
	if s.Intent == IntentConversational {
		return "finalize"
	}
	return "validate"
}

// routeAfterValidate loops back to the generator while the verdict is
// invalid and retries remain; the bound guarantees termination regardless of
// validator behavior.
func routeAfterValidate(s *State) string {
	if s.Verdict == VerdictValid {
		return "finish"
	}
	if s.RetryCount >= s.MaxRetries {
		return "finish"
	}
	return "retry"
}

// Run executes the workflow for one query. On a stage failure the partially
// built state is returned alongside the error so the trace up to the failing
// stage stays inspectable; FinalAnswer is set only on success.
func (w *Workflow) Run(ctx context.Context, query string, history []Turn) (*State, error) {
	state := NewState(query, history, w.maxRetries)
	// worst case: retrieve + (maxRetries+1) x (generate, validate) + finalize
	maxIterations := 2*(w.maxRetries+1) + 3
	return w.graph.Execute(ctx, state, maxIterations)
}
