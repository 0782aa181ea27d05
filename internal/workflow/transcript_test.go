package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedState(t *testing.T) *State {
	t.Helper()
	llm := &scriptedLLM{intent: "retrieval", verdicts: []string{"VALID"}}
	wf := newTestWorkflow(t, llm, 3, Options{MaxRetries: 2})
	state, err := wf.Run(context.Background(), "What is in the report?", nil)
	require.NoError(t, err)
	return state
}

func TestTranscriptRoundTrip(t *testing.T) {
	state := completedState(t)

	var tr Transcript
	tr.Append(state)

	parsed, err := ParseTranscript(tr.Format())
	require.NoError(t, err)
	require.Len(t, parsed.Turns, 1)

	got := parsed.Turns[0]
	assert.Equal(t, state.OriginalQuery, got.Query)
	assert.Equal(t, state.FinalAnswer, got.Answer)
	assert.Equal(t, state.Confidence, got.Confidence)
	require.Len(t, got.Trace, len(state.Trace))
	for i, want := range state.Trace {
		assert.Equal(t, want.Stage, got.Trace[i].Stage)
		assert.Equal(t, want.Input, got.Trace[i].Input)
		assert.Equal(t, want.Output, got.Trace[i].Output)
		assert.True(t, want.Timestamp.Equal(got.Trace[i].Timestamp))
	}
}

func TestTranscriptRoundTripAwkwardContent(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC)
	tr := Transcript{Turns: []TranscriptTurn{
		{
			Query:      "line one\nline two with \"quotes\" and a \\ backslash",
			Answer:     "first line\n\n> already quoted\nlast line",
			Confidence: "High",
			Trace: []TraceEntry{
				{Stage: "retriever", Input: `q="tricky \"input\""`, Output: "chunks=2", Timestamp: ts},
			},
		},
		{
			Query:      "second turn",
			Answer:     "plain",
			Confidence: "N/A",
			Trace: []TraceEntry{
				{Stage: "generator", Input: "mode=conversational", Output: "ok", Timestamp: ts.Add(time.Second)},
			},
		},
	}}

	parsed, err := ParseTranscript(tr.Format())
	require.NoError(t, err)
	require.Len(t, parsed.Turns, 2)
	for i := range tr.Turns {
		assert.Equal(t, tr.Turns[i].Query, parsed.Turns[i].Query)
		assert.Equal(t, tr.Turns[i].Answer, parsed.Turns[i].Answer)
		assert.Equal(t, tr.Turns[i].Confidence, parsed.Turns[i].Confidence)
		require.Len(t, parsed.Turns[i].Trace, len(tr.Turns[i].Trace))
		for j, want := range tr.Turns[i].Trace {
			assert.Equal(t, want.Input, parsed.Turns[i].Trace[j].Input)
			assert.Equal(t, want.Output, parsed.Turns[i].Trace[j].Output)
		}
	}
}

func TestParseTranscriptEmpty(t *testing.T) {
	parsed, err := ParseTranscript("# Chat Transcript\n\n")
	require.NoError(t, err)
	assert.Empty(t, parsed.Turns)
}

func TestParseTranscriptRejectsMalformedTrace(t *testing.T) {
	_, err := ParseTranscript("## Turn 1\nquery: \"q\"\ntrace: broken\nanswer:\n> a\n")
	assert.Error(t, err)
}
