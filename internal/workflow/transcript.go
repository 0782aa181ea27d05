package workflow

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TranscriptTurn is one user/assistant exchange with its agentic trace.
type TranscriptTurn struct {
	Query      string
	Answer     string
	Confidence string
	Trace      []TraceEntry
}

// Transcript is the exportable chat log: an ordered list of turns.
type Transcript struct {
	Turns []TranscriptTurn
}

// Append records a completed run as a transcript turn.
func (t *Transcript) Append(s *State) {
	t.Turns = append(t.Turns, TranscriptTurn{
		Query:      s.OriginalQuery,
		Answer:     s.FinalAnswer,
		Confidence: s.Confidence,
		Trace:      s.Trace,
	})
}

// Format renders the transcript as a human-readable log. Queries and trace
// fields are quoted so that FormatTranscript/ParseTranscript round-trip
// losslessly; answer lines are written as blockquotes.
func (t *Transcript) Format() string {
	var b strings.Builder
	b.WriteString("# Chat Transcript\n\n")
	for i, turn := range t.Turns {
		fmt.Fprintf(&b, "## Turn %d\n", i+1)
		fmt.Fprintf(&b, "query: %s\n", strconv.Quote(turn.Query))
		fmt.Fprintf(&b, "confidence: %s\n", strconv.Quote(turn.Confidence))
		for _, e := range turn.Trace {
			fmt.Fprintf(&b, "trace: %s %s in=%s out=%s\n",
				e.Stage, e.Timestamp.Format(time.RFC3339Nano),
				strconv.Quote(e.Input), strconv.Quote(e.Output))
		}
		b.WriteString("answer:\n")
		for _, line := range strings.Split(turn.Answer, "\n") {
			fmt.Fprintf(&b, "> %s\n", line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ParseTranscript reads a transcript previously produced by Format.
func ParseTranscript(text string) (*Transcript, error) {
	t := &Transcript{}
	var cur *TranscriptTurn
	var answerLines []string
	inAnswer := false

	flush := func() {
		if cur != nil {
			cur.Answer = strings.Join(answerLines, "\n")
			t.Turns = append(t.Turns, *cur)
		}
		cur = nil
		answerLines = nil
		inAnswer = false
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "## Turn "):
			flush()
			cur = &TranscriptTurn{}
		case cur == nil:
			continue
		case strings.HasPrefix(line, "query: "):
			q, err := strconv.Unquote(strings.TrimPrefix(line, "query: "))
			if err != nil {
				return nil, fmt.Errorf("parsing query: %w", err)
			}
			cur.Query = q
		case strings.HasPrefix(line, "confidence: "):
			c, err := strconv.Unquote(strings.TrimPrefix(line, "confidence: "))
			if err != nil {
				return nil, fmt.Errorf("parsing confidence: %w", err)
			}
			cur.Confidence = c
		case strings.HasPrefix(line, "trace: "):
			entry, err := parseTraceLine(strings.TrimPrefix(line, "trace: "))
			if err != nil {
				return nil, err
			}
			cur.Trace = append(cur.Trace, entry)
		case line == "answer:":
			inAnswer = true
		case inAnswer && strings.HasPrefix(line, "> "):
			answerLines = append(answerLines, strings.TrimPrefix(line, "> "))
		case inAnswer && line == ">":
			answerLines = append(answerLines, "")
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return t, nil
}

func parseTraceLine(line string) (TraceEntry, error) {
	var e TraceEntry
	fields := strings.SplitN(line, " ", 3)
	if len(fields) != 3 {
		return e, fmt.Errorf("malformed trace line: %q", line)
	}
	e.Stage = fields[0]
	ts, err := time.Parse(time.RFC3339Nano, fields[1])
	if err != nil {
		return e, fmt.Errorf("parsing trace timestamp: %w", err)
	}
	e.Timestamp = ts

	rest := fields[2]
	if !strings.HasPrefix(rest, "in=") {
		return e, fmt.Errorf("malformed trace line: %q", line)
	}
	in, n, err := unquotePrefix(strings.TrimPrefix(rest, "in="))
	if err != nil {
		return e, fmt.Errorf("parsing trace input: %w", err)
	}
	e.Input = in

	rest = strings.TrimSpace(strings.TrimPrefix(rest, "in=")[n:])
	if !strings.HasPrefix(rest, "out=") {
		return e, fmt.Errorf("malformed trace line: %q", line)
	}
	out, _, err := unquotePrefix(strings.TrimPrefix(rest, "out="))
	if err != nil {
		return e, fmt.Errorf("parsing trace output: %w", err)
	}
	e.Output = out
	return e, nil
}

// unquotePrefix unquotes the Go-quoted string at the start of s and reports
// how many bytes it consumed.
func unquotePrefix(s string) (string, int, error) {
	if len(s) == 0 || s[0] != '"' {
		return "", 0, fmt.Errorf("expected quoted string")
	}
	escaped := false
	for i := 1; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == '"':
			val, err := strconv.Unquote(s[:i+1])
			if err != nil {
				return "", 0, err
			}
			return val, i + 1, nil
		}
	}
	return "", 0, fmt.Errorf("unterminated quoted string")
}
