package processing

import (
	"regexp"
	"strings"
)

var (
	blankLines = regexp.MustCompile(`\n{2,}`)
	spaces     = regexp.MustCompile(`[ \t]+`)
)

// Chunker splits cleaned text into paragraph chunks bounded by MaxChars,
// overlapping long splits and dropping noise below MinChars.
type Chunker struct {
	MaxChars int
	Overlap  int
	MinChars int
}

func NewChunker(maxChars, overlap, minChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = 1000
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = maxChars / 5
	}
	return &Chunker{MaxChars: maxChars, Overlap: overlap, MinChars: minChars}
}

// Chunk splits text into paragraph chunks and limits their size.
func (c *Chunker) Chunk(text string) []string {
	paras := blankLines.Split(CleanText(text), -1)
	var out []string
	for _, p := range paras {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		for _, piece := range splitLong(p, c.MaxChars, c.Overlap) {
			// page numbers and stray headers produce tiny chunks; skip them
			if len(piece) >= c.MinChars {
				out = append(out, piece)
			}
		}
	}
	return out
}

// CleanText collapses runs of spaces and trims each line, keeping paragraph
// breaks intact for the splitter.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaces.ReplaceAllString(l, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func splitLong(s string, max, overlap int) []string {
	if len(s) <= max {
		return []string{s}
	}
	var res []string
	for i := 0; i < len(s); i += max - overlap {
		end := i + max
		if end > len(s) {
			end = len(s)
		}
		res = append(res, strings.TrimSpace(s[i:end]))
		if end == len(s) {
			break
		}
	}
	return res
}
