// Package chunker splits extracted résumé text into token-bounded,
// sentence-aligned chunks for embedding.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/wondercloudgenai/talentflow/internal/domain"
)

const encodingName = "cl100k_base"

// sentenceEndings are the token texts a chunk boundary may snap to.
var sentenceEndings = map[string]struct{}{
	".": {}, "!": {}, "?": {},
	"。": {}, "！": {}, "？": {},
	":": {},
}

// tokenizer is the encode/decode surface the chunker needs. Production
// code uses tiktoken; tests substitute a deterministic fake.
type tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t tiktokenizer) Encode(text string) []int   { return t.enc.Encode(text, nil, nil) }
func (t tiktokenizer) Decode(tokens []int) string { return t.enc.Decode(tokens) }

// Chunker produces overlapping token windows aligned to sentence
// boundaries where possible.
type Chunker struct {
	tok      tokenizer
	size     int
	overlap  int
	minChars int
}

// New creates a chunker with the given target chunk size and overlap,
// both in tokens. Requires size > 0 and 0 <= overlap < size.
func New(size, overlap, minChars int) (*Chunker, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", encodingName, err)
	}
	return newChunker(tiktokenizer{enc: enc}, size, overlap, minChars)
}

func newChunker(tok tokenizer, size, overlap, minChars int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap must be in [0, size), got %d for size %d", overlap, size)
	}
	if minChars < 0 {
		minChars = 0
	}
	return &Chunker{tok: tok, size: size, overlap: overlap, minChars: minChars}, nil
}

// Split chunks the text. Empty or whitespace-only input yields no
// chunks and no error. The walk always terminates: the window start is
// forced forward by at least one token per iteration.
func (c *Chunker) Split(text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	tokens := c.tok.Encode(text)
	total := len(tokens)

	var texts []string
	start := 0
	for start < total {
		end := start + c.size
		if end > total {
			end = total
		}

		// Not at the document end: snap the edge back to the nearest
		// sentence terminal within the last size/3 tokens.
		if end < total {
			searchStart := end - c.size/3
			if searchStart < start {
				searchStart = start
			}
			for i := end; i > searchStart; i-- {
				if c.isSentenceEnd(tokens[i-1]) {
					end = i
					break
				}
			}
		}

		chunk := strings.TrimSpace(c.tok.Decode(tokens[start:end]))
		// The floor is a character count; CJK text would pass a byte
		// comparison at a third of the intended length.
		if utf8.RuneCountInString(chunk) > c.minChars {
			texts = append(texts, chunk)
		}

		next := start + c.size - c.overlap
		if end >= next {
			// The semantic snap shortened this window; restart the
			// overlap from the actual edge.
			next = end - c.overlap
		}
		if next <= start {
			start++
		} else {
			start = next
		}
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{
			Text:       t,
			SequenceID: fmt.Sprintf("chunk-%d", i),
			TokenCount: len(c.tok.Encode(t)),
		}
	}
	return chunks
}

// isSentenceEnd reports whether a single token decodes to a sentence
// terminal. Tokens that trim to nothing but contain a newline count:
// line breaks in résumés separate sections.
func (c *Chunker) isSentenceEnd(token int) bool {
	text := c.tok.Decode([]int{token})
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return strings.Contains(text, "\n")
	}
	_, ok := sentenceEndings[trimmed]
	return ok
}
