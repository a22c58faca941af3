package core

import (
	"iter"
	"sort"
)

// StreamChunk is one incrementally delivered fragment of a response.
//
// Candidates hold content deltas; a candidate appears in a chunk only when
// it has new content or finished. The response is the ordered concatenation
// of all deltas up to and including the chunk with Terminal set.
type StreamChunk struct {
	Seq            int // 0-based arrival index
	Candidates     []Candidate
	PromptFeedback *PromptFeedback
	Usage          *TokenUsage
	Terminal       bool
	Model          ModelID
	RequestID      string
}

// Text returns the text delta of the first candidate.
func (c *StreamChunk) Text() string {
	if c == nil || len(c.Candidates) == 0 {
		return ""
	}
	return c.Candidates[0].Content.Text()
}

// ChunkReader is the pull side of one open stream, as returned by a provider.
//
// Rules:
//   - Next returns chunks strictly in arrival order
//   - Next returns io.EOF only after the terminal chunk was returned
//   - A stream that ends before its terminal chunk is reported as a KindNetwork error
//   - Close releases the connection and may be called at any time, more than once
type ChunkReader interface {
	Next() (*StreamChunk, error)
	Close() error

	// TrailingRecords reports records seen after the terminal chunk.
	TrailingRecords() int
}

// Collect consumes a stream and concatenates its deltas into one response.
// The first error ends collection and is returned as is.
func Collect(seq iter.Seq2[*StreamChunk, error]) (*GenerationResponse, error) {
	acc := &accumulator{byIndex: make(map[int]*Candidate)}
	for chunk, err := range seq {
		if err != nil {
			return nil, err
		}
		acc.add(chunk)
	}
	return acc.response(), nil
}

type accumulator struct {
	byIndex  map[int]*Candidate
	feedback *PromptFeedback
	usage    TokenUsage
	model    ModelID
	id       string
}

func (a *accumulator) add(c *StreamChunk) {
	if c.Model != "" {
		a.model = c.Model
	}
	if c.RequestID != "" {
		a.id = c.RequestID
	}
	if c.PromptFeedback != nil {
		a.feedback = c.PromptFeedback
	}
	if c.Usage != nil {
		a.usage = *c.Usage
	}
	for _, delta := range c.Candidates {
		cand, ok := a.byIndex[delta.Index]
		if !ok {
			cand = &Candidate{Index: delta.Index, Content: Content{Role: delta.Content.Role}}
			a.byIndex[delta.Index] = cand
		}
		if cand.Content.Role == "" {
			cand.Content.Role = delta.Content.Role
		}
		for _, p := range delta.Content.Parts {
			cand.Content.Parts = appendPart(cand.Content.Parts, p)
		}
		if delta.FinishReason.Finished() {
			cand.FinishReason = delta.FinishReason
		}
		if delta.FinishMessage != "" {
			cand.FinishMessage = delta.FinishMessage
		}
		if len(delta.SafetyRatings) > 0 {
			cand.SafetyRatings = delta.SafetyRatings
		}
		cand.Citations = append(cand.Citations, delta.Citations...)
	}
}

func (a *accumulator) response() *GenerationResponse {
	resp := &GenerationResponse{
		PromptFeedback: a.feedback,
		Usage:          a.usage,
		Model:          a.model,
		RequestID:      a.id,
	}
	for _, c := range a.byIndex {
		resp.Candidates = append(resp.Candidates, *c)
	}
	sort.Slice(resp.Candidates, func(i, j int) bool {
		return resp.Candidates[i].Index < resp.Candidates[j].Index
	})
	return resp
}
