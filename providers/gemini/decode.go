package gemini

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/petal-labs/gemkit/core"
)

var (
	errNoCandidates = errors.New("response has no candidates")
	errEmptyRecord  = errors.New("stream record has no candidates, feedback or usage")
)

// decodeResponse decodes a complete 2xx body.
func decodeResponse(status int, body []byte, model core.ModelID) (*core.GenerationResponse, error) {
	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, newDecodeError(status, body, err)
	}
	if gr.Error != nil {
		return nil, embeddedError(gr.Error, body)
	}
	if len(gr.Candidates) == 0 {
		return nil, classifyEmpty(status, body, gr.PromptFeedback)
	}
	return mapResponse(&gr, model), nil
}

// chunkDecoder turns stream records into chunks and tracks termination.
// A stream is finished once every candidate index seen so far has a
// finish reason.
type chunkDecoder struct {
	model    core.ModelID
	seq      int
	open     map[int]bool
	terminal bool
}

func newChunkDecoder(model core.ModelID) *chunkDecoder {
	return &chunkDecoder{model: model, open: make(map[int]bool)}
}

// decode converts one record. Records without candidates are passed through
// as usage or feedback chunks unless they report a blocked prompt.
// An error record is classified by its own code, like an error response.
func (d *chunkDecoder) decode(record []byte) (*core.StreamChunk, error) {
	var gr geminiResponse
	if err := json.Unmarshal(record, &gr); err != nil {
		return nil, newDecodeError(http.StatusOK, record, err)
	}
	if gr.Error != nil {
		return nil, embeddedError(gr.Error, record)
	}
	if len(gr.Candidates) == 0 && gr.PromptFeedback == nil && gr.UsageMetadata == nil {
		return nil, newDecodeError(http.StatusOK, record, errEmptyRecord)
	}
	if len(gr.Candidates) == 0 && gr.PromptFeedback != nil {
		if err := classifyEmpty(http.StatusOK, record, gr.PromptFeedback); err.Kind == core.KindSafetyBlocked {
			return nil, err
		}
	}

	chunk := &core.StreamChunk{
		Seq:            d.seq,
		Candidates:     mapCandidates(gr.Candidates),
		PromptFeedback: mapPromptFeedback(gr.PromptFeedback),
		Usage:          mapUsage(gr.UsageMetadata),
		Model:          d.model,
	}
	if gr.ModelVersion != "" {
		chunk.Model = core.ModelID(gr.ModelVersion)
	}
	d.seq++

	for _, c := range chunk.Candidates {
		d.open[c.Index] = !c.FinishReason.Finished()
	}
	if len(chunk.Candidates) > 0 && !d.anyOpen() {
		chunk.Terminal = true
		d.terminal = true
	}
	return chunk, nil
}

func (d *chunkDecoder) anyOpen() bool {
	for _, open := range d.open {
		if open {
			return true
		}
	}
	return false
}

// embeddedError classifies an error object found in a 200 body or stream
// record. The object's code stands in for the HTTP status.
func embeddedError(e *geminiError, body []byte) *core.APIError {
	return classifyStatus(e.Code, nil, body, time.Now())
}
