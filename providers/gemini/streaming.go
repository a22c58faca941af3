package gemini

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/petal-labs/gemkit/core"
)

const readBufferSize = 4 << 10

// streamReader decodes an SSE body into chunks, one record at a time.
// It is not safe for concurrent use.
type streamReader struct {
	body   io.ReadCloser
	cancel context.CancelCauseFunc
	dec    *chunkDecoder
	split  sseSplitter
	buf    []byte

	pending  [][]byte
	eof      bool
	readErr  error
	err      error
	done     bool
	trailing int

	closeOnce sync.Once
}

func newStreamReader(body io.ReadCloser, cancel context.CancelCauseFunc, model core.ModelID) *streamReader {
	return &streamReader{
		body:   body,
		cancel: cancel,
		dec:    newChunkDecoder(model),
		buf:    make([]byte, readBufferSize),
	}
}

// Next returns the next chunk in arrival order.
func (r *streamReader) Next() (*core.StreamChunk, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.dec.terminal {
		r.finish()
		return nil, io.EOF
	}

	for {
		if len(r.pending) > 0 {
			record := r.pending[0]
			r.pending = r.pending[1:]
			chunk, err := r.dec.decode(record)
			if err != nil {
				r.err = err
				return nil, err
			}
			return chunk, nil
		}
		switch {
		case r.readErr != nil:
			r.err = newTransportError(r.readErr)
			return nil, r.err
		case r.eof:
			r.err = newTransportError(io.ErrUnexpectedEOF)
			return nil, r.err
		}
		r.fill()
	}
}

// fill reads one frame into pending. Records completed by the frame are
// kept even when the read also failed.
func (r *streamReader) fill() {
	n, err := r.body.Read(r.buf)
	if n > 0 {
		r.pending = append(r.pending, r.split.Feed(r.buf[:n])...)
	}
	switch {
	case errors.Is(err, io.EOF):
		r.eof = true
		if rest := r.split.Flush(); rest != nil {
			r.pending = append(r.pending, rest)
		}
	case err != nil:
		r.readErr = err
	}
}

// finish counts the records already received after the terminal chunk.
// It never reads again: the connection may stay open and idle, and Close
// releases it.
func (r *streamReader) finish() {
	if r.done {
		return
	}
	r.done = true
	r.trailing += len(r.pending)
	r.pending = nil
}

// TrailingRecords reports records received after the terminal chunk
// and before the reader stopped reading.
func (r *streamReader) TrailingRecords() int {
	return r.trailing
}

// Close releases the connection. It is safe to call more than once.
func (r *streamReader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.body.Close()
		r.cancel(nil)
	})
	return err
}

var _ core.ChunkReader = (*streamReader)(nil)
