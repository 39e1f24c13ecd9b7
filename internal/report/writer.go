package report

import (
	"context"
	"io"

	"github.com/nao1215/threadscrape/internal/model"
)

// Emitter receives top-level comment trees as they are discovered.
type Emitter interface {
	Emit(ctx context.Context, page int, node model.CommentNode) error
}

// MultiEmitter forwards every record to several emitters in order.
// It stops at the first error.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter creates an Emitter that writes to all provided emitters.
// Nil entries are skipped.
func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	m := &MultiEmitter{}
	for _, e := range emitters {
		if e != nil {
			m.emitters = append(m.emitters, e)
		}
	}
	return m
}

// Emit forwards node to every emitter.
func (m *MultiEmitter) Emit(ctx context.Context, page int, node model.CommentNode) error {
	for _, e := range m.emitters {
		if err := e.Emit(ctx, page, node); err != nil {
			return err
		}
	}
	return nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
