package report

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nao1215/threadscrape/internal/model"
)

// maxLineSize bounds a single JSONL record when reading.
const maxLineSize = 16 * 1024 * 1024

// flusher is implemented by buffered outputs such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// JSONLEmitter writes each comment tree as one JSON line.
//
// Lines are written in call order and never rewritten. HTML characters in
// comment text are kept as-is. When the output is buffered it is flushed
// after every line, so a crash loses at most the record being written.
type JSONLEmitter struct {
	baseWriter

	mu    sync.Mutex
	enc   *json.Encoder
	count int
}

// NewJSONLEmitter creates a JSONLEmitter that writes to output.
func NewJSONLEmitter(output io.Writer) *JSONLEmitter {
	enc := json.NewEncoder(output)
	enc.SetEscapeHTML(false)
	return &JSONLEmitter{
		baseWriter: newBaseWriter(output),
		enc:        enc,
	}
}

// Emit writes node as one line. The page number is not part of the record.
func (e *JSONLEmitter) Emit(_ context.Context, _ int, node model.CommentNode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.enc.Encode(node); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if f, ok := e.output.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("failed to flush record: %w", err)
		}
	}
	e.count++
	return nil
}

// WriteNodes writes every node in order.
func (e *JSONLEmitter) WriteNodes(ctx context.Context, nodes []model.CommentNode) error {
	for _, n := range nodes {
		if err := e.Emit(ctx, 0, n); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of lines written so far.
func (e *JSONLEmitter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// ReadJSONL reads comment trees written by JSONLEmitter. Blank lines are
// skipped.
func ReadJSONL(r io.Reader) ([]model.CommentNode, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var nodes []model.CommentNode
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var n model.CommentNode
		if err := json.Unmarshal([]byte(text), &n); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		nodes = append(nodes, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return nodes, nil
}

// encodeLines renders nodes as JSONL text.
func encodeLines(nodes []model.CommentNode) (string, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	for _, n := range nodes {
		if err := enc.Encode(n); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}
