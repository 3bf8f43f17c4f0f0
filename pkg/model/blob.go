package model

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	lenSize   = 8
	floatSize = 8
)

// ErrCorrupt is returned when a model blob does not match the expected layout.
var ErrCorrupt = errors.New("corrupt model blob")

// Decode parses a model blob: a little-endian uint64 weight count, that many
// float64 weights, and a float64 bias. Trailing bytes are rejected.
func Decode(b []byte) (*Model, error) {
	if len(b) < lenSize+floatSize {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrCorrupt, len(b))
	}

	r := bytes.NewReader(b)

	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: reading weight count: %w", ErrCorrupt, err)
	}

	want := uint64(len(b) - lenSize - floatSize)
	if n > want/floatSize || n*floatSize != want {
		return nil, fmt.Errorf("%w: %d weights do not fit %d bytes", ErrCorrupt, n, len(b))
	}

	weights := make([]float64, n)
	if err := binary.Read(r, binary.LittleEndian, weights); err != nil {
		return nil, fmt.Errorf("%w: reading weights: %w", ErrCorrupt, err)
	}

	var bias float64
	if err := binary.Read(r, binary.LittleEndian, &bias); err != nil {
		return nil, fmt.Errorf("%w: reading bias: %w", ErrCorrupt, err)
	}

	if _, err := r.ReadByte(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing bytes", ErrCorrupt)
	}

	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %d is not finite", ErrCorrupt, i)
		}
	}
	if math.IsNaN(bias) || math.IsInf(bias, 0) {
		return nil, fmt.Errorf("%w: bias is not finite", ErrCorrupt)
	}

	return &Model{weights: weights, bias: bias}, nil
}

// Encode serializes the model in the layout read by Decode.
func Encode(m *Model) ([]byte, error) {
	if m == nil {
		return nil, errors.New("model required")
	}

	var buf bytes.Buffer
	buf.Grow(lenSize + floatSize*(len(m.weights)+1))

	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(m.weights))); err != nil {
		return nil, fmt.Errorf("writing weight count: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, m.weights); err != nil {
		return nil, fmt.Errorf("writing weights: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, m.bias); err != nil {
		return nil, fmt.Errorf("writing bias: %w", err)
	}

	return buf.Bytes(), nil
}
