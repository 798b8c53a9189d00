package replay

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"breachline/internal/game"
)

// Blobs are msgpack. Types without msgpack tags fall back to their json tags
// so world state encodes with the same field names as its JSON form.

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// EncodeInputs packs an input sequence.
func EncodeInputs(inputs []game.Input) ([]byte, error) {
	b, err := marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("encode inputs: %w", err)
	}
	return b, nil
}

// DecodeInputs unpacks an input sequence.
func DecodeInputs(data []byte) ([]game.Input, error) {
	var inputs []game.Input
	if len(data) == 0 {
		return inputs, nil
	}
	if err := unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("decode inputs: %w", err)
	}
	return inputs, nil
}

// EncodeCheckpoint packs a checkpoint.
func EncodeCheckpoint(c Checkpoint) ([]byte, error) {
	b, err := marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint at tick %d: %w", c.Tick, err)
	}
	return b, nil
}

// DecodeCheckpoint unpacks a checkpoint.
func DecodeCheckpoint(data []byte) (Checkpoint, error) {
	var c Checkpoint
	if err := unmarshal(data, &c); err != nil {
		return Checkpoint{}, fmt.Errorf("decode checkpoint: %w", err)
	}
	return c, nil
}
