// Package blueprint serialises a resolved instruction list into the
// ROM blueprint string consumed by the target machine: a signals
// table (one row per instruction, carrying its opcode, operand and
// address as constant-combinator signals O, D and A), wrapped in a
// zlib-compressed, base64-encoded, single-version-byte-prefixed
// envelope. This framing is opaque to the language itself, so it is
// built directly on the standard library rather than a third-party
// codec — see DESIGN.md.
package blueprint

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"lflc/asm"
)

// version is the single leading byte every blueprint string carries
// ahead of its base64 payload.
const version = '0'

// signalFilter is one constant-combinator output: a virtual signal
// name paired with the value it carries.
type signalFilter struct {
	Count  int       `json:"count"`
	Signal signalRef `json:"signal"`
	Index  int       `json:"index"`
}

type signalRef struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// entity is one row of the ROM: a constant combinator holding one
// instruction's opcode (signal O), operand (signal D), and its own
// address (signal A).
type entity struct {
	EntityNumber int    `json:"entity_number"`
	Name         string `json:"name"`
	Position     struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"position"`
	ControlBehavior struct {
		Filters []signalFilter `json:"filters"`
	} `json:"control_behavior"`
}

type blueprintBody struct {
	Icons    []any    `json:"icons"`
	Entities []entity `json:"entities"`
	Item     string   `json:"item"`
	Version  int64    `json:"version"`
}

type envelope struct {
	Blueprint blueprintBody `json:"blueprint"`
}

func newEntity(number int, op, data, addr int) entity {
	e := entity{EntityNumber: number, Name: "constant-combinator"}
	e.Position.X = float64(number)
	e.ControlBehavior.Filters = []signalFilter{
		{Count: op, Signal: signalRef{Type: "virtual", Name: "signal-O"}, Index: 1},
		{Count: data, Signal: signalRef{Type: "virtual", Name: "signal-D"}, Index: 2},
		{Count: addr, Signal: signalRef{Type: "virtual", Name: "signal-A"}, Index: 3},
	}
	return e
}

// Emit builds the ROM blueprint string for a resolved instruction list.
func Emit(instrs []asm.Instruction) (string, error) {
	body := blueprintBody{Icons: []any{}, Item: "blueprint", Version: 1}
	for i, in := range instrs {
		body.Entities = append(body.Entities, newEntity(i+1, int(in.Op), in.Operand, i+1))
	}

	raw, err := json.Marshal(envelope{Blueprint: body})
	if err != nil {
		return "", fmt.Errorf("blueprint: encoding signals table: %w", err)
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("blueprint: compressing signals table: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("blueprint: closing compressor: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(compressed.Bytes())
	return string(version) + encoded, nil
}

// Decode reverses Emit, recovering the signals table's JSON for tests
// and devtools that need to inspect a blueprint string's contents.
func Decode(blueprintString string) ([]byte, error) {
	if len(blueprintString) == 0 || blueprintString[0] != version {
		return nil, fmt.Errorf("blueprint: missing version byte %q", string(version))
	}
	raw, err := base64.StdEncoding.DecodeString(blueprintString[1:])
	if err != nil {
		return nil, fmt.Errorf("blueprint: decoding base64: %w", err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("blueprint: opening compressed stream: %w", err)
	}
	defer zr.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(zr); err != nil {
		return nil, fmt.Errorf("blueprint: decompressing signals table: %w", err)
	}
	return out.Bytes(), nil
}
