// Package export renders decoded records for people and other tools.
package export

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/danmuck/structwire/internal/protocol/leaf"
	"github.com/danmuck/structwire/internal/protocol/schema"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	CBOR Format = "cbor"
)

// encMode uses Core Deterministic Encoding so equal records always
// produce identical bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("export: CBOR encoder initialization failed: " + err.Error())
	}
}

func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case JSON, YAML, CBOR:
		return f, nil
	case "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("export: unknown format %q", raw)
	}
}

type document struct {
	Name   string  `json:"name" yaml:"name" cbor:"name"`
	Fields []field `json:"fields" yaml:"fields" cbor:"fields"`
}

type field struct {
	Name  string `json:"name" yaml:"name" cbor:"name"`
	Type  string `json:"type" yaml:"type" cbor:"type"`
	Value any    `json:"value" yaml:"value" cbor:"value"`
}

// Writer renders a sequence of records to one stream. YAML records become
// separate documents of one multi-document stream.
type Writer struct {
	w      io.Writer
	format Format
	json   *json.Encoder
	yaml   *yaml.Encoder
}

func NewWriter(w io.Writer, format Format) (*Writer, error) {
	x := &Writer{w: w, format: format}
	switch format {
	case JSON:
		x.json = json.NewEncoder(w)
		x.json.SetIndent("", "  ")
	case YAML:
		x.yaml = yaml.NewEncoder(w)
		x.yaml.SetIndent(2)
	case CBOR:
	default:
		return nil, fmt.Errorf("export: unknown format %q", format)
	}
	return x, nil
}

// Write renders one record. Field order is preserved.
func (x *Writer) Write(rec schema.Record) error {
	binary := x.format == CBOR
	doc := document{Name: rec.Name, Fields: make([]field, len(rec.Fields))}
	for i, f := range rec.Fields {
		doc.Fields[i] = field{Name: f.Name, Type: f.Type.String(), Value: exportValue(f.Data, binary)}
	}
	log.Debug().Str("struct", rec.Name).Str("format", string(x.format)).Msg("export.Write")

	switch x.format {
	case JSON:
		return x.json.Encode(doc)
	case YAML:
		return x.yaml.Encode(doc)
	default:
		data, err := encMode.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = x.w.Write(data)
		return err
	}
}

// Close flushes buffered output. It does not close the underlying writer.
func (x *Writer) Close() error {
	if x.yaml != nil {
		return x.yaml.Close()
	}
	return nil
}

// Render writes a single record to w in format.
func Render(w io.Writer, rec schema.Record, format Format) error {
	x, err := NewWriter(w, format)
	if err != nil {
		return err
	}
	if err := x.Write(rec); err != nil {
		return err
	}
	return x.Close()
}

// exportValue maps decoded values onto shapes every format can carry.
// Text formats get hex for bytes and decimal strings for 128-bit ints;
// CBOR keeps byte strings and uses bignums.
func exportValue(v any, binary bool) any {
	switch x := v.(type) {
	case []byte:
		if binary {
			return x
		}
		return hex.EncodeToString(x)
	case leaf.I128:
		if binary {
			return x.Big()
		}
		return x.String()
	case leaf.U128:
		if binary {
			return x.Big()
		}
		return x.String()
	case float64:
		if !binary && (math.IsNaN(x) || math.IsInf(x, 0)) {
			return fmt.Sprint(x)
		}
		return x
	case float32:
		if !binary && (math.IsNaN(float64(x)) || math.IsInf(float64(x), 0)) {
			return fmt.Sprint(x)
		}
		return x
	default:
		return v
	}
}
