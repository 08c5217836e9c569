package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/danmuck/structwire/internal/protocol/leaf"
	"github.com/danmuck/structwire/internal/protocol/schema"
	"github.com/danmuck/structwire/internal/testutil/testlog"
)

func sampleRecord() schema.Record {
	return schema.Record{Name: "Sample", Fields: []schema.Value{
		{Name: "z", Type: schema.TypeI32, Data: int32(-4)},
		{Name: "a", Type: schema.TypeString, Data: "hi"},
		{Name: "raw", Type: schema.TypeBytes, Data: []byte{0xde, 0xad}},
		{Name: "id", Type: schema.TypeU128, Data: leaf.U128{Hi: 0, Lo: 42}},
		{Name: "ratio", Type: schema.TypeF64, Data: math.Inf(1)},
	}}
}

func TestRenderJSONKeepsFieldOrder(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleRecord(), JSON))

	var doc document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Sample", doc.Name)
	require.Len(t, doc.Fields, 5)

	names := make([]string, len(doc.Fields))
	for i, f := range doc.Fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"z", "a", "raw", "id", "ratio"}, names)
	assert.Equal(t, "i32", doc.Fields[0].Type)
	assert.Equal(t, float64(-4), doc.Fields[0].Value)
	assert.Equal(t, "dead", doc.Fields[2].Value)
	assert.Equal(t, "42", doc.Fields[3].Value)
	assert.Equal(t, "+Inf", doc.Fields[4].Value)
}

func TestRenderYAML(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleRecord(), YAML))

	var doc document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Sample", doc.Name)
	require.Len(t, doc.Fields, 5)
	assert.Equal(t, "a", doc.Fields[1].Name)
	assert.Equal(t, "hi", doc.Fields[1].Value)
	assert.Equal(t, "dead", doc.Fields[2].Value)
}

func TestWriterYAMLSeparatesDocuments(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, YAML)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleRecord()))
	require.NoError(t, w.Write(sampleRecord()))
	require.NoError(t, w.Close())

	dec := yaml.NewDecoder(&buf)
	var docs []document
	for {
		var doc document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	require.Len(t, docs, 2)
	for _, doc := range docs {
		assert.Equal(t, "Sample", doc.Name)
		assert.Len(t, doc.Fields, 5)
	}
}

func TestWriterJSONStream(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, JSON)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleRecord()))
	require.NoError(t, w.Write(sampleRecord()))
	require.NoError(t, w.Close())

	dec := json.NewDecoder(&buf)
	for i := 0; i < 2; i++ {
		var doc document
		require.NoError(t, dec.Decode(&doc), "value %d", i)
		assert.Equal(t, "Sample", doc.Name)
	}
	assert.False(t, dec.More())
}

func TestRenderCBORIsDeterministic(t *testing.T) {
	testlog.Start(t)
	var first, second bytes.Buffer
	require.NoError(t, Render(&first, sampleRecord(), CBOR))
	require.NoError(t, Render(&second, sampleRecord(), CBOR))
	assert.Equal(t, first.Bytes(), second.Bytes())

	var doc struct {
		Name   string `cbor:"name"`
		Fields []struct {
			Name  string          `cbor:"name"`
			Type  string          `cbor:"type"`
			Value cbor.RawMessage `cbor:"value"`
		} `cbor:"fields"`
	}
	require.NoError(t, cbor.Unmarshal(first.Bytes(), &doc))
	assert.Equal(t, "Sample", doc.Name)
	require.Len(t, doc.Fields, 5)

	var raw []byte
	require.NoError(t, cbor.Unmarshal(doc.Fields[2].Value, &raw))
	assert.Equal(t, []byte{0xde, 0xad}, raw)

	var ratio float64
	require.NoError(t, cbor.Unmarshal(doc.Fields[4].Value, &ratio))
	assert.True(t, math.IsInf(ratio, 1))
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"json": JSON, " YAML ": YAML, "yml": YAML, "cbor": CBOR} {
		got, err := ParseFormat(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
	require.Error(t, Render(&bytes.Buffer{}, sampleRecord(), Format("xml")))
}
