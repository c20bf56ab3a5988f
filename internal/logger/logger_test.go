package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesJSONToStdoutAndFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "test.log")

	require.NoError(t, Init(Options{Level: "debug", File: file, Stdout: &buf}))
	t.Cleanup(Close)

	log.Info().Str("file", "scan.pdf").Int("page", 2).Msg("page matched")

	var ev map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, "info", ev["level"])
	assert.Equal(t, "docfinder", ev["service"])
	assert.Equal(t, "scan.pdf", ev["file"])
	assert.Equal(t, float64(2), ev["page"])

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "page matched")
	assert.Equal(t, zerolog.DebugLevel, Get().GetLevel())
}

func TestInit_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "loud", Stdout: &buf}))
	assert.Equal(t, zerolog.InfoLevel, Get().GetLevel())

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

type recordingSink struct{ events []axiom.Event }

func (r *recordingSink) Send(ev axiom.Event) { r.events = append(r.events, ev) }

func TestAxiomWriter(t *testing.T) {
	sink := &recordingSink{}
	w := &axiomWriter{sink: sink, service: "docfinder"}

	debug := []byte(`{"level":"debug","message":"noise"}`)
	n, err := w.Write(debug)
	require.NoError(t, err)
	assert.Equal(t, len(debug), n)
	assert.Empty(t, sink.events)

	_, err = w.Write([]byte(`{"level":"warn","message":"slow ocr"}`))
	require.NoError(t, err)
	_, err = w.Write([]byte("not json"))
	require.NoError(t, err)

	require.Len(t, sink.events, 2)
	assert.Equal(t, "warn", sink.events[0]["level"])
	assert.Equal(t, "docfinder", sink.events[0]["service"])
	assert.Contains(t, sink.events[0], ingest.TimestampField)
	assert.Equal(t, "not json", sink.events[1]["message"])
}
