package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/vellum/config"
	"github.com/ByLCY/vellum/document"
	"github.com/ByLCY/vellum/geom"
	"github.com/ByLCY/vellum/session"
)

func TestRunWritesDocument(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "edit.vellum")
	require.NoError(t, os.WriteFile(script, []byte("add shape x=${x} y=20 as box\ndrag box 30 0\n"), 0o644))

	settings := config.Default()
	settings.Text.Measurer = "heuristic"
	out := filepath.Join(dir, "out", "doc.json")

	report, err := run(context.Background(), script, document.New("demo", geom.Size{Width: 800, Height: 600}),
		session.Options{Settings: settings, Data: map[string]any{"x": 100}}, func(s *session.Session) error { return writeDocument(s.Snapshot(), out) })
	require.NoError(t, err)
	assert.Len(t, report.Steps, 2)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	doc, err := document.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, 1, doc.ElementCount())
	assert.Equal(t, 130.0, doc.Pages[0].Elements[0].Rect.X)

	var buf bytes.Buffer
	require.NoError(t, writeReport(report, "-", &buf))
	assert.Contains(t, buf.String(), `"selectionMode": "single"`)
}

func TestRunReportsFailedStep(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "bad.vellum")
	require.NoError(t, os.WriteFile(script, []byte("add shape as a\nexpect a x=1\n"), 0o644))

	settings := config.Default()
	settings.Text.Measurer = "heuristic"
	called := false
	report, err := run(context.Background(), script, document.New("", geom.Size{Width: 100, Height: 100}),
		session.Options{Settings: settings}, func(*session.Session) error { called = true; return nil })
	require.ErrorIs(t, err, session.ErrExpectation)
	assert.False(t, called)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.Steps[1].Error)
}

func TestMeasureCommandReportsFontLineHeight(t *testing.T) {
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"measure", "hello", "--font-size", "20"})
	require.NoError(t, cmd.Execute())

	var out struct {
		Width          float64  `json:"width"`
		Lines          []string `json:"lines"`
		FontLineHeight float64  `json:"fontLineHeight"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, []string{"hello"}, out.Lines)
	assert.Greater(t, out.Width, 0.0)
	assert.Greater(t, out.FontLineHeight, 0.0)
}
