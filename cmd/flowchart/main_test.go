package main

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/flowchart-recognizer/internal/config"
)

func writeChart(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 240, 200))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for _, r := range []image.Rectangle{
		image.Rect(70, 20, 170, 24), image.Rect(70, 56, 170, 60),
		image.Rect(70, 20, 74, 60), image.Rect(166, 20, 170, 60),
		image.Rect(118, 60, 122, 120),
	} {
		draw.Draw(img, r, image.Black, image.Point{}, draw.Src)
	}

	path := filepath.Join(dir, "chart.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI("--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "flowchart dev")
}

func TestRun_PrintsTable(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	input := writeChart(t, inDir)

	code, out, errOut := runCLI("-f", input, "--no-ocr", "--output-dir", outDir, "-p", "20")
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "Id"), out)
	assert.Contains(t, lines[0], "Position")
	assert.Contains(t, out, "Processed image saved as "+filepath.Join(inDir, "chart_out_processed.png"))
	assert.FileExists(t, filepath.Join(inDir, "chart_out.png"))
	assert.FileExists(t, filepath.Join(outDir, "data.json"))
	assert.FileExists(t, filepath.Join(outDir, "thresh.png"))
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	input := writeChart(t, dir)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing input", []string{"-f", filepath.Join(dir, "missing.png"), "--no-ocr", "--output-dir", dir}, 1},
		{"invalid padding", []string{"-f", input, "-p", "-3", "--no-ocr"}, 1},
		{"missing config", []string{"-f", input, "--config", filepath.Join(dir, "none.yaml")}, 1},
		{"unknown flag", []string{"--bogus"}, 2},
		{"stray argument", []string{"-f", input, "extra"}, 2},
		{"no filename", []string{"--no-ocr"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, _ := runCLI(tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Empty(t, out)
		})
	}
}

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	name, err := prompt(strings.NewReader("  charts/a.png \n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "charts/a.png", name)
	assert.Empty(t, out.String(), "no prompt when stdin is not a terminal")

	name, err = prompt(strings.NewReader("b.png"), &out)
	require.NoError(t, err)
	assert.Equal(t, "b.png", name)

	_, err = prompt(strings.NewReader(""), &out)
	assert.Error(t, err)
}

func TestApplyFlags(t *testing.T) {
	o, set, err := parseFlags([]string{"-a", "12", "--workers", "3", "--log-level", "debug"}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg := config.Default()
	applyFlags(cfg, o, set)
	assert.Equal(t, 12, cfg.Arrow)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 25, cfg.Padding, "unset flags keep the config value")
	assert.Equal(t, 10, cfg.Offset)
}
