package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/logo-gallery/internal/similarity"
)

func writeLogo(t *testing.T, name string, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "logo-gallery "+Version))
	assert.Contains(t, out, "Git commit:")
}

func TestExtractCommand(t *testing.T) {
	path := writeLogo(t, "red.png", 30, 10, color.RGBA{255, 0, 0, 255})

	out, err := execute(t, "extract", path)
	require.NoError(t, err)

	var got struct {
		ContentHash string `json:"contentHash"`
		Features    struct {
			Width          int `json:"width"`
			Height         int `json:"height"`
			DominantColors []struct {
				Hex string `json:"hex"`
			} `json:"dominantColors"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.ContentHash, 64)
	assert.Equal(t, 30, got.Features.Width)
	assert.Equal(t, 10, got.Features.Height)
	require.NotEmpty(t, got.Features.DominantColors)
	assert.Equal(t, "#FF0000", got.Features.DominantColors[0].Hex)
}

func TestExtractCommand_Errors(t *testing.T) {
	_, err := execute(t, "extract")
	assert.Error(t, err)

	_, err = execute(t, "extract", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestCompareCommand(t *testing.T) {
	a := writeLogo(t, "a.png", 20, 20, color.RGBA{0, 0, 0, 255})
	b := writeLogo(t, "b.png", 80, 20, color.RGBA{255, 255, 255, 255})

	out, err := execute(t, "compare", a, a)
	require.NoError(t, err)
	var same similarity.Result
	require.NoError(t, json.Unmarshal([]byte(out), &same))
	assert.Equal(t, similarity.MatchExact, same.MatchType)

	out, err = execute(t, "compare", a, b)
	require.NoError(t, err)
	var diff similarity.Result
	require.NoError(t, json.Unmarshal([]byte(out), &diff))
	assert.Equal(t, similarity.MatchDifferent, diff.MatchType)
	assert.Less(t, diff.Similarity, 0.55)
}
