package utils

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFrames returns n frames with a red block that moves one pixel right per frame.
func testFrames(n int) []image.Image {
	frames := make([]image.Image, n)
	for k := range n {
		f := image.NewRGBA(image.Rect(0, 0, 32, 24))
		for y := 8; y < 16; y++ {
			for x := 4 + k; x < 12+k; x++ {
				f.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			}
		}
		frames[k] = f
	}
	return frames
}

func gradientFrames(n int) []image.Image {
	frames := make([]image.Image, n)
	for k := range n {
		f := image.NewNRGBA(image.Rect(0, 0, 32, 24))
		for y := range 24 {
			for x := range 32 {
				f.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 10), B: uint8(40 * k), A: 255})
			}
		}
		frames[k] = f
	}
	return frames
}

func TestGIFPalette(t *testing.T) {
	pal := GIFPalette([]colorful.Color{{R: 1}, {G: 1}})
	require.Len(t, pal, 3)
	assert.Equal(t, color.RGBA{}, pal[0])
	assert.Equal(t, color.RGBA{R: 255, A: 255}, pal[1])
	assert.Equal(t, color.RGBA{G: 255, A: 255}, pal[2])

	many := make([]colorful.Color, 400)
	assert.Len(t, GIFPalette(many), 256)
}

func TestBuildGIF(t *testing.T) {
	g, err := BuildGIF(testFrames(12), DefaultGIFOptions())
	require.NoError(t, err)

	require.Len(t, g.Image, 12)
	assert.Equal(t, 0, g.LoopCount)
	for k := range 12 {
		assert.Equal(t, 7, g.Delay[k])
		assert.Equal(t, byte(gif.DisposalBackground), g.Disposal[k])
	}

	first := g.Image[0]
	assert.Equal(t, uint8(0), first.ColorIndexAt(0, 0))
	idx := first.ColorIndexAt(5, 10)
	assert.NotZero(t, idx)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, first.Palette[idx])

	// Frame order is kept: the block has moved eleven pixels by the last frame.
	last := g.Image[11]
	assert.Equal(t, uint8(0), last.ColorIndexAt(5, 10))
	assert.NotZero(t, last.ColorIndexAt(20, 10))
}

func TestBuildGIF_Errors(t *testing.T) {
	_, err := BuildGIF(nil, DefaultGIFOptions())
	assert.Error(t, err)

	frames := []image.Image{image.NewRGBA(image.Rect(0, 0, 4, 4)), image.NewRGBA(image.Rect(0, 0, 4, 5))}
	_, err = BuildGIF(frames, DefaultGIFOptions())
	assert.Error(t, err)
}

func TestSaveGIF_RoundTripAndIdempotent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.gif")
	b := filepath.Join(dir, "out", "b.gif")

	require.NoError(t, SaveGIF(testFrames(12), DefaultGIFOptions(), a))
	require.NoError(t, SaveGIF(testFrames(12), DefaultGIFOptions(), b))

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(da, db))

	g, err := gif.DecodeAll(bytes.NewReader(da))
	require.NoError(t, err)
	assert.Len(t, g.Image, 12)
	assert.Equal(t, 0, g.LoopCount)
	assert.Equal(t, 7, g.Delay[3])
	_, _, _, alpha := g.Image[0].At(0, 0).RGBA()
	assert.Zero(t, alpha)
}

func TestEncodeGIF_AdaptivePalettes(t *testing.T) {
	for _, m := range []PaletteMethod{PaletteMethodDominantColor, PaletteMethodKMeans} {
		t.Run(m.String(), func(t *testing.T) {
			opt := DefaultGIFOptions()
			opt.Palette = m
			opt.Colors = 4
			var buf bytes.Buffer
			require.NoError(t, EncodeGIF(&buf, gradientFrames(3), opt))
			g, err := gif.DecodeAll(&buf)
			require.NoError(t, err)
			assert.Len(t, g.Image, 3)
		})
	}
}

func TestBuildGIF_KeepColors(t *testing.T) {
	gold := color.NRGBA{R: 255, G: 215, A: 180}
	blue := color.NRGBA{R: 100, G: 180, B: 255, A: 255}
	for _, m := range []PaletteMethod{PaletteMethodWebSafe, PaletteMethodDominantColor, PaletteMethodKMeans} {
		t.Run(m.String(), func(t *testing.T) {
			opt := DefaultGIFOptions()
			opt.Palette = m
			opt.Colors = 6
			opt.Keep = []color.Color{gold, blue}
			g, err := BuildGIF(gradientFrames(2), opt)
			require.NoError(t, err)

			pal := g.Config.ColorModel.(color.Palette)
			require.Greater(t, len(pal), 3)
			assert.Equal(t, color.RGBA{}, pal[0])
			assert.Equal(t, color.RGBA{R: 255, G: 215, A: 255}, pal[1])
			assert.Equal(t, color.RGBA{R: 100, G: 180, B: 255, A: 255}, pal[2])
			if m != PaletteMethodWebSafe {
				assert.LessOrEqual(t, len(pal), 7)
			}
		})
	}
}

func TestWriteAtomic_LeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sheet.png")
	boom := errors.New("boom")

	err := writeAtomic(target, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteAtomic_ReplacesExisting(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

	require.NoError(t, writeAtomic(target, func(w io.Writer) error {
		_, err := w.Write([]byte("new"))
		return err
	}))
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.bin", entries[0].Name())
}

func TestDefaultGIFOptions(t *testing.T) {
	opt := DefaultGIFOptions()
	assert.Equal(t, 75*time.Millisecond, opt.Delay)
	assert.Equal(t, PaletteMethodWebSafe, opt.Palette)
}
