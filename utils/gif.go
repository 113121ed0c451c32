package utils

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Pixels below this alpha become the transparent palette entry.
const alphaThreshold = 128

type GIFOptions struct {
	// Delay between frames; GIF stores hundredths of a second, truncated.
	Delay time.Duration
	// 0 loops forever.
	LoopCount int
	Palette   PaletteMethod
	// Opaque palette entries, at most 255. Index 0 is reserved for transparency.
	Colors int
	// Keep lists colors that must appear verbatim in the palette, right after
	// the transparent entry. Their alpha is ignored.
	Keep []color.Color
}

func DefaultGIFOptions() GIFOptions {
	return GIFOptions{
		Delay:   75 * time.Millisecond,
		Palette: PaletteMethodWebSafe,
		Colors:  255,
	}
}

// GIFPalette puts a fully transparent entry at index 0 followed by cols.
func GIFPalette(cols []colorful.Color) color.Palette {
	cols = cols[:min(len(cols), 255)]
	pal := make(color.Palette, 0, len(cols)+1)
	pal = append(pal, color.RGBA{})
	for _, c := range cols {
		r, g, b := c.Clamped().RGB255()
		pal = append(pal, color.RGBA{R: r, G: g, B: b, A: 0xff})
	}
	return pal
}

func opaqueColors(cs []color.Color) []colorful.Color {
	out := make([]colorful.Color, 0, len(cs))
	for _, c := range cs {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		out = append(out, colorful.Color{
			R: float64(n.R) / 255,
			G: float64(n.G) / 255,
			B: float64(n.B) / 255,
		})
	}
	return out
}

// quantizer maps colors to the nearest opaque palette entry in Lab space.
type quantizer struct {
	pal   color.Palette
	lab   [][3]float64
	cache map[[3]uint8]uint8
}

func newQuantizer(pal color.Palette) *quantizer {
	q := &quantizer{pal: pal, cache: make(map[[3]uint8]uint8)}
	q.lab = make([][3]float64, len(pal))
	for i, c := range pal {
		col, _ := colorful.MakeColor(c)
		l, a, b := col.Lab()
		q.lab[i] = [3]float64{l, a, b}
	}
	return q
}

func (q *quantizer) index(c color.NRGBA) uint8 {
	if c.A < alphaThreshold || len(q.pal) < 2 {
		return 0
	}
	key := [3]uint8{c.R, c.G, c.B}
	if idx, ok := q.cache[key]; ok {
		return idx
	}
	l, a, b := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Lab()
	best, bestD := 1, -1.0
	for i := 1; i < len(q.lab); i++ {
		dl, da, db := l-q.lab[i][0], a-q.lab[i][1], b-q.lab[i][2]
		d := dl*dl + da*da + db*db
		if bestD < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	q.cache[key] = uint8(best)
	return uint8(best)
}

// Quantize converts img to a paletted image over pal, where pal[0] is transparent.
func (q *quantizer) Quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	out := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), q.pal)
	for y := range b.Dy() {
		for x := range b.Dx() {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			out.Pix[y*out.Stride+x] = q.index(c)
		}
	}
	return out
}

// BuildGIF quantizes frames in order into an animation that clears to the
// transparent background between frames.
func BuildGIF(frames []image.Image, opt GIFOptions) (*gif.GIF, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("build gif: no frames")
	}
	n := opt.Colors
	if n <= 0 || n > 255 {
		n = 255
	}
	pal := GIFPalette(ExtractPalette(frames, n, opt.Palette, opaqueColors(opt.Keep)...))
	q := newQuantizer(pal)

	delay := int(opt.Delay / (10 * time.Millisecond))
	g := &gif.GIF{LoopCount: opt.LoopCount, BackgroundIndex: 0}
	size := frames[0].Bounds().Size()
	for k, f := range frames {
		if f.Bounds().Size() != size {
			return nil, fmt.Errorf("build gif: frame %d is %v, want %v", k, f.Bounds().Size(), size)
		}
		g.Image = append(g.Image, q.Quantize(f))
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}
	g.Config = image.Config{ColorModel: pal, Width: size.X, Height: size.Y}
	return g, nil
}

func EncodeGIF(w io.Writer, frames []image.Image, opt GIFOptions) error {
	g, err := BuildGIF(frames, opt)
	if err != nil {
		return err
	}
	return gif.EncodeAll(w, g)
}

// SaveGIF writes the animation atomically: on error no file appears at path.
func SaveGIF(frames []image.Image, opt GIFOptions, filename string) error {
	g, err := BuildGIF(frames, opt)
	if err != nil {
		return err
	}
	return writeAtomic(filename, func(w io.Writer) error {
		return gif.EncodeAll(w, g)
	})
}
