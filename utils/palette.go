package utils

import (
	"cmp"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"math"
	"slices"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/rs/zerolog/log"
)

type PaletteMethod int

const (
	// PaletteMethodWebSafe uses the fixed 216-color web-safe cube. Together
	// with dominantcolor, which seeds its sampler with a constant, it makes
	// repeated runs byte-identical. kmeans seeds randomly.
	PaletteMethodWebSafe PaletteMethod = iota
	PaletteMethodDominantColor
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	case PaletteMethodDominantColor:
		return "dominantcolor"
	default:
		return "websafe"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "websafe":
		return PaletteMethodWebSafe, nil
	case "dominantcolor", "dominant":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	}
	return PaletteMethodWebSafe, fmt.Errorf("unknown palette method %q", s)
}

type weightedColor struct {
	Col    colorful.Color
	Weight float64
}

// SortPaletteByLightness orders colors by CIE L*, darkest first. Equal
// lightness falls back to chroma so grays lead their tinted neighbors.
func SortPaletteByLightness(pal []colorful.Color) {
	slices.SortStableFunc(pal, func(a, b colorful.Color) int {
		la, ca, _ := a.Clamped().LuvLCh()
		lb, cb, _ := b.Clamped().LuvLCh()
		if c := cmp.Compare(la, lb); c != 0 {
			return c
		}
		return cmp.Compare(ca, cb)
	})
}

// opaqueSamples lays a subsample of the visible pixels of every frame out
// as a near-square image. Pixels under the GIF alpha threshold are dropped,
// the rest are made opaque, and the unused tail stays fully transparent.
func opaqueSamples(frames []image.Image, maxSamples int) *image.NRGBA {
	total := 0
	for _, f := range frames {
		total += f.Bounds().Dx() * f.Bounds().Dy()
	}
	step := 1
	if total > maxSamples {
		step = int(math.Sqrt(float64(total)/float64(maxSamples))) + 1
	}

	var pix []color.NRGBA
	for _, f := range frames {
		b := f.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y += step {
			for x := b.Min.X; x < b.Max.X; x += step {
				c := color.NRGBAModel.Convert(f.At(x, y)).(color.NRGBA)
				if c.A < alphaThreshold {
					continue
				}
				c.A = 0xff
				pix = append(pix, c)
			}
		}
	}

	side := int(math.Ceil(math.Sqrt(float64(len(pix)))))
	out := image.NewNRGBA(image.Rect(0, 0, side, side))
	for i, c := range pix {
		out.SetNRGBA(i%side, i/side, c)
	}
	return out
}

// ExtractDominantPalette picks k colors for the visible pixels of frames.
// The keep colors are placed first and count toward k.
func ExtractDominantPalette(frames []image.Image, k int, keep []colorful.Color) []colorful.Color {
	if k <= 0 {
		return nil
	}
	if len(keep) >= k {
		return slices.Clone(keep[:k])
	}
	samples := opaqueSamples(frames, dominantSamples)
	if samples.Bounds().Empty() {
		return slices.Clone(keep)
	}

	nCandidates := max(24, k*2)
	candidates := dominantcolor.FindWeight(samples, nCandidates)
	if len(candidates) == 0 {
		candidates = append(candidates, dominantcolor.Color{
			RGBA:   color.RGBA{R: 128, G: 128, B: 128, A: 255},
			Weight: 1.0,
		})
	}

	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		weighted = append(weighted, weightedColor{Col: col.Clamped(), Weight: c.Weight})
	}
	return SelectDiverseWeightedColors(weighted, k, keep)
}

// SelectDiverseWeightedColors greedily picks colors that are far apart in
// Lab space, favoring heavy candidates, until k colors are chosen. The
// keep colors are always chosen first, so the first pick is the candidate
// farthest from them, or the heaviest one when keep is empty.
func SelectDiverseWeightedColors(cands []weightedColor, k int, keep []colorful.Color) []colorful.Color {
	if k <= 0 {
		return nil
	}
	out := slices.Clone(keep[:min(len(keep), k)])
	if len(cands) == 0 || len(out) == k {
		return out
	}

	type item struct {
		col colorful.Color
		lab [3]float64
		w   float64
	}
	toLab := func(c colorful.Color) [3]float64 {
		l, a, b := c.Lab()
		return [3]float64{l, a, b}
	}
	items := make([]item, 0, len(cands))
	maxW := 0.0
	for _, c := range cands {
		col := c.Col.Clamped()
		w := max(c.Weight, 1e-6)
		maxW = max(maxW, w)
		items = append(items, item{col: col, lab: toLab(col), w: w})
	}

	chosen := make([][3]float64, 0, k)
	for _, c := range out {
		chosen = append(chosen, toLab(c.Clamped()))
	}
	if len(chosen) == 0 {
		heaviest := 0
		for i := range items {
			if items[i].w > items[heaviest].w {
				heaviest = i
			}
		}
		out = append(out, items[heaviest].col)
		chosen = append(chosen, items[heaviest].lab)
		items = slices.Delete(items, heaviest, heaviest+1)
	}

	for len(out) < k && len(items) > 0 {
		bestIdx, bestScore := -1, -1.0
		for i, it := range items {
			minD2 := math.MaxFloat64
			for _, s := range chosen {
				d0, d1, d2 := it.lab[0]-s[0], it.lab[1]-s[1], it.lab[2]-s[2]
				minD2 = min(minD2, d0*d0+d1*d1+d2*d2)
			}
			score := math.Sqrt(minD2) * (0.55 + 0.45*math.Sqrt(it.w/maxW))
			if score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
		out = append(out, items[bestIdx].col)
		chosen = append(chosen, items[bestIdx].lab)
		items = slices.Delete(items, bestIdx, bestIdx+1)
	}
	return out
}

// ExtractKMeansPalette clusters the visible pixels of frames in RGB and
// returns the centers, keep colors first. Cluster populations weight the
// diversity pass, so tiny clusters far from everything else still make it.
func ExtractKMeansPalette(frames []image.Image, k int, keep []colorful.Color) []colorful.Color {
	if k <= 0 {
		return nil
	}
	if len(keep) >= k {
		return slices.Clone(keep[:k])
	}
	samples := opaqueSamples(frames, kmeansSamples)
	b := samples.Bounds()
	dataset := make(clusters.Observations, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := samples.NRGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255.0,
				float64(c.G) / 255.0,
				float64(c.B) / 255.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	workK := min(k-len(keep), len(dataset))
	km := kmeans.New()
	cc, err := km.Partition(dataset, workK)
	if err != nil || len(cc) == 0 {
		return nil
	}

	weighted := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		weighted = append(weighted, weightedColor{
			Col:    colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped(),
			Weight: float64(len(c.Observations)) / float64(len(dataset)),
		})
	}
	if len(weighted) == 0 {
		return nil
	}
	return SelectDiverseWeightedColors(weighted, k, keep)
}

// WebSafePalette returns the 216 web-safe colors.
func WebSafePalette() []colorful.Color {
	out := make([]colorful.Color, 0, len(palette.WebSafe))
	for _, c := range palette.WebSafe {
		col, _ := colorful.MakeColor(c)
		out = append(out, col)
	}
	return out
}

const (
	dominantSamples = 48000
	kmeansSamples   = 12000
)

// ExtractPalette picks at most k opaque colors for the visible pixels of
// frames. Keep colors lead the result and are never merged away. The
// web-safe cube ignores k beyond the keep colors.
func ExtractPalette(frames []image.Image, k int, method PaletteMethod, keep ...colorful.Color) []colorful.Color {
	switch method {
	case PaletteMethodKMeans:
		p := ExtractKMeansPalette(frames, k, keep)
		if len(p) != 0 {
			return p
		}
		log.Warn().Msg("kmeans returned empty palette, falling back to dominantcolor")
		return ExtractDominantPalette(frames, k, keep)
	case PaletteMethodDominantColor:
		return ExtractDominantPalette(frames, k, keep)
	default:
		return append(slices.Clone(keep), WebSafePalette()...)
	}
}
