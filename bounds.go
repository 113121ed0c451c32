package runsprite

import (
	"image"
)

// Bounds is the inclusive box around every pixel with alpha > 0.
type Bounds struct {
	Min, Max image.Point
}

func (b Bounds) Width() int  { return b.Max.X - b.Min.X }
func (b Bounds) Height() int { return b.Max.Y - b.Min.Y }

func (b Bounds) Center() image.Point {
	return image.Pt((b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2)
}

// AnalyzeBounds scans every pixel of img. Coordinates are relative to
// img.Bounds().Min. A fully transparent image returns ErrEmptySilhouette.
func AnalyzeBounds(img image.Image) (Bounds, error) {
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()
	minX, minY := w, h
	maxX, maxY := -1, -1

	opaque := func(x, y int) {
		minX = min(minX, x)
		minY = min(minY, y)
		maxX = max(maxX, x)
		maxY = max(maxY, y)
	}

	switch src := img.(type) {
	case *image.NRGBA:
		for y := range h {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			for x := range w {
				if row[x*4+3] > 0 {
					opaque(x, y)
				}
			}
		}
	case *image.RGBA:
		for y := range h {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			for x := range w {
				if row[x*4+3] > 0 {
					opaque(x, y)
				}
			}
		}
	default:
		for y := range h {
			for x := range w {
				if _, _, _, a := img.At(r.Min.X+x, r.Min.Y+y).RGBA(); a > 0 {
					opaque(x, y)
				}
			}
		}
	}

	if maxX < minX || maxY < minY {
		return Bounds{}, ErrEmptySilhouette
	}
	return Bounds{Min: image.Pt(minX, minY), Max: image.Pt(maxX, maxY)}, nil
}

// Skeleton locates the leading hand, which the skeletal variant's particles
// orbit. It sits at 70% of the silhouette height, 35% of its width right of
// the center.
type Skeleton struct {
	Hand, HandX float64
}

func NewSkeleton(b Bounds) Skeleton {
	return Skeleton{
		Hand:  float64(b.Min.Y) + float64(b.Height())*0.7,
		HandX: float64(b.Center().X) + float64(b.Width())*0.35,
	}
}

// HandAnchor returns the rounded hand position.
func (s Skeleton) HandAnchor() image.Point {
	return image.Pt(roundInt(s.HandX), roundInt(s.Hand))
}
