package runsprite

import (
	"image"

	"golang.org/x/image/draw"
)

// SynthesizeFrame composites one frame: the body at the pose offset on an
// oversized transparent canvas, the particles over it, then a crop back to
// the source size.
func SynthesizeFrame(src *image.NRGBA, p Pose, opt Options, sk Skeleton) (*image.RGBA, error) {
	size := src.Bounds().Size()
	m := opt.Margin
	canvas := image.NewRGBA(image.Rect(0, 0, size.X+2*m, size.Y+2*m))

	if err := pasteBody(canvas, src, p, opt.Variant); err != nil {
		return nil, err
	}
	for _, pt := range Particles(p, opt, sk) {
		drawParticle(canvas, pt)
	}

	frame := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(frame, frame.Bounds(), canvas, image.Pt(m, m), draw.Src)
	return frame, nil
}

// toNRGBA returns img as a non-premultiplied raster anchored at (0,0).
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
