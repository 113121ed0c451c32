package runsprite

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"gonum.org/v1/gonum/mat"
)

// bodyMatrix maps output pixels to source pixels: a horizontal shear of
// half the lean angle and a vertical scale by the compression factor.
func bodyMatrix(p Pose) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, p.Lean * 0.5, 0,
		0, p.Compression, 0,
		0, 0, 1,
	})
}

// sourceToCanvas inverts the body matrix and moves the result to the pose
// offset, giving the source-to-destination map draw.Transformer expects.
func sourceToCanvas(p Pose) (f64.Aff3, error) {
	var inv mat.Dense
	if err := inv.Inverse(bodyMatrix(p)); err != nil {
		return f64.Aff3{}, fmt.Errorf("invert body transform for frame %d: %w", p.Index, err)
	}
	shift := mat.NewDense(3, 3, []float64{
		1, 0, float64(p.Offset.X),
		0, 1, float64(p.Offset.Y),
		0, 0, 1,
	})
	var s2d mat.Dense
	s2d.Mul(shift, &inv)
	return f64.Aff3{
		s2d.At(0, 0), s2d.At(0, 1), s2d.At(0, 2),
		s2d.At(1, 0), s2d.At(1, 1), s2d.At(1, 2),
	}, nil
}

// pasteBody composites src onto canvas for pose p. The transformed body is
// clipped to a source-sized window at the pose offset.
func pasteBody(canvas *image.RGBA, src *image.NRGBA, p Pose, v Variant) error {
	size := src.Bounds().Size()
	window := image.Rectangle{Min: p.Offset, Max: p.Offset.Add(size)}.Intersect(canvas.Bounds())
	if window.Empty() {
		return nil
	}
	if v == VariantFlat {
		draw.Draw(canvas, window, src, src.Bounds().Min.Add(window.Min.Sub(p.Offset)), draw.Over)
		return nil
	}
	s2d, err := sourceToCanvas(p)
	if err != nil {
		return err
	}
	dst := canvas.SubImage(window).(*image.RGBA)
	draw.CatmullRom.Transform(dst, s2d, src, src.Bounds(), draw.Over, nil)
	return nil
}
