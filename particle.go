package runsprite

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Particle is one decorative dot of one frame.
type Particle struct {
	// Min is the top-left corner of the inclusive dot box [Min, Min+Size].
	Min   image.Point
	Size  int
	Color color.NRGBA
}

// Box returns the half-open rectangle covered by the dot.
func (pt Particle) Box() image.Rectangle {
	return image.Rectangle{Min: pt.Min, Max: pt.Min.Add(image.Pt(pt.Size+1, pt.Size+1))}
}

// particleAnchor returns the point the particles cluster around, in margin
// canvas coordinates.
func particleAnchor(p Pose, opt Options, sk Skeleton) image.Point {
	switch opt.Variant {
	case VariantFlat:
		return opt.Anchor.Add(p.Offset)
	case VariantAffine:
		arm := roundInt(math.Sin(p.CyclePos*2*math.Pi+math.Pi) * opt.ArmSwing)
		return image.Pt(opt.Anchor.X+p.Offset.X+arm, opt.Anchor.Y+p.Offset.Y-p.Bounce/2)
	default:
		hand := sk.HandAnchor().Add(p.Offset)
		return image.Pt(hand.X+p.RightArm, hand.Y+p.Hair)
	}
}

// Particles places opt.ParticleCount dots for pose p. Flat frames lay them in
// a shimmering row; the other variants orbit the anchor.
func Particles(p Pose, opt Options, sk Skeleton) []Particle {
	anchor := particleAnchor(p, opt, sk)
	i := p.Index
	out := make([]Particle, 0, opt.ParticleCount)
	for j := range opt.ParticleCount {
		var at image.Point
		fj := float64(j)
		if opt.Variant == VariantFlat {
			at = image.Pt(
				anchor.X+j*opt.ParticleSpacing,
				anchor.Y+roundInt(math.Sin(float64(i)*0.5+fj)*opt.ParticleWobble),
			)
		} else {
			phase := p.CyclePos*2*math.Pi + fj*2*math.Pi/float64(opt.ParticleCount)
			radius := opt.ParticleRadius + math.Sin(float64(i)*0.3+fj)*opt.ParticleJitter
			at = image.Pt(
				anchor.X+roundInt(math.Cos(phase)*radius),
				anchor.Y+roundInt(math.Sin(phase)*radius)+roundInt(math.Sin(float64(i)*0.4+fj)*opt.ParticleWobble),
			)
		}

		c := opt.Blue
		if (i+j)%4 < 2 {
			c = opt.Gold
		}
		c.A = opt.ParticleAlpha

		size := 2
		if (i+j)%3 == 0 {
			size = 3
		}
		out = append(out, Particle{Min: at, Size: size, Color: c})
	}
	return out
}

var dotMasks = map[int]*image.Alpha{}

func init() {
	for _, s := range []int{2, 3} {
		dotMasks[s] = ellipseMask(s)
	}
}

// ellipseMask rasterizes an anti-aliased ellipse inscribed in an
// (s+1)x(s+1) box, built from four cubic arcs.
func ellipseMask(s int) *image.Alpha {
	n := s + 1
	r := float32(n) / 2
	k := r * 0.5523
	z := vector.NewRasterizer(n, n)
	z.MoveTo(r, 0)
	z.CubeTo(r+k, 0, 2*r, r-k, 2*r, r)
	z.CubeTo(2*r, r+k, r+k, 2*r, r, 2*r)
	z.CubeTo(r-k, 2*r, 0, r+k, 0, r)
	z.CubeTo(0, r-k, r-k, 0, r, 0)
	z.ClosePath()

	m := image.NewAlpha(image.Rect(0, 0, n, n))
	z.Draw(m, m.Bounds(), image.Opaque, image.Point{})
	return m
}

func drawParticle(dst draw.Image, pt Particle) {
	mask, ok := dotMasks[pt.Size]
	if !ok {
		mask = ellipseMask(pt.Size)
	}
	box := pt.Box()
	draw.DrawMask(dst, box, image.NewUniform(pt.Color), image.Point{}, mask, image.Point{}, draw.Over)
}
