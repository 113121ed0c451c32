package runsprite

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"
)

var (
	ErrInvalidOptions  = errors.New("invalid options")
	ErrEmptySilhouette = errors.New("source image has no opaque pixels")
	ErrNoFrames        = errors.New("no frames")
	ErrFrameSize       = errors.New("frames differ in size")
)

type Variant int

const (
	// VariantFlat pastes the source at the bounce/sway offset.
	VariantFlat Variant = iota
	// VariantAffine adds landing compression and forward lean.
	VariantAffine
	// VariantSkeletal adds leg/arm swing and hand-bound particles derived from the silhouette.
	VariantSkeletal
)

func (v Variant) String() string {
	switch v {
	case VariantFlat:
		return "flat"
	case VariantAffine:
		return "affine"
	case VariantSkeletal:
		return "skeletal"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat":
		return VariantFlat, nil
	case "affine":
		return VariantAffine, nil
	case "skeletal", "skeleton", "":
		return VariantSkeletal, nil
	}
	return VariantSkeletal, fmt.Errorf("%w: unknown variant %q", ErrInvalidOptions, s)
}

type Options struct {
	Variant Variant
	// Frames in the whole loop. Two gait cycles fit in one loop by default.
	FrameCount int
	// Frames per gait cycle. Zero means FrameCount/2.
	StepCycle int
	// Peak vertical bounce in pixels, reached mid-cycle.
	MaxBounce float64
	// Peak horizontal weight shift in pixels.
	MaxSway float64
	// Vertical squash/stretch amplitude. 0.05 gives scales in 0.95-1.05.
	Compression float64
	// Peak forward lean in radians. Applied as a horizontal shear of Lean/2.
	Lean float64
	// Transparent border around the working canvas so the transform never clips.
	Margin int
	// Leg swing amplitude in pixels (skeletal).
	LegSwing float64
	// Arm swing that drags the particle anchor (affine).
	ArmSwing float64
	// Hair trails the leg phase by HairLag radians.
	HairSwing float64
	HairLag   float64

	ParticleCount int
	// Orbit radius around the anchor and its per-frame jitter.
	ParticleRadius float64
	ParticleJitter float64
	// Extra vertical wobble of each dot.
	ParticleWobble float64
	// Horizontal gap between dots in the row layout (flat).
	ParticleSpacing int
	// Particle anchor for flat/affine. Skeletal derives it from the silhouette.
	Anchor        image.Point
	Gold          color.NRGBA
	Blue          color.NRGBA
	ParticleAlpha uint8

	// Inter-frame delay of the exported animation.
	Delay time.Duration
	// Concurrent frame workers. Zero or less means one per frame.
	Workers int
}

func DefaultOptions() Options {
	return Options{
		Variant:         VariantSkeletal,
		FrameCount:      12,
		StepCycle:       6,
		MaxBounce:       8,
		MaxSway:         4,
		Compression:     0.05,
		Lean:            0.08,
		Margin:          20,
		LegSwing:        5,
		ArmSwing:        5,
		HairSwing:       2,
		HairLag:         0.3,
		ParticleCount:   8,
		ParticleRadius:  15,
		ParticleJitter:  5,
		ParticleWobble:  3,
		ParticleSpacing: 4,
		Anchor:          image.Pt(330, 260),
		Gold:            color.NRGBA{R: 255, G: 215, B: 0, A: 255},
		Blue:            color.NRGBA{R: 100, G: 180, B: 255, A: 255},
		ParticleAlpha:   180,
		Delay:           75 * time.Millisecond,
	}
}

// VariantOptions returns DefaultOptions tuned the way each variant was first drawn.
func VariantOptions(v Variant) Options {
	opt := DefaultOptions()
	opt.Variant = v
	switch v {
	case VariantFlat:
		opt.MaxBounce = 4
		opt.MaxSway = 2
		opt.ParticleAlpha = 160
	case VariantAffine:
		opt.ParticleAlpha = 200
	}
	return opt
}

// OptionsFromSize scales the particle anchor, which was placed by hand on a
// 400x400 portrait, to the given image size.
func OptionsFromSize(size image.Point) Options {
	opt := DefaultOptions()
	if size.X <= 0 || size.Y <= 0 {
		return opt
	}
	opt.Anchor = image.Pt(330*size.X/400, 260*size.Y/400)
	return opt
}

// Cycle returns the effective frames per gait cycle.
func (o Options) Cycle() int {
	if o.StepCycle > 0 {
		return o.StepCycle
	}
	return max(1, o.FrameCount/2)
}

func (o Options) Validate() error {
	switch {
	case o.FrameCount <= 0:
		return fmt.Errorf("%w: frame count %d", ErrInvalidOptions, o.FrameCount)
	case o.StepCycle < 0:
		return fmt.Errorf("%w: step cycle %d", ErrInvalidOptions, o.StepCycle)
	case o.Margin < 0:
		return fmt.Errorf("%w: margin %d", ErrInvalidOptions, o.Margin)
	case o.ParticleCount < 0:
		return fmt.Errorf("%w: particle count %d", ErrInvalidOptions, o.ParticleCount)
	case o.Compression <= -1 || o.Compression >= 1:
		return fmt.Errorf("%w: compression %.3f must be in (-1, 1)", ErrInvalidOptions, o.Compression)
	case o.Delay < 0:
		return fmt.Errorf("%w: delay %s", ErrInvalidOptions, o.Delay)
	case o.Variant < VariantFlat || o.Variant > VariantSkeletal:
		return fmt.Errorf("%w: variant %d", ErrInvalidOptions, o.Variant)
	}
	return nil
}
