package runsprite

import (
	"image"
	"math"
)

// Pose is the complete motion state of one frame. It depends only on the
// frame index and the options.
type Pose struct {
	Index int
	// Position within the gait cycle in [0, 1).
	CyclePos float64
	// sin(CyclePos*2π), shared by bounce, sway, compression and lean.
	BouncePhase float64
	Bounce      int
	Sway        int
	Compression float64
	Lean        float64

	LeftLeg, RightLeg int
	LeftArm, RightArm int
	Hair              int

	// Offset is where the source lands on the margin canvas.
	Offset image.Point
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ComputePose evaluates the gait functions for frame i.
func ComputePose(i int, opt Options) Pose {
	cycle := opt.Cycle()
	p := Pose{Index: i}
	p.CyclePos = float64(i%cycle) / float64(cycle)
	p.BouncePhase = math.Sin(p.CyclePos * 2 * math.Pi)

	// sin² rises fast and settles slowly.
	p.Bounce = roundInt(p.BouncePhase * p.BouncePhase * opt.MaxBounce)
	p.Sway = roundInt(p.BouncePhase * opt.MaxSway)
	p.Compression = 1
	if opt.Variant != VariantFlat {
		p.Compression = 1 + p.BouncePhase*opt.Compression
		p.Lean = p.BouncePhase * opt.Lean
	}

	p.Offset = image.Pt(opt.Margin+p.Sway, opt.Margin-p.Bounce)

	if opt.Variant == VariantSkeletal {
		stride := float64(i) / float64(opt.FrameCount) * 2 * math.Pi
		p.LeftLeg = roundInt(math.Sin(stride) * opt.LegSwing)
		p.RightLeg = roundInt(math.Sin(stride+math.Pi) * opt.LegSwing)
		// Contralateral: each arm follows the opposite leg.
		p.LeftArm = -p.RightLeg
		p.RightArm = -p.LeftLeg
		p.Hair = roundInt(math.Sin(stride-opt.HairLag) * opt.HairSwing)
		p.Offset.X += floorDiv(p.LeftLeg+p.RightLeg, 4)
	}
	return p
}
