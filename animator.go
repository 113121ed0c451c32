package runsprite

import (
	"context"
	"fmt"
	"image"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

type Animator struct {
	Source   *image.NRGBA
	Bounds   Bounds
	Skeleton Skeleton
	Options  Options
	Poses    []Pose
	Frames   []*image.RGBA
	Logger   zerolog.Logger
}

// NewAnimator validates opt and analyzes the silhouette of input. A source
// without opaque pixels is rejected before any frame work starts.
func NewAnimator(input image.Image, opt Options, log zerolog.Logger) (*Animator, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	src := toNRGBA(input)
	b, err := AnalyzeBounds(src)
	if err != nil {
		return nil, err
	}
	a := &Animator{
		Source:   src,
		Bounds:   b,
		Skeleton: NewSkeleton(b),
		Options:  opt,
		Logger:   log,
	}
	a.Logger.Info().
		Str("variant", opt.Variant.String()).
		Str("size", fmt.Sprintf("%dx%d", src.Rect.Dx(), src.Rect.Dy())).
		Str("bounds", fmt.Sprintf("(%d, %d) to (%d, %d)", b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)).
		Str("center", fmt.Sprintf("(%d, %d)", b.Center().X, b.Center().Y)).
		Msg("Analyzed character silhouette")
	return a, nil
}

// Build synthesizes every frame. Frames are independent and run
// concurrently, but each lands in the slot of its index.
func (a *Animator) Build(ctx context.Context) error {
	n := a.Options.FrameCount
	poses := make([]Pose, n)
	frames := make([]*image.RGBA, n)

	g, ctx := errgroup.WithContext(ctx)
	workers := a.Options.Workers
	if workers <= 0 {
		workers = n
	}
	g.SetLimit(workers)
	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := ComputePose(i, a.Options)
			f, err := SynthesizeFrame(a.Source, p, a.Options, a.Skeleton)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			poses[i], frames[i] = p, f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, p := range poses {
		a.Logger.Debug().
			Int("frame", p.Index+1).
			Int("of", n).
			Int("bounce", p.Bounce).
			Int("sway", p.Sway).
			Str("compress", fmt.Sprintf("%.2fx", p.Compression)).
			Int("rightArm", p.RightArm).
			Int("hair", p.Hair).
			Msg("Frame synthesized")
	}
	a.Poses, a.Frames = poses, frames
	return nil
}

// SpriteSheet lays the built frames out left to right.
func (a *Animator) SpriteSheet() (*image.RGBA, error) {
	return SpriteSheet(a.Frames)
}

// SpriteSheet returns a (w*len(frames))xh sheet with frame k at x = k*w.
// All frames must share one size.
func SpriteSheet(frames []*image.RGBA) (*image.RGBA, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	size := frames[0].Bounds().Size()
	sheet := image.NewRGBA(image.Rect(0, 0, size.X*len(frames), size.Y))
	for k, f := range frames {
		if f.Bounds().Size() != size {
			return nil, fmt.Errorf("%w: frame %d is %v, want %v", ErrFrameSize, k, f.Bounds().Size(), size)
		}
		slot := image.Rect(k*size.X, 0, (k+1)*size.X, size.Y)
		draw.Draw(sheet, slot, f, f.Bounds().Min, draw.Over)
	}
	return sheet, nil
}
