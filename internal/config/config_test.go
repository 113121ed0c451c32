package config

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setanarut/runsprite"
	"github.com/setanarut/runsprite/utils"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "runsprite.json")
	require.NoError(t, os.WriteFile(name, []byte(body), 0644))
	return name
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`), nil))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	paths, err := GetPaths()
	require.NoError(t, err)
	assert.Equal(t, Paths{
		Input: "images/character.png",
		GIF:   "images/run.gif",
		Sheet: "images/run_spritesheet.png",
	}, paths)

	opt, err := Options(image.Pt(400, 400))
	require.NoError(t, err)
	want := runsprite.VariantOptions(runsprite.VariantSkeletal)
	want.StepCycle = 0
	assert.Equal(t, want, opt)
	assert.Equal(t, 6, opt.Cycle())

	gifOpt, err := GIFOptions(opt)
	require.NoError(t, err)
	assert.Equal(t, utils.GIFOptions{
		Delay:   75 * time.Millisecond,
		Palette: utils.PaletteMethodWebSafe,
		Colors:  255,
		Keep:    []color.Color{opt.Gold, opt.Blue},
	}, gifOpt)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	cfg := `{
		"variant": "flat",
		"frames": 16,
		"maxBounce": 6,
		"margin": 10,
		"delay": "100ms",
		"palette": "kmeans",
		"gif": "out/elf.gif",
		"particles": { "count": 4, "alpha": 170, "gold": "#ff0000", "anchorX": 12 }
	}`
	require.NoError(t, Load(writeConfig(t, cfg), nil))

	opt, err := Options(image.Pt(200, 200))
	require.NoError(t, err)
	assert.Equal(t, runsprite.VariantFlat, opt.Variant)
	assert.Equal(t, 16, opt.FrameCount)
	assert.Equal(t, 8, opt.Cycle())
	assert.Equal(t, 6.0, opt.MaxBounce)
	assert.Equal(t, 2.0, opt.MaxSway)
	assert.Equal(t, 10, opt.Margin)
	assert.Equal(t, 4, opt.ParticleCount)
	assert.Equal(t, uint8(170), opt.ParticleAlpha)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, opt.Gold)
	assert.Equal(t, image.Pt(12, 130), opt.Anchor)
	assert.Equal(t, 100*time.Millisecond, opt.Delay)

	gifOpt, err := GIFOptions(opt)
	require.NoError(t, err)
	assert.Equal(t, utils.PaletteMethodKMeans, gifOpt.Palette)
	assert.Equal(t, 100*time.Millisecond, gifOpt.Delay)
	assert.Equal(t, []color.Color{color.NRGBA{R: 255, A: 255}, opt.Blue}, gifOpt.Keep)

	paths, err := GetPaths()
	require.NoError(t, err)
	assert.Equal(t, "out/elf.gif", paths.GIF)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--variant", "affine", "--frames", "8", "--sheet", "s.png"}))
	require.NoError(t, Load(writeConfig(t, `{"variant": "flat", "frames": 24}`), fs))

	opt, err := Options(image.Pt(400, 400))
	require.NoError(t, err)
	assert.Equal(t, runsprite.VariantAffine, opt.Variant)
	assert.Equal(t, 8, opt.FrameCount)
	assert.Equal(t, uint8(200), opt.ParticleAlpha)

	paths, err := GetPaths()
	require.NoError(t, err)
	assert.Equal(t, "s.png", paths.Sheet)
	assert.Equal(t, "images/run.gif", paths.GIF)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("RUNSPRITE_GIF", "env.gif")
	t.Setenv("RUNSPRITE_PARTICLES_RADIUS", "9.5")

	require.NoError(t, Load(writeConfig(t, `{}`), nil))

	paths, err := GetPaths()
	require.NoError(t, err)
	assert.Equal(t, "env.gif", paths.GIF)

	opt, err := Options(image.Pt(400, 400))
	require.NoError(t, err)
	assert.Equal(t, 9.5, opt.ParticleRadius)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	err := Load(filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.Error(t, err)
}

func TestOptions_Invalid(t *testing.T) {
	for name, cfg := range map[string]string{
		"variant": `{"variant": "ragdoll"}`,
		"color":   `{"particles": {"blue": "teal"}}`,
		"alpha":   `{"particles": {"alpha": 300}}`,
		"frames":  `{"frames": -2}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Cleanup(viper.Reset)
			require.NoError(t, Load(writeConfig(t, cfg), nil))
			_, err := Options(image.Pt(400, 400))
			assert.ErrorIs(t, err, runsprite.ErrInvalidOptions)
		})
	}
}

func TestGetPaths_RequiresOutput(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"gif": "", "sheet": ""}`), nil))
	_, err := GetPaths()
	assert.ErrorIs(t, err, runsprite.ErrInvalidOptions)
}

func TestGIFOptions_UnknownPalette(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"palette": "octree"}`), nil))
	_, err := GIFOptions(runsprite.DefaultOptions())
	assert.ErrorIs(t, err, runsprite.ErrInvalidOptions)
}

func TestGIFOptions_DelayFollowsAnimationOptions(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"delay": "100ms"}`), nil))

	opt := runsprite.DefaultOptions()
	opt.Delay = 40 * time.Millisecond
	gifOpt, err := GIFOptions(opt)
	require.NoError(t, err)
	assert.Equal(t, 40*time.Millisecond, gifOpt.Delay)
}
