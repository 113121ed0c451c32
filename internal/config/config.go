package config

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/setanarut/runsprite"
	"github.com/setanarut/runsprite/utils"
)

// Paths holds the input and output files of one run.
type Paths struct {
	Input  string `mapstructure:"input"`
	GIF    string `mapstructure:"gif"`
	Sheet  string `mapstructure:"sheet"`
	Swatch string `mapstructure:"swatch"`
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"input":     "input",
	"gif":       "gif",
	"sheet":     "sheet",
	"swatch":    "swatch",
	"variant":   "variant",
	"frames":    "frames",
	"palette":   "palette",
	"colors":    "colors",
	"workers":   "workers",
	"log-level": "logLevel",
	"log-file":  "logFile",
}

// Flags returns the command line surface. Every flag is optional; without
// any the run uses the fixed default paths.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("runsprite", pflag.ContinueOnError)
	fs.String("config", "", "config file (json, yaml or toml)")
	fs.String("input", "", "source character image")
	fs.String("gif", "", "animated GIF output")
	fs.String("sheet", "", "sprite sheet PNG output")
	fs.String("swatch", "", "optional GIF palette swatch PNG output")
	fs.String("variant", "", "flat, affine or skeletal")
	fs.Int("frames", 0, "frames in the loop")
	fs.String("palette", "", "GIF palette: websafe, dominantcolor or kmeans")
	fs.Int("colors", 0, "opaque GIF palette entries (max 255)")
	fs.Int("workers", 0, "concurrent frame workers (0 = one per frame)")
	fs.String("log-level", "", "trace, debug, info, warn or error")
	fs.String("log-file", "", "also write logs to this file")
	return fs
}

// Load sets defaults, reads the config file, binds RUNSPRITE_* environment
// variables and the changed flags of fs. An empty configFile looks for an
// optional runsprite.{json,yaml,toml} in the working directory.
func Load(configFile string, fs *pflag.FlagSet) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFile", "")

	viper.SetDefault("input", "images/character.png")
	viper.SetDefault("gif", "images/run.gif")
	viper.SetDefault("sheet", "images/run_spritesheet.png")
	viper.SetDefault("swatch", "")

	viper.SetDefault("variant", "skeletal")
	viper.SetDefault("frames", 12)
	viper.SetDefault("workers", 0)

	viper.SetDefault("delay", "75ms")
	viper.SetDefault("loop", 0)
	viper.SetDefault("palette", "websafe")
	viper.SetDefault("colors", 255)

	viper.SetEnvPrefix("RUNSPRITE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
		return nil
	}

	viper.SetConfigName("runsprite")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func GetPaths() (Paths, error) {
	var p Paths
	if err := viper.Unmarshal(&p); err != nil {
		return p, fmt.Errorf("decode paths: %w", err)
	}
	if p.Input == "" {
		return p, fmt.Errorf("%w: no input image", runsprite.ErrInvalidOptions)
	}
	if p.GIF == "" && p.Sheet == "" {
		return p, fmt.Errorf("%w: no output path", runsprite.ErrInvalidOptions)
	}
	return p, nil
}

// Options builds animation options for a source of the given size. The
// variant picks the base tuning; explicitly configured keys override it.
func Options(size image.Point) (runsprite.Options, error) {
	v, err := runsprite.ParseVariant(viper.GetString("variant"))
	if err != nil {
		return runsprite.Options{}, err
	}
	opt := runsprite.VariantOptions(v)
	scaled := runsprite.OptionsFromSize(size)
	opt.Anchor = scaled.Anchor

	opt.FrameCount = viper.GetInt("frames")
	opt.StepCycle = viper.GetInt("stepCycle")
	opt.Workers = viper.GetInt("workers")
	opt.Delay = viper.GetDuration("delay")

	setFloat("maxBounce", &opt.MaxBounce)
	setFloat("maxSway", &opt.MaxSway)
	setFloat("compression", &opt.Compression)
	setFloat("lean", &opt.Lean)
	setFloat("legSwing", &opt.LegSwing)
	setFloat("armSwing", &opt.ArmSwing)
	setFloat("hairSwing", &opt.HairSwing)
	setFloat("hairLag", &opt.HairLag)
	setFloat("particles.radius", &opt.ParticleRadius)
	setFloat("particles.jitter", &opt.ParticleJitter)
	setFloat("particles.wobble", &opt.ParticleWobble)
	if viper.IsSet("margin") {
		opt.Margin = viper.GetInt("margin")
	}
	if viper.IsSet("particles.count") {
		opt.ParticleCount = viper.GetInt("particles.count")
	}
	if viper.IsSet("particles.spacing") {
		opt.ParticleSpacing = viper.GetInt("particles.spacing")
	}
	if viper.IsSet("particles.anchorX") {
		opt.Anchor.X = viper.GetInt("particles.anchorX")
	}
	if viper.IsSet("particles.anchorY") {
		opt.Anchor.Y = viper.GetInt("particles.anchorY")
	}
	if viper.IsSet("particles.alpha") {
		a := viper.GetInt("particles.alpha")
		if a < 0 || a > 255 {
			return opt, fmt.Errorf("%w: particle alpha %d", runsprite.ErrInvalidOptions, a)
		}
		opt.ParticleAlpha = uint8(a)
	}
	if err := setColor("particles.gold", &opt.Gold); err != nil {
		return opt, err
	}
	if err := setColor("particles.blue", &opt.Blue); err != nil {
		return opt, err
	}

	return opt, opt.Validate()
}

// GIFOptions builds the export options for frames synthesized with opt.
// The frame delay and the particle tints come from opt.
func GIFOptions(opt runsprite.Options) (utils.GIFOptions, error) {
	method, err := utils.ParsePaletteMethod(viper.GetString("palette"))
	if err != nil {
		return utils.GIFOptions{}, fmt.Errorf("%w: %v", runsprite.ErrInvalidOptions, err)
	}
	return utils.GIFOptions{
		Delay:     opt.Delay,
		LoopCount: viper.GetInt("loop"),
		Palette:   method,
		Colors:    viper.GetInt("colors"),
		Keep:      []color.Color{opt.Gold, opt.Blue},
	}, nil
}

func setFloat(key string, dst *float64) {
	if viper.IsSet(key) {
		*dst = viper.GetFloat64(key)
	}
}

// setColor parses a "#rrggbb" value.
func setColor(key string, dst *color.NRGBA) error {
	if !viper.IsSet(key) {
		return nil
	}
	c, err := colorful.Hex(viper.GetString(key))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", runsprite.ErrInvalidOptions, key, err)
	}
	r, g, b := c.RGB255()
	*dst = color.NRGBA{R: r, G: g, B: b, A: 0xff}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}
