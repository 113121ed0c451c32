package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/setanarut/runsprite"
	"github.com/setanarut/runsprite/internal/config"
	"github.com/setanarut/runsprite/internal/logging"
	"github.com/setanarut/runsprite/utils"
)

func main() {
	fs := config.Flags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	configFile, _ := fs.GetString("config")
	if err := config.Load(configFile, fs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var logFile *os.File
	if name := config.GetString("logFile"); name != "" {
		f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		logFile = f
	}
	var log zerolog.Logger
	if logFile != nil {
		log = logging.New(os.Stderr, logFile, config.GetString("logLevel"))
	} else {
		log = logging.New(os.Stderr, nil, config.GetString("logLevel"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error().Err(err).Msg("Animation failed")
		stop()
		if logFile != nil {
			logFile.Close()
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, log zerolog.Logger) error {
	paths, err := config.GetPaths()
	if err != nil {
		return err
	}

	log.Info().Str("path", paths.Input).Msg("Loading character image")
	src, err := utils.ReadImage(paths.Input)
	if err != nil {
		return err
	}

	opt, err := config.Options(src.Bounds().Size())
	if err != nil {
		return err
	}
	gifOpt, err := config.GIFOptions(opt)
	if err != nil {
		return err
	}

	anim, err := runsprite.NewAnimator(src, opt, log)
	if err != nil {
		return err
	}

	log.Info().Int("frames", opt.FrameCount).Int("stepCycle", opt.Cycle()).Msg("Generating frames")
	if err := anim.Build(ctx); err != nil {
		return err
	}

	frames := make([]image.Image, len(anim.Frames))
	for i, f := range anim.Frames {
		frames[i] = f
	}

	if paths.GIF != "" {
		if err := utils.SaveGIF(frames, gifOpt, paths.GIF); err != nil {
			return err
		}
		log.Info().Str("path", paths.GIF).Str("palette", gifOpt.Palette.String()).Msg("Saved animated GIF")
	}

	if paths.Sheet != "" {
		sheet, err := anim.SpriteSheet()
		if err != nil {
			return err
		}
		if err := utils.SaveImage(sheet, paths.Sheet); err != nil {
			return err
		}
		log.Info().Str("path", paths.Sheet).
			Int("width", sheet.Bounds().Dx()).
			Int("height", sheet.Bounds().Dy()).
			Msg("Saved sprite sheet")
	}

	if paths.Swatch != "" {
		pal := utils.ExtractPalette(frames, gifOpt.Colors, gifOpt.Palette)
		utils.SortPaletteByLightness(pal)
		if err := utils.SavePalette(pal, 16, paths.Swatch); err != nil {
			return err
		}
		log.Info().Str("path", paths.Swatch).Int("colors", len(pal)).Msg("Saved palette swatch")
	}

	log.Info().Msg("Animation complete")
	return nil
}
