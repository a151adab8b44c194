package main

import (
	"os"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
	"github.com/fabiov64/Filter-UAS-Zones/internal/logger"
	"github.com/fabiov64/Filter-UAS-Zones/internal/mapview"
	"github.com/fabiov64/Filter-UAS-Zones/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Input  string `short:"i" long:"in"    env:"INPUT_FILE"  description:"GeoZones JSON file to draw" default:"filtered.json"`
	Output string `short:"o" long:"out"   env:"OUTPUT_FILE" description:"Map page path"              default:"map.html"`
	Title  string `long:"title"           env:"MAP_TITLE"   description:"Page title"                 default:"UAS Map"`
	Zoom   int    `short:"z" long:"zoom"  env:"ZOOM"        description:"Initial map zoom"           default:"10"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	c, err := geozone.Load(opts.Input)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Input).Msg("Failed to load geozones")
	}

	view := mapview.Build(c)
	if view.Len() == 0 {
		log.Warn().Str("path", opts.Input).Msg("No drawable zones, the map will be empty")
	}

	page, err := mapview.Render(view, mapview.PageOptions{Title: opts.Title, Zoom: opts.Zoom})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render map page")
	}

	if err := os.WriteFile(opts.Output, page, 0644); err != nil {
		log.Fatal().Err(err).Str("path", opts.Output).Msg("Failed to write map page")
	}

	log.Info().
		Str("path", opts.Output).
		Int("zones", view.Len()).
		Str("counts", processor.CountFeatures(c.Features).String()).
		Msg("Map page written")
}
