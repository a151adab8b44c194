package main

import (
	"fmt"
	"os"

	"github.com/fabiov64/Filter-UAS-Zones/internal/config"
	"github.com/fabiov64/Filter-UAS-Zones/internal/dms"
	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
	"github.com/fabiov64/Filter-UAS-Zones/internal/logger"
	"github.com/fabiov64/Filter-UAS-Zones/internal/mapview"
	"github.com/fabiov64/Filter-UAS-Zones/internal/matcher"
	"github.com/fabiov64/Filter-UAS-Zones/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger  `group:"Logger options"`
	Engine config.Options `group:"Filter options"`

	Map string `short:"m" long:"map" env:"MAP_FILE" description:"Also write a static map page of the result to this path"`

	Args struct {
		File   string  `positional-arg-name:"FILE"      description:"GeoZones JSON file"`
		Lat    string  `positional-arg-name:"LAT"       description:"Latitude, e.g. 45°50'34\"N"`
		Lon    string  `positional-arg-name:"LON"       description:"Longitude, e.g. 9°17'41\"E"`
		Radius float64 `positional-arg-name:"RADIUS_KM" description:"Search radius in kilometers"`
	} `positional-args:"yes" required:"yes"`
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

	cfg, engine, err := opts.Engine.Resolve(config.Override{Map: opts.Map})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	center, err := dms.ParseCoordinate(opts.Args.Lat, opts.Args.Lon)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse coordinates")
	}

	src, err := geozone.Load(opts.Args.File)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Args.File).Msg("Failed to load geozones")
	}

	region := matcher.NewRegion(center.Lat, center.Lon, matcher.Kilometers(opts.Args.Radius), engine.Policy)
	region.Padding = engine.Padding
	m, err := matcher.New(region)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create matcher")
	}

	res, err := processor.Filter(src, m, processor.Options{Transform: engine.Transform})
	if err != nil {
		log.Fatal().Err(err).Msg("Filter failed")
	}

	output := cfg.OutputPath()
	if err := processor.Save(output, res.Collection); err != nil {
		log.Fatal().Err(err).Str("path", output).Msg("Failed to save filtered zones")
	}

	if cfg.Map != "" {
		writeMap(cfg, res)
	}

	fmt.Printf("Center: %.6f, %.6f\n", center.Lat, center.Lon)
	fmt.Printf("Saved %s: %s\n", output, res.Counts)
	if res.Skipped > 0 {
		fmt.Printf("Skipped %d geometries that could not be evaluated\n", res.Skipped)
	}
}

func writeMap(cfg *config.Config, res *processor.Result) {
	if res.Counts.Total == 0 {
		log.Warn().Str("path", cfg.Map).Msg("No zones in range, map page not written")
		return
	}

	view := mapview.Build(res.Collection)
	page, err := mapview.Render(view, mapview.PageOptions{Zoom: cfg.Zoom})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render map page")
	}
	if err := os.WriteFile(cfg.Map, page, 0644); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Map).Msg("Failed to write map page")
	}

	log.Info().Str("path", cfg.Map).Int("zones", view.Len()).Msg("Map page written")
}
