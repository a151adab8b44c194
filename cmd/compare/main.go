package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
	"github.com/fabiov64/Filter-UAS-Zones/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Format string `short:"f" long:"format" description:"Output format" choice:"text" choice:"json" choice:"yaml" default:"text"`

	Args struct {
		First  string `positional-arg-name:"FILE1" description:"First GeoZones JSON file"`
		Second string `positional-arg-name:"FILE2" description:"Second GeoZones JSON file"`
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

	first, err := geozone.Load(opts.Args.First)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Args.First).Msg("Failed to load geozones")
	}
	second, err := geozone.Load(opts.Args.Second)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Args.Second).Msg("Failed to load geozones")
	}

	diff := geozone.Diff(first, second)

	switch opts.Format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(diff)
	case "yaml":
		err = yaml.NewEncoder(os.Stdout).Encode(diff)
	default:
		err = writeText(os.Stdout, opts.Args.First, opts.Args.Second, diff)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write report")
	}
}

func writeText(w io.Writer, first, second string, diff geozone.Difference) error {
	sections := []struct {
		path string
		ids  []string
	}{
		{first, diff.OnlyInFirst},
		{second, diff.OnlyInSecond},
	}

	for i, s := range sections {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "Only in %s: %d\n", s.path, len(s.ids)); err != nil {
			return err
		}
		for _, id := range s.ids {
			if _, err := fmt.Fprintf(w, "  %s\n", id); err != nil {
				return err
			}
		}
	}
	return nil
}
