package config

// Options are the command-line flags shared by the commands that run a filter.
// Embed them in a go-flags options struct.
type Options struct {
	ConfigFile string   `short:"c" long:"config"    env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Policy     string   `short:"P" long:"policy"    env:"POLICY"      description:"Matching policy" choice:"planar-buffer" choice:"geodetic-centroid"`
	Transform  string   `short:"t" long:"transform" env:"TRANSFORM"   description:"Compatibility transform" choice:"strip" choice:"normalize"`
	Padding    *float64 `long:"padding"             env:"PADDING"     description:"Meters added to the radius by the planar-buffer policy"`
	Output     string   `short:"o" long:"output"    env:"OUTPUT"      description:"Filtered artifact path (default filtered.json)"`
	Zoom       int      `short:"z" long:"zoom"      env:"ZOOM"        description:"Initial map zoom"`
}

// Resolve loads the configuration file, applies the flags and extra on top of
// it and validates the engine choices.
func (o *Options) Resolve(extra Override) (*Config, Engine, error) {
	cfg, err := LoadOptional(o.ConfigFile)
	if err != nil {
		return nil, Engine{}, err
	}

	extra.Policy = o.Policy
	extra.Transform = o.Transform
	extra.Padding = o.Padding
	extra.Output = o.Output
	extra.Zoom = o.Zoom
	cfg.Apply(extra)

	engine, err := cfg.Engine()
	if err != nil {
		return nil, Engine{}, err
	}
	return cfg, engine, nil
}
