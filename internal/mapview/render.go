package mapview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"regexp"

	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/fabiov64/Filter-UAS-Zones/assets"
)

// Page defaults.
const (
	DefaultTitle = "UAS Map"
	DefaultZoom  = 10
)

// PageOptions control the rendered page.
type PageOptions struct {
	Title string
	Zoom  int
	// Interactive adds the circle tool and the Save, Reset and Quit buttons
	// bound to the session routes.
	Interactive bool
}

type pageData struct {
	Title       string
	Zoom        int
	Interactive bool
	Lat         float64
	Lon         float64
	Zones       template.JS
}

var (
	page     = template.Must(template.New("map").Parse(assets.MapTemplate))
	minifier = newMinifier()
)

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

// Render produces the map page for view. The page is minified; if the
// minifier fails the unminified page is returned instead.
func Render(view View, opts PageOptions) ([]byte, error) {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Zoom <= 0 {
		opts.Zoom = DefaultZoom
	}

	zones, err := layerJS(view)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = page.Execute(&buf, pageData{
		Title:       opts.Title,
		Zoom:        opts.Zoom,
		Interactive: opts.Interactive,
		Lat:         view.Center[1],
		Lon:         view.Center[0],
		Zones:       zones,
	})
	if err != nil {
		return nil, fmt.Errorf("render map page: %w", err)
	}

	out, err := minifier.Bytes("text/html", buf.Bytes())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to minify map page, serving it as is")
		return buf.Bytes(), nil
	}
	return out, nil
}

// LayerJSON encodes the zone layer of view as a GeoJSON FeatureCollection.
func LayerJSON(view View) ([]byte, error) {
	if view.Zones == nil {
		return []byte(`{"type":"FeatureCollection","features":[]}`), nil
	}
	return json.Marshal(view.Zones)
}

// layerJS is LayerJSON for the application/json data block of the page.
// json.Marshal escapes <, > and &, and the minifier leaves data blocks alone,
// so zone names cannot close the element.
func layerJS(view View) (template.JS, error) {
	data, err := LayerJSON(view)
	if err != nil {
		return "", fmt.Errorf("encode zone layer: %w", err)
	}
	return template.JS(data), nil
}
