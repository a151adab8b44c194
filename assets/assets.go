// Package assets embeds the web page templates.
package assets

import _ "embed"

// MapTemplate is the html/template source of the zone map page.
//
//go:embed map.html.tpl
var MapTemplate string
