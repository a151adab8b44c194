package geozone

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Decode reads a collection from r, skipping a leading UTF-8 byte order mark.
func Decode(r io.Reader) (*Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read collection: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse collection: %w", err)
	}
	return &c, nil
}

// Load reads a collection file.
func Load(path string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	// Read-only, close error is irrelevant
	defer func() { _ = f.Close() }()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Encode writes c as compact JSON with each top-level feature on its own line.
// Strings are written without HTML escaping and non-ASCII text is kept literal.
func Encode(w io.Writer, c *Collection) error {
	var buf bytes.Buffer
	if err := c.write(&buf, ",\n"); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
