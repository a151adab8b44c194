package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
)

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	diff := geozone.Difference{OnlyInFirst: []string{"A", "B"}, OnlyInSecond: []string{}}
	require.NoError(t, writeText(&buf, "old.json", "new.json", diff))

	assert.Equal(t, "Only in old.json: 2\n  A\n  B\n\nOnly in new.json: 0\n", buf.String())
}
