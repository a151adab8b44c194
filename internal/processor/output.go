package processor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fabiov64/Filter-UAS-Zones/internal/geozone"
)

// DefaultOutput is the artifact file name used when none is configured.
const DefaultOutput = "filtered.json"

// Save writes c to path in artifact form, creating the parent directory.
// The file is replaced atomically so readers never see a partial document.
func Save(path string, c *geozone.Collection) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	defer func() {
		if _, statErr := os.Stat(tmp); statErr == nil {
			if rmErr := os.Remove(tmp); rmErr != nil {
				log.Error().Err(rmErr).Str("path", tmp).Msg("Failed to remove temporary file")
			}
		}
	}()

	if err := geozone.Encode(f, c); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	// We care about write errors on close
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
