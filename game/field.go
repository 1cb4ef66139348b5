package game

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/pthm-cable/flock/systems"
)

// loadField sets the reference field: the image at path, or an animated
// noise field of the configured size when path is empty.
func (g *Game) loadField(path string) error {
	if path == "" {
		n := g.cfg.Reference.Noise
		g.noise = systems.NewNoiseField(g.cfg.Derived.FieldWidth, g.cfg.Derived.FieldHeight, n.Seed, n.Scale, n.TimeSpeed)
		g.field = g.noise
		slog.Info("using noise reference field",
			"width", g.cfg.Derived.FieldWidth,
			"height", g.cfg.Derived.FieldHeight,
			"seed", n.Seed,
		)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening reference image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding reference image %s: %w", path, err)
	}
	g.field = systems.NewImageField(img)
	slog.Info("loaded reference image",
		"path", path,
		"format", format,
		"width", g.field.Width(),
		"height", g.field.Height(),
	)
	return nil
}
