package metadata

import (
	"bytes"
	"image"

	// Register decoders for the raster formats the lifecycle manager
	// routes through the image branch.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/code19m/errx"
)

// decodeDimensions reads pixel dimensions from the image header without
// decoding the full image.
func decodeDimensions(buf []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return 0, 0, errx.Wrap(err)
	}
	return cfg.Width, cfg.Height, nil
}
