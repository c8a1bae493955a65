package metadata

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"path"

	"github.com/code19m/errx"
	"github.com/disintegration/imaging"
)

const previewMaxDim = 1024

// Candidate entry names inside the design archive, in preference order.
//
//nolint:gochecknoglobals // fixed archive layout
var previewNames = []string{"preview.png", "thumbnail.png"}

// XDPreview extracts the embedded preview image from an Adobe XD design
// archive and re-encodes it as a bounded PNG.
func (e *extractor) XDPreview(ctx context.Context, r io.Reader) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errx.Wrap(err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"reason": "read design archive"}))
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"reason": "open design archive"}))
	}

	entry := findPreviewEntry(archive)
	if entry == nil {
		return nil, errx.New("no preview image in design archive")
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, errx.Wrap(err)
	}
	defer rc.Close() //nolint:errcheck

	img, err := imaging.Decode(rc)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"reason": "decode preview image"}))
	}

	bounds := img.Bounds()
	if bounds.Dx() > previewMaxDim || bounds.Dy() > previewMaxDim {
		img = imaging.Fit(img, previewMaxDim, previewMaxDim, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.PNG); err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"reason": "encode preview image"}))
	}

	return out.Bytes(), nil
}

func findPreviewEntry(archive *zip.Reader) *zip.File {
	for _, name := range previewNames {
		for _, f := range archive.File {
			if path.Base(f.Name) == name {
				return f
			}
		}
	}
	return nil
}
