package metadata

import (
	"bytes"
	"strings"

	"github.com/code19m/errx"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// parseEXIF walks every EXIF tag into a flat field map.
func parseEXIF(buf []byte) (map[string]any, error) {
	x, err := exif.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, errx.Wrap(err)
	}

	w := &exifWalker{fields: make(map[string]any)}
	if err := x.Walk(w); err != nil {
		return nil, errx.Wrap(err)
	}

	return w.fields, nil
}

type exifWalker struct {
	fields map[string]any
}

func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	w.fields[string(name)] = tagValue(tag)
	return nil
}

// tagValue converts a tag to a plain value suitable for a jsonb bag.
// Multi-valued tags keep their first component.
func tagValue(tag *tiff.Tag) any {
	switch tag.Format() {
	case tiff.StringVal:
		if s, err := tag.StringVal(); err == nil {
			return strings.TrimSpace(s)
		}
	case tiff.IntVal:
		if v, err := tag.Int64(0); err == nil {
			return v
		}
	case tiff.FloatVal:
		if v, err := tag.Float(0); err == nil {
			return v
		}
	case tiff.RatVal:
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			return float64(num) / float64(den)
		}
	case tiff.UndefVal, tiff.OtherVal:
	}

	return strings.Trim(tag.String(), `"`)
}
