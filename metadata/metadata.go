// Package metadata extracts embedded metadata from uploaded files.
//
// Image heads are parsed for dimensions, EXIF, IPTC and ICC data; legacy
// design-document bundles yield a preview image. Every extraction stage is
// individually guarded: a stage failure is reported as a Result and the
// corresponding Summary field stays empty, but nothing panics or propagates.
package metadata

import (
	"context"
	"fmt"
	"io"

	"github.com/code19m/errx"
)

// Extraction stage names reported in Results.
const (
	StageDimensions = "dimensions"
	StageEXIF       = "exif"
	StageIPTC       = "iptc"
	StageICC        = "icc"
)

// Extractor parses embedded metadata out of file content.
// Implementations must be safe for concurrent use.
type Extractor interface {
	// ImageSummary extracts metadata from an image head buffer.
	// The returned Results report per-stage outcomes; failed stages leave
	// their Summary fields empty and never abort the remaining stages.
	ImageSummary(buf []byte) (Summary, []Result)

	// XDPreview extracts the bundled preview image from a legacy
	// design-document stream and returns it re-encoded as PNG.
	XDPreview(ctx context.Context, r io.Reader) ([]byte, error)
}

// Summary aggregates everything extracted from one image head.
// Nil maps and nil dimension pointers mean the stage failed or the file
// carries no such data.
type Summary struct {
	Width  *int
	Height *int

	EXIF map[string]any
	IPTC map[string]string
	ICC  map[string]any

	// Title and Description come from the IPTC headline and caption
	// datasets and feed record autofill.
	Title       string
	Description string
}

// Result reports the outcome of a single extraction stage.
type Result struct {
	Name string
	Err  error
}

// New creates the default extractor.
func New() Extractor {
	return &extractor{}
}

type extractor struct{}

func (e *extractor) ImageSummary(buf []byte) (Summary, []Result) {
	var s Summary
	results := make([]Result, 0, 4)

	results = append(results, guard(StageDimensions, func() error {
		width, height, err := decodeDimensions(buf)
		if err != nil {
			return err
		}
		s.Width, s.Height = &width, &height
		return nil
	}))

	results = append(results, guard(StageEXIF, func() error {
		fields, err := parseEXIF(buf)
		if err != nil {
			return err
		}
		s.EXIF = fields
		return nil
	}))

	// IPTC and ICC both live in JPEG segments; the segment walk is shared.
	segments, segErr := parseSegments(buf)

	results = append(results, guard(StageIPTC, func() error {
		if segErr != nil {
			return segErr
		}
		fields, headline, caption, err := parseIPTC(segments)
		if err != nil {
			return err
		}
		s.IPTC = fields
		s.Title = headline
		s.Description = caption
		return nil
	}))

	results = append(results, guard(StageICC, func() error {
		if segErr != nil {
			return segErr
		}
		fields, err := parseICC(segments)
		if err != nil {
			return err
		}
		s.ICC = fields
		return nil
	}))

	return s, results
}

// guard runs one extraction stage, converting panics from the underlying
// parsers into stage errors.
func guard(stage string, fn func() error) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Name: stage,
				Err:  errx.New(fmt.Sprintf("%s extraction panicked: %v", stage, r)),
			}
		}
	}()

	return Result{Name: stage, Err: fn()}
}
