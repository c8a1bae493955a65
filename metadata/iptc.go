package metadata

import (
	"fmt"
	"unicode"

	"github.com/code19m/errx"
	"github.com/dsoprea/go-iptc"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
)

// IPTC dataset keys for record autofill.
//
//nolint:gochecknoglobals // fixed dataset identifiers
var (
	iptcHeadlineKey = iptc.StreamTagKey{RecordNumber: 2, DatasetNumber: 105}
	iptcCaptionKey  = iptc.StreamTagKey{RecordNumber: 2, DatasetNumber: 120}
)

// parseSegments splits a JPEG head buffer into its marker segments.
// The underlying parser panics on malformed input, so the panic is
// converted to an error here.
func parseSegments(buf []byte) (segments *jpegstructure.SegmentList, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errx.New(fmt.Sprintf("jpeg segment parse panicked: %v", r))
		}
	}()

	parser := jpegstructure.NewJpegMediaParser()

	intfc, parseErr := parser.ParseBytes(buf)
	if parseErr != nil {
		return nil, errx.Wrap(parseErr)
	}

	segments, ok := intfc.(*jpegstructure.SegmentList)
	if !ok {
		return nil, errx.New("unexpected jpeg parse result")
	}

	return segments, nil
}

// parseIPTC extracts the IPTC datasets from the segment list.
// The returned map uses friendly dataset names; headline and caption are
// additionally returned raw for title/description autofill.
func parseIPTC(segments *jpegstructure.SegmentList) (map[string]string, string, string, error) {
	tags, err := segments.Iptc()
	if err != nil {
		return nil, "", "", errx.Wrap(err)
	}

	fields := iptc.GetSimpleDictionaryFromParsedTags(tags)
	headline := firstTagString(tags, iptcHeadlineKey)
	caption := firstTagString(tags, iptcCaptionKey)

	return fields, headline, caption, nil
}

// firstTagString returns the first printable value stored under key.
func firstTagString(tags map[iptc.StreamTagKey][]iptc.TagData, key iptc.StreamTagKey) string {
	for _, data := range tags[key] {
		if s := string(data); isPrintable(s) {
			return s
		}
	}
	return ""
}

func isPrintable(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
