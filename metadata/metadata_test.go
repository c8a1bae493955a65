package metadata_test

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/meridiancms/mediacore/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)))
	require.NoError(t, err)

	return buf.Bytes()
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)), nil)
	require.NoError(t, err)

	return buf.Bytes()
}

// encodeJPEGWithEXIF splices a minimal EXIF block (Make = "Canon") into an
// encoded JPEG, right after the start-of-image marker.
func encodeJPEGWithEXIF(t *testing.T, width, height int) []byte {
	t.Helper()

	tiffBlock := []byte{
		'I', 'I', 0x2a, 0x00, // little-endian TIFF header
		0x08, 0x00, 0x00, 0x00, // IFD0 directly after the header
		0x01, 0x00, // one entry
		0x0f, 0x01, 0x02, 0x00, // tag Make, type ASCII
		0x06, 0x00, 0x00, 0x00, // six bytes including the NUL
		0x1a, 0x00, 0x00, 0x00, // value offset
		0x00, 0x00, 0x00, 0x00, // no next IFD
		'C', 'a', 'n', 'o', 'n', 0x00,
	}

	payload := append([]byte("Exif\x00\x00"), tiffBlock...)
	segment := []byte{0xff, 0xe1}
	segment = binary.BigEndian.AppendUint16(segment, uint16(len(payload)+2))
	segment = append(segment, payload...)

	data := encodeJPEG(t, width, height)

	out := make([]byte, 0, len(data)+len(segment))
	out = append(out, data[:2]...)
	out = append(out, segment...)
	out = append(out, data[2:]...)
	return out
}

func stageErr(t *testing.T, results []metadata.Result, name string) error {
	t.Helper()

	for _, r := range results {
		if r.Name == name {
			return r.Err
		}
	}

	t.Fatalf("stage %q not reported", name)
	return nil
}

func TestImageSummaryDimensions(t *testing.T) {
	e := metadata.New()

	summary, results := e.ImageSummary(encodePNG(t, 3, 2))

	require.NotNil(t, summary.Width)
	require.NotNil(t, summary.Height)
	assert.Equal(t, 3, *summary.Width)
	assert.Equal(t, 2, *summary.Height)
	assert.NoError(t, stageErr(t, results, metadata.StageDimensions))
}

func TestImageSummaryJPEGWithoutEmbeddedMetadata(t *testing.T) {
	e := metadata.New()

	summary, results := e.ImageSummary(encodeJPEG(t, 8, 4))

	require.NotNil(t, summary.Width)
	assert.Equal(t, 8, *summary.Width)
	assert.Equal(t, 4, *summary.Height)

	// Plain encoder output carries no EXIF, IPTC or ICC data; those stages
	// fail individually without aborting the summary.
	assert.Error(t, stageErr(t, results, metadata.StageEXIF))
	assert.Error(t, stageErr(t, results, metadata.StageIPTC))
	assert.Error(t, stageErr(t, results, metadata.StageICC))

	assert.Nil(t, summary.EXIF)
	assert.Nil(t, summary.IPTC)
	assert.Nil(t, summary.ICC)
	assert.Empty(t, summary.Title)
	assert.Empty(t, summary.Description)
}

func TestImageSummaryJPEGWithEXIF(t *testing.T) {
	e := metadata.New()

	summary, results := e.ImageSummary(encodeJPEGWithEXIF(t, 1200, 800))

	require.NotNil(t, summary.Width)
	assert.Equal(t, 1200, *summary.Width)
	assert.Equal(t, 800, *summary.Height)

	assert.NoError(t, stageErr(t, results, metadata.StageEXIF))
	require.NotNil(t, summary.EXIF)
	assert.Equal(t, "Canon", summary.EXIF["Make"])
}

func TestImageSummaryGarbageInput(t *testing.T) {
	e := metadata.New()

	summary, results := e.ImageSummary([]byte("definitely not an image"))

	assert.Len(t, results, 4)
	for _, r := range results {
		assert.Error(t, r.Err, "stage %q", r.Name)
	}

	assert.Nil(t, summary.Width)
	assert.Nil(t, summary.Height)
	assert.Nil(t, summary.EXIF)
	assert.Nil(t, summary.IPTC)
	assert.Nil(t, summary.ICC)
}

func designArchive(t *testing.T, entries map[string][]byte) *bytes.Reader {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return bytes.NewReader(buf.Bytes())
}

func decodeBounds(t *testing.T, data []byte) (int, int) {
	t.Helper()

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "png", format)

	return cfg.Width, cfg.Height
}

func TestXDPreview(t *testing.T) {
	e := metadata.New()

	archive := designArchive(t, map[string][]byte{
		"manifest":    []byte(`{"name":"mockup"}`),
		"preview.png": encodePNG(t, 6, 4),
	})

	out, err := e.XDPreview(t.Context(), archive)
	require.NoError(t, err)

	width, height := decodeBounds(t, out)
	assert.Equal(t, 6, width)
	assert.Equal(t, 4, height)
}

func TestXDPreviewPrefersPreviewOverThumbnail(t *testing.T) {
	e := metadata.New()

	archive := designArchive(t, map[string][]byte{
		"thumbnail.png":       encodePNG(t, 10, 10),
		"artwork/preview.png": encodePNG(t, 6, 4),
	})

	out, err := e.XDPreview(t.Context(), archive)
	require.NoError(t, err)

	width, height := decodeBounds(t, out)
	assert.Equal(t, 6, width)
	assert.Equal(t, 4, height)
}

func TestXDPreviewBoundsLargeImages(t *testing.T) {
	e := metadata.New()

	archive := designArchive(t, map[string][]byte{
		"preview.png": encodePNG(t, 2048, 1024),
	})

	out, err := e.XDPreview(t.Context(), archive)
	require.NoError(t, err)

	width, height := decodeBounds(t, out)
	assert.Equal(t, 1024, width)
	assert.Equal(t, 512, height)
}

func TestXDPreviewMissingPreview(t *testing.T) {
	e := metadata.New()

	archive := designArchive(t, map[string][]byte{
		"manifest": []byte(`{"name":"mockup"}`),
	})

	_, err := e.XDPreview(t.Context(), archive)
	assert.Error(t, err)
}

func TestXDPreviewRejectsNonArchive(t *testing.T) {
	e := metadata.New()

	_, err := e.XDPreview(t.Context(), bytes.NewReader([]byte("not a zip")))
	assert.Error(t, err)
}
