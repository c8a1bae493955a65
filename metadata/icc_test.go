package metadata

import (
	"encoding/binary"
	"testing"

	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildProfile assembles a minimal v4.3 display profile with a single
// ascii desc tag.
func buildProfile() []byte {
	profile := make([]byte, 170)

	profile[8] = 4
	profile[9] = 0x30
	copy(profile[12:16], "mntr")
	copy(profile[16:20], "RGB ")
	copy(profile[36:40], "acsp")

	binary.BigEndian.PutUint32(profile[128:132], 1)

	copy(profile[132:136], "desc")
	binary.BigEndian.PutUint32(profile[136:140], 144)
	binary.BigEndian.PutUint32(profile[140:144], 26)

	copy(profile[144:148], "desc")
	binary.BigEndian.PutUint32(profile[152:156], 14)
	copy(profile[156:], "sRGB IEC61966")

	return profile
}

func iccSegment(seq, total byte, chunk []byte) *jpegstructure.Segment {
	data := append([]byte(iccChunkPrefix), seq, total)
	data = append(data, chunk...)

	return &jpegstructure.Segment{MarkerId: app2Marker, Data: data}
}

func TestParseICCAssemblesChunksInOrder(t *testing.T) {
	profile := buildProfile()

	// Chunks arrive out of order and interleaved with unrelated segments.
	segments := jpegstructure.NewSegmentList([]*jpegstructure.Segment{
		{MarkerId: 0xe0, Data: []byte("JFIF\x00")},
		iccSegment(2, 2, profile[100:]),
		{MarkerId: app2Marker, Data: []byte("not an icc chunk")},
		iccSegment(1, 2, profile[:100]),
	})

	fields, err := parseICC(segments)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"profile_version": "4.3.0",
		"device_class":    "mntr",
		"color_space":     "RGB",
		"description":     "sRGB IEC61966",
	}, fields)
}

func TestParseICCNoProfile(t *testing.T) {
	segments := jpegstructure.NewSegmentList([]*jpegstructure.Segment{
		{MarkerId: 0xe0, Data: []byte("JFIF\x00")},
	})

	_, err := parseICC(segments)
	assert.Error(t, err)
}

func TestParseICCProfileRejectsBadSignature(t *testing.T) {
	profile := buildProfile()
	copy(profile[36:40], "nope")

	segments := jpegstructure.NewSegmentList([]*jpegstructure.Segment{
		iccSegment(1, 1, profile),
	})

	_, err := parseICC(segments)
	assert.Error(t, err)
}

func TestParseICCProfileRejectsShortProfile(t *testing.T) {
	_, err := parseICCProfile(make([]byte, 64))
	assert.Error(t, err)
}

func TestICCTextElementMluc(t *testing.T) {
	element := make([]byte, 32)
	copy(element[0:4], "mluc")
	binary.BigEndian.PutUint32(element[8:12], 1)
	binary.BigEndian.PutUint32(element[12:16], 12)
	copy(element[16:20], "enUS")
	binary.BigEndian.PutUint32(element[20:24], 4)
	binary.BigEndian.PutUint32(element[24:28], 28)
	copy(element[28:32], []byte{0x00, 0x48, 0x00, 0x69})

	assert.Equal(t, "Hi", iccTextElement(element))
}

func TestICCTextElementTruncated(t *testing.T) {
	element := make([]byte, 12)
	copy(element[0:4], "desc")
	binary.BigEndian.PutUint32(element[8:12], 64)

	assert.Empty(t, iccTextElement(element))
}
