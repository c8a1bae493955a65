package metadata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/code19m/errx"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
)

const (
	app2Marker = 0xe2

	iccChunkPrefix  = "ICC_PROFILE\x00"
	iccHeaderSize   = 128
	iccTagEntrySize = 12
)

// parseICC assembles the ICC profile from APP2 segments and reads its header
// and description tags.
func parseICC(segments *jpegstructure.SegmentList) (map[string]any, error) {
	profile, err := assembleICC(segments)
	if err != nil {
		return nil, err
	}
	return parseICCProfile(profile)
}

type iccChunk struct {
	seq  byte
	data []byte
}

// assembleICC concatenates the ICC_PROFILE chunks spread across APP2 markers.
// Chunks carry a sequence number and total count after the prefix.
func assembleICC(segments *jpegstructure.SegmentList) ([]byte, error) {
	var chunks []iccChunk

	for _, segment := range segments.Segments() {
		if segment.MarkerId != app2Marker {
			continue
		}
		data := segment.Data
		if len(data) < len(iccChunkPrefix)+2 || !bytes.HasPrefix(data, []byte(iccChunkPrefix)) {
			continue
		}
		chunks = append(chunks, iccChunk{
			seq:  data[len(iccChunkPrefix)],
			data: data[len(iccChunkPrefix)+2:],
		})
	}

	if len(chunks) == 0 {
		return nil, errx.New("no icc profile")
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].seq < chunks[j].seq })

	var profile []byte
	for _, c := range chunks {
		profile = append(profile, c.data...)
	}
	return profile, nil
}

// parseICCProfile reads the profile header and the desc/cprt tag elements.
// Layout follows the ICC.1 profile format: a 128-byte header followed by a
// tag table of 12-byte entries.
func parseICCProfile(profile []byte) (map[string]any, error) {
	if len(profile) < iccHeaderSize+4 {
		return nil, errx.New("icc profile too short")
	}
	if string(profile[36:40]) != "acsp" {
		return nil, errx.New("invalid icc profile signature")
	}

	fields := map[string]any{
		"profile_version": iccVersion(profile),
		"device_class":    strings.TrimSpace(string(profile[12:16])),
		"color_space":     strings.TrimSpace(string(profile[16:20])),
	}

	tagCount := binary.BigEndian.Uint32(profile[iccHeaderSize : iccHeaderSize+4])
	for i := uint32(0); i < tagCount; i++ {
		entry := iccHeaderSize + 4 + int(i)*iccTagEntrySize
		if entry+iccTagEntrySize > len(profile) {
			break
		}
		sig := string(profile[entry : entry+4])
		offset := binary.BigEndian.Uint32(profile[entry+4 : entry+8])
		size := binary.BigEndian.Uint32(profile[entry+8 : entry+12])

		if int(offset)+int(size) > len(profile) || size == 0 {
			continue
		}
		element := profile[offset : offset+size]

		switch sig {
		case "desc":
			if desc := iccTextElement(element); desc != "" {
				fields["description"] = desc
			}
		case "cprt":
			if cprt := iccTextElement(element); cprt != "" {
				fields["copyright"] = cprt
			}
		}
	}

	return fields, nil
}

func iccVersion(profile []byte) string {
	return fmt.Sprintf("%d.%d.%d", profile[8], profile[9]>>4, profile[9]&0x0f)
}

// iccTextElement decodes a desc, mluc or text tag element to a string.
func iccTextElement(element []byte) string {
	if len(element) < 8 {
		return ""
	}

	switch string(element[0:4]) {
	case "desc":
		// ASCII count at byte 8, string follows.
		if len(element) < 12 {
			return ""
		}
		count := binary.BigEndian.Uint32(element[8:12])
		if count == 0 || 12+int(count) > len(element) {
			return ""
		}
		return strings.TrimRight(string(element[12:12+count]), "\x00")

	case "mluc":
		// First record: length at byte 20, offset from element start at byte 24.
		if len(element) < 28 {
			return ""
		}
		length := binary.BigEndian.Uint32(element[20:24])
		offset := binary.BigEndian.Uint32(element[24:28])
		if length == 0 || int(offset)+int(length) > len(element) {
			return ""
		}
		return decodeUTF16BE(element[offset : offset+uint32(length)])

	case "text":
		return strings.TrimRight(string(element[8:]), "\x00")
	}

	return ""
}

func decodeUTF16BE(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	codes := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		codes = append(codes, binary.BigEndian.Uint16(b[i:i+2]))
	}
	return strings.TrimRight(string(utf16.Decode(codes)), "\x00")
}
