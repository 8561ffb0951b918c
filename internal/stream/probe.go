package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Format is a container or codec recognised by [Probe].
type Format string

const (
	FormatUnknown Format = "unknown"
	FormatMP3     Format = "mp3"
	FormatFLAC    Format = "flac"
	FormatOgg     Format = "ogg"
	FormatWAV     Format = "wav"
	FormatMP4     Format = "mp4"
)

const (
	id3HeaderLen = 10
	magicLen     = 12
)

// ProbeResult describes the start of an audio stream.
type ProbeResult struct {
	Format     Format
	TagSize    int64 // bytes taken by a leading ID3v2 tag, 0 when absent
	DataOffset int64 // offset of the first byte after any leading tag
}

// Probe sniffs the format of rs the way a decoder would before playback, skipping a
// leading ID3v2 tag with a relative seek. rs is rewound to offset 0 on success.
func Probe(rs io.ReadSeeker) (*ProbeResult, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind: %w", err)
	}

	res := &ProbeResult{Format: FormatUnknown}

	header, err := readUpTo(rs, id3HeaderLen)
	if err != nil {
		return nil, err
	}

	if len(header) == id3HeaderLen && bytes.HasPrefix(header, []byte("ID3")) {
		size := syncsafe(header[6:10])
		if header[5]&0x10 != 0 {
			size += id3HeaderLen
		}
		res.TagSize = id3HeaderLen + size

		if _, err := rs.Seek(size, io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("failed to skip ID3 tag: %w", err)
		}
		if header, err = readUpTo(rs, magicLen); err != nil {
			return nil, err
		}
	} else {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind: %w", err)
		}
		if header, err = readUpTo(rs, magicLen); err != nil {
			return nil, err
		}
	}

	res.DataOffset = res.TagSize
	res.Format = sniff(header)
	if res.Format == FormatUnknown && res.TagSize > 0 {
		res.Format = FormatMP3
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind: %w", err)
	}
	return res, nil
}

func readUpTo(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	m, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return buf[:m], nil
}

func sniff(b []byte) Format {
	switch {
	case bytes.HasPrefix(b, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(b, []byte("OggS")):
		return FormatOgg
	case len(b) >= 12 && bytes.HasPrefix(b, []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE")):
		return FormatWAV
	case len(b) >= 8 && bytes.Equal(b[4:8], []byte("ftyp")):
		return FormatMP4
	case len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		return FormatMP3
	}
	return FormatUnknown
}

// syncsafe decodes a 28-bit ID3v2 size stored as four 7-bit bytes.
func syncsafe(b []byte) int64 {
	return int64(b[0]&0x7F)<<21 | int64(b[1]&0x7F)<<14 | int64(b[2]&0x7F)<<7 | int64(b[3]&0x7F)
}
