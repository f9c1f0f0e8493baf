package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// pcmFormat is the WAVE format tag of uncompressed PCM.
const pcmFormat = 1

var (
	// errNotWAV is returned when the data has no RIFF/WAVE header.
	errNotWAV = errors.New("not a RIFF/WAVE file")
	// errUnsupportedFormat is returned for anything but 16-bit PCM.
	errUnsupportedFormat = errors.New("unsupported WAVE format")
	// errNoSamples is returned when the data chunk is missing or empty.
	errNoSamples = errors.New("WAVE file has no samples")
)

// wavFormat holds WAV file format information.
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// parseWAV returns the format and the sample bytes of a RIFF/WAVE file.
//
//nolint:cyclop // Chunk walking is a flat loop.
func parseWAV(data []byte) (*wavFormat, []byte, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, nil, errNotWAV
	}

	var (
		reader  = bytes.NewReader(data[12:])
		format  *wavFormat
		samples []byte
	)

	for samples == nil {
		var header struct {
			ID   [4]byte
			Size uint32
		}

		if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, nil, fmt.Errorf("read chunk header: %w", err)
		}

		if int64(header.Size) > int64(reader.Len()) {
			return nil, nil, fmt.Errorf("%w: %q chunk claims %d bytes, %d left", errUnsupportedFormat, header.ID[:], header.Size, reader.Len())
		}

		chunk := make([]byte, header.Size)
		if _, err := io.ReadFull(reader, chunk); err != nil {
			return nil, nil, fmt.Errorf("read %q chunk: %w", header.ID[:], err)
		}

		// Chunks are padded to an even size.
		if header.Size%2 == 1 {
			_, _ = reader.ReadByte()
		}

		switch string(header.ID[:]) {
		case "fmt ":
			f, err := parseFormatChunk(chunk)
			if err != nil {
				return nil, nil, err
			}

			format = f
		case "data":
			samples = chunk
		}
	}

	if format == nil {
		return nil, nil, fmt.Errorf("%w: missing fmt chunk", errUnsupportedFormat)
	}

	if len(samples) == 0 {
		return nil, nil, errNoSamples
	}

	frame := format.Channels * format.BitDepth / 8

	samples = samples[:len(samples)-len(samples)%frame]
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("%w: data shorter than one frame", errNoSamples)
	}

	return format, samples, nil
}

func parseFormatChunk(chunk []byte) (*wavFormat, error) {
	var header struct {
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}

	if err := binary.Read(bytes.NewReader(chunk), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: short fmt chunk", errUnsupportedFormat)
	}

	if header.AudioFormat != pcmFormat || header.BitsPerSample != 16 {
		return nil, fmt.Errorf("%w: format %d with %d bits", errUnsupportedFormat, header.AudioFormat, header.BitsPerSample)
	}

	if header.Channels < 1 || header.Channels > 2 || header.SampleRate == 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", errUnsupportedFormat, header.Channels, header.SampleRate)
	}

	return &wavFormat{
		SampleRate: int(header.SampleRate),
		Channels:   int(header.Channels),
		BitDepth:   int(header.BitsPerSample),
	}, nil
}

// loopReader replays the same samples forever.
type loopReader struct {
	data []byte
	pos  int
}

func (r *loopReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}

	n := 0

	for n < len(p) {
		copied := copy(p[n:], r.data[r.pos:])
		n += copied
		r.pos = (r.pos + copied) % len(r.data)
	}

	return n, nil
}
