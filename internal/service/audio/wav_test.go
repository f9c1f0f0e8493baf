package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// chunk is a RIFF sub-chunk used to assemble test files.
type chunk struct {
	id   string
	body []byte
}

// buildWAV assembles a RIFF/WAVE file from chunks.
func buildWAV(chunks ...chunk) []byte {
	var body bytes.Buffer

	body.WriteString("WAVE")

	for _, c := range chunks {
		body.WriteString(c.id)
		_ = binary.Write(&body, binary.LittleEndian, uint32(len(c.body)))
		body.Write(c.body)

		if len(c.body)%2 == 1 {
			body.WriteByte(0)
		}
	}

	var out bytes.Buffer

	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())

	return out.Bytes()
}

// fmtChunk builds a fmt chunk body.
func fmtChunk(audioFormat, channels uint16, sampleRate uint32, bits uint16) chunk {
	var b bytes.Buffer

	blockAlign := channels * bits / 8
	for _, v := range []any{audioFormat, channels, sampleRate, sampleRate * uint32(blockAlign), blockAlign, bits} {
		_ = binary.Write(&b, binary.LittleEndian, v)
	}

	return chunk{id: "fmt ", body: b.Bytes()}
}

// oversizedWAV returns a file whose data chunk claims far more bytes than it holds.
func oversizedWAV() []byte {
	data := buildWAV(fmtChunk(1, 1, 44100, 16), chunk{id: "data", body: []byte{1, 0, 2, 0}})
	binary.LittleEndian.PutUint32(data[len(data)-8:], 0xFFFFFFF0)

	return data
}

// TestParseWAV covers valid files and the rejected formats.
func TestParseWAV(t *testing.T) {
	t.Parallel()

	samples := []byte{1, 0, 2, 0, 3, 0, 4, 0}

	tests := []struct {
		name     string
		data     []byte
		format   *wavFormat
		samples  []byte
		expected error
	}{
		{
			name:    "mono",
			data:    buildWAV(fmtChunk(1, 1, 44100, 16), chunk{id: "data", body: samples}),
			format:  &wavFormat{SampleRate: 44100, Channels: 1, BitDepth: 16},
			samples: samples,
		},
		{
			name:    "stereo with odd sized list chunk and partial frame",
			data:    buildWAV(fmtChunk(1, 2, 48000, 16), chunk{id: "LIST", body: []byte("abc")}, chunk{id: "data", body: append(samples, 9, 9)}),
			format:  &wavFormat{SampleRate: 48000, Channels: 2, BitDepth: 16},
			samples: samples,
		},
		{
			name:     "not riff",
			data:     []byte("ID3\x04 definitely an mp3"),
			expected: errNotWAV,
		},
		{
			name:     "eight bit",
			data:     buildWAV(fmtChunk(1, 1, 8000, 8), chunk{id: "data", body: samples}),
			expected: errUnsupportedFormat,
		},
		{
			name:     "float",
			data:     buildWAV(fmtChunk(3, 1, 8000, 16), chunk{id: "data", body: samples}),
			expected: errUnsupportedFormat,
		},
		{
			name:     "no fmt",
			data:     buildWAV(chunk{id: "data", body: samples}),
			expected: errUnsupportedFormat,
		},
		{
			name:     "no data",
			data:     buildWAV(fmtChunk(1, 1, 8000, 16)),
			expected: errNoSamples,
		},
		{
			name:     "data shorter than one frame",
			data:     buildWAV(fmtChunk(1, 1, 44100, 16), chunk{id: "data", body: []byte{7}}),
			expected: errNoSamples,
		},
		{
			name:     "chunk size beyond end of file",
			data:     oversizedWAV(),
			expected: errUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			format, got, err := parseWAV(tt.data)
			if tt.expected != nil {
				require.ErrorIs(t, err, tt.expected)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.format, format)
			require.Equal(t, tt.samples, got)
		})
	}
}

// TestLoopReader checks the samples wrap around endlessly.
func TestLoopReader(t *testing.T) {
	t.Parallel()

	r := &loopReader{data: []byte{1, 2, 3}}
	buf := make([]byte, 8)

	n, err := io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, []byte{1, 2, 3, 1, 2, 3, 1, 2}, buf)

	n, err = r.Read(buf[:2])
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []byte{3, 1}, buf[:2])

	n, err = (&loopReader{}).Read(buf)
	require.ErrorIs(t, err, io.EOF)
	require.Zero(t, n)
}

// TestResolvePath accepts paths and file URLs only.
func TestResolvePath(t *testing.T) {
	t.Parallel()

	path, err := ResolvePath("/usr/share/sounds/alarm.wav")
	require.NoError(t, err)
	require.Equal(t, "/usr/share/sounds/alarm.wav", path)

	path, err = ResolvePath("file:///home/o/My%20Alarm.wav")
	require.NoError(t, err)
	require.Equal(t, "/home/o/My Alarm.wav", path)

	_, err = ResolvePath("content://media/external/audio/media/12")
	require.ErrorIs(t, err, domain.ErrPlaybackFailure)

	_, err = ResolvePath("none")
	require.ErrorIs(t, err, domain.ErrPlaybackFailure)
}

// TestPlay_Failures checks bad sounds fail before the audio device is touched.
func TestPlay_Failures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	player := NewPlayer(1)

	_, err := player.Play(context.Background(), filepath.Join(dir, "missing.wav"))
	require.ErrorIs(t, err, domain.ErrPlaybackFailure)

	garbage := filepath.Join(dir, "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("not a sound"), 0o600))

	_, err = player.Play(context.Background(), garbage)
	require.ErrorIs(t, err, domain.ErrPlaybackFailure)
}
