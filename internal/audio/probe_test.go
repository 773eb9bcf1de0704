package audio

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

func writeSilentWav(t *testing.T, sampleRate uint32, frames int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.wav")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer file.Close()

	dataSize := uint32(frames * 2)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     dataSize + 36,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    sampleRate,
		ByteRate:      sampleRate * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
	if err := binary.Write(file, binary.LittleEndian, header); err != nil {
		t.Fatalf("header write failed: %v", err)
	}
	if _, err := file.Write(make([]byte, dataSize)); err != nil {
		t.Fatalf("data write failed: %v", err)
	}
	return path
}

func TestProbeDurationSecondsRounds(t *testing.T) {
	t.Parallel()

	cases := map[int]int{
		16000 * 2:      2,
		16000*2 + 6400: 2,
		16000*2 + 9600: 3,
	}
	for frames, want := range cases {
		path := writeSilentWav(t, 16000, frames)
		got, err := ProbeDurationSeconds(path)
		if err != nil {
			t.Fatalf("probe failed for %d frames: %v", frames, err)
		}
		if got != want {
			t.Fatalf("frames=%d: expected %ds, got %ds", frames, want, got)
		}
	}
}

func TestProbeDurationSecondsRejectsOtherFormats(t *testing.T) {
	t.Parallel()

	_, err := ProbeDurationSeconds("/tmp/clip.mp3")
	if !errors.Is(err, ErrUnsupportedProbe) {
		t.Fatalf("expected ErrUnsupportedProbe, got %v", err)
	}
}

func TestProbeDurationSecondsMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := ProbeDurationSeconds(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatalf("expected open error")
	}
}
