package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/youpy/go-wav"
)

// ErrUnsupportedProbe is returned for clip formats whose duration cannot be
// read locally.
var ErrUnsupportedProbe = errors.New("duration probing is only supported for wav clips")

// ProbeDurationSeconds reads a wav clip and returns its length rounded to the
// nearest second.
func ProbeDurationSeconds(path string) (int, error) {
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		return 0, ErrUnsupportedProbe
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open clip: %w", err)
	}
	defer file.Close()

	reader := wav.NewReader(file)
	format, err := reader.Format()
	if err != nil {
		return 0, fmt.Errorf("failed to read wav header: %w", err)
	}
	if format.SampleRate == 0 {
		return 0, errors.New("wav header has no sample rate")
	}

	var frames uint64
	for {
		samples, err := reader.ReadSamples()
		frames += uint64(len(samples))
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read wav samples: %w", err)
		}
	}

	seconds := float64(frames) / float64(format.SampleRate)
	return int(math.Round(seconds)), nil
}
