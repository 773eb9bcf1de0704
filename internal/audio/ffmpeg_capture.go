package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicecoach/internal/ports"
)

const (
	defaultMaxDuration = 60 * time.Second
	startupProbe       = 250 * time.Millisecond
	stopGrace          = 1200 * time.Millisecond
)

// FFMPEGCapture records one compressed microphone clip per session using ffmpeg.
type FFMPEGCapture struct {
	command string
}

func NewFFMPEGCapture(command string) *FFMPEGCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGCapture{command: command}
}

func (c *FFMPEGCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.CaptureSession, error) {
	cfg = withCaptureDefaults(cfg)

	if err := os.MkdirAll(cfg.ClipDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare clip directory: %w", err)
	}
	path := filepath.Join(cfg.ClipDir, uuid.NewString()+"."+cfg.Format)

	cmd := exec.CommandContext(ctx, c.command, captureArgs(cfg, path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	session := &ffmpegSession{
		path:    path,
		format:  cfg.Format,
		stderr:  &stderr,
		process: cmd.Process,
		done:    make(chan struct{}),
	}
	go func() {
		session.err = normalizeExitErr(cmd.Wait(), &stderr)
		close(session.done)
	}()

	select {
	case <-session.done:
		_ = os.Remove(path)
		if session.err != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w", session.err)
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-time.After(startupProbe):
	}

	return session, nil
}

func withCaptureDefaults(cfg ports.AudioConfig) ports.AudioConfig {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.BitRate <= 0 {
		cfg.BitRate = 96000
	}
	if cfg.Format == "" {
		cfg.Format = "mp3"
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = defaultMaxDuration
	}
	if cfg.ClipDir == "" {
		cfg.ClipDir = filepath.Join(os.TempDir(), "voicecoach")
	}
	return cfg
}

func captureArgs(cfg ports.AudioConfig, path string) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-t", strconv.FormatFloat(cfg.MaxDuration.Seconds(), 'f', -1, 64),
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-b:a", strconv.Itoa(cfg.BitRate),
		"-f", cfg.Format,
		"-y",
		path,
	}
}

type ffmpegSession struct {
	path   string
	format string
	stderr *bytes.Buffer

	process *os.Process
	done    chan struct{}
	err     error

	stopOnce sync.Once
	stopErr  error
}

func (s *ffmpegSession) Path() string { return s.path }

func (s *ffmpegSession) Format() string { return s.format }

func (s *ffmpegSession) Done() <-chan struct{} { return s.done }

func (s *ffmpegSession) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Stop asks ffmpeg to finalize the clip and waits for it to exit.
func (s *ffmpegSession) Stop() error {
	s.stopOnce.Do(func() {
		select {
		case <-s.done:
			s.stopErr = s.err
			return
		default:
		}

		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case <-s.done:
		case <-time.After(stopGrace):
			if s.process != nil {
				_ = s.process.Kill()
			}
			<-s.done
		}
		s.stopErr = s.err
	})

	return s.stopErr
}

// normalizeExitErr treats a non-zero exit after interrupt as a clean stop;
// ffmpeg reports 255 when signalled even though the clip is finalized.
func normalizeExitErr(err error, stderr *bytes.Buffer) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == 255 || exitErr.ExitCode() == -1 {
			return nil
		}
	}
	if stderr != nil && stderr.Len() > 0 {
		return fmt.Errorf("%w: %s", err, stringsTrimSpaceSafe(stderr.String()))
	}
	return err
}

func stringsTrimSpaceSafe(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}
