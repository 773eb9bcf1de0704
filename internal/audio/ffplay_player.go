package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"voicecoach/internal/ports"
)

// FFPlayPlayer plays remote or local audio through an ffplay subprocess.
// Every Open builds a fresh process.
type FFPlayPlayer struct {
	command string
}

func NewFFPlayPlayer(command string) *FFPlayPlayer {
	if command == "" {
		command = "ffplay"
	}
	return &FFPlayPlayer{command: command}
}

func (p *FFPlayPlayer) Open(ctx context.Context, url string) (ports.Playback, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("no audio source")
	}
	cmd := exec.CommandContext(ctx, p.command,
		"-nodisp",
		"-autoexit",
		"-hide_banner",
		"-loglevel", "error",
		url,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	return &ffplayPlayback{cmd: cmd, stderr: &stderr, done: make(chan struct{})}, nil
}

type ffplayPlayback struct {
	cmd    *exec.Cmd
	stderr *bytes.Buffer

	mu       sync.Mutex
	started  bool
	stopped  bool
	done     chan struct{}
	err      error
	stopOnce sync.Once
}

func (p *ffplayPlayback) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("playback already started")
	}
	if p.stopped {
		return errors.New("playback already stopped")
	}
	if err := p.cmd.Start(); err != nil {
		close(p.done)
		p.started = true
		p.err = fmt.Errorf("failed to start ffplay: %w", err)
		return p.err
	}
	p.started = true

	go func() {
		err := p.cmd.Wait()
		p.mu.Lock()
		if err != nil && !p.stopped {
			p.err = fmt.Errorf("ffplay failed: %w: %s", err, stringsTrimSpaceSafe(p.stderr.String()))
		}
		p.mu.Unlock()
		close(p.done)
	}()
	return nil
}

func (p *ffplayPlayback) Done() <-chan struct{} { return p.done }

func (p *ffplayPlayback) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stop interrupts playback and releases the process. Safe to call more than once.
func (p *ffplayPlayback) Stop() error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		started := p.started
		p.mu.Unlock()

		if !started {
			close(p.done)
			return
		}

		select {
		case <-p.done:
			return
		default:
		}

		if p.cmd.Process != nil {
			_ = p.cmd.Process.Signal(os.Interrupt)
		}
		select {
		case <-p.done:
		case <-time.After(stopGrace):
			if p.cmd.Process != nil {
				_ = p.cmd.Process.Kill()
			}
			<-p.done
		}
	})
	return nil
}
