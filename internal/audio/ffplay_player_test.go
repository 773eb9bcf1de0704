package audio

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFFPlayPlaybackCompletes(t *testing.T) {
	t.Parallel()

	player := NewFFPlayPlayer(writeScript(t, "play.sh", "#!/usr/bin/env bash\nsleep 0.1\nexit 0\n"))
	playback, err := player.Open(context.Background(), "http://localhost:8000/v/1")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := playback.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	select {
	case <-playback.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("playback did not complete")
	}
	if playback.Err() != nil {
		t.Fatalf("unexpected error: %v", playback.Err())
	}
}

func TestFFPlayPlaybackReportsFailure(t *testing.T) {
	t.Parallel()

	player := NewFFPlayPlayer(writeScript(t, "bad.sh", "#!/usr/bin/env bash\necho 'no such file' 1>&2\nexit 1\n"))
	playback, err := player.Open(context.Background(), "http://localhost:8000/missing.mp3")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := playback.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-playback.Done()
	if playback.Err() == nil || !strings.Contains(playback.Err().Error(), "no such file") {
		t.Fatalf("expected playback error, got %v", playback.Err())
	}
}

func TestFFPlayPlaybackStopIsQuiet(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "long.sh", "#!/usr/bin/env bash\n"+
		"trap 'exit 1' INT TERM\n"+
		"sleep 5 >/dev/null 2>&1 &\n"+
		"wait $!\n")
	player := NewFFPlayPlayer(script)
	playback, err := player.Open(context.Background(), "/tmp/a.mp3")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := playback.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := playback.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	<-playback.Done()
	if playback.Err() != nil {
		t.Fatalf("stopped playback should not report an error, got %v", playback.Err())
	}
	if err := playback.Start(); err == nil {
		t.Fatalf("expected restart to be rejected")
	}
}

func TestFFPlayStopBeforeStartReleases(t *testing.T) {
	t.Parallel()

	player := NewFFPlayPlayer("ffplay-not-installed")
	playback, err := player.Open(context.Background(), "/tmp/a.mp3")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := playback.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case <-playback.Done():
	default:
		t.Fatalf("expected done after stop")
	}
}

func TestFFPlayStartFailure(t *testing.T) {
	t.Parallel()

	player := NewFFPlayPlayer("/nonexistent/ffplay")
	playback, err := player.Open(context.Background(), "/tmp/a.mp3")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := playback.Start(); err == nil {
		t.Fatalf("expected start failure")
	}
	<-playback.Done()
}

func TestFFPlayOpenRequiresSource(t *testing.T) {
	t.Parallel()

	if _, err := NewFFPlayPlayer("").Open(context.Background(), " "); err == nil {
		t.Fatalf("expected missing source error")
	}
}
