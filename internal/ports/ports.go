package ports

import (
	"context"
	"errors"
	"time"

	"voicecoach/internal/domain"
)

// ErrPermissionDenied is returned by a PermissionGate when the user refuses
// microphone access.
var ErrPermissionDenied = errors.New("microphone permission denied")

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	BitRate     int
	Format      string
	InputFormat string
	InputDevice string
	MaxDuration time.Duration
	ClipDir     string
}

// CaptureSession is one live recording written to a clip file.
type CaptureSession interface {
	Path() string
	Format() string
	// Done is closed once the recorder process has exited, either because Stop
	// was called or because it ended on its own.
	Done() <-chan struct{}
	// Err reports why the recorder exited. Valid after Done is closed.
	Err() error
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (CaptureSession, error)
}

// PermissionGate asks the host platform for microphone access.
type PermissionGate interface {
	RequestMicrophone(ctx context.Context) error
}

// Playback is one audio output resource bound to a single source.
type Playback interface {
	Start() error
	// Done is closed when playback ends naturally, fails, or is stopped.
	Done() <-chan struct{}
	// Err reports a playback failure. Valid after Done is closed.
	Err() error
	Stop() error
}

// AudioPlayer builds playback resources. A new resource is opened per play.
type AudioPlayer interface {
	Open(ctx context.Context, url string) (Playback, error)
}

// Backend is the coaching service.
type Backend interface {
	SendMessage(ctx context.Context, req domain.OutboundRequest) (domain.InboundReply, error)
	UploadVoice(ctx context.Context, upload domain.VoiceUpload) (domain.VoiceUploadAck, error)
	ResolveAudioURL(ref string) string
}

// EventSink emits state and timeline events to the UI layer.
type EventSink interface {
	RecordingStateChanged(state domain.RecordingState, reason domain.RecordingReason)
	TimelineChanged(event domain.TimelineEvent)
	Busy(label domain.BusyLabel, active bool)
	PermissionRequired(prompt domain.PermissionPrompt)
	Notify(code domain.ErrorCode, detail string)
}
