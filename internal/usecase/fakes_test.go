package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"voicecoach/internal/domain"
	"voicecoach/internal/ports"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeGate struct {
	mu    sync.Mutex
	err   error
	calls int
	block chan struct{}
}

func (f *fakeGate) RequestMicrophone(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	block := f.block
	err := f.err
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

type fakeCapture struct {
	mu       sync.Mutex
	dir      string
	err      error
	sessions []*fakeCaptureSession
	configs  []ports.AudioConfig
}

func newFakeCapture(t *testing.T) *fakeCapture {
	t.Helper()
	return &fakeCapture{dir: t.TempDir()}
}

func (f *fakeCapture) Start(_ context.Context, cfg ports.AudioConfig) (ports.CaptureSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, cfg)
	if f.err != nil {
		return nil, f.err
	}
	path := filepath.Join(f.dir, fmt.Sprintf("clip-%d.mp3", len(f.sessions)))
	if err := os.WriteFile(path, []byte("ID3-audio"), 0o600); err != nil {
		return nil, err
	}
	session := &fakeCaptureSession{path: path, done: make(chan struct{})}
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakeCapture) last() *fakeCaptureSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}

func (f *fakeCapture) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeCaptureSession struct {
	path string
	done chan struct{}

	mu        sync.Mutex
	err       error
	stopErr   error
	stopCalls int
	once      sync.Once
}

func (f *fakeCaptureSession) Path() string          { return f.path }
func (f *fakeCaptureSession) Format() string        { return "mp3" }
func (f *fakeCaptureSession) Done() <-chan struct{} { return f.done }

func (f *fakeCaptureSession) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeCaptureSession) Stop() error {
	f.mu.Lock()
	f.stopCalls++
	err := f.stopErr
	f.mu.Unlock()
	f.finish(nil)
	return err
}

// finish simulates the recorder process exiting on its own.
func (f *fakeCaptureSession) finish(err error) {
	f.once.Do(func() {
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		close(f.done)
	})
}

type fakePlayer struct {
	mu        sync.Mutex
	err       error
	startErr  error
	urls      []string
	playbacks []*fakePlayback
}

func (f *fakePlayer) Open(_ context.Context, url string) (ports.Playback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	playback := &fakePlayback{done: make(chan struct{}), startErr: f.startErr}
	f.playbacks = append(f.playbacks, playback)
	return playback, nil
}

func (f *fakePlayer) opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.playbacks)
}

func (f *fakePlayer) last() *fakePlayback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playbacks[len(f.playbacks)-1]
}

type fakePlayback struct {
	done     chan struct{}
	startErr error

	mu        sync.Mutex
	started   bool
	stopCalls int
	err       error
	once      sync.Once
}

func (f *fakePlayback) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakePlayback) Done() <-chan struct{} { return f.done }

func (f *fakePlayback) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakePlayback) Stop() error {
	f.mu.Lock()
	f.stopCalls++
	f.mu.Unlock()
	f.end(nil)
	return nil
}

func (f *fakePlayback) stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

// end simulates playback finishing naturally or failing.
func (f *fakePlayback) end(err error) {
	f.once.Do(func() {
		f.mu.Lock()
		f.err = err
		f.mu.Unlock()
		close(f.done)
	})
}

type fakeBackend struct {
	mu sync.Mutex

	reply     domain.InboundReply
	sendErr   error
	ack       domain.VoiceUploadAck
	uploadErr error

	requests []domain.OutboundRequest
	uploads  []uploadCall

	// onSend runs before the reply is returned.
	onSend func(domain.OutboundRequest)
}

type uploadCall struct {
	fileName string
	audio    []byte
	duration int
	scenario string
	question string
}

func (f *fakeBackend) SendMessage(_ context.Context, req domain.OutboundRequest) (domain.InboundReply, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	hook := f.onSend
	reply, err := f.reply, f.sendErr
	f.mu.Unlock()
	if hook != nil {
		hook(req)
	}
	return reply, err
}

func (f *fakeBackend) UploadVoice(_ context.Context, upload domain.VoiceUpload) (domain.VoiceUploadAck, error) {
	data, readErr := io.ReadAll(upload.Audio)
	f.mu.Lock()
	defer f.mu.Unlock()
	if readErr != nil {
		return domain.VoiceUploadAck{}, readErr
	}
	f.uploads = append(f.uploads, uploadCall{
		fileName: upload.FileName,
		audio:    data,
		duration: upload.DurationSeconds,
		scenario: upload.Scenario,
		question: upload.Question,
	})
	if f.uploadErr != nil {
		return domain.VoiceUploadAck{}, f.uploadErr
	}
	return f.ack, nil
}

func (f *fakeBackend) ResolveAudioURL(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http") {
		return ref
	}
	return "http://media.test" + ref
}

func (f *fakeBackend) snapshotRequests() []domain.OutboundRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.OutboundRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeBackend) snapshotUploads() []uploadCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uploadCall, len(f.uploads))
	copy(out, f.uploads)
	return out
}

type fakeEventSink struct {
	mu sync.Mutex

	states     []stateEvent
	timeline   []domain.TimelineEvent
	busy       []busyEvent
	prompts    []domain.PermissionPrompt
	notices    []noticeEvent
	onTimeline func(domain.TimelineEvent)
}

type stateEvent struct {
	state  domain.RecordingState
	reason domain.RecordingReason
}

type busyEvent struct {
	label  domain.BusyLabel
	active bool
}

type noticeEvent struct {
	code   domain.ErrorCode
	detail string
}

func (f *fakeEventSink) RecordingStateChanged(state domain.RecordingState, reason domain.RecordingReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{state: state, reason: reason})
}

func (f *fakeEventSink) TimelineChanged(event domain.TimelineEvent) {
	f.mu.Lock()
	f.timeline = append(f.timeline, event)
	hook := f.onTimeline
	f.mu.Unlock()
	if hook != nil {
		hook(event)
	}
}

func (f *fakeEventSink) Busy(label domain.BusyLabel, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = append(f.busy, busyEvent{label: label, active: active})
}

func (f *fakeEventSink) PermissionRequired(prompt domain.PermissionPrompt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
}

func (f *fakeEventSink) Notify(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, noticeEvent{code: code, detail: detail})
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stateEvent, len(f.states))
	copy(out, f.states)
	return out
}

func (f *fakeEventSink) snapshotNotices() []noticeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]noticeEvent, len(f.notices))
	copy(out, f.notices)
	return out
}

func (f *fakeEventSink) snapshotBusy() []busyEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]busyEvent, len(f.busy))
	copy(out, f.busy)
	return out
}

func (f *fakeEventSink) timelineCount(change domain.TimelineChange) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, event := range f.timeline {
		if event.Change == change {
			count++
		}
	}
	return count
}

type fakeClipHandler struct {
	mu    sync.Mutex
	clips []domain.Clip
	seen  chan domain.Clip
}

func newFakeClipHandler() *fakeClipHandler {
	return &fakeClipHandler{seen: make(chan domain.Clip, 4)}
}

func (f *fakeClipHandler) HandleClip(_ context.Context, clip domain.Clip) {
	f.mu.Lock()
	f.clips = append(f.clips, clip)
	f.mu.Unlock()
	f.seen <- clip
}

func (f *fakeClipHandler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clips)
}

var errFake = errors.New("fake failure")

func countPlaying(messages []domain.Message) int {
	count := 0
	for _, msg := range messages {
		if msg.IsPlaying {
			count++
		}
	}
	return count
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
