package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"voicecoach/internal/domain"
	"voicecoach/internal/logging"
	"voicecoach/internal/ports"
	"voicecoach/internal/scenario"
)

// SessionDeps are the adapters a training session runs on.
type SessionDeps struct {
	Backend ports.Backend
	Capture ports.AudioCapture
	Gate    ports.PermissionGate
	Player  ports.AudioPlayer
	Events  ports.EventSink
	Now     func() time.Time
}

// TrainingSession is one conversation about a scenario. It coordinates the
// timeline, recorder, uploads and playback.
type TrainingSession struct {
	backend  ports.Backend
	events   ports.EventSink
	scenario scenario.Context
	now      func() time.Time
	log      *logrus.Entry

	timeline *Timeline
	recorder *RecordingController
	player   *PlaybackController
	uploader uploadPipeline

	mu     sync.Mutex
	input  string
	closed bool
}

func NewTrainingSession(deps SessionDeps, sc scenario.Context, cfg RecordingConfig) *TrainingSession {
	events := deps.Events
	if events == nil {
		events = nopEvents{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := logging.New("session").WithField("scenario", sc.ID)

	s := &TrainingSession{
		backend:  deps.Backend,
		events:   events,
		scenario: sc,
		now:      now,
		log:      log,
		uploader: uploadPipeline{backend: deps.Backend, log: log},
	}
	s.timeline = NewTimeline(events, now)
	s.recorder = NewRecordingController(deps.Capture, deps.Gate, s, events, cfg, now)
	s.player = NewPlaybackController(deps.Player, s.timeline, deps.Backend.ResolveAudioURL, events)

	opening := sc.Current
	if opening == "" {
		opening = defaultWelcome
	}
	s.timeline.Seed(opening)
	return s
}

func (s *TrainingSession) Scenario() scenario.Context {
	return s.scenario
}

func (s *TrainingSession) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = text
}

func (s *TrainingSession) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// SubmitInput sends the input buffer as a text message and clears it. A blank
// buffer is left untouched.
func (s *TrainingSession) SubmitInput(ctx context.Context) (domain.Message, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Message{}, ErrSessionClosed
	}
	text := s.input
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return domain.Message{}, ErrEmptyMessage
	}
	s.input = ""
	s.mu.Unlock()

	return s.SendText(ctx, text)
}

// SendText appends a self text message right away, then sends it and returns
// the reply. A failed send leaves the message in place.
func (s *TrainingSession) SendText(ctx context.Context, text string) (domain.Message, error) {
	if s.isClosed() {
		return domain.Message{}, ErrSessionClosed
	}
	msg, ok := s.timeline.AppendUserText(text)
	if !ok {
		return domain.Message{}, ErrEmptyMessage
	}
	return s.dispatch(ctx, msg)
}

// ToggleRecording starts a recording, or stops the live one.
func (s *TrainingSession) ToggleRecording(ctx context.Context) error {
	return s.recorder.Start(ctx)
}

// StopRecording ends the live recording. The clip is uploaded and sent before
// it returns.
func (s *TrainingSession) StopRecording(ctx context.Context) error {
	_, err := s.recorder.Stop(ctx)
	return err
}

// HandleClip uploads and sends a finished recording. Failures are reported
// through the event sink.
func (s *TrainingSession) HandleClip(ctx context.Context, clip domain.Clip) {
	if _, err := s.SendClip(ctx, clip); err != nil && !errors.Is(err, ErrSessionClosed) {
		s.log.WithError(err).Debug("voice message not delivered")
	}
}

// SendClip uploads a clip, appends the voice message once the upload is
// acknowledged, sends it and returns the reply.
func (s *TrainingSession) SendClip(ctx context.Context, clip domain.Clip) (domain.Message, error) {
	if s.isClosed() {
		return domain.Message{}, ErrSessionClosed
	}

	s.events.Busy(domain.BusyUploading, true)
	ack, err := s.uploader.Upload(ctx, clip, string(s.scenario.ID), s.scenario.Current)
	s.events.Busy(domain.BusyUploading, false)

	if s.isClosed() {
		return domain.Message{}, ErrSessionClosed
	}
	if err != nil {
		s.log.WithError(err).Warn("upload failed")
		s.events.Notify(domain.ErrorCodeUpload, domain.Detail(err))
		return domain.Message{}, err
	}

	msg := s.timeline.AppendUserVoice(ack, clip.DurationSeconds)
	return s.dispatch(ctx, msg)
}

// PlayVoice toggles playback of a voice message.
func (s *TrainingSession) PlayVoice(ctx context.Context, messageID string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	return s.player.Play(ctx, messageID)
}

// ToggleDetails shows or hides the transcript and evaluation of a message.
func (s *TrainingSession) ToggleDetails(messageID string) (domain.Message, error) {
	return s.timeline.ToggleDetails(messageID)
}

func (s *TrainingSession) Messages() []domain.Message {
	return s.timeline.Snapshot()
}

func (s *TrainingSession) Status() domain.Status {
	status := domain.Status{
		Recording: s.recorder.State(),
		Playing:   s.player.Playing(),
		Scenario:  string(s.scenario.ID),
		Question:  s.scenario.Current,
		Messages:  s.timeline.Len(),
	}
	if s.isClosed() {
		status.Message = "closed"
	}
	return status
}

// Close releases playback and discards any live recording. Results that
// arrive afterwards are dropped.
func (s *TrainingSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.player.Release()
	s.recorder.Abort()
	return nil
}

func (s *TrainingSession) dispatch(ctx context.Context, origin domain.Message) (domain.Message, error) {
	req := domain.OutboundRequest{
		Message:   origin.Content,
		Type:      origin.Kind,
		Timestamp: s.now().UnixMilli(),
		Scenario:  string(s.scenario.ID),
		Question:  s.scenario.Current,
	}
	if origin.Kind == domain.MessageKindVoice {
		duration := origin.DurationSeconds
		req.VoiceURL = origin.AudioRef
		req.Duration = &duration
	}

	s.events.Busy(domain.BusySending, true)
	reply, err := s.backend.SendMessage(ctx, req)
	s.events.Busy(domain.BusySending, false)

	if s.isClosed() {
		return domain.Message{}, ErrSessionClosed
	}
	if err != nil {
		var typed *domain.Error
		if !errors.As(err, &typed) {
			err = domain.NewError(domain.ErrorCodeAPI, noticeReplyFailed, err)
		}
		s.log.WithError(err).WithField("type", origin.Kind).Warn("send failed")
		s.events.Notify(domain.ErrorCodeAPI, domain.Detail(err))
		return domain.Message{}, err
	}

	return s.timeline.Reconcile(origin.ID, reply, s.backend.ResolveAudioURL), nil
}

func (s *TrainingSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
