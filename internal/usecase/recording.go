package usecase

import (
	"context"
	"errors"
	"math"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"voicecoach/internal/domain"
	"voicecoach/internal/logging"
	"voicecoach/internal/ports"
)

// ClipHandler receives every finished recording.
type ClipHandler interface {
	HandleClip(ctx context.Context, clip domain.Clip)
}

// RecordingConfig controls microphone capture.
type RecordingConfig struct {
	Audio       ports.AudioConfig
	SettingsURL string
}

// RecordingController drives the single microphone recording of a session.
type RecordingController struct {
	capture ports.AudioCapture
	gate    ports.PermissionGate
	handler ClipHandler
	events  ports.EventSink
	cfg     RecordingConfig
	now     func() time.Time
	log     *logrus.Entry

	mu      sync.Mutex
	state   domain.RecordingState
	current *activeRecording
	closed  bool
}

type activeRecording struct {
	parent    context.Context
	cancel    context.CancelFunc
	session   ports.CaptureSession
	startedAt time.Time
}

func NewRecordingController(
	capture ports.AudioCapture,
	gate ports.PermissionGate,
	handler ClipHandler,
	events ports.EventSink,
	cfg RecordingConfig,
	now func() time.Time,
) *RecordingController {
	if events == nil {
		events = nopEvents{}
	}
	if now == nil {
		now = time.Now
	}
	return &RecordingController{
		capture: capture,
		gate:    gate,
		handler: handler,
		events:  events,
		cfg:     cfg,
		now:     now,
		log:     logging.New("recorder"),
		state:   domain.RecordingStateIdle,
	}
}

// Start asks for microphone access and begins capturing. While recording,
// Start stops the current recording instead.
func (c *RecordingController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	switch c.state {
	case domain.RecordingStateRecording:
		c.mu.Unlock()
		_, err := c.Stop(ctx)
		return err
	case domain.RecordingStateAwaitingPermission, domain.RecordingStateStopping:
		c.mu.Unlock()
		return ErrRecordingBusy
	}
	c.state = domain.RecordingStateAwaitingPermission
	c.mu.Unlock()
	c.events.RecordingStateChanged(domain.RecordingStateAwaitingPermission, domain.RecordingReasonRequestingMic)

	if err := c.gate.RequestMicrophone(ctx); err != nil {
		c.toIdle(domain.RecordingReasonPermissionDenied)
		c.events.PermissionRequired(domain.PermissionPrompt{
			Title:       noticePermissionTitle,
			Message:     noticePermission,
			SettingsURL: c.cfg.SettingsURL,
		})
		c.events.Notify(domain.ErrorCodePermissionDenied, noticePermission)
		return domain.NewError(domain.ErrorCodePermissionDenied, noticePermission, err)
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	session, err := c.capture.Start(sessionCtx, c.cfg.Audio)
	if err != nil {
		cancel()
		c.log.WithError(err).Warn("capture failed to start")
		c.toIdle(domain.RecordingReasonCaptureFailed)
		c.events.Notify(domain.ErrorCodeCapture, noticeCaptureFailed)
		return domain.NewError(domain.ErrorCodeCapture, noticeCaptureFailed, err)
	}

	active := &activeRecording{
		parent:    ctx,
		cancel:    cancel,
		session:   session,
		startedAt: c.now(),
	}

	c.mu.Lock()
	if c.closed {
		c.state = domain.RecordingStateIdle
		c.mu.Unlock()
		discard(active)
		return ErrSessionClosed
	}
	c.current = active
	c.state = domain.RecordingStateRecording
	c.mu.Unlock()

	c.events.RecordingStateChanged(domain.RecordingStateRecording, domain.RecordingReasonStarted)
	go c.watch(active)
	return nil
}

// Stop ends the live recording and hands the clip to the clip handler.
func (c *RecordingController) Stop(ctx context.Context) (domain.Clip, error) {
	c.mu.Lock()
	if c.state != domain.RecordingStateRecording || c.current == nil {
		c.mu.Unlock()
		return domain.Clip{}, ErrNoActiveRecording
	}
	active := c.current
	c.state = domain.RecordingStateStopping
	c.mu.Unlock()
	c.events.RecordingStateChanged(domain.RecordingStateStopping, domain.RecordingReasonStopping)

	if err := active.session.Stop(); err != nil {
		c.log.WithError(err).Warn("capture did not stop cleanly")
	}
	if err := active.session.Err(); err != nil {
		c.fail(active, err)
		return domain.Clip{}, domain.NewError(domain.ErrorCodeCapture, noticeCaptureFailed, err)
	}
	return c.complete(ctx, active, domain.RecordingReasonStopped)
}

// Abort discards any live recording and rejects further starts.
func (c *RecordingController) Abort() {
	c.mu.Lock()
	c.closed = true
	active := c.current
	c.current = nil
	wasIdle := c.state == domain.RecordingStateIdle
	c.state = domain.RecordingStateIdle
	c.mu.Unlock()

	if active != nil {
		discard(active)
	}
	if !wasIdle {
		c.events.RecordingStateChanged(domain.RecordingStateIdle, domain.RecordingReasonDiscarded)
	}
}

func (c *RecordingController) State() domain.RecordingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// watch handles a recorder that exits without Stop: a device error or the
// duration ceiling.
func (c *RecordingController) watch(active *activeRecording) {
	<-active.session.Done()

	c.mu.Lock()
	if c.current != active || c.state != domain.RecordingStateRecording {
		c.mu.Unlock()
		return
	}
	c.state = domain.RecordingStateStopping
	c.mu.Unlock()

	if err := active.session.Err(); err != nil {
		c.fail(active, err)
		return
	}
	if _, err := c.complete(active.parent, active, domain.RecordingReasonCeilingReached); err != nil {
		c.log.WithError(err).Debug("ceiling clip dropped")
	}
}

func (c *RecordingController) complete(ctx context.Context, active *activeRecording, reason domain.RecordingReason) (domain.Clip, error) {
	clip := domain.Clip{
		Path:            active.session.Path(),
		Format:          active.session.Format(),
		DurationSeconds: durationSeconds(active.startedAt, c.now()),
		Temporary:       true,
	}
	active.cancel()

	c.mu.Lock()
	if c.closed || c.current != active {
		c.mu.Unlock()
		_ = os.Remove(clip.Path)
		return domain.Clip{}, ErrSessionClosed
	}
	c.current = nil
	c.state = domain.RecordingStateIdle
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"duration": clip.DurationSeconds, "reason": reason}).Debug("recording finished")
	c.events.RecordingStateChanged(domain.RecordingStateIdle, reason)
	if c.handler != nil {
		c.handler.HandleClip(ctx, clip)
	}
	return clip, nil
}

func (c *RecordingController) fail(active *activeRecording, err error) {
	c.log.WithError(err).Warn("capture failed")
	discard(active)

	c.mu.Lock()
	if c.current != active {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.state = domain.RecordingStateIdle
	c.mu.Unlock()

	c.events.RecordingStateChanged(domain.RecordingStateIdle, domain.RecordingReasonCaptureFailed)
	c.events.Notify(domain.ErrorCodeCapture, noticeCaptureFailed)
}

func (c *RecordingController) toIdle(reason domain.RecordingReason) {
	c.mu.Lock()
	c.state = domain.RecordingStateIdle
	c.mu.Unlock()
	c.events.RecordingStateChanged(domain.RecordingStateIdle, reason)
}

func discard(active *activeRecording) {
	_ = active.session.Stop()
	active.cancel()
	if path := active.session.Path(); path != "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.New("recorder").WithError(err).Debug("failed to remove clip")
		}
	}
}

// durationSeconds rounds the elapsed time to whole seconds and never goes
// negative.
func durationSeconds(start time.Time, stop time.Time) int {
	ms := stop.Sub(start).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int(math.Round(float64(ms) / 1000))
}
