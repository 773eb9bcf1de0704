package usecase

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"voicecoach/internal/domain"
	"voicecoach/internal/logging"
	"voicecoach/internal/ports"
)

// playbackTarget is the part of the timeline playback needs.
type playbackTarget interface {
	Message(id string) (domain.Message, bool)
	SetPlaying(id string, playing bool) bool
	ClearPlaying()
}

// PlaybackController plays voice messages one at a time. Each play request
// opens a fresh playback resource.
type PlaybackController struct {
	player  ports.AudioPlayer
	target  playbackTarget
	resolve func(string) string
	events  ports.EventSink
	log     *logrus.Entry

	mu      sync.Mutex
	current *activePlayback
}

type activePlayback struct {
	messageID string
	playback  ports.Playback
}

func NewPlaybackController(
	player ports.AudioPlayer,
	target playbackTarget,
	resolve func(string) string,
	events ports.EventSink,
) *PlaybackController {
	if events == nil {
		events = nopEvents{}
	}
	if resolve == nil {
		resolve = func(ref string) string { return ref }
	}
	return &PlaybackController{
		player:  player,
		target:  target,
		resolve: resolve,
		events:  events,
		log:     logging.New("playback"),
	}
}

// Play starts playback of a voice message, or stops it when that message is
// already playing.
func (c *PlaybackController) Play(ctx context.Context, messageID string) error {
	msg, ok := c.target.Message(messageID)
	if !ok {
		return ErrMessageNotFound
	}
	if msg.AudioRef == "" {
		c.events.Notify(domain.ErrorCodePlayback, noticeNoAudio)
		return domain.NewError(domain.ErrorCodePlayback, noticeNoAudio, nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.IsPlaying || (c.current != nil && c.current.messageID == messageID) {
		c.stopCurrentLocked()
		c.target.SetPlaying(messageID, false)
		return nil
	}

	c.stopCurrentLocked()
	c.target.ClearPlaying()

	url := c.resolve(msg.AudioRef)
	playback, err := c.player.Open(ctx, url)
	if err != nil {
		c.log.WithError(err).WithField("url", url).Warn("failed to open playback")
		c.events.Notify(domain.ErrorCodePlayback, noticePlaybackFailed)
		return domain.NewError(domain.ErrorCodePlayback, noticePlaybackFailed, err)
	}

	active := &activePlayback{messageID: messageID, playback: playback}
	c.current = active
	c.target.SetPlaying(messageID, true)

	if err := playback.Start(); err != nil {
		c.current = nil
		_ = playback.Stop()
		c.target.SetPlaying(messageID, false)
		c.log.WithError(err).WithField("url", url).Warn("failed to start playback")
		c.events.Notify(domain.ErrorCodePlayback, noticePlaybackFailed)
		return domain.NewError(domain.ErrorCodePlayback, noticePlaybackFailed, err)
	}

	go c.watch(active)
	return nil
}

// Playing returns the id of the message being played, if any.
func (c *PlaybackController) Playing() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.messageID
}

// Release stops any playback and clears the playing flag.
func (c *PlaybackController) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopCurrentLocked()
	c.target.ClearPlaying()
}

func (c *PlaybackController) watch(active *activePlayback) {
	<-active.playback.Done()

	c.mu.Lock()
	if c.current != active {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.target.SetPlaying(active.messageID, false)
	c.mu.Unlock()

	if err := active.playback.Err(); err != nil {
		c.log.WithError(err).Warn("playback failed")
		c.events.Notify(domain.ErrorCodePlayback, noticePlaybackFailed)
	}
}

func (c *PlaybackController) stopCurrentLocked() {
	if c.current == nil {
		return
	}
	active := c.current
	c.current = nil
	if err := active.playback.Stop(); err != nil {
		c.log.WithError(err).Debug("failed to stop playback")
	}
}
