package usecase

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicecoach/internal/domain"
	"voicecoach/internal/ports"
)

const clockLayout = "15:04"

// Timeline owns the ordered message list of one training session. Every
// mutation goes through its methods and is reported to the event sink.
type Timeline struct {
	events ports.EventSink
	now    func() time.Time

	mu       sync.Mutex
	messages []domain.Message
}

func NewTimeline(events ports.EventSink, now func() time.Time) *Timeline {
	if events == nil {
		events = nopEvents{}
	}
	if now == nil {
		now = time.Now
	}
	return &Timeline{events: events, now: now}
}

// Seed appends the opening remote message.
func (t *Timeline) Seed(content string) domain.Message {
	return t.append(domain.Message{
		Content: content,
		Sender:  domain.SenderRemote,
		Kind:    domain.MessageKindText,
	})
}

// AppendUserText appends a self text message. Blank text is ignored.
func (t *Timeline) AppendUserText(text string) (domain.Message, bool) {
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, false
	}
	return t.append(domain.Message{
		Content: text,
		Sender:  domain.SenderSelf,
		Kind:    domain.MessageKindText,
	}), true
}

// AppendUserVoice appends a self voice message for an acknowledged upload.
func (t *Timeline) AppendUserVoice(ack domain.VoiceUploadAck, durationSeconds int) domain.Message {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	return t.append(domain.Message{
		Content:         voiceContent,
		Sender:          domain.SenderSelf,
		Kind:            domain.MessageKindVoice,
		AudioRef:        ack.VoiceURL,
		DurationSeconds: durationSeconds,
	})
}

// Reconcile appends the remote reply to originID. Transcript and evaluation
// are attached to the origin when it is a voice message, collapsed.
func (t *Timeline) Reconcile(originID string, reply domain.InboundReply, resolve func(string) string) domain.Message {
	content := reply.Reply
	if strings.TrimSpace(content) == "" {
		content = fallbackReply
	}
	msg := domain.Message{
		Content: content,
		Sender:  domain.SenderRemote,
		Kind:    domain.MessageKindText,
	}
	if reply.Type == domain.MessageKindVoice {
		msg.Kind = domain.MessageKindVoice
		msg.AudioRef = reply.VoiceURL
		if resolve != nil && msg.AudioRef != "" {
			msg.AudioRef = resolve(msg.AudioRef)
		}
		if reply.Duration > 0 {
			msg.DurationSeconds = reply.Duration
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if reply.Text != "" || reply.Evaluation != "" {
		if index := t.indexOf(originID); index >= 0 && t.messages[index].Kind == domain.MessageKindVoice &&
			t.messages[index].Sender == domain.SenderSelf {
			origin := &t.messages[index]
			origin.Transcript = reply.Text
			origin.Evaluation = reply.Evaluation
			origin.DetailsExpanded = false
			t.emit(domain.TimelineChangeUpdated, index)
		}
	}
	return t.appendLocked(msg)
}

// ToggleDetails flips the expansion flag of a message's transcript block.
func (t *Timeline) ToggleDetails(id string) (domain.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	index := t.indexOf(id)
	if index < 0 {
		return domain.Message{}, ErrMessageNotFound
	}
	t.messages[index].DetailsExpanded = !t.messages[index].DetailsExpanded
	t.emit(domain.TimelineChangeUpdated, index)
	return t.messages[index], nil
}

// SetPlaying sets the playing flag of id. Setting it clears every other
// message so at most one message is playing.
func (t *Timeline) SetPlaying(id string, playing bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	index := t.indexOf(id)
	if index < 0 {
		return false
	}
	if playing {
		for i := range t.messages {
			if i != index && t.messages[i].IsPlaying {
				t.messages[i].IsPlaying = false
				t.emit(domain.TimelineChangeUpdated, i)
			}
		}
	}
	if t.messages[index].IsPlaying != playing {
		t.messages[index].IsPlaying = playing
		t.emit(domain.TimelineChangeUpdated, index)
	}
	return true
}

// ClearPlaying resets every playing flag.
func (t *Timeline) ClearPlaying() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.messages {
		if t.messages[i].IsPlaying {
			t.messages[i].IsPlaying = false
			t.emit(domain.TimelineChangeUpdated, i)
		}
	}
}

func (t *Timeline) Message(id string) (domain.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	index := t.indexOf(id)
	if index < 0 {
		return domain.Message{}, false
	}
	return t.messages[index], true
}

// Snapshot returns a copy of the timeline.
func (t *Timeline) Snapshot() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *Timeline) append(msg domain.Message) domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.appendLocked(msg)
}

func (t *Timeline) appendLocked(msg domain.Message) domain.Message {
	msg.ID = uuid.NewString()
	msg.Time = t.now().Format(clockLayout)
	t.messages = append(t.messages, msg)
	t.emit(domain.TimelineChangeAppended, len(t.messages)-1)
	return msg
}

// emit runs under t.mu so events reach the sink in timeline order.
func (t *Timeline) emit(change domain.TimelineChange, index int) {
	t.events.TimelineChanged(domain.TimelineEvent{
		Change:  change,
		Index:   index,
		Message: t.messages[index],
	})
}

func (t *Timeline) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range t.messages {
		if t.messages[i].ID == id {
			return i
		}
	}
	return -1
}

type nopEvents struct{}

func (nopEvents) RecordingStateChanged(domain.RecordingState, domain.RecordingReason) {}
func (nopEvents) TimelineChanged(domain.TimelineEvent)                                {}
func (nopEvents) Busy(domain.BusyLabel, bool)                                         {}
func (nopEvents) PermissionRequired(domain.PermissionPrompt)                          {}
func (nopEvents) Notify(domain.ErrorCode, string)                                     {}
