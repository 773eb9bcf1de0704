package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"voicecoach/internal/domain"
)

// printer renders session events on a terminal.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out}
}

func (p *printer) RecordingStateChanged(_ domain.RecordingState, reason domain.RecordingReason) {
	switch reason {
	case domain.RecordingReasonStarted:
		p.line(color.RedString("● recording, /stop to send"))
	case domain.RecordingReasonCeilingReached:
		p.line(color.YellowString("recording limit reached, sending"))
	case domain.RecordingReasonDiscarded:
		p.line(color.YellowString("recording discarded"))
	}
}

// TimelineChanged prints appended messages, and the transcript of a message
// whose details were expanded.
func (p *printer) TimelineChanged(event domain.TimelineEvent) {
	if event.Change == domain.TimelineChangeAppended {
		p.message(event.Index, event.Message)
		return
	}
	if event.Message.DetailsExpanded && event.Message.HasDetails() {
		p.details(event.Message)
	}
}

func (p *printer) Busy(label domain.BusyLabel, active bool) {
	if active {
		p.line(color.HiBlackString("%s", label))
	}
}

func (p *printer) PermissionRequired(prompt domain.PermissionPrompt) {
	p.line(color.YellowString("%s: %s", prompt.Title, prompt.Message))
	if prompt.SettingsURL != "" {
		p.line(color.HiBlackString("settings: %s", prompt.SettingsURL))
	}
}

func (p *printer) Notify(code domain.ErrorCode, detail string) {
	p.line(color.RedString("%s: %s", noticeTitle(code), detail))
}

// message prints one timeline entry with its position.
func (p *printer) message(index int, msg domain.Message) {
	who := color.CyanString("coach")
	if msg.Sender == domain.SenderSelf {
		who = color.GreenString("me")
	}
	body := msg.Content
	if msg.Kind == domain.MessageKindVoice {
		body = fmt.Sprintf("%s %d\"", msg.Content, msg.DurationSeconds)
		if msg.IsPlaying {
			body += color.MagentaString(" ▶")
		}
	}
	p.line(fmt.Sprintf("%s %s %s: %s", color.HiBlackString("[%d]", index), color.HiBlackString(msg.Time), who, body))
}

func (p *printer) details(msg domain.Message) {
	if msg.Transcript != "" {
		p.line(color.HiBlackString("    transcript: %s", msg.Transcript))
	}
	if msg.Evaluation != "" {
		p.line(color.HiBlackString("    evaluation: %s", msg.Evaluation))
	}
}

func (p *printer) line(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, text)
}

func noticeTitle(code domain.ErrorCode) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "startup failed"
	case domain.ErrorCodePermissionDenied:
		return "microphone"
	case domain.ErrorCodeCapture:
		return "recording failed"
	case domain.ErrorCodeUpload:
		return "upload failed"
	case domain.ErrorCodeAPI:
		return "send failed"
	case domain.ErrorCodePlayback:
		return "playback failed"
	default:
		return "error"
	}
}
