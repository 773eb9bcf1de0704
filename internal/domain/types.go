package domain

// RecordingState models the microphone capture lifecycle.
type RecordingState string

const (
	RecordingStateIdle               RecordingState = "idle"
	RecordingStateAwaitingPermission RecordingState = "awaiting_permission"
	RecordingStateRecording          RecordingState = "recording"
	RecordingStateStopping           RecordingState = "stopping"
)

// RecordingReason provides a structured reason for state transitions.
type RecordingReason string

const (
	RecordingReasonReady            RecordingReason = "ready"
	RecordingReasonRequestingMic    RecordingReason = "requesting_microphone"
	RecordingReasonStarted          RecordingReason = "recording_started"
	RecordingReasonStopping         RecordingReason = "recording_stopping"
	RecordingReasonStopped          RecordingReason = "recording_stopped"
	RecordingReasonCeilingReached   RecordingReason = "ceiling_reached"
	RecordingReasonPermissionDenied RecordingReason = "permission_denied"
	RecordingReasonCaptureFailed    RecordingReason = "capture_failed"
	RecordingReasonDiscarded        RecordingReason = "recording_discarded"
)

// Sender identifies who produced a timeline message.
type Sender string

const (
	SenderSelf   Sender = "self"
	SenderRemote Sender = "remote"
)

// MessageKind is the payload type of a timeline message.
type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindVoice MessageKind = "voice"
)

// Message is one timeline entry. Voice-only fields stay zero for text messages.
type Message struct {
	ID      string      `json:"id"`
	Content string      `json:"content"`
	Time    string      `json:"time"`
	Sender  Sender      `json:"sender"`
	Kind    MessageKind `json:"kind"`

	AudioRef        string `json:"audioRef,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	IsPlaying       bool   `json:"isPlaying"`
	Transcript      string `json:"transcript,omitempty"`
	Evaluation      string `json:"evaluation,omitempty"`
	DetailsExpanded bool   `json:"detailsExpanded"`
}

// HasDetails reports whether server-side analysis was attached to the message.
func (m Message) HasDetails() bool {
	return m.Transcript != "" || m.Evaluation != ""
}

// TimelineChange tells the UI layer what happened to the timeline.
type TimelineChange string

const (
	TimelineChangeAppended TimelineChange = "appended"
	TimelineChangeUpdated  TimelineChange = "updated"
)

// TimelineEvent carries a snapshot of the affected message.
type TimelineEvent struct {
	Change  TimelineChange `json:"change"`
	Index   int            `json:"index"`
	Message Message        `json:"message"`
}

// BusyLabel names a loading indicator shown while a network call is pending.
type BusyLabel string

const (
	BusySending   BusyLabel = "发送中..."
	BusyUploading BusyLabel = "上传中..."
)

// PermissionPrompt is shown when microphone access is refused.
type PermissionPrompt struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	SettingsURL string `json:"settingsUrl,omitempty"`
}

// Clip is one finished recording on local storage.
type Clip struct {
	Path            string `json:"path"`
	Format          string `json:"format"`
	DurationSeconds int    `json:"durationSeconds"`
	Temporary       bool   `json:"-"`
}

// Status summarizes the current recorder and playback state.
type Status struct {
	Recording RecordingState `json:"recording"`
	Playing   string         `json:"playing,omitempty"`
	Scenario  string         `json:"scenario,omitempty"`
	Question  string         `json:"question,omitempty"`
	Messages  int            `json:"messages"`
	Message   string         `json:"message,omitempty"`
}
