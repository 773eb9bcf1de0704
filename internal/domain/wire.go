package domain

import "io"

// OutboundRequest is the body of POST {apiBase}/messages.
type OutboundRequest struct {
	Message   string      `json:"message"`
	Type      MessageKind `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Scenario  string      `json:"scenario"`
	Question  string      `json:"question"`
	VoiceURL  string      `json:"voiceUrl,omitempty"`
	Duration  *int        `json:"duration,omitempty"`
}

// InboundReply is the 200 response of POST {apiBase}/messages.
type InboundReply struct {
	Reply      string      `json:"reply"`
	Type       MessageKind `json:"type,omitempty"`
	VoiceURL   string      `json:"voiceUrl,omitempty"`
	Duration   int         `json:"duration,omitempty"`
	Text       string      `json:"text,omitempty"`
	Evaluation string      `json:"evaluation,omitempty"`
}

// VoiceUpload is one multipart upload of a finished clip.
type VoiceUpload struct {
	FileName        string
	Audio           io.Reader
	DurationSeconds int
	Scenario        string
	Question        string
}

// VoiceUploadAck is a successful upload acknowledgement.
type VoiceUploadAck struct {
	Success  bool   `json:"success"`
	VoiceURL string `json:"voiceUrl,omitempty"`
}
