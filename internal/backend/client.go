package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"voicecoach/internal/domain"
	"voicecoach/internal/logging"
)

const (
	defaultAPIBase   = "http://localhost:8000/api"
	defaultMediaHost = "http://localhost:8000"

	// User-facing details for failures without a backend-provided message.
	detailNetwork       = "网络错误，请稍后重试"
	detailReplyFailed   = "获取回复失败"
	detailUploadFailed  = "上传失败"
	detailMalformedBody = "服务器返回数据格式错误"
)

// Config controls the coaching backend endpoints.
type Config struct {
	APIBaseURL string
	MediaHost  string
	// Timeout of zero leaves requests unbounded.
	Timeout time.Duration
}

// Client implements ports.Backend over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
	log  *logrus.Entry
}

func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = defaultAPIBase
	}
	if strings.TrimSpace(cfg.MediaHost) == "" {
		cfg.MediaHost = defaultMediaHost
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.MediaHost = strings.TrimRight(strings.TrimSpace(cfg.MediaHost), "/")
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logging.New("backend"),
	}
}

// SendMessage posts one timeline message and returns the coach's reply.
func (c *Client) SendMessage(ctx context.Context, req domain.OutboundRequest) (domain.InboundReply, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return domain.InboundReply{}, apiError(0, detailReplyFailed, fmt.Errorf("failed to encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return domain.InboundReply{}, apiError(0, detailNetwork, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log := c.log.WithFields(logrus.Fields{"type": req.Type, "scenario": req.Scenario})
	log.Debug("sending message")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.WithError(err).Warn("message request failed")
		return domain.InboundReply{}, apiError(0, detailNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.InboundReply{}, apiError(resp.StatusCode, detailNetwork, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := extractErrorDetail(body)
		if detail == "" {
			detail = detailReplyFailed
		}
		log.WithField("status", resp.StatusCode).Warn("message rejected by backend")
		return domain.InboundReply{}, apiError(resp.StatusCode, detail, fmt.Errorf("unexpected status %s", resp.Status))
	}

	var reply domain.InboundReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return domain.InboundReply{}, apiError(resp.StatusCode, detailMalformedBody, fmt.Errorf("failed to decode reply: %w", err))
	}

	log.WithField("reply_type", reply.Type).Debug("reply received")
	return reply, nil
}

// UploadVoice transfers a finished clip as multipart form data.
func (c *Client) UploadVoice(ctx context.Context, upload domain.VoiceUpload) (domain.VoiceUploadAck, error) {
	if upload.Audio == nil {
		return domain.VoiceUploadAck{}, uploadError(0, detailUploadFailed, errors.New("no audio to upload"))
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fileName := strings.TrimSpace(upload.FileName)
	if fileName == "" {
		fileName = uuid.NewString() + ".mp3"
	}
	part, err := writer.CreateFormFile("voice", fileName)
	if err != nil {
		return domain.VoiceUploadAck{}, uploadError(0, detailUploadFailed, err)
	}
	if _, err := io.Copy(part, upload.Audio); err != nil {
		return domain.VoiceUploadAck{}, uploadError(0, detailUploadFailed, fmt.Errorf("failed to read clip: %w", err))
	}
	fields := [][2]string{
		{"duration", strconv.Itoa(upload.DurationSeconds)},
		{"scenario", upload.Scenario},
		{"question", upload.Question},
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return domain.VoiceUploadAck{}, uploadError(0, detailUploadFailed, err)
		}
	}
	if err := writer.Close(); err != nil {
		return domain.VoiceUploadAck{}, uploadError(0, detailUploadFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+"/messages/upload", &body)
	if err != nil {
		return domain.VoiceUploadAck{}, uploadError(0, detailUploadFailed, err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	log := c.log.WithFields(logrus.Fields{"file": fileName, "duration": upload.DurationSeconds})
	log.Debug("uploading clip")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.WithError(err).Warn("upload request failed")
		return domain.VoiceUploadAck{}, uploadError(0, detailUploadFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.VoiceUploadAck{}, uploadError(resp.StatusCode, detailUploadFailed, fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := extractErrorDetail(raw)
		if detail == "" {
			detail = detailUploadFailed
		}
		return domain.VoiceUploadAck{}, uploadError(resp.StatusCode, detail, fmt.Errorf("unexpected status %s", resp.Status))
	}

	ack, err := decodeUploadAck(raw)
	if err != nil {
		log.WithError(err).Warn("malformed upload response")
		return domain.VoiceUploadAck{}, uploadError(resp.StatusCode, detailUploadFailed, err)
	}
	if !ack.Success || strings.TrimSpace(ack.VoiceURL) == "" {
		return domain.VoiceUploadAck{}, uploadError(resp.StatusCode, detailUploadFailed, errors.New("backend did not accept the clip"))
	}

	log.WithField("voice_url", ack.VoiceURL).Debug("clip uploaded")
	return ack, nil
}

// ResolveAudioURL turns a server-relative audio path into a playable URL.
func (c *Client) ResolveAudioURL(ref string) string {
	return ResolveAudioURL(c.cfg.MediaHost, ref)
}

// ResolveAudioURL joins a relative reference onto host. Absolute URLs pass
// through untouched.
func ResolveAudioURL(host string, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if parsed, err := url.Parse(ref); err == nil && parsed.IsAbs() {
		return ref
	}
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return host + ref
}

// decodeUploadAck accepts the ack object directly or wrapped in a JSON string.
func decodeUploadAck(raw []byte) (domain.VoiceUploadAck, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return domain.VoiceUploadAck{}, fmt.Errorf("failed to decode upload response: %w", err)
		}
		trimmed = []byte(inner)
	}

	var ack domain.VoiceUploadAck
	if err := json.Unmarshal(trimmed, &ack); err != nil {
		return domain.VoiceUploadAck{}, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return ack, nil
}

func extractErrorDetail(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	// FastAPI sends a plain string for HTTPException and a list for validation errors.
	if len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil && strings.TrimSpace(detail) != "" {
			return strings.TrimSpace(detail)
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 && items[0].Msg != "" {
			return items[0].Msg
		}
	}
	if text := strings.TrimSpace(payload.Error); text != "" {
		return text
	}
	return strings.TrimSpace(payload.Message)
}

func apiError(status int, detail string, err error) error {
	return &domain.Error{Code: domain.ErrorCodeAPI, Detail: detail, StatusCode: status, Err: err}
}

func uploadError(status int, detail string, err error) error {
	return &domain.Error{Code: domain.ErrorCodeUpload, Detail: detail, StatusCode: status, Err: err}
}
