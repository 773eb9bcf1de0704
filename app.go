package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"voicecoach/internal/bootstrap"
	"voicecoach/internal/domain"
	"voicecoach/internal/permission"
	"voicecoach/internal/ports"
	"voicecoach/internal/scenario"
	"voicecoach/internal/usecase"
)

const (
	eventRecording  = "voicecoach:recording"
	eventTimeline   = "voicecoach:timeline"
	eventBusy       = "voicecoach:busy"
	eventPermission = "voicecoach:permission"
	eventNotify     = "voicecoach:notify"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	services bootstrap.Services
	bootErr  error

	mu      sync.Mutex
	session *usecase.TrainingSession
}

// ScenarioInfo describes one entry of the scenario picker.
type ScenarioInfo struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Questions []string `json:"questions"`
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, permission.NewRemembered(&dialogGate{app: a}))
	if err != nil {
		a.bootErr = err
		a.Notify(domain.ErrorCodeStartup, err.Error())
		return
	}
	a.services = services

	if _, err := a.OpenScenario(""); err != nil {
		a.bootErr = err
		a.Notify(domain.ErrorCodeStartup, err.Error())
		return
	}
	a.RecordingStateChanged(domain.RecordingStateIdle, domain.RecordingReasonReady)
}

func (a *App) shutdown(_ context.Context) {
	a.mu.Lock()
	session := a.session
	a.session = nil
	a.mu.Unlock()
	if session != nil {
		_ = session.Close()
	}
}

// OpenScenario replaces the current conversation with a new one for the given
// scenario id or title.
func (a *App) OpenScenario(value string) (domain.Status, error) {
	if a.bootErr != nil {
		return domain.Status{}, a.bootErr
	}
	session, err := a.services.OpenSession(value)
	if err != nil {
		return domain.Status{}, err
	}

	a.mu.Lock()
	previous := a.session
	a.session = session
	a.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	return session.Status(), nil
}

// ListScenarios returns the scenario catalogue.
func (a *App) ListScenarios() []ScenarioInfo {
	out := make([]ScenarioInfo, 0, len(scenario.All()))
	for _, id := range scenario.All() {
		out = append(out, ScenarioInfo{ID: string(id), Title: id.Title(), Questions: id.DefaultQuestions()})
	}
	return out
}

// SendText sends a typed message and returns the reply.
func (a *App) SendText(text string) (domain.Message, error) {
	session, err := a.current()
	if err != nil {
		return domain.Message{}, err
	}
	return session.SendText(a.ctx, text)
}

// SetInput mirrors the input box into the session.
func (a *App) SetInput(text string) error {
	session, err := a.current()
	if err != nil {
		return err
	}
	session.SetInput(text)
	return nil
}

// SubmitInput sends the input box contents.
func (a *App) SubmitInput() (domain.Message, error) {
	session, err := a.current()
	if err != nil {
		return domain.Message{}, err
	}
	msg, err := session.SubmitInput(a.ctx)
	if errors.Is(err, usecase.ErrEmptyMessage) {
		return domain.Message{}, nil
	}
	return msg, err
}

// ToggleRecording starts recording, or stops and sends the live recording.
func (a *App) ToggleRecording() (domain.Status, error) {
	session, err := a.current()
	if err != nil {
		return domain.Status{}, err
	}
	if err := session.ToggleRecording(a.ctx); err != nil {
		return session.Status(), err
	}
	return session.Status(), nil
}

// StopRecording stops and sends the live recording.
func (a *App) StopRecording() (domain.Status, error) {
	session, err := a.current()
	if err != nil {
		return domain.Status{}, err
	}
	if err := session.StopRecording(a.ctx); err != nil && !errors.Is(err, usecase.ErrNoActiveRecording) {
		return session.Status(), err
	}
	return session.Status(), nil
}

// PlayVoice toggles playback of a voice message.
func (a *App) PlayVoice(messageID string) error {
	session, err := a.current()
	if err != nil {
		return err
	}
	return session.PlayVoice(a.ctx, messageID)
}

// ToggleDetails shows or hides the transcript of a voice message.
func (a *App) ToggleDetails(messageID string) (domain.Message, error) {
	session, err := a.current()
	if err != nil {
		return domain.Message{}, err
	}
	return session.ToggleDetails(messageID)
}

// Messages returns the current timeline.
func (a *App) Messages() []domain.Message {
	session, err := a.current()
	if err != nil {
		return nil
	}
	return session.Messages()
}

// OpenSettings opens the system microphone settings, when the platform has a
// deep link for them.
func (a *App) OpenSettings() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	url := a.services.Config.Permission.SettingsURL
	if url == "" {
		return errors.New("no settings link for this platform")
	}
	runtime.BrowserOpenURL(a.ctx, url)
	return nil
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.bootErr != nil {
		return domain.Status{Recording: domain.RecordingStateIdle, Message: a.bootErr.Error()}
	}
	a.mu.Lock()
	session := a.session
	a.mu.Unlock()
	if session == nil {
		return domain.Status{Recording: domain.RecordingStateIdle}
	}
	return session.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	cfg := a.services.Config
	return map[string]string{
		"apiBase":          cfg.Backend.APIBaseURL,
		"mediaHost":        cfg.Backend.MediaHost,
		"scenario":         string(cfg.Session.Scenario),
		"audioInput":       cfg.Audio.InputDevice,
		"audioInputFormat": cfg.Audio.InputFormat,
		"maxRecordingSecs": strconv.Itoa(int(cfg.Audio.MaxDuration.Seconds())),
		"configFile":       cfg.File,
	}
}

func (a *App) current() (*usecase.TrainingSession, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil, errors.New("no scenario is open")
	}
	return a.session, nil
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.ctx == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// RecordingStateChanged emits recorder lifecycle updates to the frontend.
func (a *App) RecordingStateChanged(state domain.RecordingState, reason domain.RecordingReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventRecording, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": recordingReasonMessage(reason),
	})
}

// TimelineChanged emits appended or updated messages. The frontend scrolls
// to the bottom on every append.
func (a *App) TimelineChanged(event domain.TimelineEvent) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTimeline, event)
}

// Busy shows or hides the loading overlay.
func (a *App) Busy(label domain.BusyLabel, active bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventBusy, map[string]any{
		"label":  string(label),
		"active": active,
	})
}

// PermissionRequired asks the frontend to show the microphone notice.
func (a *App) PermissionRequired(prompt domain.PermissionPrompt) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPermission, prompt)
}

// Notify emits a recoverable error toast.
func (a *App) Notify(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventNotify, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func recordingReasonMessage(reason domain.RecordingReason) string {
	switch reason {
	case domain.RecordingReasonReady:
		return "按住说话"
	case domain.RecordingReasonRequestingMic:
		return "正在请求麦克风权限..."
	case domain.RecordingReasonStarted:
		return "正在录音..."
	case domain.RecordingReasonStopping:
		return "录音结束，正在处理..."
	case domain.RecordingReasonStopped:
		return "录音完成"
	case domain.RecordingReasonCeilingReached:
		return "已达到最长录音时间"
	case domain.RecordingReasonPermissionDenied:
		return "需要录音权限才能发送语音消息"
	case domain.RecordingReasonCaptureFailed:
		return "录音失败"
	case domain.RecordingReasonDiscarded:
		return "录音已取消"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "启动失败"
	case domain.ErrorCodePermissionDenied:
		return "提示"
	case domain.ErrorCodeCapture:
		return "录音失败"
	case domain.ErrorCodeUpload:
		return "上传失败"
	case domain.ErrorCodeAPI:
		return "发送失败"
	case domain.ErrorCodePlayback:
		return "播放失败"
	default:
		if detail == "" {
			return "未知错误"
		}
		return detail
	}
}

// dialogGate asks for microphone access with a native dialog.
type dialogGate struct {
	app *App
}

func (g *dialogGate) RequestMicrophone(_ context.Context) error {
	if g.app.ctx == nil {
		return ports.ErrPermissionDenied
	}
	answer, err := runtime.MessageDialog(g.app.ctx, runtime.MessageDialogOptions{
		Type:          runtime.QuestionDialog,
		Title:         "麦克风权限",
		Message:       "允许使用麦克风录制语音消息吗？",
		Buttons:       []string{"允许", "拒绝"},
		DefaultButton: "允许",
		CancelButton:  "拒绝",
	})
	if err != nil {
		return err
	}
	if !dialogGranted(answer) {
		return ports.ErrPermissionDenied
	}
	return nil
}

func dialogGranted(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "允许", "yes", "ok":
		return true
	default:
		return false
	}
}
