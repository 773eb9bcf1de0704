package main

import (
	"errors"
	"testing"

	"voicecoach/internal/domain"
	"voicecoach/internal/scenario"
)

func TestRecordingReasonMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.RecordingReason]string{
		domain.RecordingReasonReady:            "按住说话",
		domain.RecordingReasonRequestingMic:    "正在请求麦克风权限...",
		domain.RecordingReasonStarted:          "正在录音...",
		domain.RecordingReasonStopping:         "录音结束，正在处理...",
		domain.RecordingReasonStopped:          "录音完成",
		domain.RecordingReasonCeilingReached:   "已达到最长录音时间",
		domain.RecordingReasonPermissionDenied: "需要录音权限才能发送语音消息",
		domain.RecordingReasonCaptureFailed:    "录音失败",
		domain.RecordingReasonDiscarded:        "录音已取消",
	}

	for reason, want := range cases {
		reason := reason
		want := want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := recordingReasonMessage(reason); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := recordingReasonMessage("unknown"); got != "" {
		t.Fatalf("expected empty unknown reason message, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:          "启动失败",
		domain.ErrorCodePermissionDenied: "提示",
		domain.ErrorCodeCapture:          "录音失败",
		domain.ErrorCodeUpload:           "上传失败",
		domain.ErrorCodeAPI:              "发送失败",
		domain.ErrorCodePlayback:         "播放失败",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "未知错误" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
	if _, err := app.SendText("hi"); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error from bound method, got %v", err)
	}
	if _, err := app.OpenScenario("attract"); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error from OpenScenario, got %v", err)
	}
}

func TestGetStatusWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	status := app.GetStatus()
	if status.Recording != domain.RecordingStateIdle || status.Messages != 0 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if app.Messages() != nil {
		t.Fatalf("expected no messages before startup")
	}

	app.bootErr = errors.New("boot")
	status = app.GetStatus()
	if status.Recording != domain.RecordingStateIdle || status.Message != "boot" {
		t.Fatalf("unexpected boot status: %+v", status)
	}
	if info := app.GetRuntimeInfo(); info["error"] != "boot" {
		t.Fatalf("unexpected runtime info: %+v", info)
	}
}

func TestEventsWithoutRuntimeAreDropped(t *testing.T) {
	t.Parallel()

	app := &App{}
	app.RecordingStateChanged(domain.RecordingStateIdle, domain.RecordingReasonReady)
	app.TimelineChanged(domain.TimelineEvent{})
	app.Busy(domain.BusySending, true)
	app.PermissionRequired(domain.PermissionPrompt{})
	app.Notify(domain.ErrorCodeAPI, "x")
}

func TestListScenarios(t *testing.T) {
	t.Parallel()

	list := (&App{}).ListScenarios()
	if len(list) != len(scenario.All()) {
		t.Fatalf("expected %d scenarios, got %d", len(scenario.All()), len(list))
	}
	if list[0].ID != string(scenario.Attract) || list[0].Title != scenario.Attract.Title() || len(list[0].Questions) == 0 {
		t.Fatalf("unexpected first entry: %+v", list[0])
	}
}

func TestDialogGranted(t *testing.T) {
	t.Parallel()

	for _, answer := range []string{"允许", "Yes", " ok "} {
		if !dialogGranted(answer) {
			t.Fatalf("expected %q to grant", answer)
		}
	}
	for _, answer := range []string{"拒绝", "No", "", "Cancel"} {
		if dialogGranted(answer) {
			t.Fatalf("expected %q to refuse", answer)
		}
	}
}
