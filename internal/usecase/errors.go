package usecase

import "errors"

var (
	ErrNoActiveRecording = errors.New("no active recording")
	ErrRecordingBusy     = errors.New("recording is starting or stopping")
	ErrMessageNotFound   = errors.New("message not found")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrSessionClosed     = errors.New("training session closed")
)

// User-facing notices, kept identical to the mobile client.
const (
	noticePermissionTitle = "提示"
	noticePermission      = "需要录音权限才能发送语音消息"
	noticeCaptureFailed   = "录音失败"
	noticeUploadFailed    = "上传失败"
	noticeNoAudio         = "语音文件不存在"
	noticePlaybackFailed  = "播放失败，请重试"
	noticeReplyFailed     = "获取回复失败"

	fallbackReply  = "抱歉，我没有理解你的问题。"
	voiceContent   = "语音消息"
	defaultWelcome = "你好！我是AI助手，有什么可以帮你的吗？"
)
