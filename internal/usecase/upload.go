package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"voicecoach/internal/domain"
	"voicecoach/internal/ports"
)

// uploadPipeline sends a finished clip to the backend. Temporary clips are
// removed once the upload has been attempted.
type uploadPipeline struct {
	backend ports.Backend
	log     *logrus.Entry
}

func (u uploadPipeline) Upload(ctx context.Context, clip domain.Clip, scenarioID string, question string) (domain.VoiceUploadAck, error) {
	if clip.Temporary {
		defer u.remove(clip.Path)
	}

	file, err := os.Open(clip.Path)
	if err != nil {
		return domain.VoiceUploadAck{}, domain.NewError(domain.ErrorCodeUpload, noticeUploadFailed, err)
	}
	defer file.Close()

	ack, err := u.backend.UploadVoice(ctx, domain.VoiceUpload{
		FileName:        filepath.Base(clip.Path),
		Audio:           file,
		DurationSeconds: clip.DurationSeconds,
		Scenario:        scenarioID,
		Question:        question,
	})
	if err != nil {
		var typed *domain.Error
		if errors.As(err, &typed) {
			return domain.VoiceUploadAck{}, err
		}
		return domain.VoiceUploadAck{}, domain.NewError(domain.ErrorCodeUpload, noticeUploadFailed, err)
	}
	if !ack.Success || strings.TrimSpace(ack.VoiceURL) == "" {
		return domain.VoiceUploadAck{}, domain.NewError(domain.ErrorCodeUpload, noticeUploadFailed, nil)
	}
	return ack, nil
}

func (u uploadPipeline) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		u.log.WithError(err).WithField("path", path).Debug("failed to remove clip")
	}
}
