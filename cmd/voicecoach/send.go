package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"voicecoach/internal/audio"
	"voicecoach/internal/domain"
)

func newSendCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send TEXT...",
		Short: "Send one text message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer session.Close()

			_, err = session.SendText(cmd.Context(), joinArgs(args))
			return err
		},
	}
}

type sendVoiceOptions struct {
	file     string
	duration int
}

func newSendVoiceCmd(opts *rootOptions) *cobra.Command {
	voice := &sendVoiceOptions{}

	cmd := &cobra.Command{
		Use:   "send-voice",
		Short: "Upload an existing audio clip as a voice message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clip, err := voice.clip()
			if err != nil {
				return err
			}

			session, _, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer session.Close()

			_, err = session.SendClip(cmd.Context(), clip)
			return err
		},
	}
	cmd.Flags().StringVarP(&voice.file, "file", "f", "", "Path of the clip to send")
	cmd.Flags().IntVarP(&voice.duration, "duration", "d", 0, "Clip length in seconds (read from the file for wav clips)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// clip describes the file to upload. The caller's file is never removed.
func (o *sendVoiceOptions) clip() (domain.Clip, error) {
	info, err := os.Stat(o.file)
	if err != nil {
		return domain.Clip{}, fmt.Errorf("clip not readable: %w", err)
	}
	if info.IsDir() {
		return domain.Clip{}, fmt.Errorf("clip %s is a directory", o.file)
	}
	if o.duration < 0 {
		return domain.Clip{}, errors.New("duration must not be negative")
	}

	duration := o.duration
	if duration == 0 {
		duration, err = audio.ProbeDurationSeconds(o.file)
		if errors.Is(err, audio.ErrUnsupportedProbe) {
			return domain.Clip{}, fmt.Errorf("--duration is required for %s clips", clipFormat(o.file))
		}
		if err != nil {
			return domain.Clip{}, err
		}
	}

	return domain.Clip{
		Path:            o.file,
		Format:          clipFormat(o.file),
		DurationSeconds: duration,
	}, nil
}

func clipFormat(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "mp3"
	}
	return ext
}
