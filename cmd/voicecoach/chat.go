package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"voicecoach/internal/domain"
	"voicecoach/internal/usecase"
)

const chatHelp = "commands: /rec  /stop  /play N  /details N  /list  /quit"

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive practice conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, p, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer session.Close()

			p.line(color.HiBlackString(chatHelp))
			return runChat(cmd.Context(), bufio.NewScanner(cmd.InOrStdin()), session, p)
		},
	}
}

// chatSession is the part of a training session the REPL drives.
type chatSession interface {
	SendText(ctx context.Context, text string) (domain.Message, error)
	ToggleRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error
	PlayVoice(ctx context.Context, messageID string) error
	ToggleDetails(messageID string) (domain.Message, error)
	Messages() []domain.Message
}

func runChat(ctx context.Context, scanner *bufio.Scanner, session chatSession, p *printer) error {
	for scanner.Scan() {
		command, arg := parseLine(scanner.Text())
		if command == "" && arg == "" {
			continue
		}
		if command == "quit" {
			return nil
		}
		if err := runChatCommand(ctx, session, p, command, arg); err != nil {
			// Send failures were already reported through the printer.
			var typed *domain.Error
			if !errors.As(err, &typed) {
				p.line(color.RedString("%v", err))
			}
		}
	}
	return scanner.Err()
}

func runChatCommand(ctx context.Context, session chatSession, p *printer, command, arg string) error {
	switch command {
	case "":
		_, err := session.SendText(ctx, arg)
		return err
	case "rec":
		return session.ToggleRecording(ctx)
	case "stop":
		return session.StopRecording(ctx)
	case "play":
		msg, err := messageAt(session.Messages(), arg)
		if err != nil {
			return err
		}
		return session.PlayVoice(ctx, msg.ID)
	case "details":
		msg, err := messageAt(session.Messages(), arg)
		if err != nil {
			return err
		}
		msg, err = session.ToggleDetails(msg.ID)
		if err == nil && !msg.HasDetails() {
			p.line(color.HiBlackString("no transcript for this message"))
		}
		return err
	case "list":
		for index, msg := range session.Messages() {
			p.message(index, msg)
		}
		return nil
	case "help":
		p.line(color.HiBlackString(chatHelp))
		return nil
	default:
		return fmt.Errorf("unknown command /%s", command)
	}
}

// parseLine splits a REPL line into a slash command and its argument. Plain
// text comes back with an empty command.
func parseLine(line string) (string, string) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return "", trimmed
	}
	command, arg, _ := strings.Cut(strings.TrimPrefix(trimmed, "/"), " ")
	return strings.ToLower(command), strings.TrimSpace(arg)
}

func messageAt(messages []domain.Message, arg string) (domain.Message, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("expected a message number, got %q", arg)
	}
	if index < 0 || index >= len(messages) {
		return domain.Message{}, usecase.ErrMessageNotFound
	}
	return messages[index], nil
}
