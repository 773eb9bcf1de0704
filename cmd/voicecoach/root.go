package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"voicecoach/internal/bootstrap"
	"voicecoach/internal/scenario"
	"voicecoach/internal/usecase"
)

type rootOptions struct {
	scenario string
}

func newRootCmd(out io.Writer, in io.Reader) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "voicecoach",
		Short:        "Practice sales conversations by text or voice",
		SilenceUsage: true,
	}
	cmd.SetOut(out)
	cmd.SetIn(in)
	cmd.PersistentFlags().StringVarP(&opts.scenario, "scenario", "s", "", "Scenario id or title (defaults to the configured scenario)")

	cmd.AddCommand(newScenariosCmd())
	cmd.AddCommand(newSendCmd(opts))
	cmd.AddCommand(newSendVoiceCmd(opts))
	cmd.AddCommand(newChatCmd(opts))
	return cmd
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List practice scenarios and their questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, id := range scenario.All() {
				fmt.Fprintf(out, "%s  %s\n", color.CyanString("%-8s", id), id.Title())
				for _, question := range id.DefaultQuestions() {
					fmt.Fprintf(out, "          - %s\n", question)
				}
			}
			return nil
		},
	}
}

// openSession builds the services with a terminal printer and opens the
// selected scenario.
func openSession(cmd *cobra.Command, opts *rootOptions) (*usecase.TrainingSession, *printer, error) {
	p := newPrinter(cmd.OutOrStdout())
	services, err := bootstrap.Build(p, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("startup failed: %w", err)
	}
	session, err := services.OpenSession(opts.scenario)
	if err != nil {
		return nil, nil, err
	}
	sc := session.Scenario()
	p.line(color.HiBlackString("%s · %s", sc.Title, sc.Current))
	return session, p, nil
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
