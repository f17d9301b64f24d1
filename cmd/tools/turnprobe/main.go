package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/moodchat/backend/internal/app"
	"github.com/zhouzirui/moodchat/backend/internal/config"
	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
	"github.com/zhouzirui/moodchat/backend/internal/service/turn"
)

type probeOptions struct {
	input       string
	need        string
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	verbose     bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := probeOptions{}

	cmd := &cobra.Command{
		Use:           "turnprobe",
		Short:         "Run one chat turn against the configured backends and print it",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				logrus.WithError(err).Debug("no .env file, using system environment")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			logger := cfg.Log.NewLogger()
			if !opts.verbose {
				logger.SetLevel(logrus.WarnLevel)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			services, err := app.Build(ctx, cfg, logrus.NewEntry(logger))
			if err != nil {
				return err
			}

			submission := turn.Submission{Input: opts.input, Need: opts.need, Model: opts.model}
			if cmd.Flags().Changed("max-tokens") {
				submission.MaxOutputTokens = &opts.maxTokens
			}
			if cmd.Flags().Changed("temperature") {
				submission.Temperature = &opts.temperature
			}

			req, err := submission.Request(cfg.Turn)
			if err != nil {
				return err
			}

			result := services.Pipeline.ProcessObserved(ctx, req, func(e turn.Event) {
				printStage(out, e)
			})
			printTurn(out, result, services.Generator.Backends())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.input, "input", "", "user message to process")
	flags.StringVar(&opts.need, "need", "", "optional description of what the user needs")
	flags.StringVar(&opts.model, "model", "", "generation model, defaults to GEMINI_MODEL")
	flags.IntVar(&opts.maxTokens, "max-tokens", chat.DefaultMaxOutputTokens, "max output tokens for the reply")
	flags.Float64Var(&opts.temperature, "temperature", chat.DefaultTemperature, "sampling temperature for the reply")
	flags.DurationVar(&opts.timeout, "timeout", 3*time.Minute, "overall deadline for the turn")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "show service logs")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func printStage(out io.Writer, e turn.Event) {
	stage := color.New(color.FgCyan, color.Bold).SprintFunc()
	switch e.Stage {
	case turn.StageAnalysis:
		fmt.Fprintf(out, "%s sentiment=%s (%.2f) emotion=%s tone=%s\n",
			stage("[analysis]"), e.Sentiment.Label, e.Sentiment.Score, e.Emotion.Label, e.Tone)
	case turn.StageIntent:
		fmt.Fprintf(out, "%s %s\n", stage("[intent]"), e.Intent)
	}
}

func printTurn(out io.Writer, t chat.Turn, backends []string) {
	heading := color.New(color.FgGreen, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintln(out)
	fmt.Fprintln(out, heading("You:"), t.UserText)
	fmt.Fprintf(out, "%s %s (score %.2f)\n", heading("Sentiment:"), t.Sentiment.Label, t.Sentiment.Score)
	fmt.Fprintln(out, heading("Emotion:"), t.Emotion)
	fmt.Fprintln(out, heading("Intent:"), t.Intent)
	fmt.Fprintln(out, heading("Reply:"))
	fmt.Fprintln(out, t.BotReply)
	fmt.Fprintln(out, dim(fmt.Sprintf("turn %s, backends %v", t.ID, backends)))
}
