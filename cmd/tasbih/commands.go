package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ahmed11551/tasbix09-sub001/goals"
	"github.com/ahmed11551/tasbix09-sub001/session"
	"github.com/ahmed11551/tasbix09-sub001/support"
	"github.com/ahmed11551/tasbix09-sub001/tally"
	"github.com/ahmed11551/tasbix09-sub001/tasbih"
)

type options struct {
	user string
	item string
	goal string
	log  string
	zone string
	cfg  support.Config
}

func defaultUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}

	return "local"
}

func rootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "tasbih",
		Short:         "Count dhikr from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := support.LoadConfig(os.Environ())
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return count(cmd, opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.user, "user", "u", defaultUser(), "user the tallies belong to")
	root.PersistentFlags().StringVarP(&opts.item, "item", "i", items[0].ID, "dhikr to count")
	root.Flags().StringVar(&opts.goal, "goal", "", "goal key to advance with the count")
	root.Flags().StringVar(&opts.log, "log", "", "write logs to this file")

	root.AddCommand(dailyCommand(opts))

	return root
}

func count(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	logger := zerolog.Nop()
	if opts.log != "" {
		file, err := os.OpenFile(opts.log, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer file.Close()
		logger = support.LoggerTo(file, opts.cfg)
	}

	store, cleanup, err := support.OpenStore(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	item, index := itemOf(opts.item)
	sessionOptions := []session.Option{session.WithLogger(logger)}

	if speaker, ok := findSpeaker(); ok {
		sessionOptions = append(sessionOptions, session.WithCounterOptions(tasbih.WithSpeaker(speaker)))
	}

	if opts.goal != "" {
		service := goals.NewService(store, goals.SystemDependencies())
		sessionOptions = append(sessionOptions, session.WithGoal(service, goals.StreamID(opts.user, opts.goal)))
	}

	tallies := tally.NewService(store, tally.SystemDependencies())
	s, err := session.Open(ctx, tallies, tally.StreamID(opts.user, item.ID), item, sessionOptions...)
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = tea.NewProgram(newModel(s, opts.user, index), tea.WithContext(ctx)).Run()
	return err
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dayStyle    = lipgloss.NewStyle().Width(12)
	numberStyle = lipgloss.NewStyle().Width(10).Align(lipgloss.Right)
)

func dailyCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show per-day totals for a dhikr",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			zone := opts.zone
			if zone == "" {
				zone = opts.cfg.Timezone
			}
			loc, err := time.LoadLocation(zone)
			if err != nil {
				return err
			}

			store, cleanup, err := support.OpenStore(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			days, err := tally.Daily(ctx, store.Load, tally.StreamID(opts.user, opts.item), loc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render(row("date", "delta", "taps", "complete")))
			for _, day := range days {
				fmt.Fprintln(out, row(day.Date, fmt.Sprint(day.Delta), fmt.Sprint(day.Taps), fmt.Sprint(day.Completions)))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&opts.zone, "tz", "", "time zone for day boundaries")

	return cmd
}

func row(date string, columns ...string) string {
	cells := []string{dayStyle.Render(date)}
	for _, column := range columns {
		cells = append(cells, numberStyle.Render(column))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}
