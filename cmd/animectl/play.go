package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	log "github.com/s00500/env_logger"
	"github.com/spf13/cobra"

	anime "github.com/rogtools/go-anime"
	"github.com/rogtools/go-anime/internal/config"
)

var playCmd = &cobra.Command{
	Use:   "play [TRIGGER]",
	Short: "Play a configured sequence until it ends or is interrupted",
	Long:  `play loads the configuration, builds the sequence for TRIGGER (system, boot, wake, sleep or shutdown, default system) and runs it on the target. The system sequence loops until interrupted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trigger := anime.TriggerSystem
		if len(args) == 1 {
			t, err := parseTrigger(args[0])
			if err != nil {
				return err
			}
			trigger = t
		}

		path, _ := cmd.Flags().GetString("config")
		conf, err := config.Load(path)
		if err != nil {
			return err
		}
		v := conf.Variant()
		if m, _ := cmd.Flags().GetString("model"); m != "" || v == anime.Unsupported {
			if v, err = modelFlag(cmd); err != nil {
				return err
			}
		}

		settings := conf.Settings(filepath.Dir(path))
		seq, err := anime.BuildSequence(trigger.String(), settings.Actions[trigger], v, settings.Dir)
		if err != nil {
			return err
		}
		if len(seq.Actions) == 0 {
			return fmt.Errorf("no %s sequence configured in %s", trigger, path)
		}

		s, err := openTarget(cmd, v)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Initialise(); err != nil {
			return err
		}
		if err := s.SetBrightnessScale(settings.BrightnessScale); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus := anime.NewBus()
		done := make(chan anime.SequenceStopped, 1)
		defer bus.Subscribe(func(e anime.SequenceStopped) {
			select {
			case done <- e:
			default:
			}
		})()

		seqr := anime.NewSequencer(s, bus)
		if err := seqr.Start(seq, trigger != anime.TriggerSystem); err != nil {
			return err
		}
		select {
		case e := <-done:
			if e.Aborted {
				return anime.ErrDeviceAbsent
			}
			log.Infof("Sequence %s finished", e.Name)
			return nil
		case <-ctx.Done():
			return seqr.Stop()
		}
	},
}

func init() {
	playCmd.Flags().StringP("config", "c", config.DefaultPath, "Configuration file (.yaml or .toml)")
	addTargetFlags(playCmd.Flags())
}

func parseTrigger(s string) (anime.Trigger, error) {
	for _, t := range anime.Triggers {
		if strings.EqualFold(t.String(), s) {
			return t, nil
		}
	}
	return anime.TriggerSystem, fmt.Errorf("unknown trigger %q", s)
}
