package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/conntest"

	anime "github.com/rogtools/go-anime"
	_ "github.com/rogtools/go-anime/devices"
)

var rootCmd = &cobra.Command{
	Use:           "animectl",
	Short:         "Render, preview and control the AniMe matrix",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	rootCmd.AddCommand(previewCmd, writeCmd, textCmd, playCmd, stateCmd, displayCmd, brightnessCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("model", "m", "", "Matrix model (GA401, GA402, GU604), detected from the board name if empty")
}

// modelFlag resolves the --model flag, falling back to board detection.
func modelFlag(cmd *cobra.Command) (anime.Variant, error) {
	model, _ := cmd.Flags().GetString("model")
	if model != "" {
		return anime.ParseVariant(model)
	}
	return anime.DetectVariant()
}

// addTargetFlags registers where frames are sent.
func addTargetFlags(f *pflag.FlagSet) {
	f.String("simulator", "", "Send to an anime-sim instance at this address")
	f.String("dump", "", "Append the raw reports to this file instead of a device")
}

// openTarget opens a session on the device, the simulator or a dump file.
func openTarget(cmd *cobra.Command, v anime.Variant) (*anime.Session, error) {
	sim, _ := cmd.Flags().GetString("simulator")
	dump, _ := cmd.Flags().GetString("dump")
	switch {
	case dump != "":
		f, err := os.OpenFile(dump, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		return anime.NewSession(anime.NewConnTransport(&dumpFile{RecordRaw: conntest.RecordRaw{W: f}, f: f}), v), nil
	case sim != "":
		return anime.OpenTCP(sim, v)
	}
	s, err := anime.Open(v)
	if err != nil {
		return nil, fmt.Errorf("open AniMe %s: %w", v, err)
	}
	return s, nil
}

type dumpFile struct {
	conntest.RecordRaw
	f *os.File
}

func (d *dumpFile) Close() error {
	return d.f.Close()
}
