package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	log "github.com/s00500/env_logger"
	"github.com/spf13/cobra"

	anime "github.com/rogtools/go-anime"
)

func main() {
	var (
		addr  string
		model string
		quiet bool
	)
	root := &cobra.Command{
		Use:   "anime-sim",
		Short: "Render AniMe reports received over TCP in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := anime.ParseVariant(model)
			if err != nil {
				return err
			}
			var out io.Writer = colorable.NewColorableStdout()
			if quiet {
				out = io.Discard
			}
			return listen(addr, v, out)
		},
		SilenceUsage: true,
	}
	root.Flags().StringVarP(&addr, "listen", "l", anime.DefaultSimulatorAddr, "Address to listen on")
	root.Flags().StringVarP(&model, "model", "m", "GA402", "Matrix model to simulate")
	root.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only log reports, do not draw")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func listen(addr string, v anime.Variant, out io.Writer) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	log.Infof("Simulating AniMe %s on %s", v, addr)

	for {
		c, err := ln.Accept()
		if err != nil {
			return err
		}
		// the hardware has a single owner, so connections are served in turn
		serve(c, v, out)
	}
}

func serve(c net.Conn, v anime.Variant, out io.Writer) {
	defer c.Close()
	log.Infof("Client %s connected", c.RemoteAddr())
	rx := anime.NewReceiver(v)
	var buf bytes.Buffer
	for {
		pkt, err := anime.ReadReport(c)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warnf("Client %s: %v", c.RemoteAddr(), err)
			}
			log.Infof("Client %s gone after %d frames", c.RemoteAddr(), rx.Flushes)
			return
		}
		kind, err := rx.Handle(pkt)
		if err != nil {
			log.Warnln(err)
			continue
		}
		switch kind {
		case anime.ReportFlush:
			render(&buf, rx)
			if _, err := out.Write(buf.Bytes()); err != nil {
				log.Warnf("Render: %v", err)
			}
		case anime.ReportPane:
		default:
			log.Debugf("Report %d: display=%v brightness=%s powersave=%v builtins=%+v",
				kind, rx.DisplayEnabled, rx.Brightness, rx.PowersaveAnims, rx.Builtins)
		}
	}
}

// render draws the last frame as coloured blocks, homing the cursor first so
// frames overwrite each other.
func render(buf *bytes.Buffer, rx *anime.Receiver) {
	buf.Reset()
	buf.WriteString("\033[H")
	img := anime.Preview(rx.Frame, 1)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			buf.WriteString(ansi256.Default.Block(pixel(img, x, y, rx.DisplayEnabled)))
		}
		buf.WriteString("\033[0m\n")
	}
	fmt.Fprintf(buf, "\033[0mframe %d  display %v  brightness %s\033[K\n", rx.Flushes, rx.DisplayEnabled, rx.Brightness)
}

func pixel(img image.Image, x, y int, on bool) color.NRGBA {
	if !on {
		return color.NRGBA{A: 255}
	}
	g := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
	return color.NRGBA{g, g, g, 255}
}
