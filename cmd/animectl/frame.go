package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	anime "github.com/rogtools/go-anime"
)

var previewCmd = &cobra.Command{
	Use:   "preview IMAGE",
	Short: "Render an image as the matrix would show it and save it as PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := modelFlag(cmd)
		if err != nil {
			return err
		}
		fb, err := loadFrame(cmd, args[0], v)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		zoom, _ := cmd.Flags().GetInt("zoom")
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := png.Encode(f, anime.Preview(fb, zoom)); err != nil {
			return fmt.Errorf("encode preview: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d LEDs lit\n", out, lit(fb), v.LiveLEDs())
		return nil
	},
}

var writeCmd = &cobra.Command{
	Use:   "write IMAGE",
	Short: "Show an image on the matrix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := modelFlag(cmd)
		if err != nil {
			return err
		}
		s, err := openTarget(cmd, v)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Initialise(); err != nil {
			return err
		}

		if fit, _ := cmd.Flags().GetBool("fit"); fit {
			img, err := imaging.Open(args[0], imaging.AutoOrientation(true))
			if err != nil {
				return err
			}
			d := anime.NewDrawer(s, anime.DefaultPlacement())
			g := gift.New(gift.ResizeToFit(d.Bounds().Dx(), d.Bounds().Dy(), gift.LinearResampling))
			dst := image.NewNRGBA(g.Bounds(img.Bounds()))
			g.Draw(dst, img)
			return d.Draw(dst.Bounds(), dst, image.Point{})
		}

		fb, err := loadFrame(cmd, args[0], v)
		if err != nil {
			return err
		}
		return s.WriteFrame(fb)
	},
}

var textCmd = &cobra.Command{
	Use:   "text TEXT",
	Short: "Render text on the matrix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := modelFlag(cmd)
		if err != nil {
			return err
		}
		size, _ := cmd.Flags().GetFloat64("size")
		fb, err := anime.RenderText(args[0], size, placementFlags(cmd), v)
		if err != nil {
			return err
		}
		s, err := openTarget(cmd, v)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Initialise(); err != nil {
			return err
		}
		return s.WriteFrame(fb)
	},
}

func init() {
	for _, c := range []*cobra.Command{previewCmd, writeCmd, textCmd} {
		addPlacementFlags(c.Flags())
	}
	previewCmd.Flags().StringP("output", "o", "preview.png", "Output PNG file")
	previewCmd.Flags().Int("zoom", 8, "Upscale factor")
	previewCmd.Flags().Bool("asus", false, "Image is drawn on the slanted ASUS template")
	writeCmd.Flags().Bool("asus", false, "Image is drawn on the slanted ASUS template")
	writeCmd.Flags().Bool("fit", false, "Resize the image to the display and draw it through the display driver")
	textCmd.Flags().Float64("size", 0, "Font size in pixels, 0 for the default")
	addTargetFlags(writeCmd.Flags())
	addTargetFlags(textCmd.Flags())
}

func addPlacementFlags(f *pflag.FlagSet) {
	f.Float64("scale", 1, "Image scale")
	f.Float64("angle", 0, "Rotation in radians")
	f.Float64("x", 0, "Horizontal offset in LEDs")
	f.Float64("y", 0, "Vertical offset in LEDs")
	f.Float64("brightness", 1, "Brightness from 0 to 1")
}

func placementFlags(cmd *cobra.Command) anime.Placement {
	f := cmd.Flags()
	scale, _ := f.GetFloat64("scale")
	angle, _ := f.GetFloat64("angle")
	x, _ := f.GetFloat64("x")
	y, _ := f.GetFloat64("y")
	b, _ := f.GetFloat64("brightness")
	return anime.Placement{
		Scale:       anime.Vec2{X: scale, Y: scale},
		Angle:       angle,
		Translation: anime.Vec2{X: x, Y: y},
		Brightness:  b,
	}
}

func loadFrame(cmd *cobra.Command, path string, v anime.Variant) (anime.FrameBuffer, error) {
	if asus, _ := cmd.Flags().GetBool("asus"); asus {
		b, _ := cmd.Flags().GetFloat64("brightness")
		return anime.DiagonalFromFile(path, b, v)
	}
	return anime.ImageFromFile(path, placementFlags(cmd), v)
}

func lit(fb anime.FrameBuffer) int {
	n := 0
	for i, slot := range anime.Positions(fb.Variant()) {
		if slot != nil && fb.Slot(i) > 0 {
			n++
		}
	}
	return n
}
