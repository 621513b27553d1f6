package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Juan-Cwq/aura"
	"github.com/Juan-Cwq/aura/utils"
	"github.com/spf13/cobra"
)

type detectOptions struct {
	Input   string
	JSON    bool
	Debug   string
	Cascade string
}

var detectOpts detectOptions

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the face and its features in a still image",
	RunE: func(cmd *cobra.Command, args []string) error {
		detectOpts.Cascade = flagOrEnv(cmd, "cascade", "AURA_CASCADE")
		return runDetect(detectOpts)
	},
}

func init() {
	detectCmd.Flags().StringVarP(&detectOpts.Input, "input", "i", "", "Source image")
	detectCmd.Flags().BoolVar(&detectOpts.JSON, "json", false, "Print the detected features as JSON")
	detectCmd.Flags().StringVar(&detectOpts.Debug, "debug", "", "Write a copy of the image with the feature markers")
	detectCmd.Flags().StringVar(&detectOpts.Cascade, "cascade", "", "Pigo cascade file used to locate the face instead of the skin heuristics")

	detectCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(detectCmd)
}

// newDetector returns the heuristic detector, with the pigo face locator when a cascade is given.
func newDetector(cascade string) (*aura.FeatureDetector, error) {
	det := aura.NewFeatureDetector(aura.DefaultDetectorOptions())
	if cascade == "" {
		return det, nil
	}
	data, err := os.ReadFile(cascade)
	if err != nil {
		return nil, fmt.Errorf("could not read the cascade file: %w", err)
	}
	locator, err := aura.NewPigoLocator(data)
	if err != nil {
		return nil, err
	}
	det.Locator = locator
	return det, nil
}

func runDetect(opts detectOptions) error {
	det, err := newDetector(opts.Cascade)
	if err != nil {
		return err
	}

	img, err := aura.DecodeFile(opts.Input)
	if err != nil {
		return err
	}

	now := time.Now()
	features := det.Detect(img)
	elapsed := time.Since(now)

	logger.Debug("detection finished", "features", len(features), "elapsed", elapsed)

	if opts.Debug != "" {
		out, err := os.Create(opts.Debug)
		if err != nil {
			return err
		}
		defer out.Close()

		if err := aura.EncodeFormat(out, aura.DrawFeatures(img, features), filepath.Ext(opts.Debug)); err != nil {
			return err
		}
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(features)
	}

	if len(features) == 0 {
		fmt.Fprintln(os.Stderr, utils.StatusLine("no face found in "+opts.Input, "✘", utils.NoticeMessage))
		return nil
	}
	for _, f := range features {
		fmt.Fprintf(os.Stdout, "%-8s x=%-4d y=%-4d w=%-4d h=%-4d %s\n",
			f.Kind, f.Box.X, f.Box.Y, f.Box.Width, f.Box.Height,
			utils.DecorateText(fmt.Sprintf("%.2f", f.Confidence), utils.SuccessMessage),
		)
	}
	fmt.Fprintf(os.Stderr, "\nDetection time: %s\n", utils.DecorateText(utils.FormatTime(elapsed), utils.SuccessMessage))
	return nil
}
