package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Juan-Cwq/aura"
	"github.com/Juan-Cwq/aura/catalog"
	"github.com/Juan-Cwq/aura/remote"
	"github.com/Juan-Cwq/aura/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type applyOptions struct {
	Source       string
	Destination  string
	StrokesPath  string
	Workers      int
	Mirror       bool
	Debug        bool
	Cascade      string
	LandmarksURL string
	Style        styleOptions
}

var applyOpts applyOptions

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a try-on style to an image or to every image of a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyOpts.Style.resolve(cmd)
		applyOpts.Workers = flagOrEnvInt(cmd, "workers", "AURA_WORKERS")
		applyOpts.Cascade = flagOrEnv(cmd, "cascade", "AURA_CASCADE")
		applyOpts.LandmarksURL = flagOrEnv(cmd, "landmarks-url", "AURA_LANDMARKS_URL")
		return runApply(cmd.Context(), applyOpts)
	},
}

func init() {
	applyCmd.Flags().StringVarP(&applyOpts.Source, "input", "i", pipeName, "Source image or directory")
	applyCmd.Flags().StringVarP(&applyOpts.Destination, "output", "o", pipeName, "Destination image or directory")
	applyCmd.Flags().StringVar(&applyOpts.StrokesPath, "strokes", "", "JSON file with free-hand strokes drawn over the result")
	applyCmd.Flags().IntVarP(&applyOpts.Workers, "workers", "w", runtime.NumCPU(), "Number of files processed concurrently")
	applyCmd.Flags().BoolVar(&applyOpts.Mirror, "mirror", false, "Mirror the image horizontally, like the live preview")
	applyCmd.Flags().BoolVar(&applyOpts.Debug, "debug", false, "Draw the detection markers over the result")
	applyCmd.Flags().StringVar(&applyOpts.Cascade, "cascade", "", "Pigo cascade file used to locate the face")
	applyCmd.Flags().StringVar(&applyOpts.LandmarksURL, "landmarks-url", "", "Base URL of the landmark service (default: heuristic detection)")
	applyOpts.Style.register(applyCmd)

	rootCmd.AddCommand(applyCmd)
}

func loadStrokes(path string) ([]aura.Stroke, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var strokes []aura.Stroke
	if err := json.Unmarshal(data, &strokes); err != nil {
		return nil, fmt.Errorf("invalid strokes file %s: %w", path, err)
	}
	return strokes, nil
}

func newProcessor(ctx context.Context, opts applyOptions) (*aura.Processor, error) {
	style, err := opts.Style.build(ctx, catalog.NewCache(logger))
	if err != nil {
		return nil, err
	}
	strokes, err := loadStrokes(opts.StrokesPath)
	if err != nil {
		return nil, err
	}
	det, err := newDetector(opts.Cascade)
	if err != nil {
		return nil, err
	}

	proc := aura.NewProcessor(style)
	proc.Detector = det
	proc.Strokes = strokes
	proc.Mirror = opts.Mirror
	proc.Debug = opts.Debug

	if opts.LandmarksURL != "" {
		adapter := remote.NewAdapter(remote.NewClient(opts.LandmarksURL), logger)
		if err := adapter.Connect(ctx); err != nil {
			logger.Warn("landmark service unavailable, using heuristic detection", "url", opts.LandmarksURL, "error", err)
		} else {
			proc.Landmarks = adapter
		}
	}
	return proc, nil
}

func runApply(ctx context.Context, opts applyOptions) error {
	proc, err := newProcessor(ctx, opts)
	if err != nil {
		return err
	}

	op := &aura.Ops{
		Src:      opts.Source,
		Dst:      opts.Destination,
		PipeName: pipeName,
		Workers:  opts.Workers,
	}
	// The remote adapter serves a single request at a time.
	if proc.Landmarks != nil {
		op.Workers = 1
	}

	now := time.Now()
	if opts.Source != pipeName {
		fi, err := os.Stat(opts.Source)
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if err := applyDir(ctx, proc, op); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
			return nil
		}
	}

	if err := applyFile(ctx, proc, op); err != nil {
		return err
	}
	if opts.Destination != pipeName {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	}
	return nil
}

func applyFile(ctx context.Context, proc *aura.Processor, op *aura.Ops) error {
	showSpinner := term.IsTerminal(int(os.Stderr.Fd()))

	spinner := utils.NewSpinner(utils.StatusLine("is applying the style...", "", utils.DefaultMessage), time.Millisecond*80, true)
	spinner.SetWriter(os.Stderr)
	if showSpinner {
		spinner.Start()
	}
	err := proc.ExecuteFile(ctx, op)

	if err != nil {
		spinner.StopMsg = utils.StatusLine("is applying the style...", "✘", utils.ErrorMessage) + "\n"
	} else {
		spinner.StopMsg = utils.StatusLine("is applying the style...", "✔", utils.SuccessMessage) + "\n"
	}
	spinner.Stop()

	switch {
	case errors.Is(err, aura.ErrNoFace):
		return fmt.Errorf("%s: %w", op.Src, err)
	case err != nil:
		return fmt.Errorf("%s", utils.DecorateText(fmt.Sprintf("failed processing %s: %v", op.Src, err), utils.ErrorMessage))
	}
	if op.Dst != pipeName {
		fmt.Fprintf(os.Stderr, "The result has been saved as: %s\n", utils.DecorateText(filepath.Base(op.Dst), utils.SuccessMessage))
	}
	return nil
}

func applyDir(ctx context.Context, proc *aura.Processor, op *aura.Ops) error {
	if op.Dst == pipeName {
		return errors.New("a directory source needs a destination directory")
	}
	total, err := aura.CountImages(op.Src)
	if err != nil {
		return err
	}

	results, err := proc.ExecuteDir(ctx, op)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Applying style"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	var failed []aura.Result
	for res := range results {
		if res.Path == "" {
			// The directory walk itself failed.
			failed = append(failed, res)
			continue
		}
		if res.Err != nil {
			failed = append(failed, res)
		}
		bar.Add(1)
	}
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	for _, res := range failed {
		path := res.Path
		if path == "" {
			path = op.Src
		}
		fmt.Fprintln(os.Stderr, utils.DecorateText(fmt.Sprintf("%s: %v", path, res.Err), utils.ErrorMessage))
	}
	fmt.Fprintln(os.Stderr, utils.StatusLine(
		fmt.Sprintf("processed %d of %d images into %s", total-len(failed), total, op.Dst), "✔", utils.SuccessMessage))

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}
