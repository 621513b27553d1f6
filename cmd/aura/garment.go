package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Juan-Cwq/aura"
	"github.com/Juan-Cwq/aura/remote"
	"github.com/Juan-Cwq/aura/utils"
	"github.com/spf13/cobra"
)

type garmentOptions struct {
	User        string
	Garment     string
	Destination string
	VtonURL     string
	Category    string
	Type        string
}

var garmentOpts garmentOptions

var garmentCmd = &cobra.Command{
	Use:   "garment",
	Short: "Dress a photo with a garment using the virtual clothing service",
	RunE: func(cmd *cobra.Command, args []string) error {
		garmentOpts.VtonURL = flagOrEnv(cmd, "vton-url", "AURA_VTON_URL")
		return runGarment(cmd.Context(), garmentOpts)
	},
}

func init() {
	garmentCmd.Flags().StringVarP(&garmentOpts.User, "user", "u", "", "Photo of the person")
	garmentCmd.Flags().StringVarP(&garmentOpts.Garment, "garment", "g", "", "Garment image")
	garmentCmd.Flags().StringVarP(&garmentOpts.Destination, "output", "o", "", "Destination image")
	garmentCmd.Flags().StringVar(&garmentOpts.VtonURL, "vton-url", "", "Base URL of the virtual clothing service")
	garmentCmd.Flags().StringVar(&garmentOpts.Category, "category", string(aura.UpperBody), "Garment category: upper_body, lower_body or dresses")
	garmentCmd.Flags().StringVar(&garmentOpts.Type, "type", "jacket", "Garment type sent to the service")

	garmentCmd.MarkFlagRequired("user")
	garmentCmd.MarkFlagRequired("garment")
	garmentCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(garmentCmd)
}

func runGarment(ctx context.Context, opts garmentOptions) error {
	category, err := aura.ParseGarmentCategory(opts.Category)
	if err != nil {
		return err
	}
	user, err := aura.DecodeFile(opts.User)
	if err != nil {
		return err
	}
	garment, err := aura.DecodeFile(opts.Garment)
	if err != nil {
		return err
	}

	var svc aura.ClothingService
	if opts.VtonURL != "" {
		svc = remote.NewClothingClient(opts.VtonURL)
	}

	ctx, cancel := context.WithTimeout(ctx, remote.ClothingTimeout)
	defer cancel()

	spinner := utils.NewSpinner(utils.StatusLine("is dressing the photo...", "", utils.DefaultMessage), time.Millisecond*80, true)
	spinner.SetWriter(os.Stderr)
	spinner.Start()
	res := aura.TryOnGarment(ctx, svc, user, garment, category, opts.Type)
	if res.Fallback {
		spinner.StopMsg = utils.StatusLine("is dressing the photo...", "✘", utils.NoticeMessage) + "\n"
	} else {
		spinner.StopMsg = utils.StatusLine("is dressing the photo...", "✔", utils.SuccessMessage) + "\n"
	}
	spinner.Stop()

	comp := aura.NewCompositor(aura.DefaultCompositorOptions())
	out := comp.Composite(res.Image, aura.Geometry{}, nil, aura.Style{Kind: aura.Garment, Garment: &res})

	f, err := os.Create(opts.Destination)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := aura.EncodeFormat(f, out, filepath.Ext(opts.Destination)); err != nil {
		os.Remove(opts.Destination)
		return err
	}

	if res.Fallback {
		fmt.Fprintln(os.Stderr, utils.DecorateText(res.Notice, utils.NoticeMessage))
	}
	fmt.Fprintf(os.Stderr, "The result has been saved as: %s\n", utils.DecorateText(filepath.Base(opts.Destination), utils.SuccessMessage))
	return nil
}
