package main

import (
	"context"
	"fmt"

	"github.com/Juan-Cwq/aura"
	"github.com/Juan-Cwq/aura/catalog"
	"github.com/Juan-Cwq/aura/utils"
	"github.com/spf13/cobra"
)

// styleOptions holds the flags shared by the commands rendering a try-on style.
type styleOptions struct {
	Kind        string
	Color       string
	Intensity   int
	Eyewear     string
	CatalogPath string
}

func (o *styleOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Kind, "style", "s", "lipstick", "Try-on style: lipstick, blush, eyeshadow, glasses or draw")
	cmd.Flags().StringVarP(&o.Color, "color", "c", aura.DefaultColor, "Makeup color as a hex string")
	cmd.Flags().IntVar(&o.Intensity, "intensity", 70, "Makeup intensity, from 0 to 100")
	cmd.Flags().StringVar(&o.Eyewear, "eyewear", "classic-black", "Catalog id of the eyewear used by the glasses style")
	cmd.Flags().StringVar(&o.CatalogPath, "catalog", "", "Path to a JSON product catalog (default: built-in catalog)")
}

// resolve applies the AURA_* environment overrides to the flags left unset.
func (o *styleOptions) resolve(cmd *cobra.Command) {
	o.Kind = flagOrEnv(cmd, "style", "AURA_STYLE")
	o.Color = flagOrEnv(cmd, "color", "AURA_COLOR")
	o.Intensity = flagOrEnvInt(cmd, "intensity", "AURA_INTENSITY")
	o.Eyewear = flagOrEnv(cmd, "eyewear", "AURA_EYEWEAR")
	o.CatalogPath = flagOrEnv(cmd, "catalog", "AURA_CATALOG")
}

func parseKind(s string) (aura.OverlayKind, error) {
	kind := aura.OverlayKind(s)
	switch kind {
	case aura.Lipstick, aura.Blush, aura.Eyeshadow, aura.Eyewear, aura.FreeDraw:
		return kind, nil
	case "none":
		return aura.NoOverlay, nil
	}
	return "", fmt.Errorf("unknown style %q", s)
}

func (o *styleOptions) loadCatalog() (*catalog.Catalog, error) {
	if o.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(o.CatalogPath)
}

// build turns the options into a Style. The glasses style loads its accessory
// image through the cache; without it the eyewear overlay is skipped.
func (o *styleOptions) build(ctx context.Context, cache *catalog.Cache) (aura.Style, error) {
	kind, err := parseKind(o.Kind)
	if err != nil {
		return aura.Style{}, err
	}
	if _, err := utils.ParseHexColor(o.Color); err != nil {
		return aura.Style{}, err
	}
	style := aura.Style{
		Kind:      kind,
		Color:     o.Color,
		Intensity: utils.Clamp(o.Intensity, 0, 100),
		Scale:     1,
	}
	if kind != aura.Eyewear {
		return style, nil
	}

	cat, err := o.loadCatalog()
	if err != nil {
		return aura.Style{}, err
	}
	item, ok := cat.FindEyewear(o.Eyewear)
	if !ok {
		return aura.Style{}, fmt.Errorf("eyewear %q not found in the catalog", o.Eyewear)
	}
	style.Scale = item.Scale

	if img, ok := cache.Get(item.ID); ok {
		style.Accessory = img
		return style, nil
	}
	img, err := cache.Load(ctx, catalog.Asset{ID: item.ID, Source: item.ImageURL})
	if err != nil {
		logger.Warn("eyewear image unavailable", "id", item.ID, "error", err)
		return style, nil
	}
	style.Accessory = img
	return style, nil
}
