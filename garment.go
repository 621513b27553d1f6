package aura

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
)

// GarmentCategory is the body region a garment covers.
type GarmentCategory string

// The garment categories understood by the virtual try-on service.
const (
	UpperBody GarmentCategory = "upper_body"
	LowerBody GarmentCategory = "lower_body"
	Dresses   GarmentCategory = "dresses"
)

// ParseGarmentCategory validates a category name.
func ParseGarmentCategory(s string) (GarmentCategory, error) {
	switch c := GarmentCategory(s); c {
	case UpperBody, LowerBody, Dresses:
		return c, nil
	}
	return "", fmt.Errorf("unknown garment category %q", s)
}

// GarmentRequest is the payload sent to the virtual try-on service.
type GarmentRequest struct {
	UserImage    []byte
	GarmentImage []byte
	Category     GarmentCategory
	GarmentType  string
}

// ClothingService renders a garment onto a photo of the user.
type ClothingService interface {
	TryOn(ctx context.Context, req GarmentRequest) (image.Image, error)
}

// GarmentResult is the image shown for a garment try-on.
type GarmentResult struct {
	Image *image.NRGBA
	// Fallback is true when Image is the unmodified user photo.
	Fallback bool
	Notice   string
}

// ErrNoClothingService is reported when no virtual try-on backend is configured.
var ErrNoClothingService = errors.New("virtual try-on service not configured")

// TryOnGarment asks the service to dress the user with the garment. Any failure
// falls back to the user photo, with a notice explaining why.
func TryOnGarment(ctx context.Context, svc ClothingService, user, garment image.Image, category GarmentCategory, garmentType string) GarmentResult {
	fallback := func(err error) GarmentResult {
		return GarmentResult{
			Image:    ToNRGBA(user),
			Fallback: true,
			Notice:   fmt.Sprintf("showing the original photo: %v", err),
		}
	}
	if svc == nil {
		return fallback(ErrNoClothingService)
	}

	userData, err := EncodeJPEG(user)
	if err != nil {
		return fallback(err)
	}
	var garmentData bytes.Buffer
	if err := png.Encode(&garmentData, garment); err != nil {
		return fallback(fmt.Errorf("could not encode the garment: %w", err))
	}

	res, err := svc.TryOn(ctx, GarmentRequest{
		UserImage:    userData,
		GarmentImage: garmentData.Bytes(),
		Category:     category,
		GarmentType:  garmentType,
	})
	if err != nil {
		return fallback(err)
	}
	return GarmentResult{Image: ToNRGBA(res)}
}
