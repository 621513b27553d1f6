package aura

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

type clothingFunc func(ctx context.Context, req GarmentRequest) (image.Image, error)

func (f clothingFunc) TryOn(ctx context.Context, req GarmentRequest) (image.Image, error) {
	return f(ctx, req)
}

func TestGarment_ParseCategory(t *testing.T) {
	for _, s := range []string{"upper_body", "lower_body", "dresses"} {
		c, err := ParseGarmentCategory(s)
		assert.NoError(t, err)
		assert.Equal(t, GarmentCategory(s), c)
	}
	_, err := ParseGarmentCategory("hats")
	assert.Error(t, err)
}

func TestGarment_TryOn(t *testing.T) {
	assert := assert.New(t)

	user := newFrame(40, 30, skinTone)
	garment := newFrame(10, 10, lipTone)

	var got GarmentRequest
	svc := clothingFunc(func(_ context.Context, req GarmentRequest) (image.Image, error) {
		got = req
		return newFrame(40, 30, irisTone), nil
	})

	res := TryOnGarment(context.Background(), svc, user, garment, Dresses, "gown")
	assert.False(res.Fallback)
	assert.Equal(irisTone, res.Image.NRGBAAt(5, 5))
	assert.Equal(Dresses, got.Category)
	assert.Equal("gown", got.GarmentType)
	assert.Equal([]byte{0xff, 0xd8}, got.UserImage[:2])
	assert.NotEmpty(got.GarmentImage)
}

func TestGarment_Fallback(t *testing.T) {
	assert := assert.New(t)

	user := newFrame(40, 30, skinTone)
	svc := clothingFunc(func(context.Context, GarmentRequest) (image.Image, error) {
		return nil, errors.New("service responded with status 500")
	})

	res := TryOnGarment(context.Background(), svc, user, user, UpperBody, "jacket")
	assert.True(res.Fallback)
	assert.Contains(res.Notice, "500")
	assert.Equal(user.Pix, res.Image.Pix)
}
