package remote

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Juan-Cwq/aura"
)

// ClothingTimeout bounds a virtual try-on request, which is considerably slower than detection.
const ClothingTimeout = 2 * time.Minute

// ClothingClient calls the virtual clothing try-on service.
type ClothingClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClothingClient returns a client for the service listening at baseURL.
func NewClothingClient(baseURL string) *ClothingClient {
	return &ClothingClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: ClothingTimeout},
	}
}

// TryOn uploads the user and garment images and decodes the rendered result.
func (c *ClothingClient) TryOn(ctx context.Context, r aura.GarmentRequest) (image.Image, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	files := []struct {
		field, name string
		data        []byte
	}{
		{"user_image", "user.jpg", r.UserImage},
		{"garment_image", "garment.png", r.GarmentImage},
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(f.data)); err != nil {
			return nil, fmt.Errorf("copy image data: %w", err)
		}
	}

	category := r.Category
	if category == "" {
		category = aura.UpperBody
	}
	if err := writer.WriteField("category", string(category)); err != nil {
		return nil, fmt.Errorf("write field: %w", err)
	}
	if r.GarmentType != "" {
		if err := writer.WriteField("garment_type", r.GarmentType); err != nil {
			return nil, fmt.Errorf("write field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/virtual-clothing", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := (&Client{HTTP: c.HTTP}).do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	img, err := aura.DecodeImage(res.Body)
	if err != nil {
		return nil, fmt.Errorf("virtual try-on result: %w", err)
	}
	return img, nil
}
