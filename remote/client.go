// Package remote talks to the landmark detection and virtual clothing services.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Juan-Cwq/aura"
)

// DefaultTimeout bounds every request issued by a Client created with NewClient.
const DefaultTimeout = 10 * time.Second

// Client is a thin HTTP client of the landmark service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a client for the service listening at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
}

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("service responded with status %d", e.Code)
	}
	return fmt.Sprintf("service responded with status %d: %s", e.Code, e.Body)
}

// Health probes the health endpoint of the service.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	res, err := c.do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)
	return nil
}

type detectRequest struct {
	Image string `json:"image"`
}

type faceBox struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}

type detectedFace struct {
	Face      faceBox              `json:"face"`
	FaceIndex int                  `json:"face_index"`
	Landmarks aura.FacialLandmarks `json:"landmarks"`
}

type detectResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		FacesDetected   int            `json:"faces_detected"`
		Faces           []detectedFace `json:"faces"`
		ImageDimensions struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"image_dimensions"`
	} `json:"data"`
}

// DetectLandmarks sends the JPEG encoded frame and returns the faces found in it,
// expressed in the coordinates of the submitted image.
func (c *Client) DetectLandmarks(ctx context.Context, jpeg []byte) ([]aura.LandmarkFace, error) {
	payload, err := json.Marshal(detectRequest{Image: base64.StdEncoding.EncodeToString(jpeg)})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/detect-landmarks", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var result detectResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("landmark detection failed: %s", result.Message)
	}

	faces := make([]aura.LandmarkFace, 0, len(result.Data.Faces))
	for _, f := range result.Data.Faces {
		faces = append(faces, aura.LandmarkFace{
			Index: f.FaceIndex,
			Box: aura.Rect{
				X:      int(f.Face.X),
				Y:      int(f.Face.Y),
				Width:  int(f.Face.Width),
				Height: int(f.Face.Height),
			},
			Confidence: f.Face.Confidence,
			Landmarks:  f.Landmarks,
		})
	}
	return faces, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer res.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return res, nil
}
