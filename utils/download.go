package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// maxImageSize caps the amount of data accepted for a single remote image.
const maxImageSize = 32 << 20

// FetchImage downloads the image from the internet and returns its raw content.
// The content type of the response body is sniffed and must be an image.
func FetchImage(ctx context.Context, client *http.Client, uri string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request for %s: %w", uri, err)
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to download image file from URI %s: %w", uri, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("unable to download image file from URI %s: status %v", uri, res.Status)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("unable to read response body: %w", err)
	}
	if !IsImage(data) {
		return nil, fmt.Errorf("the downloaded file is not a valid image type")
	}

	return data, nil
}

// ReadImageFile reads a local image file, checking its content type first.
func ReadImageFile(path string) ([]byte, error) {
	ctype, err := DetectContentType(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(ctype, "image/") {
		return nil, fmt.Errorf("%s is not an image file (%s)", path, ctype)
	}
	return os.ReadFile(path)
}

// IsValidUrl tests a string to determine if it is a well-structured url or not.
func IsValidUrl(uri string) bool {
	_, err := url.ParseRequestURI(uri)
	if err != nil {
		return false
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// IsImage sniffs the first bytes of data and reports whether it looks like an image.
func IsImage(data []byte) bool {
	if len(data) > 512 {
		data = data[:512]
	}
	return strings.HasPrefix(http.DetectContentType(data), "image/")
}

// DetectContentType detects the file type by reading MIME type information of the file content.
func DetectContentType(fname string) (string, error) {
	file, err := os.Open(fname)
	if err != nil {
		return "", err
	}
	defer file.Close()

	// Only the first 512 bytes are used to sniff the content type.
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	// Always returns a valid content-type and "application/octet-stream" if no others seemed to match.
	return http.DetectContentType(buffer[:n]), nil
}
