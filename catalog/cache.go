package catalog

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/Juan-Cwq/aura"
	"github.com/Juan-Cwq/aura/utils"
)

// Asset is an image to preload. Source is either a URL or a local path.
type Asset struct {
	ID     string
	Source string
}

// Cache keeps the decoded product images by id.
type Cache struct {
	HTTP    *http.Client
	Logger  *slog.Logger
	Workers int

	mu     sync.RWMutex
	images map[string]*image.NRGBA
}

// NewCache creates an empty cache.
func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		HTTP:   &http.Client{Timeout: 30 * time.Second},
		Logger: logger,
		images: make(map[string]*image.NRGBA),
	}
}

// Get returns the image cached for id.
func (c *Cache) Get(id string) (*image.NRGBA, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[id]
	return img, ok
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Load fetches and decodes a single asset, storing it on success.
func (c *Cache) Load(ctx context.Context, a Asset) (*image.NRGBA, error) {
	var (
		data []byte
		err  error
	)
	if utils.IsValidUrl(a.Source) {
		data, err = utils.FetchImage(ctx, c.HTTP, a.Source)
	} else {
		data, err = utils.ReadImageFile(a.Source)
	}
	if err != nil {
		return nil, fmt.Errorf("could not load %s: %w", a.ID, err)
	}

	img, err := aura.DecodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not load %s: %w", a.ID, err)
	}

	c.mu.Lock()
	c.images[a.ID] = img
	c.mu.Unlock()
	return img, nil
}

// Preload loads every asset concurrently and returns the number of images cached.
// Failing assets are logged and skipped; they stay unavailable for rendering.
func (c *Cache) Preload(ctx context.Context, assets []Asset) int {
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan Asset)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		loaded int
	)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for a := range jobs {
				if _, err := c.Load(ctx, a); err != nil {
					c.Logger.Warn("asset skipped", "id", a.ID, "source", a.Source, "error", err)
					continue
				}
				mu.Lock()
				loaded++
				mu.Unlock()
			}
		}()
	}

	for _, a := range assets {
		select {
		case jobs <- a:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	c.Logger.Info("assets preloaded", "loaded", loaded, "total", len(assets))
	return loaded
}
