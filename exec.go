package aura

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/Juan-Cwq/aura/utils"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// ValidExtensions lists the image file extensions accepted as input.
var ValidExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".webp"}

// Ops describes a batch or single image operation.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
}

// Result holds the outcome of processing a single image.
type Result struct {
	Path string
	Dst  string
	Err  error
}

// ExecuteFile processes a single image. Src and Dst may be the pipe name,
// in which case stdin and stdout are used.
func (p *Processor) ExecuteFile(ctx context.Context, op *Ops) error {
	if op.Dst != op.PipeName {
		ext := strings.ToLower(filepath.Ext(op.Dst))
		if !utils.Contains([]string{".jpg", ".jpeg", ".png", ".bmp"}, ext) {
			return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
		}
	}

	src, dst, err := op.pathToFile(op.Src, op.Dst)
	if err != nil {
		return err
	}
	defer closeFile(src)

	err = p.ProcessContext(ctx, src, dst)
	closeFile(dst)
	if err != nil && op.Dst != op.PipeName {
		// remove the generated image file in case of an error
		os.Remove(op.Dst)
	}
	return err
}

// ExecuteDir processes recursively the image files of the source directory concurrently
// and streams a Result for every file. The channel is closed once all the workers are done.
// A directory walk failure is reported as a final Result with an empty Path.
func (p *Processor) ExecuteDir(ctx context.Context, op *Ops) (<-chan Result, error) {
	if _, err := os.Stat(op.Dst); err != nil {
		if err := os.MkdirAll(op.Dst, 0755); err != nil {
			return nil, fmt.Errorf("unable to create the destination directory: %w", err)
		}
	}

	// Limit the concurrently running workers to maxWorkers.
	workers := op.Workers
	if workers <= 0 || workers > maxWorkers {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	paths, errc := walkDir(ctx, op.Src, ValidExtensions)
	res := make(chan Result)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			p.consumer(ctx, op, res, paths)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(res)
		defer cancel()
		wg.Wait()
		if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
			res <- Result{Err: err}
		}
	}()

	return res, nil
}

// CountImages returns the number of supported image files below dir.
func CountImages(dir string) (int, error) {
	n := 0
	err := filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.Mode().IsRegular() && isValidExtension(filepath.Ext(f.Name()), ValidExtensions) {
			n++
		}
		return nil
	})
	return n, err
}

// consumer reads the path names from the paths channel and applies the try-on to every source image.
func (p *Processor) consumer(ctx context.Context, op *Ops, res chan<- Result, paths <-chan string) {
	for src := range paths {
		dst := filepath.Join(op.Dst, outputName(src))
		err := p.ExecuteFile(ctx, &Ops{Src: src, Dst: dst, PipeName: op.PipeName})

		select {
		case <-ctx.Done():
			return
		case res <- Result{Path: src, Dst: dst, Err: err}:
		}
	}
}

// outputName keeps the base name of the source, switching to png for formats we cannot encode.
func outputName(src string) string {
	base := filepath.Base(src)
	ext := strings.ToLower(filepath.Ext(base))
	switch ext {
	case ".gif", ".webp":
		return strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
	}
	return base
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			closeFile(src)
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			closeFile(src)
			return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
		}
	}
	return src, dst, nil
}

// closeFile closes v when it is a regular file other than the standard streams.
func closeFile(v any) {
	if f, ok := v.(*os.File); ok && f != os.Stdin && f != os.Stdout {
		f.Close()
	}
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each supported file to a new channel.
// It finishes in case the context is cancelled.
func walkDir(ctx context.Context, src string, srcExts []string) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() || !isValidExtension(filepath.Ext(f.Name()), srcExts) {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	return utils.Contains(extensions, strings.ToLower(ext))
}
