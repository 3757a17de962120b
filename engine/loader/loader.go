// Package loader decodes image files into surfaces on a background worker
// pool and uploads them as textures on the render thread. Decode runs
// concurrently; texture creation stays single threaded with the rest of the
// rendering work, so callers drain completed decodes from their frame loop.
package loader

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/google/uuid"

	"github.com/lumen-viz/lumen/common"
	"github.com/lumen-viz/lumen/engine/renderer"
)

const decodeQueueSize = 64

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	renderer renderer.Renderer

	pool    worker.DynamicWorkerPool
	workers int
	taskID  atomic.Int64

	// maxDimension caps decoded surface width/height; oversized surfaces are
	// rescaled before upload. Zero disables the cap.
	maxDimension int

	decoded chan decodeResult

	handles  map[string]uuid.UUID
	textures map[uuid.UUID]renderer.Texture
	pending  int
}

type decodeResult struct {
	handle  uuid.UUID
	surface *common.Surface
	path    string
	err     error
}

// Loader loads textures asynchronously. Load and Texture may be called from
// any goroutine; Drain and Close are render-thread only because they touch
// the backend factory.
type Loader interface {
	// Load queues an image file for background decode and returns the handle
	// its texture will be registered under. Loading an already-queued path
	// returns the existing handle.
	//
	// Parameters:
	//   - path: the image file path (PNG or JPEG)
	//
	// Returns:
	//   - uuid.UUID: the texture handle
	Load(path string) uuid.UUID

	// LoadSurface registers an already-decoded surface under a new handle.
	// The upload still happens on the next Drain.
	//
	// Parameters:
	//   - name: the cache key for the surface
	//   - surface: the decoded surface
	//
	// Returns:
	//   - uuid.UUID: the texture handle
	LoadSurface(name string, surface *common.Surface) uuid.UUID

	// Drain uploads all completed decodes as textures. Call once per frame
	// from the render thread.
	//
	// Returns:
	//   - error: the first decode or texture-creation failure
	Drain() error

	// Texture returns the texture for a handle, or nil while the load is
	// still in flight.
	//
	// Parameters:
	//   - handle: a handle returned by Load or LoadSurface
	//
	// Returns:
	//   - renderer.Texture: the texture, or nil
	Texture(handle uuid.UUID) renderer.Texture

	// Pending reports how many loads have not yet been uploaded.
	//
	// Returns:
	//   - int: the number of in-flight loads
	Pending() int

	// Close releases all loaded textures.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a Loader uploading through the given renderer.
//
// Parameters:
//   - r: the frame orchestrator whose factory uploads textures (must not be nil)
//   - options: optional configuration
//
// Returns:
//   - Loader: the loader
func NewLoader(r renderer.Renderer, options ...LoaderBuilderOption) Loader {
	if r == nil {
		panic("loader: renderer is required")
	}
	l := &loader{
		renderer: r,
		workers:  4,
		decoded:  make(chan decodeResult, decodeQueueSize),
		handles:  make(map[string]uuid.UUID),
		textures: make(map[uuid.UUID]renderer.Texture),
	}
	for _, option := range options {
		option(l)
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, decodeQueueSize, 1*time.Second)
	return l
}

func (l *loader) Load(path string) uuid.UUID {
	l.mu.Lock()
	if handle, ok := l.handles[path]; ok {
		l.mu.Unlock()
		return handle
	}
	handle := uuid.New()
	l.handles[path] = handle
	l.pending++
	l.mu.Unlock()

	l.pool.SubmitTask(worker.Task{
		ID: int(l.taskID.Add(1)),
		Do: func() (any, error) {
			surface, err := common.LoadSurface(path)
			l.decoded <- decodeResult{handle: handle, surface: surface, path: path, err: err}
			return nil, err
		},
	})
	return handle
}

func (l *loader) LoadSurface(name string, surface *common.Surface) uuid.UUID {
	l.mu.Lock()
	if handle, ok := l.handles[name]; ok {
		l.mu.Unlock()
		return handle
	}
	handle := uuid.New()
	l.handles[name] = handle
	l.pending++
	l.mu.Unlock()

	l.decoded <- decodeResult{handle: handle, surface: surface, path: name}
	return handle
}

func (l *loader) Drain() error {
	for {
		select {
		case result := <-l.decoded:
			if err := l.upload(result); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (l *loader) upload(result decodeResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending--
	if result.err != nil {
		return fmt.Errorf("failed to decode %q: %w", result.path, result.err)
	}

	surface := result.surface
	if l.maxDimension > 0 && (surface.Width > l.maxDimension || surface.Height > l.maxDimension) {
		width, height := surface.Width, surface.Height
		if width > l.maxDimension {
			height = height * l.maxDimension / width
			width = l.maxDimension
		}
		if height > l.maxDimension {
			width = width * l.maxDimension / height
			height = l.maxDimension
		}
		surface = surface.Rescale(max(width, 1), max(height, 1))
	}

	texture, err := l.renderer.CreateTexture(surface)
	if err != nil {
		return fmt.Errorf("failed to upload %q: %w", result.path, err)
	}
	l.textures[result.handle] = texture
	return nil
}

func (l *loader) Texture(handle uuid.UUID) renderer.Texture {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.textures[handle]
}

func (l *loader) Pending() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pending
}

func (l *loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, texture := range l.textures {
		texture.Release()
	}
	l.textures = make(map[uuid.UUID]renderer.Texture)
	l.handles = make(map[string]uuid.UUID)
}
