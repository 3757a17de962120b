// Package window is the windowing collaborator of the render core: it owns
// the platform window, reports client-area dimensions, polls the platform
// event queue once per frame, and delivers resize and input notifications
// synchronously from within Poll.
package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input event delivery for the frame
// orchestrator. One Poll call is made per frame by the orchestrator's
// WindowUpdate; all callbacks fire synchronously from inside Poll (or window
// creation) on the render thread.
type Window interface {
	// Poll processes pending platform events and reports whether the
	// application should keep running. Resize and input callbacks fire
	// synchronously from within this call.
	//
	// Returns:
	//   - bool: true to continue, false when the window was closed
	Poll() bool

	// SetResizeCallback sets the function called when the framebuffer size
	// changes. The callback receives pixel dimensions, which on high-DPI
	// displays differ from logical window dimensions.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyCallback sets the callback for key press and release events.
	//
	// Parameters:
	//   - callback: function receiving the key code and pressed state
	SetKeyCallback(callback func(key Key, pressed bool))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving the scroll delta (positive = up)
	SetScrollCallback(callback func(delta float32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating
	// a GPU surface over this window. The descriptor is platform-appropriate
	// (Windows HWND, X11, Wayland, macOS Metal).
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was never initialized
	Close() error
}

// harnessWindow is the implementation of the Window interface.
type harnessWindow struct {
	title  string
	width  int
	height int

	// internalWindow holds the platform-specific state (glfwWindow).
	internalWindow any

	onResize func(width, height int)
	onKey    func(key Key, pressed bool)
	onScroll func(delta float32)
}

var _ Window = &harnessWindow{}

// NewWindow creates the platform window. Defaults to a 1920x1080 client area,
// the harness's reference resolution. Window creation failure is an
// environment failure the process cannot recover from, so NewWindow panics.
//
// Parameters:
//   - options: functional options to configure the window before creation
//
// Returns:
//   - Window: the created window
func NewWindow(options ...BuilderOption) Window {
	w := &harnessWindow{
		title:  "Lumen Harness",
		width:  1920,
		height: 1080,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func (w *harnessWindow) Poll() bool {
	return platformPoll(w)
}

func (w *harnessWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *harnessWindow) SetKeyCallback(callback func(key Key, pressed bool)) {
	w.onKey = callback
}

func (w *harnessWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *harnessWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformSurfaceDescriptor(w)
}

func (w *harnessWindow) Width() int {
	return w.width
}

func (w *harnessWindow) Height() int {
	return w.height
}

func (w *harnessWindow) Close() error {
	return platformClose(w)
}
