package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Key is a platform key code. Values match GLFW key codes, which use ASCII
// values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type Key uint32

// Key codes a visualization harness typically binds.
const (
	KeyEscape Key = 256
	KeySpace  Key = 32
	KeyW      Key = 87
	KeyA      Key = 65
	KeyS      Key = 83
	KeyD      Key = 68
	KeyQ      Key = 81
	KeyE      Key = 69
	KeyShift  Key = 340
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	parent *harnessWindow
	window *glfw.Window
}

// newPlatformWindow creates the GLFW window, registers event callbacks, and
// stores it as the internal window. The render core brings its own graphics
// API, so OpenGL context creation is disabled.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func newPlatformWindow(w *harnessWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %v", err)
	}

	gw := &glfwWindow{parent: w, window: win}
	w.internalWindow = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if w.onKey == nil {
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			w.onKey(Key(key), true)
		case glfw.Release:
			w.onKey(Key(key), false)
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	// Framebuffer size, not window size: the swap chain and the projection
	// aspect ratio need pixel dimensions, which differ from logical window
	// dimensions on high-DPI displays.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

// platformPoll pumps pending GLFW events without blocking and reports whether
// the window should keep running. This is the per-frame poll behind
// WindowUpdate.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformPoll(w *harnessWindow) bool {
	gw, ok := w.internalWindow.(*glfwWindow)
	if !ok || gw == nil {
		return false
	}
	glfw.PollEvents()
	return !gw.window.ShouldClose()
}

// platformSurfaceDescriptor creates a platform-appropriate surface descriptor
// from the GLFW window via the wgpuglfw bridge.
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func platformSurfaceDescriptor(w *harnessWindow) *wgpu.SurfaceDescriptor {
	gw, ok := w.internalWindow.(*glfwWindow)
	if !ok || gw == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

// platformClose destroys the GLFW window and terminates the GLFW library.
func platformClose(w *harnessWindow) error {
	gw, ok := w.internalWindow.(*glfwWindow)
	if !ok || gw == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	glfw.Terminate()
	w.internalWindow = nil
	return nil
}
