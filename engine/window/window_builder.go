package window

// BuilderOption is a functional option for configuring a window before
// platform creation. Use the With* functions to create options.
type BuilderOption func(w *harnessWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - BuilderOption: option function to apply
func WithTitle(title string) BuilderOption {
	return func(w *harnessWindow) {
		w.title = title
	}
}

// WithSize sets the initial client-area size in pixels.
//
// Parameters:
//   - width, height: initial dimensions in pixels
//
// Returns:
//   - BuilderOption: option function to apply
func WithSize(width, height int) BuilderOption {
	return func(w *harnessWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}
