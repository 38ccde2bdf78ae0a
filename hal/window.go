package hal

// WindowPosCentered centres the window on its display along one axis.
const WindowPosCentered = -1

type WindowFlags uint32

const (
	WindowShown WindowFlags = 1 << iota
	WindowVulkan
	WindowResizable
)

type WindowCreateInfo struct {
	Title         string
	X, Y          int
	Width, Height int
	Flags         WindowFlags
}

// Platform is the windowing library.
type Platform interface {
	Init() error
	Version() string
	CreateWindow(info WindowCreateInfo) (Window, error)
	// Loader returns the GPU API loader. Valid only after a window with
	// WindowVulkan has been created.
	Loader() (Loader, error)
	Quit()
}

type Window interface {
	DrawableSize() (width, height int)
	RequiredInstanceExtensions() []string
	// PollEvent returns the next pending event or nil.
	PollEvent() Event
	Destroy()
}

type Event interface {
	isEvent()
}

type QuitEvent struct{}

type ResizeEvent struct {
	Width, Height int
}

type MinimizeEvent struct{}

type RestoreEvent struct{}

func (QuitEvent) isEvent()     {}
func (ResizeEvent) isEvent()   {}
func (MinimizeEvent) isEvent() {}
func (RestoreEvent) isEvent()  {}
