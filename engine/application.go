package engine

// Application is what the loop needs to know about the program it runs.
type Application interface {
	Name() string
	Version() Version
	TargetFrameRate() float64
	// OnStop is called once, from whichever goroutine first stops the loop.
	OnStop()
}

const (
	DefaultName            = "Noon"
	DefaultTargetFrameRate = 60
)

// BaseApplication is an Application with the engine defaults. Embed it to
// override only what differs.
type BaseApplication struct {
	AppName    string
	AppVersion Version
	FrameRate  float64
}

var _ Application = BaseApplication{}

func (a BaseApplication) Name() string {
	if a.AppName == "" {
		return DefaultName
	}
	return a.AppName
}

func (a BaseApplication) Version() Version {
	return a.AppVersion
}

func (a BaseApplication) TargetFrameRate() float64 {
	if a.FrameRate <= 0 {
		return DefaultTargetFrameRate
	}
	return a.FrameRate
}

func (a BaseApplication) OnStop() {}
