//go:build !flex

package compute

type FlexBackend struct {
	cpu *CPUBackend
}

func NewFlexBackend(p Params) *FlexBackend {
	return &FlexBackend{cpu: NewCPUBackend(p)}
}

func (f *FlexBackend) Name() string    { return "flex (not available)" }
func (f *FlexBackend) Available() bool { return false }
func (f *FlexBackend) Cleanup()        {}

func (f *FlexBackend) Step(frame *Frame, dt float32) []Contact {
	return f.cpu.Step(frame, dt)
}
