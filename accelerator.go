package shade

import (
	"errors"
	"fmt"
	"sync"
)

// ErrFallbackToHost indicates the accelerator cannot handle this
// aggregation. The driver transparently falls back to host execution.
var ErrFallbackToHost = errors.New("shade: falling back to host aggregation")

// StorageLocation tags where grid buffers and primitive batches reside.
// Rasterizer implementations are chosen per location but share the same
// external contract: the driver's data flow and merge semantics are
// identical on both substrates.
type StorageLocation int

const (
	// LocationHost marks data resident in ordinary Go memory.
	LocationHost StorageLocation = iota

	// LocationDevice marks data resident on (or destined for) a compute
	// device managed by the registered Accelerator.
	LocationDevice
)

// String returns the string representation of StorageLocation.
func (l StorageLocation) String() string {
	switch l {
	case LocationHost:
		return "host"
	case LocationDevice:
		return "device"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// DeviceGrid is the readback target an Accelerator fills: one accumulator
// plane per pixel in row-major order, dimensions matching the canvas.
type DeviceGrid struct {
	Data          []float64
	Width, Height int
}

// Accelerator is an optional device-resident execution provider.
//
// When registered via RegisterAccelerator, the driver hands device-tagged
// chunks to the accelerator. If the accelerator returns ErrFallbackToHost
// or any other error, aggregation transparently falls back to the host
// path with identical semantics.
//
// Implementations are provided by device backend packages. Users opt in
// via blank import:
//
//	import _ "github.com/gogrid/shade/gpu" // enables GPU aggregation
type Accelerator interface {
	// Name returns the accelerator name (e.g., "wgpu-points").
	Name() string

	// Init initializes device resources. Called once during registration.
	Init() error

	// Close releases device resources.
	Close()

	// CanAccelerate reports whether the accelerator supports the given
	// glyph/reduction pair. This is a fast check used to skip the device
	// entirely for unsupported aggregations.
	CanAccelerate(glyph GlyphKind, red ReductionKind) bool

	// AggregatePoints rasterizes point samples into target using red.
	// Returns ErrFallbackToHost if the aggregation cannot run on the
	// device.
	AggregatePoints(target DeviceGrid, xs, ys []float64, cvs *Canvas, red Reduction) error
}

// DeviceProviderAware is an optional interface for accelerators that can
// share a device with an external provider instead of creating their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers an accelerator for device-resident
// aggregation.
//
// Only one accelerator can be registered. Subsequent calls replace the
// previous one. The accelerator's Init() method is called during
// registration; if it fails, the accelerator is not registered and the
// error is returned.
//
// Typical usage via blank import in device backend packages:
//
//	func init() {
//	    shade.RegisterAccelerator(gpuimpl.New())
//	}
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("shade: accelerator must not be nil")
	}
	propagateLogger(a, Logger())
	if err := a.Init(); err != nil {
		return err
	}
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// RegisteredAccelerator returns the currently registered accelerator, or
// nil if none.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator, enabling device sharing. If no accelerator is registered
// or it doesn't support device sharing, this is a no-op.
func SetAcceleratorDeviceProvider(provider any) error {
	a := RegisteredAccelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
