//go:build !nogpu

// Package gpu enables device-accelerated aggregation.
//
// Importing this package registers the wgpu compute accelerator with the
// root package:
//
//	import _ "github.com/gogrid/shade/gpu"
//
// Registration is best-effort: when no usable GPU device is present the
// failure is logged and aggregation proceeds on the host. Applications
// that already hold a GPU device can share it via SetDeviceProvider.
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogrid/shade"
	gpuimpl "github.com/gogrid/shade/internal/gpu"
)

func init() {
	if err := shade.RegisterAccelerator(gpuimpl.New()); err != nil {
		shade.Logger().Warn("GPU accelerator unavailable, using host aggregation", "error", err)
	}
}

// SetDeviceProvider routes aggregation compute through an existing GPU
// device instead of the one acquired at registration. Pass nil to detach.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return shade.SetAcceleratorDeviceProvider(provider)
}
