//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// pointCountShaderSource bins point samples into a grid of u32 counters.
// Coordinates arrive pre-mapped to continuous pixel space: the host does
// the (possibly log-transformed) canvas mapping, the device does the
// binning and atomics. A coordinate exactly on the high edge lands in the
// last pixel, matching Canvas.ToPixel; NaN coordinates fail the range
// test and are skipped.
const pointCountShaderSource = `
struct Params {
    width: u32,
    height: u32,
    count: u32,
    _pad: u32,
};

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> points: array<f32>;
@group(0) @binding(2) var<storage, read_write> grid: array<atomic<u32>>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= params.count) {
        return;
    }
    let fx = points[2u * i];
    let fy = points[2u * i + 1u];
    let w = f32(params.width);
    let h = f32(params.height);
    if (!(fx >= 0.0 && fx <= w && fy >= 0.0 && fy <= h)) {
        return;
    }
    var col = u32(fx);
    var row = u32(fy);
    if (col >= params.width) {
        col = params.width - 1u;
    }
    if (row >= params.height) {
        row = params.height - 1u;
    }
    atomicAdd(&grid[row * params.width + col], 1u);
}
`

// compileShaderToSPIRV compiles WGSL source to a SPIR-V word slice.
func compileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// createShaderModule creates a HAL shader module from SPIR-V code.
func createShaderModule(device hal.Device, label string, spirvCode []uint32) (hal.ShaderModule, error) {
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirvCode,
		},
	})
}
