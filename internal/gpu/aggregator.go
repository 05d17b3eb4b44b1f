//go:build !nogpu

// Package gpu provides a device-resident aggregation backend using
// gogpu/wgpu compute shaders. It currently accelerates the point glyph
// with the touch-counting Count reduction; everything else falls back to
// the host path, which shares the same merge and finalize contract.
package gpu

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogrid/shade"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Aggregator is a wgpu/hal compute accelerator for point aggregation.
// It implements the shade.Accelerator interface.
type Aggregator struct {
	mu sync.Mutex

	log *slog.Logger

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	gpuReady       bool
	externalDevice bool // true when using a shared device (don't destroy on Close)
}

var _ shade.Accelerator = (*Aggregator)(nil)

// New creates an uninitialized Aggregator. Init acquires the device.
func New() *Aggregator {
	return &Aggregator{log: shade.Logger()}
}

func (a *Aggregator) Name() string { return "wgpu-points" }

// SetLogger lets the root package propagate its logger.
func (a *Aggregator) SetLogger(l *slog.Logger) {
	a.mu.Lock()
	a.log = l
	a.mu.Unlock()
}

func (a *Aggregator) CanAccelerate(glyph shade.GlyphKind, red shade.ReductionKind) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady && glyph == shade.GlyphPoint && red == shade.Count
}

func (a *Aggregator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initGPU()
}

func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyPipeline()
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetDeviceProvider switches the aggregator to a shared GPU device from
// an external provider. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func (a *Aggregator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.destroyPipeline()
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}

	a.device = device
	a.queue = queue
	a.externalDevice = true

	if err := a.createPipeline(); err != nil {
		a.gpuReady = false
		return fmt.Errorf("gpu: create pipeline with shared device: %w", err)
	}
	a.gpuReady = true
	a.log.Info("switched to shared GPU device")
	return nil
}

func (a *Aggregator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("gpu: create instance: %w", err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("gpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("gpu: open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	if err := a.createPipeline(); err != nil {
		a.device.Destroy()
		a.device = nil
		a.queue = nil
		return fmt.Errorf("gpu: create pipeline: %w", err)
	}
	a.gpuReady = true
	a.log.Info("device accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

func (a *Aggregator) createPipeline() error {
	spirv, err := compileShaderToSPIRV(pointCountShaderSource)
	if err != nil {
		return err
	}
	shader, err := createShaderModule(a.device, "point_count", spirv)
	if err != nil {
		return fmt.Errorf("compile point_count shader: %w", err)
	}
	a.shader = shader

	bindLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "point_count_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	a.bindLayout = bindLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "point_count_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "point_count_pipeline", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: a.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	a.pipeline = pipeline
	return nil
}

func (a *Aggregator) destroyPipeline() {
	if a.device == nil {
		return
	}
	if a.pipeline != nil {
		a.device.DestroyComputePipeline(a.pipeline)
		a.pipeline = nil
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
		a.bindLayout = nil
	}
	if a.shader != nil {
		a.device.DestroyShaderModule(a.shader)
		a.shader = nil
	}
}

// AggregatePoints bins point samples into target's grid with the Count
// reduction. Returns shade.ErrFallbackToHost for unsupported reductions
// or when the device is unavailable.
func (a *Aggregator) AggregatePoints(target shade.DeviceGrid, xs, ys []float64, cvs *shade.Canvas, red shade.Reduction) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.gpuReady || red.Kind != shade.Count || red.Field != "" {
		return shade.ErrFallbackToHost
	}
	if len(xs) != len(ys) {
		return fmt.Errorf("gpu: coordinate length mismatch: %d vs %d", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil
	}

	w, h := uint32(target.Width), uint32(target.Height)
	gridSize := uint64(w) * uint64(h) * 4

	// Map to pixel space on the host: the device kernel only bins, so
	// log axes and edge rules behave identically to the host path.
	pointBytes := make([]byte, 0, len(xs)*8)
	for i := range xs {
		fx, fy := cvs.PixelSpace(xs[i], ys[i])
		pointBytes = binary.LittleEndian.AppendUint32(pointBytes, math.Float32bits(float32(fx)))
		pointBytes = binary.LittleEndian.AppendUint32(pointBytes, math.Float32bits(float32(fy)))
	}

	params := make([]byte, 0, 16)
	params = binary.LittleEndian.AppendUint32(params, w)
	params = binary.LittleEndian.AppendUint32(params, h)
	params = binary.LittleEndian.AppendUint32(params, uint32(len(xs)))
	params = binary.LittleEndian.AppendUint32(params, 0)

	counts, err := a.dispatch(params, pointBytes, gridSize, uint32(len(xs)))
	if err != nil {
		return err
	}
	for i := range target.Data {
		target.Data[i] += float64(binary.LittleEndian.Uint32(counts[i*4:]))
	}
	return nil
}

// dispatch runs one compute pass: upload, bin, copy to staging, read
// back. One submit and one fence wait per chunk.
func (a *Aggregator) dispatch(params, pointBytes []byte, gridSize uint64, count uint32) ([]byte, error) {
	paramsBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "agg_params", Size: uint64(len(params)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create params buffer: %w", err)
	}
	defer a.device.DestroyBuffer(paramsBuf)

	pointsBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "agg_points", Size: uint64(len(pointBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create points buffer: %w", err)
	}
	defer a.device.DestroyBuffer(pointsBuf)

	gridBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "agg_grid", Size: gridSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create grid buffer: %w", err)
	}
	defer a.device.DestroyBuffer(gridBuf)

	stagingBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "agg_staging", Size: gridSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer a.device.DestroyBuffer(stagingBuf)

	a.queue.WriteBuffer(paramsBuf, 0, params)
	a.queue.WriteBuffer(pointsBuf, 0, pointBytes)
	a.queue.WriteBuffer(gridBuf, 0, make([]byte, gridSize))

	bindGroup, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "agg_bind", Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Offset: 0, Size: uint64(len(params))}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: pointsBuf.NativeHandle(), Offset: 0, Size: uint64(len(pointBytes))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: gridBuf.NativeHandle(), Offset: 0, Size: gridSize}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bindGroup)

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "agg_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("agg_points"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	computePass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "agg_pass"})
	computePass.SetPipeline(a.pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.Dispatch((count+63)/64, 1, 1)
	computePass.End()

	encoder.CopyBufferToBuffer(gridBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: gridSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, gridSize)
	if err := a.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	return readback, nil
}
