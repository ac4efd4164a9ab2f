package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// gpuSurface is the WebGPU state of the mirror: instance, surface, adapter, device and queue.
type gpuSurface struct {
	instance    *wgpu.Instance
	surface     *wgpu.Surface
	adapter     *wgpu.Adapter
	device      *wgpu.Device
	queue       *wgpu.Queue
	format      wgpu.TextureFormat
	presentMode wgpu.PresentMode
	configured  bool
}

func newGPUSurface(desc *wgpu.SurfaceDescriptor, forceFallbackAdapter, vsync bool) (*gpuSurface, error) {
	if desc == nil {
		return nil, fmt.Errorf("no surface descriptor for mirror window")
	}
	g := &gpuSurface{
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
	}
	if vsync {
		g.presentMode = wgpu.PresentModeFifo
	}
	g.surface = g.instance.CreateSurface(desc)

	a, err := g.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    g.surface,
	})
	if err != nil {
		g.release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	g.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{Label: "Mirror Device"})
	if err != nil {
		g.release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	g.device = d
	g.queue = d.GetQueue()
	return g, nil
}

func (g *gpuSurface) configure(width, height int) {
	capabilities := g.surface.GetCapabilities(g.adapter)
	g.format = capabilities.Formats[0]
	g.surface.Configure(g.adapter, g.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      g.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: g.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	g.configured = true
}

// clear acquires the next surface texture, clears it to color and presents it.
func (g *gpuSurface) clear(color wgpu.Color) error {
	if !g.configured {
		return fmt.Errorf("surface not configured")
	}
	surfaceTexture, err := g.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := g.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: color,
		}},
	})
	pass.End()
	pass.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	g.queue.Submit(commandBuffer)
	commandBuffer.Release()

	g.surface.Present()
	return nil
}

func (g *gpuSurface) release() {
	if g.queue != nil {
		g.queue.Release()
	}
	if g.device != nil {
		g.device.Release()
	}
	if g.adapter != nil {
		g.adapter.Release()
	}
	if g.surface != nil {
		g.surface.Release()
	}
	if g.instance != nil {
		g.instance.Release()
	}
}
