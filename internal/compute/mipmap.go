package compute

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"terrascape/internal/graphics"
	"terrascape/internal/profiling"
)

const workgroupSize = 16

func dispatchGroups(size int) int32 {
	return int32((size + workgroupSize - 1) / workgroupSize)
}

// MipmapGenerator rebuilds the heightmap mip chain in place with
// sequential 2x2 box downsample passes.
type MipmapGenerator struct {
	prog *graphics.Shader
}

// NewMipmapGenerator compiles the downsample kernel
func NewMipmapGenerator() (*MipmapGenerator, error) {
	prog, err := graphics.NewComputeShader(MipmapKernel)
	if err != nil {
		return nil, fmt.Errorf("mipmap kernel: %v", err)
	}
	return &MipmapGenerator{prog: prog}, nil
}

// Refresh regenerates every mip level from mip 0. Each pass binds mip k-1
// as input and mip k as output; an image barrier orders the chain.
func (m *MipmapGenerator) Refresh(tex uint32, resolution int) {
	defer profiling.Track("compute.MipmapRefresh")()

	m.prog.Use()
	levels := graphics.MipLevels(resolution)
	size := resolution
	for k := 1; k < levels; k++ {
		next := size / 2
		if next < 1 {
			next = 1
		}
		gl.BindImageTexture(0, tex, int32(k-1), false, 0, gl.READ_ONLY, gl.R32F)
		gl.BindImageTexture(1, tex, int32(k), false, 0, gl.WRITE_ONLY, gl.R32F)
		gl.DispatchCompute(uint32(dispatchGroups(next)), uint32(dispatchGroups(next)), 1)
		gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT)
		size = next
	}
}

// Dispose releases the kernel program
func (m *MipmapGenerator) Dispose() {
	if m.prog != nil {
		m.prog.Delete()
	}
}
