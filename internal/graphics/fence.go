package graphics

import (
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
)

// Fence is a GPU completion marker. The CPU side of the pipeline is
// single-threaded and cooperative: the only suspension points are Fence
// waits placed between generation stages.
type Fence struct {
	sync uintptr
}

// InsertFence places a fence after all previously submitted GPU commands
func InsertFence() Fence {
	return Fence{sync: gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)}
}

// Wait blocks until the fence signals or the timeout elapses. The fence is
// released either way.
func (f Fence) Wait(timeout time.Duration) error {
	if f.sync == 0 {
		return nil
	}
	defer gl.DeleteSync(f.sync)

	status := gl.ClientWaitSync(f.sync, gl.SYNC_FLUSH_COMMANDS_BIT, uint64(timeout.Nanoseconds()))
	switch status {
	case gl.ALREADY_SIGNALED, gl.CONDITION_SATISFIED:
		return nil
	case gl.TIMEOUT_EXPIRED:
		return fmt.Errorf("gpu fence timed out after %v", timeout)
	default:
		return fmt.Errorf("gpu fence wait failed (status 0x%x)", status)
	}
}

// AwaitCompletion inserts a fence and waits for every submitted command to
// finish. This is the engine's equivalent of awaiting queue completion.
func AwaitCompletion() error {
	return InsertFence().Wait(10 * time.Second)
}
