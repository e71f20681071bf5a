package binary

import (
	"context"
	"fmt"

	"github.com/dufoli/graal/internal/wasm"
	"github.com/dufoli/graal/internal/wasmlog"
)

// runCodeSection invokes decodeCodeSection synchronously if source is smaller than
// config's AsyncParsingBinarySize (or the threshold is 0, meaning "always synchronous"),
// otherwise spawns it as exactly one background goroutine and blocks until it joins.
// Only one code-section task is ever in flight; there is no concurrent validation of
// multiple functions.
func runCodeSection(ctx context.Context, sourceSize int, config wasm.ConfigProvider, decodeCodeSection func() error) error {
	threshold := config.AsyncParsingBinarySize()
	if threshold == 0 || uint32(sourceSize) < threshold {
		return decodeCodeSection()
	}
	return runAsync(ctx, sourceSize, config, decodeCodeSection)
}

// runAsync is the AsyncDriver: it hands decodeCodeSection to a goroutine, and blocks the
// caller on either the task's completion or ctx's cancellation. The configured (or
// computed-default) stack-size hint is only logged; the goroutine is not sized by it. A failure from the task, or a cancellation,
// is normalized to FailureKindUnspecifiedInvalid per the join-point propagation policy --
// callers never see the task's own error kind, since a background parse failing for a
// reason other than the input itself (e.g. the caller lost patience) shouldn't be
// reported as if the bytes were at fault.
func runAsync(ctx context.Context, sourceSize int, config wasm.ConfigProvider, decodeCodeSection func() error) error {
	stackKB := config.AsyncParsingStackSizeKB()
	if stackKB == 0 {
		stackKB = defaultAsyncStackSizeKB(sourceSize)
	}
	wasmlog.Logger().Debug(fmt.Sprintf("dispatching code section to background task, stack hint %dKB", stackKB))

	done := make(chan error, 1)
	go func() {
		// Go goroutines grow their stacks on demand; stackKB is carried only to mirror the
		// hosts this driver stands in for, which pre-size a fixed worker stack.
		done <- decodeCodeSection()
	}()

	select {
	case err := <-done:
		if err != nil {
			wasmlog.Logger().Debug("async code section task failed")
			return wasm.Fail(wasm.FailureKindUnspecifiedInvalid, "Asynchronous parsing failed.")
		}
		wasmlog.Logger().Debug("async code section task joined")
		return nil
	case <-ctx.Done():
		return wasm.Fail(wasm.FailureKindUnspecifiedInvalid, "Asynchronous parsing interrupted.")
	}
}

// defaultAsyncStackSizeKB computes max(1MB, min(2*sourceSize, 10MB)) in KB, the default
// stack-size hint for the background code-section task when the caller didn't request
// a specific one.
func defaultAsyncStackSizeKB(sourceSize int) uint32 {
	const minKB = 1024
	const maxKB = 10 * 1024
	want := uint32(sourceSize*2) / 1024
	if want < minKB {
		return minKB
	}
	if want > maxKB {
		return maxKB
	}
	return want
}
