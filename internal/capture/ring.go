package capture

import (
	"fmt"
	"time"
)

func pollTimeout(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// ringSizes derives TPacket ring geometry from a memory budget in MB.
// PACKET_MMAP requires the block size to be a multiple of both the page
// size and the frame size. Rounding the frame to a power of two makes a
// small frame divide the page and a large frame span whole pages, so any
// page-aligned block satisfies both constraints.
func ringSizes(budgetMB, snapLen, pageSize int) (frameSize, blockSize, numBlocks int, err error) {
	if budgetMB <= 0 {
		return 0, 0, 0, fmt.Errorf("buffer size must be positive, got %d MB", budgetMB)
	}
	if snapLen <= 0 {
		return 0, 0, 0, fmt.Errorf("snap length must be positive, got %d", snapLen)
	}
	if pageSize <= 0 || pageSize&(pageSize-1) != 0 {
		return 0, 0, 0, fmt.Errorf("page size must be a positive power of two, got %d", pageSize)
	}

	frameSize = nextPow2(snapLen)
	if frameSize > pageSize {
		// Round up to whole pages instead of doubling further.
		frameSize = (snapLen + pageSize - 1) / pageSize * pageSize
	}

	blockSize = frameSize * 8
	if blockSize < pageSize {
		blockSize = pageSize
	}

	numBlocks = budgetMB * 1024 * 1024 / blockSize
	if numBlocks < 1 {
		return 0, 0, 0, fmt.Errorf("buffer of %d MB too small for snap length %d", budgetMB, snapLen)
	}
	return frameSize, blockSize, numBlocks, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
