package mesh

import (
	"runtime"
	"sync"
)

// ForEach invokes f for every index in box, innermost axis fastest. It is
// the scalar form of the kernel-dispatch primitive; per-cell work must not
// depend on other cells updated in the same pass.
func ForEach(box Box, f func(iv IntVect)) {
	if box.IsEmpty() {
		return
	}
	var iv IntVect
	for k := box.Lo[2]; k <= box.Hi[2]; k++ {
		iv[2] = k
		for j := box.Lo[1]; j <= box.Hi[1]; j++ {
			iv[1] = j
			for i := box.Lo[0]; i <= box.Hi[0]; i++ {
				iv[0] = i
				f(iv)
			}
		}
	}
}

// ForEachBlockParallel runs f once per block across a bounded worker pool.
// Blocks never alias, so f may mutate its block freely.
func ForEachBlockParallel(blocks []*Block, f func(b *Block)) {
	nw := runtime.GOMAXPROCS(0)
	if nw > len(blocks) {
		nw = len(blocks)
	}
	if nw <= 1 {
		for _, b := range blocks {
			f(b)
		}
		return
	}
	work := make(chan *Block)
	var wg sync.WaitGroup
	wg.Add(nw)
	for w := 0; w < nw; w++ {
		go func() {
			defer wg.Done()
			for b := range work {
				f(b)
			}
		}()
	}
	for _, b := range blocks {
		work <- b
	}
	close(work)
	wg.Wait()
}
