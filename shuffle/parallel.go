package shuffle

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// forEach runs f for every index in [0, n) on a bounded pool of goroutines.
// Each call must only write to its own index of any shared slice.
func forEach(n int, f func(i int)) {
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			f(i)
			return nil
		})
	}
	_ = eg.Wait()
}
