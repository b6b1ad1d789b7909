package optimize

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/jmylchreest/hueforge/internal/reward"
)

// streamSalt decorrelates the PCG increment from small stream indices.
const streamSalt = 0x9e3779b97f4a7c15

// newStream returns the random stream with the given index under seed. Each
// episode draws from its own stream, so results do not depend on the order
// in which episodes run.
func newStream(seed, index uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, index*streamSalt+1))
}

// episodeStream numbers the stream of episode e in step s. Stream 0 is left
// for one-off draws such as parameter initialisation.
func episodeStream(step, episodes, e int) uint64 {
	return 1 + uint64(step)*uint64(episodes) + uint64(e)
}

// episode is the outcome of evaluating one candidate.
type episode struct {
	eval *reward.Evaluation
	// logProb and action are set by the policy-gradient strategy only.
	logProb float64
	action  []float64
	err     error
}

// runEpisodes evaluates n episodes with at most parallelism in flight.
// Results are returned in episode order regardless of completion order.
func runEpisodes(ctx context.Context, n, parallelism int, fn func(e int) episode) ([]episode, error) {
	results := make([]episode, n)

	if parallelism <= 1 {
		for e := range n {
			results[e] = fn(e)
		}
	} else {
		semaphore := make(chan struct{}, parallelism)
		var wg sync.WaitGroup

		for e := range n {
			wg.Add(1)
			semaphore <- struct{}{} // Acquire

			go func(idx int) {
				defer wg.Done()
				defer func() { <-semaphore }() // Release

				results[idx] = fn(idx)
			}(e)
		}
		wg.Wait()
	}

	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
	}
	return results, ctx.Err()
}
