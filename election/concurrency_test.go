// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentDoubleVote verifies that racing votes from one principal
// produce exactly one success.
func TestConcurrentDoubleVote(t *testing.T) {
	e := openElection(t, []string{"Alice", "Bob"}, "p1")

	const attempts = 32
	var ok, already atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := e.CastVote("p1", 1+i%2)
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, ErrAlreadyVoted):
				already.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(attempts-1), already.Load())
	assertConserved(t, e)
}

// TestConcurrentVotersAndReaders races many voters against readers and checks
// every read sees a conserved tally.
func TestConcurrentVotersAndReaders(t *testing.T) {
	const voters = 200
	principals := make([]Principal, voters)
	for i := range principals {
		principals[i] = Principal(fmt.Sprintf("p%03d", i))
	}
	e := openElection(t, []string{"A", "B", "C"}, principals...)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	var torn atomic.Int32

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := e.Snapshot()
				if snap.Validate() != nil {
					torn.Add(1)
				}
				if _, err := e.Results(); err != nil {
					torn.Add(1)
				}
			}
		}()
	}

	var votes sync.WaitGroup
	for i, p := range principals {
		votes.Add(1)
		go func(p Principal, choice int) {
			defer votes.Done()
			assert.NoError(t, e.CastVote(p, choice))
		}(p, 1+i%3)
	}
	votes.Wait()
	close(stop)
	wg.Wait()

	assert.Zero(t, torn.Load())
	res, err := e.Results()
	require.NoError(t, err)
	assert.Equal(t, voters, res.TotalVotes)
	assertConserved(t, e)
}
