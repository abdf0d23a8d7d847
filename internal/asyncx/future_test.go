package asyncx

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_Await(t *testing.T) {
	f := Run(func() (int, error) { return 42, nil })

	v, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFuture_AwaitError(t *testing.T) {
	boom := errors.New("boom")
	f := Run(func() (string, error) { return "", boom })

	_, err := f.Await()
	assert.ErrorIs(t, err, boom)
}

func TestFuture_ComputesOnceAcrossAwaiters(t *testing.T) {
	var calls atomic.Int32
	f := Run(func() (int, error) {
		calls.Add(1)
		return 7, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.Await()
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}
