package shared

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("loan:1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	require.Equal(t, 64, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("loan:a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("loan:b")
		unlockB()
		close(done)
	}()

	// A held lock on one key must not block another key.
	<-done
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	km := NewKeyedMutex()

	unlock := km.Lock("loan:1")
	unlock()

	km.mu.Lock()
	defer km.mu.Unlock()
	require.Empty(t, km.locks)
}
