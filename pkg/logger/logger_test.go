package logger

import (
	"sync"
	"testing"
)

// TestGetLoggerConcurrentInit exercises lazy initialization from many
// goroutines at once, the way concurrent request handlers reach the
// logger before anything has called Init. Run with the race detector.
func TestGetLoggerConcurrentInit(t *testing.T) {
	mu.Lock()
	log = nil
	mu.Unlock()

	const callers = 32

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if GetLogger() == nil {
				t.Error("Expected GetLogger to return a logger")
			}
			Info("concurrent caller")
		}()
	}
	wg.Wait()
}

func TestInitWithConfigRejectsBadLevel(t *testing.T) {
	if err := InitWithConfig("shouting", "json", "stdout", ""); err == nil {
		t.Fatal("Expected error for invalid log level")
	}
}

func TestInitWithConfigRequiresFilePath(t *testing.T) {
	if err := InitWithConfig("info", "json", "file", ""); err == nil {
		t.Fatal("Expected error when file output has no path")
	}
}
