package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("NUSALEND_TEST_MODE") == "" {
			_ = os.Setenv("NUSALEND_TEST_MODE", "1")
		}
	})
}
