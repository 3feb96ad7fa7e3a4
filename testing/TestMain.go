package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("CRM_TEST_MODE", "1")
		if os.Getenv("RATES_URL") == "" {
			_ = os.Setenv("RATES_URL", "http://127.0.0.1:0/latest/USD")
		}
		if os.Getenv("CRM_ENV_FILE") == "" {
			_ = os.Setenv("CRM_ENV_FILE", os.DevNull+".env")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
