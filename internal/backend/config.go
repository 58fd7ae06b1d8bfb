package backend

type Config struct {
	// base URL of kiosk backend, e.g. http://192.168.90.1:5000
	URL       string `hcl:"url" validate:"omitempty,url"`
	TimeoutMs int    `hcl:"timeout_ms" validate:"gte=0"`
	Breaker   struct {
		MaxFailures  int     `hcl:"max_failures" validate:"gte=0"`
		FailureRatio float64 `hcl:"failure_ratio" validate:"gte=0,lte=1"`
		MinRequests  int     `hcl:"min_requests" validate:"gte=0"`
		OpenSec      int     `hcl:"open_sec" validate:"gte=0"`
		IntervalSec  int     `hcl:"interval_sec" validate:"gte=0"`
	} `hcl:"breaker"`
}

const DefaultURL = "http://127.0.0.1:5000"
