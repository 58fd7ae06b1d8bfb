package channel

type Config struct {
	// empty = backend url
	URL  string `hcl:"url" validate:"omitempty,url"`
	Path string `hcl:"path"`

	ReconnectDelayMs  int     `hcl:"reconnect_delay_ms" validate:"gte=0"`
	ReconnectMaxMs    int     `hcl:"reconnect_max_ms" validate:"gte=0"`
	ReconnectFactor   float32 `hcl:"reconnect_factor" validate:"gte=0"`
	ReconnectAttempts int     `hcl:"reconnect_attempts" validate:"gte=0"`
	HandshakeMs       int     `hcl:"handshake_ms" validate:"gte=0"`
	SendQueue         int     `hcl:"send_queue" validate:"gte=0"`
}

const (
	DefaultPath              = "/socket.io/"
	DefaultReconnectAttempts = 10
)
