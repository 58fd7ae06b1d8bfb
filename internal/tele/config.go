package tele

type Config struct {
	Enabled           bool   `hcl:"enable"`
	LogDebug          bool   `hcl:"log_debug"`
	MqttBroker        string `hcl:"mqtt_broker" validate:"required_if=Enabled true,omitempty,url"`
	MqttLogDebug      bool   `hcl:"mqtt_log_debug"`
	MqttPassword      string `hcl:"mqtt_password"`
	ClientID          string `hcl:"client_id"` // default "kiosk-<station>"
	TopicPrefix       string `hcl:"topic_prefix"`
	KeepaliveSec      int    `hcl:"keepalive_sec" validate:"gte=0"`
	PingTimeoutSec    int    `hcl:"ping_timeout_sec" validate:"gte=0"`
	NetworkTimeoutSec int    `hcl:"network_timeout_sec" validate:"gte=0"`
	PersistPath       string `hcl:"persist_path"`
	StorePath         string `hcl:"store_path"`
}

const DefaultTopicPrefix = "kiosk"
