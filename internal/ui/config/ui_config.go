package ui_config

// Zero values mean built-in defaults, see ui.Init.
type Config struct { //nolint:maligned
	// screens present on this kiosk, empty = all
	Screens     []string `hcl:"screens"`
	StartScreen string   `hcl:"start_screen"`

	PollMs         int `hcl:"poll_ms" validate:"gte=0"`
	EnrichMs       int `hcl:"enrich_ms" validate:"gte=0"`
	NoticeMs       int `hcl:"notice_ms" validate:"gte=0"`
	RefreshDelayMs int `hcl:"refresh_delay_ms" validate:"gte=0"`

	Arrow struct {
		Count    int `hcl:"count" validate:"gte=0"`
		PeriodMs int `hcl:"period_ms" validate:"gte=0"`
	} `hcl:"arrow"`

	Slider struct {
		Max       float64 `hcl:"max" validate:"gte=0"`
		Threshold float64 `hcl:"threshold" validate:"gte=0"`
		Rest      float64 `hcl:"rest"`
		ResetMs   int     `hcl:"reset_ms" validate:"gte=0"`
	} `hcl:"slider"`

	Dispatch struct {
		// after rejection, dispatch permission restored in
		RejectReleaseMs int `hcl:"reject_release_ms" validate:"gte=0"`
		// accepted pod request preselects requester after
		PreselectMs int    `hcl:"preselect_ms" validate:"gte=0"`
		MsgBusy     string `hcl:"msg_busy"`
		MsgRaced    string `hcl:"msg_raced"`
		MsgNoDest   string `hcl:"msg_no_destination"`
		MsgNoPod    string `hcl:"msg_no_pod"`
		MsgWarning  string `hcl:"msg_warning"`
	} `hcl:"dispatch"`

	Keypad struct {
		Mode       string   `hcl:"mode" validate:"omitempty,oneof=local remote"`
		Code       string   `hcl:"code" validate:"omitempty,numeric"`
		RemotePath string   `hcl:"remote_path"`
		Protect    []string `hcl:"protect"`
		Length     int      `hcl:"length" validate:"gte=0,lte=12"`
		RevealMs   int      `hcl:"reveal_ms" validate:"gte=0"`
		ShakeMs    int      `hcl:"shake_ms" validate:"gte=0"`
		ErrorMs    int      `hcl:"error_ms" validate:"gte=0"`
	} `hcl:"keypad"`

	Maintenance struct {
		AirPower int            `hcl:"air_power" validate:"gte=0,lte=100"`
		Sensors  []SensorAction `hcl:"sensor" validate:"dive"`
	} `hcl:"maintenance"`

	History struct {
		DownloadDir string `hcl:"download_dir"`
	} `hcl:"history"`
}

// SensorAction maps tapped sensor indicator to maintenance endpoint.
type SensorAction struct {
	Name     string `hcl:"name,key" validate:"required"`
	Endpoint string `hcl:"endpoint" validate:"required,oneof=indexing podsensing selftest stop"`
	Action   string `hcl:"action"`
}
