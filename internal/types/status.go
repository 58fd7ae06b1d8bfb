package types

// Status is merged live dispatch state.
// Zero value is standby.
type Status struct {
	Active   bool   `json:"active"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	TaskID   string `json:"task_id"`
}

func (s Status) Complete() bool { return s.Sender != "" && s.Receiver != "" }

// Standby is returned on any status fetch failure.
var Standby = Status{}
