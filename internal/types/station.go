package types

type Station struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
	Code   string `json:"code"`
}

// Destination is dispatch target; Name is component id, Number parsed from it.
type Destination struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
	Code   string `json:"code"`
	Kind   string `json:"kind"`
}

type PodRequest struct {
	RequestID        string `json:"requestId"`
	RequesterStation string `json:"requesterStation"`
	Timestamp        int64  `json:"timestamp"`
}

type HistoryEntry struct {
	TaskID   string `json:"task_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Priority string `json:"priority,omitempty"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
}

// Component is one node of backend network architecture.
type Component struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}
