// Package queue defines the messages exchanged over RabbitMQ and the
// background consumer that records them.
package queue

// AllocatedQueue is the durable queue carrying AllocationCompletedEvent.
const AllocatedQueue = "seating.allocated"

// ZoneTypeResult summarizes how one zone type was allocated.
type ZoneTypeResult struct {
	ZoneType string `json:"zone_type"`
	Strategy string `json:"strategy"`
	Status   string `json:"status"`
	Cost     int64  `json:"cost"`
}

// AllocationCompletedEvent is published after an allocation run has been
// committed.  It carries enough information for downstream consumers to
// log or notify without querying the primary database.
type AllocationCompletedEvent struct {
	RunID         string           `json:"run_id"`
	EventID       uint64           `json:"event_id"`
	EventName     string           `json:"event_name"`
	Status        string           `json:"status"`
	Assigned      int              `json:"assigned"`
	UnseatedHosts []uint64         `json:"unseated_hosts"`
	Cost          int64            `json:"cost"`
	ZoneTypes     []ZoneTypeResult `json:"zone_types"`
	CompletedAt   string           `json:"completed_at"`
}
