package domain

import "time"

// FileOp is the kind of filesystem change reported by a watcher.
type FileOp string

const (
	FileCreated FileOp = "Create"
	FileChanged FileOp = "Change"
	FileRenamed FileOp = "Rename"
)

// FileEvent is an immutable record pushed from watcher callbacks onto the monitor queue.
type FileEvent struct {
	Op      FileOp    `json:"op"`
	Path    string    `json:"path"`
	OldPath string    `json:"old_path,omitempty"` // renames only
	At      time.Time `json:"at"`
}

// MonitorState is the lifecycle state of the real-time monitor.
type MonitorState string

const (
	MonitorStopped  MonitorState = "Stopped"
	MonitorStarting MonitorState = "Starting"
	MonitorActive   MonitorState = "Active"
	MonitorStopping MonitorState = "Stopping"
)

// MonitorStatus is a point-in-time view of the monitor.
type MonitorStatus struct {
	State        MonitorState `json:"state"`
	WatchedPaths []string     `json:"watched_paths"`
	QueueDepth   int          `json:"queue_depth"`
	Processed    int64        `json:"processed"`
	Detections   int64        `json:"detections"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
}
