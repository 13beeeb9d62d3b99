// Package health reports service health over HTTP.
package health

// Status is the aggregate health state.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// Report is the detailed health payload.
type Report struct {
	ChainID         string `json:"chain_id"`
	Status          Status `json:"status"`
	HeadBlock       uint64 `json:"head_block"`
	LastBlock       uint64 `json:"last_block"`
	CheckpointBlock uint64 `json:"checkpoint_block"`
	BlockLag        uint64 `json:"block_lag"`
	Connections     int    `json:"connections"`
	Rooms           int    `json:"rooms"`
}
