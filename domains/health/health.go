package health

import "context"

type IHealthUsecase interface {
	Check(ctx context.Context) Status
}

type Status struct {
	Healthy  bool   `json:"healthy"`
	Database string `json:"database"`
	Gateway  string `json:"gateway"`
	Version  string `json:"version"`
}
