package dto

import "time"

// SetPlateRequest moves the plate counter.
type SetPlateRequest struct {
	Value int64 `json:"value" binding:"min=0"`
}

// DailySweepRequest triggers a sweep. Cutoff defaults to the end of yesterday.
type DailySweepRequest struct {
	Cutoff *time.Time `json:"cutoff"`
}
