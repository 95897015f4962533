// Package models contain needed models
package models

// StegoResponse represents the response after an embed or a failed request
type StegoResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// CapacityResponse reports how much payload a host can carry
type CapacityResponse struct {
	Success       bool   `json:"success"`
	Format        string `json:"format"`
	CarrierUnits  int    `json:"carrier_units"`
	CapacityBytes int    `json:"capacity_bytes"`
	NominalBits   uint64 `json:"nominal_bits,omitempty"`
}

// AudioMetadata represents metadata about an audio host
type AudioMetadata struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   float64
	TotalBytes int
	Title      string
	Artist     string
}

// StegoConfig represents configuration for the LSB codec.
// SampleStride is the distance in bytes between two carrier units; 0 and 1
// both mean every byte carries a bit.
type StegoConfig struct {
	SampleStride int
}
