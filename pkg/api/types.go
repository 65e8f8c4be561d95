package api

import (
	"time"
)

// UploadRequest is the body of POST /upload. Pointer fields tell a missing
// or null value apart from zero.
type UploadRequest struct {
	PNGBlob   *string  `json:"pngBlob"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// UploadResponse is returned with 201 Created
type UploadResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ImageResponse is the body of GET /image/{id}
type ImageResponse struct {
	PNGBlob   string  `json:"pngBlob"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind            string
	Port            int
	CORSOrigins     []string
	MaxUploadBytes  int64 // 0 disables the limit
	Compression     bool
	ShutdownTimeout time.Duration
}

// UploadMessage is the confirmation text returned with a new image id
const UploadMessage = "Image saved successfully"
