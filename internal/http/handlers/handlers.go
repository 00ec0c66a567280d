// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"

	"github.com/synterhq/synter-api/internal/http/mw"
	"github.com/synterhq/synter-api/internal/version"
)

// HealthCheckOutput represents health check response.
type HealthCheckOutput struct {
	Body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
}

// HealthCheck returns the health status of the API.
func HealthCheck(ctx context.Context, input *struct{}) (*HealthCheckOutput, error) {
	return &HealthCheckOutput{
		Body: struct {
			Status  string `json:"status"`
			Version string `json:"version"`
		}{
			Status:  "healthy",
			Version: version.Get().Version,
		},
	}, nil
}

// getWorkspaceID extracts the workspace ID from context.
func getWorkspaceID(ctx context.Context) string {
	return mw.GetWorkspaceID(ctx)
}
