package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/castkit/playoutd/internal/api/models"
	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/logging"
	"github.com/castkit/playoutd/internal/version"
)

// registerFormatRoutes registers the format registry endpoints
func (s *Server) registerFormatRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-formats",
		Method:      http.MethodGet,
		Path:        "/api/formats",
		Summary:     "List Video Formats",
		Description: "Every registered video format with geometry and audio cadence",
		Tags:        []string{"formats"},
	}, func(_ context.Context, _ *struct{}) (*models.FormatListResponse, error) {
		resp := &models.FormatListResponse{}
		for _, d := range format.All() {
			resp.Body.Formats = append(resp.Body.Formats, models.FormatData{
				Name:    d.Name,
				Width:   d.Width,
				Height:  d.Height,
				Mode:    d.FieldMode.String(),
				FPS:     d.FPS(),
				Cadence: d.AudioCadence,
			})
		}
		return resp, nil
	})
}

// registerVersionRoute registers the build info endpoint
func (s *Server) registerVersionRoute() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Get Version",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*struct{ Body version.Info }, error) {
		return &struct{ Body version.Info }{Body: version.Get()}, nil
	})
}

// registerLogRoutes registers the buffered log history endpoint
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Get Log History",
		Description: "Recent log entries from the in-memory ring buffer",
		Tags:        []string{"logs"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.LogsResponse, error) {
		resp := &models.LogsResponse{}

		buffer := logging.GetBuffer()
		if buffer == nil {
			return resp, nil
		}

		for _, entry := range buffer.ReadAll() {
			resp.Body.Entries = append(resp.Body.Entries, models.LogEntryData{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		}
		resp.Body.Count = len(resp.Body.Entries)
		return resp, nil
	})
}
