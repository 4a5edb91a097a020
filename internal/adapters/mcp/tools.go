package mcpadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	experimentType, err := parseExperimentType(request.GetString("experiment_type", ""))
	if err != nil {
		return toolError(err), nil
	}

	candidates, err := s.finder.Search(
		ctx,
		request.GetString("species", ""),
		experimentType,
		request.GetString("keyword", ""),
	)
	if err != nil {
		s.logger.Warn("search_experiments_failed", "error", err)
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"candidates": candidates}), nil
}

func (s *Server) handleInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	experimentID, err := request.RequireString("experiment_id")
	if err != nil {
		return toolError(err), nil
	}

	record, err := s.finder.Info(ctx, experimentID)
	if err != nil {
		s.logger.Warn("get_experiment_info_failed", "experiment_id", experimentID, "error", err)
		return toolError(err), nil
	}
	return jsonResult(record), nil
}

func (s *Server) handleBrowse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	experimentID, err := request.RequireString("experiment_id")
	if err != nil {
		return toolError(err), nil
	}

	filenames, err := s.files.Browse(ctx, experimentID)
	if err != nil {
		s.logger.Warn("browse_experiment_ftp_failed", "experiment_id", experimentID, "error", err)
		return toolError(err), nil
	}
	return jsonResult(map[string]any{
		"experiment_id": strings.ToUpper(strings.TrimSpace(experimentID)),
		"files":         filenames,
	}), nil
}

func (s *Server) handleIdentify(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filenames := request.GetStringSlice("files", nil)
	if len(filenames) == 0 {
		return toolError(fmt.Errorf("files list is required")), nil
	}
	return jsonResult(s.files.Identify(filenames)), nil
}

func (s *Server) handleDownload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	experimentID, err := request.RequireString("experiment_id")
	if err != nil {
		return toolError(err), nil
	}
	filename := request.GetString("filename", "")

	path, err := s.files.Download(ctx, experimentID, filename)
	if err != nil {
		s.logger.Warn("download_expression_data_failed", "experiment_id", experimentID, "filename", filename, "error", err)
		return toolError(err), nil
	}
	return jsonResult(map[string]any{
		"experiment_id": strings.ToUpper(strings.TrimSpace(experimentID)),
		"path":          path,
	}), nil
}

func (s *Server) handlePopular(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	experimentType, err := parseExperimentType(request.GetString("experiment_type", ""))
	if err != nil {
		return toolError(err), nil
	}

	experiments, err := s.finder.Popular(ctx, experimentType)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"experiments": experiments}), nil
}

func parseExperimentType(raw string) (domain.ExperimentType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "baseline":
		return domain.TypeBaseline, nil
	case "differential":
		return domain.TypeDifferential, nil
	case "either":
		return domain.TypeEither, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "parse experiment type", fmt.Errorf("unknown type %q", raw))
	}
}
