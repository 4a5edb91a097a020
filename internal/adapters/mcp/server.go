package mcpadapter

import (
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/genequery/atlas-assistant/internal/core/ports"
)

// Server exposes the catalog and archive operations as MCP tools over stdio,
// so LLM hosts can drive the assistant without the HTTP surface.
type Server struct {
	finder ports.ExperimentFinder
	files  ports.FileServicer
	logger *slog.Logger

	mcp *server.MCPServer
}

func NewServer(version string, finder ports.ExperimentFinder, files ports.FileServicer, logger *slog.Logger) *Server {
	s := &Server{
		finder: finder,
		files:  files,
		logger: logger,
		mcp: server.NewMCPServer(
			"atlas-assistant",
			version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks until the host closes the stream.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("search_experiments",
		mcp.WithDescription("Search the Expression Atlas catalog by species, experiment type, and keyword. Returns up to three ranked candidates."),
		mcp.WithString("species", mcp.Description("Species name, e.g. 'homo sapiens' or 'arabidopsis thaliana'")),
		mcp.WithString("experiment_type", mcp.Description("One of 'baseline', 'differential', or 'either'")),
		mcp.WithString("keyword", mcp.Description("Free-text keyword matched against experiment descriptions")),
	), s.handleSearch)

	s.mcp.AddTool(mcp.NewTool("get_experiment_info",
		mcp.WithDescription("Look up one experiment by its accession, e.g. E-MTAB-513."),
		mcp.WithString("experiment_id", mcp.Required(), mcp.Description("Experiment accession")),
	), s.handleInfo)

	s.mcp.AddTool(mcp.NewTool("browse_experiment_ftp",
		mcp.WithDescription("List the files available in an experiment's archive directory."),
		mcp.WithString("experiment_id", mcp.Required(), mcp.Description("Experiment accession")),
	), s.handleBrowse)

	s.mcp.AddTool(mcp.NewTool("identify_expression_files",
		mcp.WithDescription("Classify filenames into expression data categories (tpm, fpkm, counts, metadata, other) and pick a recommended default."),
		mcp.WithArray("files", mcp.Required(), mcp.Description("Filenames to classify"), mcp.Items(map[string]any{"type": "string"})),
	), s.handleIdentify)

	s.mcp.AddTool(mcp.NewTool("download_expression_data",
		mcp.WithDescription("Download one expression file to local storage. Without a filename the recommended quantification file is fetched."),
		mcp.WithString("experiment_id", mcp.Required(), mcp.Description("Experiment accession")),
		mcp.WithString("filename", mcp.Description("Exact filename from the archive listing; optional")),
	), s.handleDownload)

	s.mcp.AddTool(mcp.NewTool("get_popular_experiments",
		mcp.WithDescription("Return the curated list of popular Expression Atlas experiments, optionally narrowed by type."),
		mcp.WithString("experiment_type", mcp.Description("One of 'baseline', 'differential', or 'either'")),
	), s.handlePopular)
}

// jsonResult renders a tool payload as a JSON text content block.
func jsonResult(payload any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("encode result: " + err.Error())
	}
	return mcp.NewToolResultText(string(data))
}

// toolError maps a taxonomy failure to an MCP error result. Protocol-level
// errors are reserved for malformed requests; domain failures stay in-band.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}
