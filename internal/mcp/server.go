package mcp

import (
	"context"
	"fmt"

	"growth-mcs/internal/config"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// maxToolTrials bounds the trials a single tool call may request.
const maxToolTrials = 1_000_000

// Server holds the state for the MCP server.
type Server struct {
	cfg    *config.AppConfig
	server *sdk.Server
}

// NewServer creates a new MCP server with every tool registered.
func NewServer(cfg *config.AppConfig, version string) *Server {
	s := &Server{cfg: cfg}
	s.server = sdk.NewServer(&sdk.Implementation{Name: "growth-mcs", Version: version}, nil)
	s.registerTools()
	return s
}

// Start serves requests over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Info().Msg("MCP Server starting Stdio loop")
	if err := s.server.Run(ctx, &sdk.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name: "run_simulation",
		Description: "Run a Monte-Carlo simulation of cumulative growth for one or more entities. " +
			"Provide inline forecasts (ticker plus per-year growth in percent) or the path of a forecast file. " +
			"Returns summary statistics, percentiles, Value at Risk, threshold probabilities, the outcome " +
			"histogram and per-year statistics for each entity. Entities without forecast years are reported as skipped.",
		InputSchema: runSimulationSchema(),
	}, s.handleRunSimulation)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: "read_forecasts",
		Description: "Parse a forecast file made of 'REVENUE FORECAST FOR <TICKER>' sections followed by " +
			"'<year>: <growth>%' lines and return the records. Relative paths resolve against DATA_PATH.",
	}, s.handleReadForecasts)
}

// runSimulationSchema is the inferred input schema with numeric bounds added.
func runSimulationSchema() *jsonschema.Schema {
	schema, err := jsonschema.For[RunSimulationInput](nil)
	if err != nil {
		panic(fmt.Sprintf("run_simulation schema: %v", err))
	}

	bound := func(name string, lo, hi *float64, exclusiveLo bool) {
		prop, ok := schema.Properties[name]
		if !ok {
			return
		}
		if exclusiveLo {
			prop.ExclusiveMinimum = lo
		} else {
			prop.Minimum = lo
		}
		prop.Maximum = hi
	}
	bound("simulations", ptr(1), ptr(maxToolTrials), false)
	bound("volatility_factor", ptr(0), nil, true)
	bound("histogram_width", ptr(1), nil, false)
	return schema
}

func ptr(f float64) *float64 { return &f }
