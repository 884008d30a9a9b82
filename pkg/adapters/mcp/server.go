package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// FilterResponse is the structured output of the filter_series tool.
type FilterResponse struct {
	Surprise   float64            `json:"surprise" jsonschema_description:"Total Gaussian surprise of the run"`
	Trajectory *domain.Trajectory `json:"trajectory" jsonschema_description:"Per-step belief snapshots for every node"`
}

// LogLikelihoodResponse is the structured output of the log_likelihood tool.
type LogLikelihoodResponse struct {
	LogLikelihood float64 `json:"log_likelihood" jsonschema_description:"Negative total surprise under the candidate parameters"`
}

// Server wraps a model configuration and exposes filtering and likelihood
// evaluation as MCP tools, so agent infrastructure can drive the filter the
// same way a sampler does.
type Server struct {
	cfg       domain.Config
	evaluator ports.Evaluator
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance for a fixed configuration.
func NewServer(cfg domain.Config, evaluator ports.Evaluator) *Server {
	s := &Server{
		cfg:       cfg.WithDefaults(),
		evaluator: evaluator,
		mcpServer: server.NewMCPServer("canopy-mcp", strings.TrimSpace(canopy.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: filter_series
	filterTool := mcp.NewTool("filter_series",
		mcp.WithDescription("Filter an observation sequence through the model and return the belief trajectory. Use null inside the array for missing observations."),
		mcp.WithString("observations", mcp.Required(), mcp.Description("JSON array of scalar observations, null marks a missing value")),
		mcp.WithString("parameters", mcp.Description("JSON object of per-level parameter overrides (omega, rho, kappa, mu, pi), keyed by level")),
		mcp.WithString("config", mcp.Description("JSON object replacing the whole model configuration (levels, initial_mu, initial_pi, omega, rho, kappa, edges)")),
		mcp.WithOutputSchema[FilterResponse](),
	)
	s.mcpServer.AddTool(filterTool, mcp.NewStructuredToolHandler(s.handleFilter))

	// TOOL: log_likelihood
	likelihoodTool := mcp.NewTool("log_likelihood",
		mcp.WithDescription("Evaluate the log-likelihood (negative total surprise) of a candidate parameter vector."),
		mcp.WithString("observations", mcp.Required(), mcp.Description("JSON array of scalar observations, null marks a missing value")),
		mcp.WithString("parameters", mcp.Required(), mcp.Description("JSON object of per-level free parameters (omega, rho, kappa, mu, pi), keyed by level")),
		mcp.WithOutputSchema[LogLikelihoodResponse](),
	)
	s.mcpServer.AddTool(likelihoodTool, mcp.NewStructuredToolHandler(s.handleLogLikelihood))
}

// Handler methods for structured tools

func (s *Server) handleFilter(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FilterResponse, error) {
	observations, err := parseObservations(args)
	if err != nil {
		return FilterResponse{}, err
	}
	params, err := parseParameters(args)
	if err != nil {
		return FilterResponse{}, err
	}

	cfg := s.cfg
	if raw, _ := args["config"].(string); raw != "" {
		var generic map[string]any
		if err := json.Unmarshal([]byte(raw), &generic); err != nil {
			return FilterResponse{}, fmt.Errorf("config must be a JSON object: %w", err)
		}
		cfg, err = config.FromMap(generic)
		if err != nil {
			return FilterResponse{}, fmt.Errorf("invalid config: %w", err)
		}
	}
	if len(params) > 0 {
		cfg, err = cfg.Merge(params)
		if err != nil {
			return FilterResponse{}, fmt.Errorf("invalid parameters: %w", err)
		}
	}

	model, err := canopy.New(cfg)
	if err != nil {
		return FilterResponse{}, fmt.Errorf("model construction failed: %w", err)
	}
	if err := model.Fit(ctx, observations); err != nil {
		return FilterResponse{}, fmt.Errorf("filtering failed: %w", err)
	}

	return FilterResponse{
		Surprise:   model.Surprise(),
		Trajectory: model.Trajectory(),
	}, nil
}

func (s *Server) handleLogLikelihood(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (LogLikelihoodResponse, error) {
	observations, err := parseObservations(args)
	if err != nil {
		return LogLikelihoodResponse{}, err
	}
	params, err := parseParameters(args)
	if err != nil {
		return LogLikelihoodResponse{}, err
	}

	value, err := s.evaluator.LogLikelihood(ctx, params, observations)
	if err != nil {
		return LogLikelihoodResponse{}, fmt.Errorf("likelihood evaluation failed: %w", err)
	}
	return LogLikelihoodResponse{LogLikelihood: value}, nil
}

func parseObservations(args map[string]interface{}) ([]float64, error) {
	raw, _ := args["observations"].(string)
	if raw == "" {
		return nil, fmt.Errorf("observations argument is required")
	}
	var parsed []*float64
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("observations must be a JSON array of numbers or nulls: %w", err)
	}
	out := make([]float64, len(parsed))
	for i, v := range parsed {
		if v == nil {
			out[i] = domain.Missing()
		} else {
			out[i] = *v
		}
	}
	return out, nil
}

func parseParameters(args map[string]interface{}) (domain.ParameterVector, error) {
	raw, _ := args["parameters"].(string)
	if raw == "" {
		return nil, nil
	}
	var params domain.ParameterVector
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("parameters must be a JSON object keyed by level: %w", err)
	}
	return params, nil
}

func (s *Server) registerResources() {
	// EXPOSE: canopy://model
	s.mcpServer.AddResource(mcp.NewResource("canopy://model", "Model Configuration",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize configuration: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "canopy://model",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
