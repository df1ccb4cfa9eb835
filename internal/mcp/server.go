package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/martinsuchenak/netgen/internal/log"
	"github.com/martinsuchenak/netgen/internal/model"
	"github.com/martinsuchenak/netgen/internal/planner"
	"github.com/martinsuchenak/netgen/internal/storage"
	"github.com/paularlott/mcp"
)

// Server wraps the MCP server with plan storage
type Server struct {
	mcpServer   *mcp.Server
	store       storage.PlanStore
	bearerToken string
}

// NewServer creates a new MCP server for network config generation
func NewServer(store storage.PlanStore, bearerToken string) *Server {
	s := &Server{
		mcpServer:   mcp.NewServer("netgen", "1.0.0"),
		store:       store,
		bearerToken: bearerToken,
	}
	s.registerTools()
	return s
}

// registerTools registers all config generation tools
func (s *Server) registerTools() {
	// generate_config - Generate a network config from a manifest
	s.mcpServer.RegisterTool(
		mcp.NewTool("generate_config", "Generate an expanded network configuration from a YAML manifest of subnets and network requests. The plan is saved to history and the rendered YAML is returned.",
			mcp.String("manifest", "YAML manifest with subnets and networks sections", mcp.Required()),
			mcp.String("save", "Persist the plan to history, true or false (default true)"),
		),
		s.handleGenerateConfig,
	)

	// validate_manifest - Check a manifest without saving anything
	s.mcpServer.RegisterTool(
		mcp.NewTool("validate_manifest", "Validate a YAML manifest of subnets and network requests without saving a plan. Reports whether every request fits the declared subnets.",
			mcp.String("manifest", "YAML manifest with subnets and networks sections", mcp.Required()),
		),
		s.handleValidateManifest,
	)

	// list_plans - List plans from the history
	s.mcpServer.RegisterTool(
		mcp.NewTool("list_plans", "List generated plans from the history, newest first",
			mcp.String("source", "Filter by plan source (cli, api or mcp)"),
			mcp.String("limit", "Maximum number of plans to return"),
		),
		s.handleListPlans,
	)

	// get_plan - Get a plan with its rendered output
	s.mcpServer.RegisterTool(
		mcp.NewTool("get_plan", "Get a plan by ID, including its manifest and the rendered network configuration",
			mcp.String("id", "Plan ID", mcp.Required()),
			mcp.String("field", "Return only this part of the plan, output or manifest"),
		),
		s.handleGetPlan,
	)
}

// HandleRequest handles MCP HTTP requests with optional bearer token authentication
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	log.Debug("MCP request received", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

	// Check bearer token if configured
	if s.bearerToken != "" {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			log.Warn("MCP request missing Authorization header", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Missing Authorization header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			log.Warn("MCP request invalid Authorization format", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid Authorization format", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		if token != s.bearerToken {
			log.Warn("MCP request invalid token", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
	}

	s.mcpServer.HandleRequest(w, r)
}

// Tool handlers

func (s *Server) handleGenerateConfig(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	manifest, err := req.String("manifest")
	if err != nil {
		log.Warn("MCP generate - missing manifest", "error", err)
		return nil, mcp.NewToolErrorInvalidParams("manifest is required: " + err.Error())
	}

	save, err := strconv.ParseBool(req.StringOr("save", "true"))
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("save must be true or false")
	}

	log.Debug("MCP generate request", "bytes", len(manifest), "save", save)

	plan, err := planner.Generate([]byte(manifest), "mcp")
	if err != nil {
		log.Warn("MCP generate rejected manifest", "error", err)
		return nil, mcp.NewToolErrorInvalidParams("invalid manifest: " + err.Error())
	}

	if save {
		if err := s.store.SavePlan(plan); err != nil {
			log.Error("MCP plan save failed", "error", err, "id", plan.ID)
			return nil, mcp.NewToolErrorInternal("failed to save plan: " + err.Error())
		}
	}

	log.Info("MCP plan generated successfully", "id", plan.ID, "networks", plan.Networks, "saved", save)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Generated plan %s (%d networks across %d subnets)\n\n", plan.ID, plan.Networks, plan.Subnets))
	result.WriteString(plan.Output)
	return mcp.NewToolResponseText(result.String()), nil
}

func (s *Server) handleValidateManifest(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	manifest, err := req.String("manifest")
	if err != nil {
		log.Warn("MCP validate - missing manifest", "error", err)
		return nil, mcp.NewToolErrorInvalidParams("manifest is required: " + err.Error())
	}

	log.Debug("MCP validate request", "bytes", len(manifest))

	summary, err := planner.Validate([]byte(manifest))
	if err != nil {
		log.Info("MCP validate rejected manifest", "error", err)
		return mcp.NewToolResponseText("Manifest is invalid: " + err.Error()), nil
	}

	log.Info("MCP validate completed", "networks", summary.Networks, "subnets", summary.Subnets)
	return mcp.NewToolResponseText(fmt.Sprintf("Manifest is valid: %d networks fit across %d subnets", summary.Networks, summary.Subnets)), nil
}

func (s *Server) handleListPlans(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	source := req.StringOr("source", "")

	filter := &model.PlanFilter{Source: source}
	if v := req.StringOr("limit", ""); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return nil, mcp.NewToolErrorInvalidParams("limit must be a non-negative number")
		}
		filter.Limit = limit
	}

	log.Debug("MCP list plans request", "source", source, "limit", filter.Limit)

	plans, err := s.store.ListPlans(filter)
	if err != nil {
		log.Error("MCP list plans failed", "error", err)
		return nil, mcp.NewToolErrorInternal("failed to list plans: " + err.Error())
	}

	log.Info("MCP list plans completed", "count", len(plans))

	if len(plans) == 0 {
		if source != "" {
			return mcp.NewToolResponseText(fmt.Sprintf("No plans found with source: %s", source)), nil
		}
		return mcp.NewToolResponseText("No plans found"), nil
	}

	// Summaries go back as JSON so callers can pick plans apart
	data, err := json.MarshalIndent(plans, "", "  ")
	if err != nil {
		log.Error("MCP list plans encode failed", "error", err)
		return nil, mcp.NewToolErrorInternal("failed to encode plans: " + err.Error())
	}

	return mcp.NewToolResponseText(string(data)), nil
}

func (s *Server) handleGetPlan(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	id, err := req.String("id")
	if err != nil {
		log.Warn("MCP get plan - missing ID", "error", err)
		return nil, mcp.NewToolErrorInvalidParams("id is required: " + err.Error())
	}

	field := req.StringOr("field", "")
	if field != "" && field != "output" && field != "manifest" {
		return nil, mcp.NewToolErrorInvalidParams("field must be output or manifest")
	}

	log.Debug("MCP get plan request", "id", id, "field", field)
	plan, err := s.store.GetPlan(id)
	if err != nil {
		log.Error("MCP get plan failed", "error", err, "id", id)
		return nil, mcp.NewToolErrorInternal("plan not found: " + err.Error())
	}

	log.Info("MCP plan retrieved successfully", "id", id)

	switch field {
	case "output":
		return mcp.NewToolResponseText(plan.Output), nil
	case "manifest":
		return mcp.NewToolResponseText(plan.Manifest), nil
	}

	var result strings.Builder
	result.WriteString(s.formatPlanSummary(plan))
	result.WriteString("\nConfiguration:\n")
	result.WriteString(plan.Output)
	return mcp.NewToolResponseText(result.String()), nil
}

func (s *Server) formatPlanSummary(plan *model.Plan) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("ID: %s\n", plan.ID))
	result.WriteString(fmt.Sprintf("Created: %s\n", plan.CreatedAt.Format("2006-01-02 15:04:05")))
	if plan.Source != "" {
		result.WriteString(fmt.Sprintf("Source: %s\n", plan.Source))
	}
	result.WriteString(fmt.Sprintf("Networks: %d across %d subnets\n", plan.Networks, plan.Subnets))
	if plan.Digest != "" {
		result.WriteString(fmt.Sprintf("Digest: %s\n", plan.Digest))
	}
	return result.String()
}

// GetHTTPHandler returns the HTTP handler for the MCP server
func (s *Server) GetHTTPHandler() http.HandlerFunc {
	return s.HandleRequest
}
