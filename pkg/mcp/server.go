// Package mcp adapts railguard-d to the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/railguard-ai/railguard/pkg/client"
)

// Server bridges MCP clients to the railguard daemon.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
}

// NewServer creates a new MCP server instance.
func NewServer(apiURL string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"railguard",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		"railguard://runs",
		"Railguard Run Trace",
		mcp.WithResourceDescription("Recent pipeline runs with phase transitions, degraded sources and validation outcomes"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadRuns)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"generate_guardrails",
		mcp.WithDescription("Generate an AI governance guardrail configuration from a system assessment. Returns the full artifact including rules, validation report and confidence score."),
		mcp.WithString("assessment", mcp.Required(), mcp.Description("The assessment questionnaire as a JSON object")),
		mcp.WithString("policies", mcp.Description("Optional organizational policies as a JSON object")),
	), s.handleGenerateGuardrails)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"railguard-aware",
		mcp.WithPromptDescription("Provides context about Railguard concepts (Assessments, Guardrails, Conflicts, Tiers)"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadRuns(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	events, err := s.apiClient.Runs(ctx, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal runs: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleGenerateGuardrails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assessment := mcp.ParseString(request, "assessment", "")
	policies := mcp.ParseString(request, "policies", "")

	if assessment == "" {
		return mcp.NewToolResultError("missing required argument: assessment"), nil
	}
	if !json.Valid([]byte(assessment)) {
		return mcp.NewToolResultError("assessment is not valid JSON"), nil
	}
	req := client.GenerateRequest{Assessment: json.RawMessage(assessment)}
	if policies != "" {
		if !json.Valid([]byte(policies)) {
			return mcp.NewToolResultError("policies is not valid JSON"), nil
		}
		req.Policies = json.RawMessage(policies)
	}

	result, err := s.apiClient.Generate(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	return mcp.NewToolResultText(string(result.Raw)), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "railguard-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are interacting with Railguard, a guardrail synthesis engine for AI systems.

Concepts:
- Assessment: A questionnaire describing an AI system (technical, business, ethical, data, roadmap sections).
- Guardrail: One enforceable rule with a type, severity, and implementation details.
- Specialists: Seven domain analysts (cost, performance, security, data governance, compliance, ethics, risk) that each propose guardrails.
- Conflicts: Disagreements between proposals, resolved by a context-selected strategy.
- Tiers: The final rule set is layered as critical, consensus, resolved, and contextual rules.

When the user describes an AI system and asks for governance controls, use the
'generate_guardrails' tool with the assessment as JSON. Present the critical
rules first and mention the validation score and confidence.
`

	return mcp.NewGetPromptResult(
		"railguard-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
