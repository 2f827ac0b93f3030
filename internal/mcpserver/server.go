// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the analytics and strategy tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Shawm69/fbigposter/internal/ingest"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/service"
)

// Server wraps the MCP server with the learning-loop tools.
type Server struct {
	mcp *server.MCPServer
	svc *service.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *service.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"fbigposter",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("run_analysis",
		mcp.WithDescription("Run every analyzer for a pipeline over a lookback window. "+
			"Returns findings plus the tactics updates that would qualify for auto-apply."),
		mcp.WithString("pipeline", mcp.Required(), mcp.Description("Pipeline name: reel, image, or story")),
		mcp.WithNumber("lookback_days", mcp.Description("Lookback window in days (default 30)")),
	), s.runAnalysis)

	s.mcp.AddTool(mcp.NewTool("apply_tactics_updates",
		mcp.WithDescription("Apply an evidence-backed batch of tactics updates to a pipeline. "+
			"Every update MUST follow the fbig://tactics-update-contract resource; "+
			"one invalid update rejects the whole batch."),
		mcp.WithString("pipeline", mcp.Required(), mcp.Description("Pipeline name: reel, image, or story")),
		mcp.WithString("updates", mcp.Required(), mcp.Description("JSON array of {field, value, evidence, insight}")),
	), s.applyUpdates)

	s.mcp.AddTool(mcp.NewTool("build_context",
		mcp.WithDescription("Assemble the layered generation brief for a pipeline: "+
			"hard rules, brand identity, learned strategy, and recent history."),
		mcp.WithString("pipeline", mcp.Required(), mcp.Description("Pipeline name: reel, image, or story")),
	), s.buildContext)

	s.mcp.AddTool(mcp.NewTool("ingest_metrics",
		mcp.WithDescription("Match scraped metric snapshots against recorded posts by caption "+
			"and apply the matched metrics. Returns matched and unmatched snapshots."),
		mcp.WithString("snapshots", mcp.Required(), mcp.Description("JSON array of scraped post snapshots")),
	), s.ingestMetrics)

	s.mcp.AddTool(mcp.NewTool("record_post",
		mcp.WithDescription("Record a just-published post in history. Stamps the current "+
			"identity and tactics versions; metrics stay empty until ingestion."),
		mcp.WithString("post", mcp.Required(), mcp.Description("JSON object: {pipeline, platform, caption, hashtags, media_ref, pillar, trace}")),
	), s.recordPost)

	s.mcp.AddTool(mcp.NewTool("check_constitution",
		mcp.WithDescription("Check candidate caption and hashtags against the rules document "+
			"before publishing. Empty violations means the content may go out."),
		mcp.WithString("pipeline", mcp.Required(), mcp.Description("Pipeline name: reel, image, or story")),
		mcp.WithString("caption", mcp.Required(), mcp.Description("Candidate caption text")),
		mcp.WithString("hashtags", mcp.Description("JSON array of hashtag strings")),
	), s.checkConstitution)

	s.mcp.AddTool(mcp.NewTool("propose_identity_change",
		mcp.WithDescription("Raise an identity-change proposal. Nothing is applied until a "+
			"human operator approves it out of band."),
		mcp.WithString("field", mcp.Required(), mcp.Description("Identity field path (e.g. voice, audience)")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Proposed new value")),
		mcp.WithString("reason", mcp.Required(), mcp.Description("Why this change is proposed")),
		mcp.WithString("evidence", mcp.Required(), mcp.Description("Sample-size statement backing the proposal")),
		mcp.WithString("post_ids", mcp.Description("JSON array of post record IDs supporting the proposal")),
	), s.proposeIdentityChange)

	s.mcp.AddTool(mcp.NewTool("list_proposals",
		mcp.WithDescription("List identity-change proposals, optionally filtered by status."),
		mcp.WithString("status", mcp.Description("Optional status filter: pending, approved, or rejected")),
	), s.listProposals)

	// Resource: tactics update contract.
	s.mcp.AddResource(
		mcp.NewResource("fbig://tactics-update-contract", "Tactics Update Contract",
			mcp.WithResourceDescription("Closed set of mutable tactics fields and the batch rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readUpdateContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) runAnalysis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pipeline, err := req.RequireString("pipeline")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lookback := req.GetInt("lookback_days", 0)

	res, err := s.svc.RunAnalysis(ctx, models.Pipeline(pipeline), lookback)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) applyUpdates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pipeline, err := req.RequireString("pipeline")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("updates")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var updates []models.TacticsUpdate
	if err := json.Unmarshal([]byte(raw), &updates); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid updates JSON: %v", err)), nil
	}

	res, err := s.svc.ApplyTacticsUpdates(ctx, models.Pipeline(pipeline), updates)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("applied %d fields, tactics now v%d: %v",
		len(res.Fields), res.Version, res.Fields)), nil
}

func (s *Server) buildContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pipeline, err := req.RequireString("pipeline")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.svc.BuildContext(ctx, models.Pipeline(pipeline))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(b.Render()), nil
}

func (s *Server) ingestMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("snapshots")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var snapshots []ingest.ScrapedPost
	if err := json.Unmarshal([]byte(raw), &snapshots); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid snapshots JSON: %v", err)), nil
	}

	res, err := s.svc.IngestMetrics(ctx, snapshots)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) recordPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("post")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var r service.RecordPostRequest
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid post JSON: %v", err)), nil
	}

	rec, err := s.svc.RecordPost(ctx, r)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("recorded: %s", rec.ID)), nil
}

func (s *Server) checkConstitution(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pipeline, err := req.RequireString("pipeline")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	caption, err := req.RequireString("caption")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var hashtags []string
	if raw := req.GetString("hashtags", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &hashtags); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid hashtags JSON: %v", err)), nil
		}
	}

	violations, err := s.svc.CheckConstitution(ctx, models.Pipeline(pipeline), caption, hashtags)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(violations) == 0 {
		return mcp.NewToolResultText("allowed: no violations"), nil
	}
	out, _ := json.MarshalIndent(violations, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) proposeIdentityChange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reason, err := req.RequireString("reason")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	evidence, err := req.RequireString("evidence")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var postIDs []string
	if raw := req.GetString("post_ids", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &postIDs); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid post_ids JSON: %v", err)), nil
		}
	}

	prop, err := s.svc.ProposeIdentityChange(ctx, field, value, reason, evidence, postIDs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("proposal %s raised (pending operator review)", prop.ID)), nil
}

func (s *Server) listProposals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := req.GetString("status", "")
	props, err := s.svc.ListProposals(ctx, status)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(props) == 0 {
		return mcp.NewToolResultText("no proposals"), nil
	}
	out, _ := json.MarshalIndent(props, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readUpdateContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "fbig://tactics-update-contract",
			MIMEType: "text/markdown",
			Text:     UpdateContract(),
		},
	}, nil
}
