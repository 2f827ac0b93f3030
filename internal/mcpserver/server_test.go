package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Shawm69/fbigposter/internal/brief"
	"github.com/Shawm69/fbigposter/internal/constitution"
	"github.com/Shawm69/fbigposter/internal/events"
	"github.com/Shawm69/fbigposter/internal/history"
	"github.com/Shawm69/fbigposter/internal/ingest"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/orchestrator"
	"github.com/Shawm69/fbigposter/internal/service"
	"github.com/Shawm69/fbigposter/internal/soul"
	"github.com/Shawm69/fbigposter/internal/tactics"
	"github.com/Shawm69/fbigposter/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	_, store := testutil.TestWorkspace(t)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	consts := constitution.NewStore(store, db, time.UTC)
	if err := consts.Bootstrap(&models.ConstitutionDoc{
		Version:      1,
		BannedTopics: []string{"politics"},
	}); err != nil {
		t.Fatal(err)
	}
	souls := soul.NewStore(store)
	if err := souls.Bootstrap(&models.SoulDoc{Version: 1, Voice: "playful", Audience: "home cooks"}); err != nil {
		t.Fatal(err)
	}
	tacs := tactics.NewStore(store)
	for _, p := range models.AllPipelines {
		if err := tacs.Bootstrap(p); err != nil {
			t.Fatal(err)
		}
	}

	hist := history.NewStore(store, db)
	briefs := brief.NewBuilder(consts, souls, tacs, hist, db)
	queue := events.NewQueue(store, logger, events.DefaultCapacity)
	orch := orchestrator.New(hist, tacs, briefs, queue, logger, orchestrator.Config{})

	svc := service.New(hist, tacs, consts, souls, ingest.New(hist, db), briefs, orch, queue)
	return New(svc)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "run_analysis":
		result, err = srv.runAnalysis(ctx, req)
	case "apply_tactics_updates":
		result, err = srv.applyUpdates(ctx, req)
	case "build_context":
		result, err = srv.buildContext(ctx, req)
	case "ingest_metrics":
		result, err = srv.ingestMetrics(ctx, req)
	case "record_post":
		result, err = srv.recordPost(ctx, req)
	case "check_constitution":
		result, err = srv.checkConstitution(ctx, req)
	case "propose_identity_change":
		result, err = srv.proposeIdentityChange(ctx, req)
	case "list_proposals":
		result, err = srv.listProposals(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestApplyUpdatesTool(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "apply_tactics_updates", map[string]interface{}{
		"pipeline": "reel",
		"updates":  `[{"field":"caption.tone","value":"warm","evidence":"n=12 posts over 30 days"}]`,
	})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, "v2") {
		t.Errorf("result = %q, want version bump to v2", text)
	}
}

func TestApplyUpdatesToolRejectsBadJSON(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "apply_tactics_updates", map[string]interface{}{
		"pipeline": "reel",
		"updates":  "{not json",
	})
	if !r.IsError {
		t.Error("expected error for malformed updates JSON")
	}
}

func TestBuildContextTool(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "build_context", map[string]interface{}{"pipeline": "reel"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	text := resultText(r)
	for _, want := range []string{"never mention: politics", "Voice: playful", "Tactics v1."} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered brief missing %q", want)
		}
	}
}

func TestBuildContextToolUnknownPipeline(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "build_context", map[string]interface{}{"pipeline": "livestream"})
	if !r.IsError {
		t.Error("expected error for unknown pipeline")
	}
}

func TestRecordPostAndIngestTools(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "record_post", map[string]interface{}{
		"post": `{"pipeline":"reel","platform":"facebook","caption":"Sunrise smoothie in 60 seconds","pillar":"recipes"}`,
	})
	if r.IsError {
		t.Fatalf("record_post error: %s", resultText(r))
	}
	if text := resultText(r); !strings.HasPrefix(text, "recorded: ") {
		t.Errorf("result = %q", text)
	}

	r = callTool(t, srv, "ingest_metrics", map[string]interface{}{
		"snapshots": `[{"caption":"Sunrise smoothie in 60 seconds","post_type":"reel","viewers":1000,"engagement":50,"impressions":2000,"watch_time_ms":12000000}]`,
	})
	if r.IsError {
		t.Fatalf("ingest_metrics error: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, `"matched"`) {
		t.Errorf("result = %q", text)
	}
}

func TestCheckConstitutionTool(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "check_constitution", map[string]interface{}{
		"pipeline": "reel",
		"caption":  "a calm sunday",
	})
	if got := resultText(r); got != "allowed: no violations" {
		t.Errorf("result = %q", got)
	}

	r = callTool(t, srv, "check_constitution", map[string]interface{}{
		"pipeline": "reel",
		"caption":  "my take on politics",
	})
	if got := resultText(r); !strings.Contains(got, "banned_topic") {
		t.Errorf("result = %q, want banned_topic violation", got)
	}
}

func TestProposalTools(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "list_proposals", map[string]interface{}{})
	if got := resultText(r); got != "no proposals" {
		t.Errorf("empty list = %q", got)
	}

	r = callTool(t, srv, "propose_identity_change", map[string]interface{}{
		"field":    "audience",
		"value":    "busy parents",
		"reason":   "shorts outperform with this segment",
		"evidence": "n=40 posts",
		"post_ids": `["post-7", "post-9"]`,
	})
	if r.IsError {
		t.Fatalf("propose error: %s", resultText(r))
	}
	if got := resultText(r); !strings.Contains(got, "pending operator review") {
		t.Errorf("result = %q", got)
	}

	r = callTool(t, srv, "list_proposals", map[string]interface{}{"status": "pending"})
	got := resultText(r)
	if !strings.Contains(got, "busy parents") {
		t.Errorf("list = %q", got)
	}
	if !strings.Contains(got, "post-7") || !strings.Contains(got, "post-9") {
		t.Errorf("supporting post ids dropped: %q", got)
	}
}

func TestProposalToolRejectsBadPostIDs(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "propose_identity_change", map[string]interface{}{
		"field":    "voice",
		"value":    "calm",
		"reason":   "r",
		"evidence": "n=5",
		"post_ids": "post-7",
	})
	if !r.IsError {
		t.Fatal("expected error for non-array post_ids")
	}
}

func TestRunAnalysisToolEmptyHistory(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "run_analysis", map[string]interface{}{"pipeline": "reel"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	if got := resultText(r); !strings.Contains(got, `"posts_analyzed": 0`) {
		t.Errorf("result = %q", got)
	}
}

func TestRunAnalysisToolMissingPipeline(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "run_analysis", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error when pipeline is missing")
	}
}

func TestUpdateContractListsEveryMutableField(t *testing.T) {
	contract := UpdateContract()
	for _, f := range tactics.MutableFields() {
		if !strings.Contains(contract, f) {
			t.Errorf("contract missing field %q", f)
		}
	}
	if strings.Contains(contract, "soul.voice") {
		t.Error("identity fields must not appear in the tactics contract")
	}
}
