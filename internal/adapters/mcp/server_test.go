package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/swing/internal/adapters/mcp"
	"github.com/okian/swing/internal/adapters/repository"
	"github.com/okian/swing/internal/adapters/source"
	service "github.com/okian/swing/internal/app"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/internal/domain/types"
	"github.com/okian/swing/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func game(id string) model.Game {
	scores := [][2]int{{0, 0}, {2, 0}, {2, 0}, {2, 2}, {2, 2}, {5, 2}, {5, 2}}
	events := make([]model.PlayEvent, len(scores))
	for i, s := range scores {
		events[i] = model.PlayEvent{PlayIndex: i, Period: 1, HomeScore: s[0], AwayScore: s[1]}
	}
	return model.Game{ID: id, Sport: "basketball", Events: events}
}

// connect starts the server on in-memory transports and returns a client session.
func connect(t *testing.T, svc *service.Service) *sdkmcp.ClientSession {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := mcp.NewServer(svc, "test").Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("connect server: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func call(session *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	So(err, ShouldBeNil)
	So(res, ShouldNotBeNil)
	return res
}

func decode(res *sdkmcp.CallToolResult, v any) {
	So(res.IsError, ShouldBeFalse)
	So(res.Content, ShouldHaveLength, 1)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	So(ok, ShouldBeTrue)
	So(json.Unmarshal([]byte(text.Text), v), ShouldBeNil)
}

func TestTools(t *testing.T) {
	ctx := context.Background()
	svc := service.New(repository.NewMemory(), source.NewMemory(game("g1")))
	if _, err := svc.Generate(ctx, "g1"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.Regenerate(ctx, "g1"); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	session := connect(t, svc)

	Convey("Given an MCP client connected to the server", t, func() {
		Convey("Every tool is listed", func() {
			res, err := session.ListTools(ctx, nil)
			So(err, ShouldBeNil)
			names := make([]string, 0, len(res.Tools))
			for _, tool := range res.Tools {
				names = append(names, tool.Name)
			}
			So(names, ShouldContain, "latest_trace")
			So(names, ShouldContain, "list_versions")
			So(names, ShouldContain, "compare_versions")
			So(names, ShouldContain, "quality_check")
		})

		Convey("latest_trace returns the active version", func() {
			var tb types.TraceBundle
			decode(call(session, "latest_trace", map[string]any{"game_id": "g1"}), &tb)
			So(tb.Version.VersionNumber, ShouldEqual, 2)
			So(len(tb.Traces), ShouldEqual, len(tb.Moments))
		})

		Convey("list_versions returns the history", func() {
			var h types.VersionHistory
			decode(call(session, "list_versions", map[string]any{"game_id": "g1"}), &h)
			So(h.ActiveVersion, ShouldEqual, 2)
			So(h.Versions, ShouldHaveLength, 2)
		})

		Convey("compare_versions diffs two versions", func() {
			var res struct {
				HashesMatch bool `json:"hashes_match"`
			}
			decode(call(session, "compare_versions", map[string]any{"game_id": "g1", "version_a": 1, "version_b": 2}), &res)
			So(res.HashesMatch, ShouldBeTrue)
		})

		Convey("quality_check defaults to the active version", func() {
			var report types.QualityReport
			decode(call(session, "quality_check", map[string]any{"game_id": "g1"}), &report)
			So(report.Version, ShouldEqual, 2)
		})

		Convey("Failures are reported as tool errors", func() {
			So(call(session, "latest_trace", map[string]any{"game_id": "missing"}).IsError, ShouldBeTrue)
			So(call(session, "latest_trace", map[string]any{"game_id": " "}).IsError, ShouldBeTrue)
			So(call(session, "compare_versions", map[string]any{"game_id": "g1", "version_a": 1, "version_b": 7}).IsError, ShouldBeTrue)
		})
	})
}

func TestServe_NilTransport(t *testing.T) {
	Convey("Serve rejects a nil transport", t, func() {
		err := mcp.Serve(context.Background(), nil, "test", nil)
		So(err, ShouldNotBeNil)
	})
}
