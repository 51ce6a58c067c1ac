package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/swing/internal/adapters/repository"
	"github.com/okian/swing/internal/adapters/repository/repositorytest"
	"github.com/okian/swing/internal/domain/model"
	"github.com/okian/swing/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func openTempStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "versions.db")
	store, err := Open(context.Background(), "sqlite://"+path, opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestStore(t *testing.T) {
	repositorytest.Run(t, func() repository.Store { return openTempStore(t) })
}

func TestStore_InMemory(t *testing.T) {
	store, err := Open(context.Background(), "sqlite://:memory:")
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	defer store.Close()

	v, err := store.Commit(context.Background(), repositorytest.Bundle("g1", model.SourceAPI))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if v.VersionNumber != 1 || !v.IsActive {
		t.Fatalf("version = %+v, want v1 active", v)
	}
}

func TestStore_ReopenKeepsVersions(t *testing.T) {
	Convey("Given a file-backed store that is closed and reopened", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "versions.db")
		at := time.Date(2026, 5, 2, 8, 30, 0, 123_000_000, time.UTC)

		first, err := Open(ctx, "sqlite://"+path, WithClock(func() time.Time { return at }))
		So(err, ShouldBeNil)
		_, err = first.Commit(ctx, repositorytest.Bundle("g1", model.SourceManual))
		So(err, ShouldBeNil)
		So(first.Close(), ShouldBeNil)

		second, err := Open(ctx, "sqlite://"+path)
		So(err, ShouldBeNil)
		defer second.Close()

		active, err := second.Active(ctx, "g1")
		So(err, ShouldBeNil)
		So(active.Version.VersionNumber, ShouldEqual, 1)
		So(active.Version.CreatedAt.Equal(at), ShouldBeTrue)

		v, err := second.Commit(ctx, repositorytest.Bundle("g1", model.SourceRegenerate))
		So(err, ShouldBeNil)
		So(v.VersionNumber, ShouldEqual, 2)
	})
}

func TestParseDSN(t *testing.T) {
	cases := map[string]string{
		"sqlite://:memory:":                   ":memory:",
		"sqlite://./data/swing.db":            "data/swing.db",
		"sqlite:///var/lib/swing.db":          "/var/lib/swing.db",
		"sqlite://swing.db?_txlock=immediate": "swing.db?_txlock=immediate",
	}
	for in, want := range cases {
		got, err := parseDSN(in)
		if err != nil {
			t.Fatalf("parseDSN(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("parseDSN(%q) = %q, want %q", in, got, want)
		}
	}
	for _, bad := range []string{"postgres://x", "sqlite://"} {
		if _, err := parseDSN(bad); err == nil {
			t.Fatalf("parseDSN(%q) expected error", bad)
		}
	}
}

func TestExtractUp(t *testing.T) {
	got := extractUp("-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;\n")
	if got != "\nCREATE TABLE a (x INT);\n" {
		t.Fatalf("extractUp = %q", got)
	}
}
