package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/oukeidos/novtl/internal/glossary"
)

func sample() glossary.Glossary {
	return glossary.FromEntries([]glossary.Entry{{Source: "林峰", Target: "Lin Feng"}, {Source: "丹田", Target: "dantian"}})
}

func TestFileStore_RoundTrip(t *testing.T) {
	root := t.TempDir()
	s := NewFileStore(root)
	ctx := context.Background()

	if _, ok, err := s.Load(ctx, "42"); err != nil || ok {
		t.Fatalf("expected absent glossary, got ok=%v err=%v", ok, err)
	}
	if err := s.Save(ctx, "42", sample()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	path := filepath.Join(root, "novel_42", "glossary.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("glossary file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}

	g, ok, err := s.Load(ctx, "42")
	if err != nil || !ok {
		t.Fatalf("Load = ok=%v err=%v", ok, err)
	}
	entries := g.Entries()
	if len(entries) != 2 || entries[0].Source != "林峰" || entries[1].Target != "dantian" {
		t.Fatalf("unexpected entries %v", entries)
	}
}

func TestFileStore_RejectsBadInput(t *testing.T) {
	s := NewFileStore(t.TempDir())
	if _, _, err := s.Load(context.Background(), "../etc"); err == nil {
		t.Fatalf("expected error for path-like id")
	}
	path, _ := s.Path("7")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, _, err := s.Load(context.Background(), "7"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRedisStore_Load(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "test:", 0)
	ctx := context.Background()

	mock.ExpectGet("test:glossary:1").RedisNil()
	if _, ok, err := s.Load(ctx, "1"); err != nil || ok {
		t.Fatalf("expected absent glossary, got ok=%v err=%v", ok, err)
	}

	mock.ExpectGet("test:glossary:2").SetVal(`{"林峰":"Lin Feng"}`)
	g, ok, err := s.Load(ctx, "2")
	if err != nil || !ok {
		t.Fatalf("Load = ok=%v err=%v", ok, err)
	}
	if v, _ := g.Lookup("林峰"); v != "Lin Feng" {
		t.Fatalf("unexpected glossary value %q", v)
	}

	mock.ExpectGet("test:glossary:3").SetErr(errors.New("connection refused"))
	if _, _, err := s.Load(ctx, "3"); err == nil {
		t.Fatalf("expected redis error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet redis expectations: %v", err)
	}
}

func TestRedisStore_Save(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "", time.Hour)

	mock.ExpectSet("novtl:glossary:42", `{"林峰":"Lin Feng","丹田":"dantian"}`, time.Hour).SetVal("OK")
	if err := s.Save(context.Background(), "42", sample()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet redis expectations: %v", err)
	}
}
