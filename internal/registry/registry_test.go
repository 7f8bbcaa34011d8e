package registry

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_Missing(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(store.Repos) != 0 || len(store.Tables) != 0 {
		t.Fatalf("expected empty store, got %+v", store)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".registry.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("failed to write registry: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "decode registry") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestStore_SaveLoadSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", ".registry.json")
	synced := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var store Store
	store.UpsertRepo(Repo{Name: "schema", Branch: "master", Path: "/c/schema", SyncedAt: synced})
	store.UpsertRepo(Repo{Name: "api", Branch: "dev", Path: "/c/api", ManifestDigest: "abc", SyncedAt: synced})
	store.UpsertTable(Table{ID: "2", Source: "https://b.example/api.json", UpdatedAt: synced})
	store.UpsertTable(Table{ID: "1", Source: "https://a.example/api.json", UpdatedAt: synced})

	if err := store.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := []string{loaded.Repos[0].Name, loaded.Repos[1].Name}; !reflect.DeepEqual(got, []string{"api", "schema"}) {
		t.Fatalf("repos not sorted: %v", got)
	}
	if loaded.Tables[0].ID != "1" {
		t.Fatalf("tables not sorted by source: %+v", loaded.Tables)
	}
	if loaded.Repos[0].ManifestDigest != "abc" || !loaded.Repos[0].SyncedAt.Equal(synced) {
		t.Fatalf("unexpected repo %+v", loaded.Repos[0])
	}
	if store.Repos[0].Name != "schema" {
		t.Fatal("Save must not reorder the receiver")
	}
}

func TestStore_Upsert(t *testing.T) {
	var store Store
	store.UpsertRepo(Repo{Name: "api", Branch: "master"})
	store.UpsertRepo(Repo{Name: "api", Branch: "dev"})
	if len(store.Repos) != 1 {
		t.Fatalf("expected one repo, got %d", len(store.Repos))
	}
	if repo, ok := store.GetRepo("api"); !ok || repo.Branch != "dev" {
		t.Fatalf("GetRepo() = %+v, %v", repo, ok)
	}

	store.UpsertTable(Table{ID: "id-1", Source: "s", Digest: "old"})
	store.UpsertTable(Table{Source: "s", Digest: "new"})
	table, ok := store.GetTableBySource("s")
	if !ok || table.ID != "id-1" || table.Digest != "new" {
		t.Fatalf("GetTableBySource() = %+v, %v", table, ok)
	}
}

func TestStore_Remove(t *testing.T) {
	store := Store{
		Repos:  []Repo{{Name: "api"}, {Name: "schema"}},
		Tables: []Table{{ID: "x", Source: "s"}},
	}

	if _, ok := store.RemoveRepo("api"); !ok {
		t.Fatal("expected api to be removed")
	}
	if _, ok := store.RemoveRepo("api"); ok {
		t.Fatal("expected second removal to fail")
	}
	if _, ok := store.RemoveTableByID("x"); !ok || len(store.Tables) != 0 {
		t.Fatalf("expected table removal, got %+v", store.Tables)
	}
}
