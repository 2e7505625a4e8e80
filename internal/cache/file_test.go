package cache_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Tiliavir/harvestctl/harvest"
	"github.com/Tiliavir/harvestctl/internal/cache"
)

var (
	_ harvest.Cache    = (*cache.File)(nil)
	_ harvest.Cache    = (*cache.Memory)(nil)
	_ harvest.Cache    = (*cache.SQLite)(nil)
	_ cache.Persistent = (*cache.File)(nil)
	_ cache.Persistent = (*cache.SQLite)(nil)
)

func TestFileGetMissing(t *testing.T) {
	f, err := cache.NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if _, ok := f.Get("harvest_projects"); ok {
		t.Error("Get on empty store: expected miss")
	}
}

func TestFileSetAndGet(t *testing.T) {
	f, err := cache.NewFile(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	body := []byte(`<projects><project><id>1</id></project></projects>`)
	if err := f.Set("harvest_projects", body); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := f.Get("harvest_projects")
	if !ok {
		t.Fatal("Get after Set: expected hit")
	}
	if string(got) != string(body) {
		t.Errorf("Get = %q, want %q", got, body)
	}

	// Overwrite.
	if err := f.Set("harvest_projects", []byte("<projects/>")); err != nil {
		t.Fatalf("Set (overwrite): %v", err)
	}
	got, _ = f.Get("harvest_projects")
	if string(got) != "<projects/>" {
		t.Errorf("Get after overwrite = %q", got)
	}

	// No temp files left behind.
	tmps, _ := filepath.Glob(filepath.Join(f.Dir(), "*.tmp"))
	if len(tmps) != 0 {
		t.Errorf("found %d leftover temp files", len(tmps))
	}
}

func TestFileCorruptEntry(t *testing.T) {
	f, err := cache.NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Set("harvest_users", []byte("<users/>")); err != nil {
		t.Fatal(err)
	}

	paths, _ := filepath.Glob(filepath.Join(f.Dir(), "*.json"))
	if len(paths) != 1 {
		t.Fatalf("cache files = %d, want 1", len(paths))
	}
	if err := os.WriteFile(paths[0], []byte("{bad json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, ok := f.Get("harvest_users"); ok {
		t.Error("expected miss for corrupt entry")
	}
	if _, err := os.Stat(paths[0] + ".corrupt"); os.IsNotExist(err) {
		t.Error("expected backup file to exist after corrupt JSON")
	}
}

func TestFileListAndPurge(t *testing.T) {
	f, err := cache.NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"harvest_projects", "harvest_clients"} {
		if err := f.Set(k, []byte("<x/>")); err != nil {
			t.Fatal(err)
		}
	}

	infos, err := f.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("List = %d entries, want 2", len(infos))
	}
	for _, info := range infos {
		if info.Size != len("<x/>") {
			t.Errorf("%s size = %d, want %d", info.Key, info.Size, len("<x/>"))
		}
	}

	// Nothing is older than an hour.
	n, err := f.Purge(time.Hour)
	if err != nil {
		t.Fatalf("Purge(1h): %v", err)
	}
	if n != 0 {
		t.Errorf("Purge(1h) removed %d, want 0", n)
	}

	n, err = f.Purge(0)
	if err != nil {
		t.Fatalf("Purge(0): %v", err)
	}
	if n != 2 {
		t.Errorf("Purge(0) removed %d, want 2", n)
	}
	if _, ok := f.Get("harvest_projects"); ok {
		t.Error("expected miss after purge")
	}
}

func TestFileConcurrentSetSameKey(t *testing.T) {
	dir := t.TempDir()
	f, err := cache.NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- f.Set("harvest_projects", []byte(fmt.Sprintf("<projects n=%q/>", strconv.Itoa(i))))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Set: %v", err)
		}
	}

	if got, ok := f.Get("harvest_projects"); !ok || !strings.HasPrefix(string(got), "<projects n=") {
		t.Errorf("Get after concurrent Set = %q, %v", got, ok)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}
