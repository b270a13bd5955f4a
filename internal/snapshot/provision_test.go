package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDir_CreatesParents(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := EnsureDir(target); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	assertDir(t, target)
}

func TestEnsureDir_Idempotent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "x")

	for i := 0; i < 3; i++ {
		if err := EnsureDir(target); err != nil {
			t.Fatalf("ensure dir attempt %d: %v", i, err)
		}
	}
	assertDir(t, target)
}

func TestEnsureDir_FileAtPath(t *testing.T) {
	target := filepath.Join(t.TempDir(), "taken")
	writeFile(t, target)

	err := EnsureDir(target)
	if !errors.Is(err, ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}
	if IsRetryable(err) {
		t.Error("path conflicts must not be retryable")
	}
}

func TestEnsureDir_FileAtAncestor(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "json"))

	err := EnsureDir(filepath.Join(base, "json", "site", "site99"))
	if !errors.Is(err, ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}
}

func TestEnsureDir_DanglingSymlink(t *testing.T) {
	base := t.TempDir()
	link := filepath.Join(base, "json")
	if err := os.Symlink(filepath.Join(base, "gone"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	for _, target := range []string{link, filepath.Join(link, "user", "abc123")} {
		err := EnsureDir(target)
		if !errors.Is(err, ErrPathConflict) {
			t.Fatalf("EnsureDir(%s): expected ErrPathConflict, got %v", target, err)
		}
		if IsRetryable(err) {
			t.Errorf("EnsureDir(%s): dangling symlink must not be retryable", target)
		}
	}
}

func TestEnsureDir_SymlinkedDirectory(t *testing.T) {
	base := t.TempDir()
	realDir := filepath.Join(base, "real")
	if err := os.Mkdir(realDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(base, "out")
	if err := os.Symlink(realDir, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if err := EnsureDir(filepath.Join(link, "json", "site")); err != nil {
		t.Fatalf("ensure dir through symlink: %v", err)
	}
	assertDir(t, filepath.Join(realDir, "json", "site"))
}

func TestEnsureTree_AllSubdirs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "json", "site", "site99")

	if err := EnsureTree(dir, SiteSubdirs); err != nil {
		t.Fatalf("ensure tree: %v", err)
	}
	for _, name := range SiteSubdirs {
		assertDir(t, filepath.Join(dir, name))
	}

	// Partially provisioned trees converge on retry.
	if err := os.Remove(filepath.Join(dir, "page")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := EnsureTree(dir, SiteSubdirs); err != nil {
		t.Fatalf("ensure tree retry: %v", err)
	}
	assertDir(t, filepath.Join(dir, "page"))
}

func TestEnsureTree_ConflictingSubdirFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site99")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "post"))

	err := EnsureTree(dir, SiteSubdirs)
	if !errors.Is(err, ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}

	// Once the operator clears the conflict, the retry completes the tree.
	if err := os.Remove(filepath.Join(dir, "post")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := EnsureTree(dir, SiteSubdirs); err != nil {
		t.Fatalf("ensure tree after fix: %v", err)
	}
	for _, name := range SiteSubdirs {
		assertDir(t, filepath.Join(dir, name))
	}
}

func TestEnsureTree_NoSubdirs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "json", "user", "abc123")
	if err := EnsureTree(dir, nil); err != nil {
		t.Fatalf("ensure tree: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty user dir, got %d entries", len(entries))
	}
}

func assertDir(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if !info.IsDir() {
		t.Fatalf("%s is not a directory", path)
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
