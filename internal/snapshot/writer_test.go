package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrigden/muckamuck/internal/metrics"
	"github.com/jrigden/muckamuck/internal/model"
)

func newTestWriter(t *testing.T) (*Writer, *metrics.InMemoryRecorder) {
	t.Helper()
	recorder := metrics.NewInMemory()
	return NewWriter(newTestResolver(t), nil, recorder), recorder
}

func TestWriteSnapshot_UserScenario(t *testing.T) {
	w, recorder := newTestWriter(t)

	u := model.User{
		UUID:        "abc123",
		Name:        "Ada",
		PublicEmail: "ada@pub.example",
		Email:       "ada@priv.example",
		Password:    "hashed-secret",
		CreatedDate: testCreated,
	}

	res, err := w.WriteSnapshot(u)
	if err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	wantPath := filepath.Join(w.Resolver().Root(), "json", "user", "abc123", "about.json")
	if res.Path != wantPath {
		t.Errorf("path = %s, want %s", res.Path, wantPath)
	}
	if !res.Changed {
		t.Error("first write should report a change")
	}

	data := readFile(t, wantPath)
	if !bytes.Contains(data, []byte(`"email": "ada@pub.example"`)) {
		t.Errorf("public email missing:\n%s", data)
	}
	for _, leaked := range []string{"ada@priv.example", "hashed-secret", `"password"`} {
		if bytes.Contains(data, []byte(leaked)) {
			t.Errorf("snapshot leaks %s:\n%s", leaked, data)
		}
	}
	if res.Size != len(data) {
		t.Errorf("size = %d, file has %d bytes", res.Size, len(data))
	}

	if recorder.Snapshot().SnapshotsWritten["user"] != 1 {
		t.Errorf("expected one user snapshot recorded, got %v", recorder.Snapshot().SnapshotsWritten)
	}
}

func TestWriteSnapshot_SiteScenario(t *testing.T) {
	w, _ := newTestWriter(t)

	// The output root does not exist yet.
	root := filepath.Join(w.Resolver().Root(), "not", "yet", "there")
	resolver, err := NewResolver(root)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	w = NewWriter(resolver, nil, nil)

	res, err := w.WriteSnapshot(testSite())
	if err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	doc, err := Decode(readFile(t, res.Path))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if owner, ok := doc["owner"].(string); !ok || owner != "abc123" {
		t.Errorf("owner = %#v, want string abc123", doc["owner"])
	}

	siteDir := filepath.Join(root, "json", "site", "site99")
	for _, name := range SiteSubdirs {
		assertDir(t, filepath.Join(siteDir, name))
	}
}

func TestWriteSnapshot_Idempotent(t *testing.T) {
	w, _ := newTestWriter(t)
	u := testUser()

	first, err := w.WriteSnapshot(u)
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	firstBytes := readFile(t, first.Path)

	second, err := w.WriteSnapshot(u)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	secondBytes := readFile(t, second.Path)

	if !bytes.Equal(firstBytes, secondBytes) {
		t.Errorf("repeated export differs:\n%s\n---\n%s", firstBytes, secondBytes)
	}
	if second.Changed {
		t.Error("unchanged entity reported as changed")
	}
}

func TestWriteSnapshot_Overwrite(t *testing.T) {
	w, _ := newTestWriter(t)
	u := testUser()

	if _, err := w.WriteSnapshot(u); err != nil {
		t.Fatalf("first write: %v", err)
	}

	u.Name = "Ada Lovelace"
	res, err := w.WriteSnapshot(u)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if !res.Changed {
		t.Error("expected change to be reported")
	}
	if !bytes.Contains(readFile(t, res.Path), []byte(`"name": "Ada Lovelace"`)) {
		t.Error("snapshot not overwritten")
	}

	assertNoTempFiles(t, filepath.Dir(res.Path))
}

func TestWriteSnapshot_PointerInput(t *testing.T) {
	w, _ := newTestWriter(t)
	u := testUser()

	res, err := w.WriteSnapshot(&u)
	if err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	if res.Kind != model.KindUser || res.UUID != "abc123" {
		t.Errorf("unexpected result: %+v", res)
	}
	if u.Email != "ada@priv.example" || u.Password == "" {
		t.Error("writer mutated the entity")
	}
}

func TestWriteSnapshot_EncodingErrorLeavesNoFile(t *testing.T) {
	w, recorder := newTestWriter(t)
	u := testUser()
	u.CreatedDate = time.Time{}

	_, err := w.WriteSnapshot(u)
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if se.Stage != StageSerialize || se.UUID != "abc123" || se.Kind != model.KindUser {
		t.Errorf("unexpected error tags: %+v", se)
	}

	path, _ := w.Resolver().AboutPath(model.KindUser, "abc123")
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("expected no snapshot file, stat err = %v", statErr)
	}
	if recorder.Snapshot().SnapshotsFailed["user/serialize"] != 1 {
		t.Errorf("failure not recorded: %v", recorder.Snapshot().SnapshotsFailed)
	}
}

func TestWriteSnapshot_EncodingErrorKeepsPreviousSnapshot(t *testing.T) {
	w, _ := newTestWriter(t)
	u := testUser()

	res, err := w.WriteSnapshot(u)
	if err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	before := readFile(t, res.Path)

	broken := u
	broken.CreatedDate = time.Time{}
	if _, err := w.WriteSnapshot(broken); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}

	if !bytes.Equal(before, readFile(t, res.Path)) {
		t.Error("failed write altered the previous snapshot")
	}
}

func TestWriteSnapshot_ResolveStage(t *testing.T) {
	w, _ := newTestWriter(t)
	u := testUser()
	u.UUID = ""

	_, err := w.WriteSnapshot(u)
	if StageOf(err) != StageResolve {
		t.Fatalf("expected resolve stage, got %q (%v)", StageOf(err), err)
	}
	if !errors.Is(err, ErrEncoding) {
		t.Errorf("expected ErrEncoding, got %v", err)
	}

	if _, err := w.WriteSnapshot(nil); StageOf(err) != StageResolve {
		t.Errorf("expected resolve stage for nil entity, got %v", err)
	}
}

func TestWriteSnapshot_ProvisionConflict(t *testing.T) {
	w, _ := newTestWriter(t)
	writeFile(t, filepath.Join(w.Resolver().Root(), "json"))

	_, err := w.WriteSnapshot(testSite())
	if !errors.Is(err, ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}
	if StageOf(err) != StageProvision {
		t.Errorf("expected provision stage, got %q", StageOf(err))
	}
}

func TestWriteSnapshot_AboutIsDirectory(t *testing.T) {
	w, _ := newTestWriter(t)
	path, _ := w.Resolver().AboutPath(model.KindUser, "abc123")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := w.WriteSnapshot(testUser())
	if !errors.Is(err, ErrPathConflict) {
		t.Fatalf("expected ErrPathConflict, got %v", err)
	}
	if StageOf(err) != StageWrite {
		t.Errorf("expected write stage, got %q", StageOf(err))
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestWriteSnapshot_WriteFailureKeepsPreviousSnapshot(t *testing.T) {
	w, recorder := newTestWriter(t)
	u := testUser()

	res, err := w.WriteSnapshot(u)
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	before := readFile(t, res.Path)

	rename = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: os.ErrPermission}
	}
	t.Cleanup(func() { rename = os.Rename })

	u.Bio = "changed"
	_, err = w.WriteSnapshot(u)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if StageOf(err) != StageWrite {
		t.Errorf("expected write stage, got %q", StageOf(err))
	}
	if !IsRetryable(err) {
		t.Error("write failures should be retryable")
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Errorf("cause lost: %v", err)
	}

	if !bytes.Equal(before, readFile(t, res.Path)) {
		t.Error("failed write altered the previous snapshot")
	}
	assertNoTempFiles(t, filepath.Dir(res.Path))

	if got := recorder.Snapshot().SnapshotsFailed["user/write"]; got != 1 {
		t.Errorf("user/write failures = %d, want 1", got)
	}
}

func TestWriteSnapshot_ReadOnlyDirectory(t *testing.T) {
	w, _ := newTestWriter(t)
	u := testUser()

	res, err := w.WriteSnapshot(u)
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	before := readFile(t, res.Path)
	dir := filepath.Dir(res.Path)

	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
	if f, err := os.CreateTemp(dir, "perm-check-*"); err == nil {
		f.Close()
		_ = os.Remove(f.Name())
		t.Skip("directory permissions are not enforced for this user")
	}

	u.Bio = "changed"
	_, err = w.WriteSnapshot(u)
	if StageOf(err) != StageWrite || !IsRetryable(err) {
		t.Fatalf("expected retryable write-stage error, got %v", err)
	}
	if !bytes.Equal(before, readFile(t, res.Path)) {
		t.Error("failed write altered the previous snapshot")
	}
	assertNoTempFiles(t, dir)
}

func TestWriteSnapshot_InvalidUTF8RoundTrips(t *testing.T) {
	w, _ := newTestWriter(t)
	u := testUser()
	u.Bio = "bad\xffbyte"

	res, err := w.WriteSnapshot(u)
	if err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	data := readFile(t, res.Path)

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	again, err := Encode(decoded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Errorf("written snapshot does not round trip:\n%s\n---\n%s", data, again)
	}
}

func TestWriteSnapshot_DisjointConcurrentWrites(t *testing.T) {
	w, _ := newTestWriter(t)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := testUser()
			u.UUID = "user" + string(rune('a'+i))
			if _, err := w.WriteSnapshot(u); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent write: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(w.Resolver().Root(), "json", "user"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 20 {
		t.Errorf("expected 20 user dirs, got %d", len(entries))
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewError(StageWrite, model.KindUser, "abc123", ioError("rename", os.ErrPermission))) {
		t.Error("io errors should be retryable")
	}
	if IsRetryable(NewError(StageSerialize, model.KindUser, "abc123", encodingErrorf("missing"))) {
		t.Error("encoding errors should not be retryable")
	}
	if IsRetryable(ErrReference) {
		t.Error("reference errors should not be retryable")
	}
}

func TestError_Message(t *testing.T) {
	err := NewError(StageProvision, model.KindSite, "site99", conflictErrorf("/tmp/x exists"))
	msg := err.Error()
	for _, want := range []string{"site", "site99", "provision", "path conflict"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
