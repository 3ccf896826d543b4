package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-rimepatch/phrases"
	"github.com/goliatone/go-rimepatch/pkg/store"
	"github.com/goliatone/go-rimepatch/tree"
)

func writeFile(t *testing.T, dir, name, text string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(raw)
}

func TestFileStoreReadsBaseAndPatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "squirrel.yaml", "style:\n  color_scheme: aqua\npreset_color_schemes:\n  aqua:\n    back_color: 0xFF8800\n")
	writeFile(t, dir, "squirrel.custom.yaml", "patch:\n  style/color_scheme: mine\n  preset_color_schemes/mine/text_color: 0x80112233\n")

	fs := store.NewFileStore(dir)
	doc, err := fs.ReadDocument(context.Background(), "squirrel")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v, _ := tree.Get(doc.Base, "preset_color_schemes/aqua/back_color"); !tree.Equal(v, tree.String("0xFF8800")) {
		t.Fatalf("expected base color literal restored, got %v", v)
	}
	want := map[string]any{
		"style/color_scheme":                   "mine",
		"preset_color_schemes/mine/text_color": "0x80112233",
	}
	if diff := cmp.Diff(want, tree.ToAny(doc.Patch)); diff != "" {
		t.Fatalf("unexpected patch (-want +got):\n%s", diff)
	}
	if doc.Meta.ETag == "" {
		t.Fatalf("expected etag for existing patch file")
	}
}

func TestFileStoreMissingFilesReadEmpty(t *testing.T) {
	fs := store.NewFileStore(filepath.Join(t.TempDir(), "missing"))
	doc, err := fs.ReadDocument(context.Background(), "rime_ice")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.Base.Len() != 0 || doc.Patch.Len() != 0 || doc.Meta.ETag != store.AbsentETag {
		t.Fatalf("expected empty document, got %+v", doc)
	}
}

func TestFileStoreWriteIsAtomicWithBackup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.custom.yaml", "patch:\n  menu/page_size: 5\n")
	fs := store.NewFileStore(dir)

	patch := tree.MappingFromAny(map[string]any{"menu/page_size": 9})
	if err := fs.WriteDocument(context.Background(), "default", patch); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readFile(t, dir, "default.custom.yaml"); got != "patch:\n  menu/page_size: 9\n" {
		t.Fatalf("unexpected file %q", got)
	}
	if got := readFile(t, dir, "default.custom.yaml.bak"); got != "patch:\n  menu/page_size: 5\n" {
		t.Fatalf("unexpected backup %q", got)
	}
	entries, _ := os.ReadDir(dir)
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp.") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestFileStoreConditionalWrite(t *testing.T) {
	dir := t.TempDir()
	fs := store.NewFileStore(dir)
	ctx := context.Background()

	meta, err := fs.WriteDocumentIf(ctx, "default", tree.MappingFromAny(map[string]any{"menu/page_size": 6}), "")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	writeFile(t, dir, "default.custom.yaml", "patch:\n  menu/page_size: 7\n")

	_, err = fs.WriteDocumentIf(ctx, "default", tree.MappingFromAny(map[string]any{"menu/page_size": 8}), meta.ETag)
	if !errors.Is(err, store.ErrETagMismatch) {
		t.Fatalf("expected etag mismatch, got %v", err)
	}

	doc, _ := fs.ReadDocument(ctx, "default")
	if _, err := fs.WriteDocumentIf(ctx, "default", tree.MappingFromAny(map[string]any{"menu/page_size": 8}), doc.Meta.ETag); err != nil {
		t.Fatalf("write with fresh etag: %v", err)
	}
}

func TestFileStoreRejectsBadNames(t *testing.T) {
	fs := store.NewFileStore(t.TempDir())
	for _, name := range []string{"", "..", "../etc/passwd", `a\b`} {
		if _, err := fs.ReadDocument(context.Background(), name); !errors.Is(err, store.ErrInvalidName) {
			t.Fatalf("ReadDocument(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestFileStorePhrases(t *testing.T) {
	dir := t.TempDir()
	fs := store.NewFileStore(dir)
	ctx := context.Background()

	data, err := fs.ReadPhrases(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if data.Header != phrases.DefaultHeader || len(data.Entries) != 0 {
		t.Fatalf("expected default phrase data, got %+v", data)
	}

	data.Entries = append(data.Entries, phrases.Entry{Phrase: "你好", Code: "nihao"})
	if err := fs.WritePhrases(ctx, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := fs.ReadPhrases(ctx)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(back.Entries) != 1 || back.Entries[0].Code != "nihao" {
		t.Fatalf("unexpected entries %+v", back.Entries)
	}
}

func TestFileStoreListSchemas(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rime_ice.schema.yaml", "schema:\n  schema_id: rime_ice\n  name: 雾凇拼音\n")
	writeFile(t, dir, "luna_pinyin.schema.yaml", "schema:\n  schema_id: luna_pinyin\n")
	writeFile(t, dir, "broken.schema.yaml", "schema: [\n")
	writeFile(t, dir, "default.yaml", "schema_list: []\n")

	schemas, err := store.NewFileStore(dir).ListSchemas(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(schemas) != 2 || schemas[0].SchemaID != "luna_pinyin" || schemas[1].Name != "雾凇拼音" {
		t.Fatalf("unexpected schemas %+v", schemas)
	}
}

func TestFileStoreInstallation(t *testing.T) {
	dir := t.TempDir()
	fs := store.NewFileStore(dir)
	if _, ok, err := fs.Installation(context.Background()); ok || err != nil {
		t.Fatalf("expected missing installation, got %v %v", ok, err)
	}
	writeFile(t, dir, "installation.yaml", "distribution_name: 鼠鬚管\ndistribution_version: 1.0.2\nrime_version: 1.11.2\ninstall_time: \"Mon Jan  1 00:00:00 2024\"\n")
	info, ok, err := fs.Installation(context.Background())
	if err != nil || !ok {
		t.Fatalf("read installation: %v %v", ok, err)
	}
	if info.DistributionName != "鼠鬚管" || info.RimeVersion != "1.11.2" {
		t.Fatalf("unexpected installation %+v", info)
	}
}

func TestMemoryStoreEtags(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	ms.SetBase("default", tree.MappingFromAny(map[string]any{"menu": map[string]any{"page_size": 5}}))

	doc, err := ms.ReadDocument(ctx, "default")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.Meta.ETag != "" {
		t.Fatalf("expected no etag before any write, got %q", doc.Meta.ETag)
	}
	meta, err := ms.WriteDocumentIf(ctx, "default", tree.MappingFromAny(map[string]any{"menu/page_size": 9}), "")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	ms.SetPatch("default", tree.NewMapping())
	if _, err := ms.WriteDocumentIf(ctx, "default", tree.NewMapping(), meta.ETag); !errors.Is(err, store.ErrETagMismatch) {
		t.Fatalf("expected etag mismatch after external change, got %v", err)
	}

	ms.FailWrites(errors.New("disk full"))
	if err := ms.WriteDocument(ctx, "default", tree.NewMapping()); err == nil {
		t.Fatalf("expected failing write")
	}
	if ms.Writes() != 1 {
		t.Fatalf("expected one successful write, got %d", ms.Writes())
	}
}

func TestDocumentName(t *testing.T) {
	cases := []struct {
		file string
		want string
	}{
		{"/rime/default.custom.yaml", "default"},
		{"/rime/rime_ice.schema.yaml", "rime_ice"},
		{"/rime/squirrel.yaml", "squirrel"},
		{"/rime/custom_phrase.txt", store.PhrasesDocument},
		{"/rime/default.custom.yaml.bak", ""},
		{"/rime/default.custom.yaml.tmp.1700000000000", ""},
		{"/rime/user.db", ""},
	}
	for _, tc := range cases {
		got, ok := store.DocumentName(tc.file)
		if ok != (tc.want != "") || got != tc.want {
			t.Fatalf("DocumentName(%q) = %q, %v; want %q", tc.file, got, ok, tc.want)
		}
	}
}

func TestConfigDirFor(t *testing.T) {
	env := map[string]string{}
	getenv := func(key string) string { return env[key] }

	if got := store.ConfigDirFor("darwin", "/Users/me", getenv); got != filepath.Join("/Users/me", "Library", "Rime") {
		t.Fatalf("unexpected darwin dir %q", got)
	}
	if got := store.ConfigDirFor("linux", "/home/me", getenv); got != filepath.Join("/home/me", ".config", "fcitx", "rime") {
		t.Fatalf("unexpected linux dir %q", got)
	}
	env["APPDATA"] = "/appdata"
	if got := store.ConfigDirFor("windows", "/home/me", getenv); got != filepath.Join("/appdata", "Rime") {
		t.Fatalf("unexpected windows dir %q", got)
	}
	env[store.ConfigDirEnv] = "/custom"
	if got := store.ConfigDirFor("linux", "/home/me", getenv); got != "/custom" {
		t.Fatalf("expected env override, got %q", got)
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan string, 16)
	w, err := store.NewWatcher(dir, func(name string) { changed <- name }, zerolog.Nop())
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	w.Start()
	defer w.Stop()

	writeFile(t, dir, "default.custom.yaml", "patch: {}\n")
	deadline := time.After(5 * time.Second)
	for {
		select {
		case name := <-changed:
			if name == "default" {
				return
			}
		case <-deadline:
			t.Fatalf("no change reported")
		}
	}
}

func TestFileStoreConditionalWriteDetectsCreatedPatch(t *testing.T) {
	dir := t.TempDir()
	fs := store.NewFileStore(dir)
	ctx := context.Background()

	doc, err := fs.ReadDocument(ctx, "default")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	writeFile(t, dir, "default.custom.yaml", "patch:\n  menu/page_size: 7\n")

	_, err = fs.WriteDocumentIf(ctx, "default", tree.MappingFromAny(map[string]any{"menu/page_size": 8}), doc.Meta.ETag)
	if !errors.Is(err, store.ErrETagMismatch) {
		t.Fatalf("expected etag mismatch for a patch created after load, got %v", err)
	}
	if got := readFile(t, dir, "default.custom.yaml"); got != "patch:\n  menu/page_size: 7\n" {
		t.Fatalf("external patch was overwritten: %q", got)
	}
}

func TestFileStoreConditionalWriteDetectsRemovedPatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "default.custom.yaml", "patch:\n  menu/page_size: 7\n")
	fs := store.NewFileStore(dir)
	ctx := context.Background()

	doc, _ := fs.ReadDocument(ctx, "default")
	if err := os.Remove(filepath.Join(dir, "default.custom.yaml")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	meta, err := fs.WriteDocumentIf(ctx, "default", tree.NewMapping(), doc.Meta.ETag)
	if !errors.Is(err, store.ErrETagMismatch) {
		t.Fatalf("expected etag mismatch for a removed patch, got %v", err)
	}
	if meta.ETag != store.AbsentETag {
		t.Fatalf("expected current etag %q, got %q", store.AbsentETag, meta.ETag)
	}
}

func TestFileStoreWrittenTracksOwnWrites(t *testing.T) {
	dir := t.TempDir()
	fs := store.NewFileStore(dir)
	path := filepath.Join(dir, "default.custom.yaml")

	if fs.Written(path) {
		t.Fatalf("nothing written yet")
	}
	if err := fs.WriteDocument(context.Background(), "default", tree.MappingFromAny(map[string]any{"menu/page_size": 9})); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !fs.Written(path) {
		t.Fatalf("expected own write to be recognized")
	}
	writeFile(t, dir, "default.custom.yaml", "patch:\n  menu/page_size: 4\n")
	if fs.Written(path) {
		t.Fatalf("external edit must not count as own write")
	}
}

func TestWatcherSkipsOwnWrites(t *testing.T) {
	dir := t.TempDir()
	fs := store.NewFileStore(dir)
	changed := make(chan string, 16)
	w, err := store.NewWatcher(dir, func(name string) { changed <- name }, zerolog.Nop(), store.WithSkip(fs.Written))
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	w.Start()
	defer w.Stop()

	if err := fs.WriteDocument(context.Background(), "default", tree.MappingFromAny(map[string]any{"menu/page_size": 9})); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case name := <-changed:
		t.Fatalf("own save reported as external change for %q", name)
	case <-time.After(300 * time.Millisecond):
	}

	writeFile(t, dir, "default.custom.yaml", "patch:\n  menu/page_size: 4\n")
	select {
	case name := <-changed:
		if name != "default" {
			t.Fatalf("unexpected document %q", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("external edit not reported")
	}
}
