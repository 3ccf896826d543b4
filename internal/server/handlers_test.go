package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-rimepatch"
	"github.com/goliatone/go-rimepatch/phrases"
	"github.com/goliatone/go-rimepatch/pkg/activity"
	"github.com/goliatone/go-rimepatch/pkg/store"
	"github.com/goliatone/go-rimepatch/tree"
)

type countingDeployer struct {
	calls  int
	result store.DeployResult
}

func (d *countingDeployer) Deploy(context.Context) (store.DeployResult, error) {
	d.calls++
	return d.result, nil
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	st.SetBase("default", tree.MappingFromAny(map[string]any{
		"menu":  map[string]any{"page_size": 5, "auto_page": true},
		"style": map[string]any{"font_face": "PingFang SC"},
	}))
	cfg := DefaultConfig()
	srv := New(cfg, st, opts...)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, st
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestGetConfigReturnsLayers(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/config/default", "")
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[ConfigView](t, rec)
	assert.Equal(t, "default", view.Name)
	assert.False(t, view.Dirty)
	assert.Equal(t, map[string]any{}, view.Patch)

	effective := view.Effective.(map[string]any)
	assert.Equal(t, float64(5), effective["menu"].(map[string]any)["page_size"])
}

func TestSetOverrideMarksDirtyAndUpdatesEffective(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPut, "/config/default/override", `{"path":"menu/page_size","value":9}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[StateView](t, rec).Dirty)

	rec = do(t, srv, http.MethodGet, "/config/default/value?path=menu/page_size", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(9), decode[map[string]any](t, rec)["value"])

	rec = do(t, srv, http.MethodGet, "/config/default/value?path=menu/auto_page", "")
	assert.Equal(t, true, decode[map[string]any](t, rec)["value"])

	rec = do(t, srv, http.MethodGet, "/config/default/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "patch:\n  menu/page_size: 9\n", decode[map[string]string](t, rec)["text"])
}

func TestSetOverrideRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := map[string]string{
		"malformed":     `{`,
		"missing path":  `{"value":1}`,
		"missing value": `{"path":"menu/page_size"}`,
	}
	for name, body := range cases {
		rec := do(t, srv, http.MethodPut, "/config/default/override", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Equal(t, ErrCodeInvalidRequest, decode[ErrorResponse](t, rec).Error.Code, name)
	}
}

func TestRemoveOverride(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPut, "/config/default/override", `{"path":"style/font_face","value":"Noto Sans"}`)

	rec := do(t, srv, http.MethodDelete, "/config/default/override?path=style/font_face", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["removed"])
	assert.Equal(t, false, body["dirty"])

	rec = do(t, srv, http.MethodDelete, "/config/default/override?path=style/font_face", "")
	assert.Equal(t, false, decode[map[string]any](t, rec)["removed"])

	rec = do(t, srv, http.MethodDelete, "/config/default/override", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplacePatchKeepsClientOrder(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPut, "/config/default/patch",
		`{"patch":{"style/font_point":16,"menu/page_size":9,"style/color_scheme":"aqua"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/config/default/preview?format=text", "")
	assert.Equal(t, "patch:\n  style/font_point: 16\n  menu/page_size: 9\n  style/color_scheme: aqua\n", rec.Body.String())

	rec = do(t, srv, http.MethodPut, "/config/default/patch", `{"patch":[1,2]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveDiscardAndDiff(t *testing.T) {
	srv, st := newTestServer(t)
	do(t, srv, http.MethodPut, "/config/default/override", `{"path":"menu/page_size","value":9}`)

	rec := do(t, srv, http.MethodGet, "/config/default/diff", "")
	require.Equal(t, http.StatusOK, rec.Code)
	diff := decode[rimepatch.Diff](t, rec)
	assert.Equal(t, 2, diff.Additions)
	assert.Equal(t, 1, diff.Deletions)
	assert.Contains(t, diff.Text, "+  menu/page_size: 9")

	rec = do(t, srv, http.MethodPost, "/config/default/save", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "v1", rec.Header().Get("ETag"))
	assert.Equal(t, 1, st.Writes())

	do(t, srv, http.MethodPut, "/config/default/override", `{"path":"menu/page_size","value":4}`)
	rec = do(t, srv, http.MethodPost, "/config/default/discard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[StateView](t, rec).Dirty)

	rec = do(t, srv, http.MethodGet, "/config/default/value?path=menu/page_size", "")
	assert.Equal(t, float64(9), decode[map[string]any](t, rec)["value"])
}

func TestSaveConflictMarksStale(t *testing.T) {
	srv, st := newTestServer(t)
	st.SetPatch("default", tree.MappingFromAny(map[string]any{"menu/page_size": 7}))
	do(t, srv, http.MethodPut, "/config/default/override", `{"path":"menu/page_size","value":9}`)

	// An external edit after the session loaded the patch.
	st.SetPatch("default", tree.MappingFromAny(map[string]any{"menu/page_size": 3}))

	rec := do(t, srv, http.MethodPost, "/config/default/save", "")
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/config/default", "")
	assert.True(t, decode[ConfigView](t, rec).Stale)
}

func TestApplyRunsChecksBeforeDeploy(t *testing.T) {
	checker, err := rimepatch.NewChecker([]rimepatch.CheckSpec{
		{Name: "page_size", Expr: "menu.page_size <= 10", Message: "page size too large"},
	})
	require.NoError(t, err)
	deployer := &countingDeployer{result: store.DeployResult{Success: true, Message: "ok"}}
	srv, st := newTestServer(t, WithChecker(checker), WithDeployer(deployer))

	do(t, srv, http.MethodPut, "/config/default/override", `{"path":"menu/page_size","value":12}`)
	rec := do(t, srv, http.MethodPost, "/config/default/apply", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error.Message, "page size too large")
	assert.Equal(t, 0, st.Writes())
	assert.Equal(t, 0, deployer.calls)

	rec = do(t, srv, http.MethodGet, "/config/default/check", "")
	assert.Equal(t, false, decode[map[string]any](t, rec)["passed"])

	do(t, srv, http.MethodPut, "/config/default/override", `{"path":"menu/page_size","value":8}`)
	rec = do(t, srv, http.MethodPost, "/config/default/apply", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[store.DeployResult](t, rec).Success)
	assert.Equal(t, 1, st.Writes())
	assert.Equal(t, 1, deployer.calls)
}

func TestApplyReportsSaveFailure(t *testing.T) {
	srv, st := newTestServer(t)
	st.FailWrites(errors.New("disk full"))
	do(t, srv, http.MethodPut, "/config/default/override", `{"path":"menu/page_size","value":9}`)

	rec := do(t, srv, http.MethodPost, "/config/default/apply", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, rimepatch.SaveFailedMessage, decode[ErrorResponse](t, rec).Error.Message)
}

func TestQueryTraceAndFields(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPut, "/config/default/override", `{"path":"menu/page_size","value":9}`)

	rec := do(t, srv, http.MethodGet, "/config/default/query?jsonpath=$.menu.page_size", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []any{float64(9)}, decode[map[string]any](t, rec)["results"])

	rec = do(t, srv, http.MethodGet, "/config/default/query", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/config/default/trace?path=menu/page_size", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "menu/page_size")

	rec = do(t, srv, http.MethodGet, "/config/default/fields", "")
	require.Equal(t, http.StatusOK, rec.Code)
	fields := decode[[]rimepatch.FieldDescriptor](t, rec)
	require.NotEmpty(t, fields)
	for _, field := range fields {
		assert.Equal(t, field.Path == "menu/page_size", field.Overridden, field.Path)
	}
}

func TestDeployEmitsActivity(t *testing.T) {
	hook := &activity.CaptureHook{}
	deployer := &countingDeployer{result: store.DeployResult{Success: true, Message: "reloaded"}}
	srv, _ := newTestServer(t, WithDeployer(deployer), WithActivityHooks(hook))

	rec := do(t, srv, http.MethodPost, "/deploy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reloaded", decode[store.DeployResult](t, rec).Message)
	assert.Equal(t, 1, deployer.calls)
	assert.Equal(t, []string{activity.VerbConfigDeployed}, hook.Verbs())
}

func TestPhrasesRoundTrip(t *testing.T) {
	hook := &activity.CaptureHook{}
	srv, st := newTestServer(t, WithActivityHooks(hook))

	rec := do(t, srv, http.MethodGet, "/phrases", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[phrases.Data](t, rec).Entries)

	rec = do(t, srv, http.MethodPut, "/phrases", `{"entries":[{"phrase":"你好","code":"nh","weight":3}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data, err := st.ReadPhrases(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Entries, 1)
	assert.Equal(t, "nh", data.Entries[0].Code)
	assert.Equal(t, phrases.DefaultHeader, data.Header)
	assert.Equal(t, []string{activity.VerbPhrasesSaved}, hook.Verbs())

	rec = do(t, srv, http.MethodPut, "/phrases", `{"entries":[{"phrase":"","code":"x"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionsAreSharedAndValidated(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	first, err := srv.Session(ctx, "default")
	require.NoError(t, err)
	second, err := srv.Session(ctx, "default")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = srv.Session(ctx, "..")
	assert.ErrorIs(t, err, store.ErrInvalidName)

	srv.MarkStale("default")
	assert.True(t, first.Stale())
	srv.MarkStale("squirrel")
}

func TestListSchemasUnsupportedByMemoryStore(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/schemas", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestCORSAllowsLocalOrigins(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/config/default", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDecodeValueKeepsIntegers(t *testing.T) {
	v, err := decodeValue(json.RawMessage(`{"b":1,"a":[1.5,"x",null,true]}`))
	require.NoError(t, err)
	m := v.(*tree.Mapping)
	assert.Equal(t, []string{"b", "a"}, m.Keys())
	b, _ := m.Get("b")
	assert.True(t, tree.Equal(b, tree.Int(1)))
	assert.Equal(t, tree.ScalarInt, b.(tree.Scalar).ScalarKind())

	_, err = decodeValue(json.RawMessage(`1 2`))
	assert.Error(t, err)
	_, err = decodeValue(nil)
	assert.ErrorIs(t, err, errMissingValue)
}

func TestSaveWithLiveWatcherStaysFresh(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.yaml"), []byte("menu:\n  page_size: 5\n"), 0o644))
	fs := store.NewFileStore(dir)
	srv := New(DefaultConfig(), fs)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	watcher, err := store.NewWatcher(dir, srv.MarkStale, zerolog.Nop(), store.WithSkip(fs.Written))
	require.NoError(t, err)
	watcher.Start()
	t.Cleanup(func() { watcher.Stop() })

	do(t, srv, http.MethodPut, "/config/default/override", `{"path":"menu/page_size","value":9}`)
	rec := do(t, srv, http.MethodPost, "/config/default/save", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	time.Sleep(300 * time.Millisecond)
	session, err := srv.Session(context.Background(), "default")
	require.NoError(t, err)
	assert.False(t, session.Stale(), "own save must not mark the session stale")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.custom.yaml"), []byte("patch:\n  menu/page_size: 3\n"), 0o644))
	assert.Eventually(t, session.Stale, 5*time.Second, 20*time.Millisecond)
}
