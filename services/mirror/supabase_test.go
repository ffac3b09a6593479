package mirrorsvc

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/gsdev/timetable/core"
	"github.com/gsdev/timetable/core/schedule"
)

type stubStore struct {
	students []schedule.Student
	patterns []schedule.PatternRow
	meta     map[string]string
	calls    int
}

func (s *stubStore) OverwriteAll(_ context.Context, students []schedule.Student, patterns []schedule.PatternRow, meta map[string]string) error {
	s.students = students
	s.patterns = patterns
	s.meta = meta
	s.calls++
	return nil
}

func newTestMirror(url string) *SupabaseMirror {
	conf := &core.Config{Mirror: core.MirrorConfig{URL: url, APIKey: "test-key", Schema: "public"}}
	return NewSupabaseMirror(conf, testLogger{})
}

type testLogger struct{}

func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(msg string, _ ...interface{}) {
	log.Fatal(msg)
}

func TestSupabaseMirrorPush(t *testing.T) {
	type call struct {
		method string
		path   string
		query  string
		body   string
	}
	var calls []call

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, r.URL.RawQuery, string(body)})

		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "public", r.Header.Get("Content-Profile"))
		if r.Method == http.MethodPost {
			assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	mirror := newTestMirror(srv.URL)
	students := []schedule.Student{{ID: "20101", Name: "김민준", ClassNo: null.Int64From(1)}}
	patterns := []schedule.PatternRow{{ClassNo: 1, Weekday: "월", Period: 1, BlockCode: "기초1", SubjectTeacher: "수학(홍길동)"}}
	meta := map[string]string{schedule.MetaLastUpdatedAt: "2026-03-02 08:30:00"}

	require.NoError(t, mirror.Push(context.Background(), students, patterns, meta))

	// delete + insert per table, in table order
	require.Len(t, calls, 6)
	assert.Equal(t, http.MethodDelete, calls[0].method)
	assert.Equal(t, "/rest/v1/student_master", calls[0].path)
	assert.Contains(t, calls[0].query, "student_id=not.is.null")
	assert.Equal(t, http.MethodPost, calls[1].method)
	assert.Contains(t, calls[1].body, `"student_id":"20101"`)
	assert.Equal(t, "/rest/v1/timetable_pattern", calls[2].path)
	assert.Contains(t, calls[3].body, `"block_code":"기초1"`)
	assert.Equal(t, "/rest/v1/app_meta", calls[4].path)
	assert.Contains(t, calls[5].body, `"meta_key":"last_updated_at"`)
}

func TestSupabaseMirrorPushChunksInserts(t *testing.T) {
	var postCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/rest/v1/student_master" {
			var rows []json.RawMessage
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &rows))
			assert.LessOrEqual(t, len(rows), insertChunkSize)
			postCount++
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	students := make([]schedule.Student, insertChunkSize+1)
	for i := range students {
		students[i] = schedule.Student{ID: "2" + string(rune('0'+i%10)), Name: "학생"}
	}
	require.NoError(t, newTestMirror(srv.URL).Push(context.Background(), students, nil, nil))
	assert.Equal(t, 2, postCount)
}

func TestSupabaseMirrorPushRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := newTestMirror(srv.URL).Push(context.Background(), nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "permission denied")
}

func TestSupabaseMirrorSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "*", r.URL.Query().Get("select"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rest/v1/student_master":
			io.WriteString(w, `[{"student_id":"20101","student_name":"김민준","class_no":1,"student_no":1}]`)
		case "/rest/v1/timetable_pattern":
			io.WriteString(w, `[{"class_no":1,"weekday":"월","period":1,"block_code":"기초1","subject_teacher":"수학(홍길동)"}]`)
		case "/rest/v1/app_meta":
			io.WriteString(w, `[{"meta_key":"last_updated_at","meta_value":"2026-03-02 08:30:00"}]`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	store := &stubStore{}
	stats, err := newTestMirror(srv.URL).Sync(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.StudentCount)
	assert.Equal(t, 1, stats.TimetableCount)
	assert.Equal(t, "2026-03-02 08:30:00", stats.LastUpdatedAt.String)

	require.Len(t, store.students, 1)
	assert.Equal(t, "김민준", store.students[0].Name)
	require.Len(t, store.patterns, 1)
	assert.Equal(t, "수학(홍길동)", store.patterns[0].SubjectTeacher)
	assert.Equal(t, "2026-03-02 08:30:00", store.meta[schedule.MetaLastUpdatedAt])
}

func TestSupabaseMirrorSyncEmptyRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "[]")
	}))
	defer srv.Close()

	// an emptied remote still overwrites the local dataset
	store := &stubStore{}
	stats, err := newTestMirror(srv.URL).Sync(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.Empty(t, store.students)
	assert.Empty(t, store.patterns)
	assert.Zero(t, stats.StudentCount)
	assert.Zero(t, stats.TimetableCount)
}

func TestSupabaseMirrorClear(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, newTestMirror(srv.URL).Clear(context.Background()))
	assert.Equal(t, []string{
		"/rest/v1/student_master?student_id=not.is.null",
		"/rest/v1/timetable_pattern?class_no=not.is.null",
		"/rest/v1/app_meta?meta_key=not.is.null",
	}, paths)
}

func TestSupabaseMirrorConfigured(t *testing.T) {
	assert.False(t, NewSupabaseMirror(&core.Config{}, testLogger{}).Configured())
	assert.True(t, newTestMirror("http://localhost").Configured())
}
