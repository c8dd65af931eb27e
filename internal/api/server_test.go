package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/storymap/storymap/internal/chapter"
	"github.com/storymap/storymap/internal/storage"
	"github.com/storymap/storymap/internal/story"
	"github.com/storymap/storymap/internal/viz"
)

// newTestServer returns a running server over a fresh chapter log.
func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *Server, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chapters.jsonl")
	svc := story.New(storage.NewChapterLog(path), nil)
	srv := NewServer(svc, opts...)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, srv, path
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(data)
}

const aliceStory = `{
	"title": "Lighthouse",
	"owner": "alice",
	"chapters": [
		{"filename": "02-dawn.md", "title": "Dawn", "content": "The storm passes."},
		{"filename": "01-storm.md", "content": "Rain all night."}
	]
}`

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"ok"`) {
		t.Errorf("body = %s", body)
	}
}

func TestUploadStory(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/stories", aliceStory)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var created struct {
		Owner    string            `json:"owner"`
		Chapters []chapter.Chapter `json:"chapters"`
	}
	if err := json.Unmarshal([]byte(body), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.Owner != "alice" || len(created.Chapters) != 2 {
		t.Fatalf("response = %+v", created)
	}
	if created.Chapters[0].Title != "Dawn" {
		t.Errorf("first title = %q, want Dawn", created.Chapters[0].Title)
	}
	if created.Chapters[1].Title != "Lighthouse" {
		t.Errorf("untitled chapter took %q, want the story title", created.Chapters[1].Title)
	}
	for _, c := range created.Chapters {
		if c.ID == "" || c.CreatedAt.IsZero() {
			t.Errorf("stored chapter missing id or time: %+v", c)
		}
		if c.Summary != c.Content {
			t.Errorf("short content should be its own summary: %+v", c)
		}
		if c.Source == nil || c.Source.Type != chapter.SourceAPI {
			t.Errorf("source = %+v", c.Source)
		}
	}
}

func TestUploadStory_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"owner":`},
		{"missing owner", `{"chapters":[{"filename":"1.md","content":"x"}]}`},
		{"missing chapters", `{"owner":"alice"}`},
		{"empty chapters", `{"owner":"alice","chapters":[]}`},
		{"missing filename", `{"owner":"alice","chapters":[{"content":"x"}]}`},
		{"no ordering key", `{"owner":"alice","chapters":[{"filename":"intro.md","content":"x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _, path := newTestServer(t)

			resp, body := do(t, http.MethodPost, ts.URL+"/api/stories", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", resp.StatusCode, body)
			}

			stored, err := storage.ReadAllChapters(path)
			if err != nil {
				t.Fatal(err)
			}
			if len(stored) != 0 {
				t.Errorf("rejected request stored %d chapters", len(stored))
			}
		})
	}
}

func TestUploadStory_OnStored(t *testing.T) {
	var got []chapter.Chapter
	ts, _, _ := newTestServer(t, WithOnStored(func(cs []chapter.Chapter) {
		got = append(got, cs...)
	}))

	do(t, http.MethodPost, ts.URL+"/api/stories", aliceStory)
	if len(got) != 2 || got[0].ID == "" {
		t.Fatalf("hook saw %+v, want the two stored chapters", got)
	}

	do(t, http.MethodPost, ts.URL+"/api/stories", `{"owner":"bob","chapters":[{"filename":"intro.md","content":"x"}]}`)
	if len(got) != 2 {
		t.Errorf("rejected upload reached the hook: %+v", got[2:])
	}
}

func TestListChapters(t *testing.T) {
	ts, _, _ := newTestServer(t)
	do(t, http.MethodPost, ts.URL+"/api/stories", aliceStory)
	do(t, http.MethodPost, ts.URL+"/api/stories", `{"owner":"bob","chapters":[{"filename":"1-market.md","title":"Market","content":"Apples."}]}`)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/chapters?owner=bob", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var chapters []chapter.Chapter
	if err := json.Unmarshal([]byte(body), &chapters); err != nil {
		t.Fatal(err)
	}
	if len(chapters) != 1 || chapters[0].Owner != "bob" {
		t.Errorf("chapters = %+v", chapters)
	}

	_, text := do(t, http.MethodGet, ts.URL+"/api/chapters?format=text", "")
	want := "Dawn: The storm passes.\nLighthouse: Rain all night.\nMarket: Apples.\n"
	if text != want {
		t.Errorf("text list = %q, want %q", text, want)
	}
}

func TestGraph(t *testing.T) {
	ts, _, _ := newTestServer(t)
	do(t, http.MethodPost, ts.URL+"/api/stories", aliceStory)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/graph", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var data viz.GraphData
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Nodes) != 3 || len(data.Edges) != 2 {
		t.Fatalf("graph has %d nodes, %d edges", len(data.Nodes), len(data.Edges))
	}

	// The chain runs 01-storm then 02-dawn even though dawn was uploaded first.
	byID := make(map[string]viz.Node)
	for _, n := range data.Nodes {
		byID[n.ID] = n
	}
	if first := byID[data.Edges[0].Target]; first.Filename != "01-storm.md" {
		t.Errorf("origin points at %s, want 01-storm.md", first.Filename)
	}
}

// seedUnorderable writes a chapter whose filename has no ordering key straight
// into the log, bypassing validation.
func seedUnorderable(t *testing.T, path string) {
	t.Helper()
	err := storage.AppendChapter(path, chapter.Chapter{
		ID: "bad", Owner: "carol", Filename: "prologue.md", Title: "Prologue",
		Content: "x", Summary: "x", CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestGraph_OrderingError(t *testing.T) {
	ts, _, path := newTestServer(t)
	seedUnorderable(t, path)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/graph", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	if !strings.Contains(body, "prologue.md") {
		t.Errorf("body should name the file: %s", body)
	}
}

func TestGraph_DuplicateID(t *testing.T) {
	ts, _, path := newTestServer(t)
	for _, name := range []string{"01-a.md", "02-b.md"} {
		err := storage.AppendChapter(path, chapter.Chapter{
			ID: "same", Owner: "carol", Filename: name, Title: name,
			Content: "x", Summary: "x", CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	resp, body := do(t, http.MethodGet, ts.URL+"/api/graph", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	if !strings.Contains(body, "duplicate chapter id") {
		t.Errorf("body should explain the duplicate: %s", body)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/viz", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("viz status = %d, want 422", resp.StatusCode)
	}
}

func TestVizPage(t *testing.T) {
	ts, srv, _ := newTestServer(t)
	do(t, http.MethodPost, ts.URL+"/api/stories", aliceStory)

	resp, body := do(t, http.MethodGet, ts.URL+"/viz?layout=grid&select=alice", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	for _, want := range []string{`const layout = "grid"`, `const initialOwner = "alice"`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if owner, ok := srv.Selection().Current(); ok {
		t.Errorf("select= changed the shared selection to %q", owner)
	}

	do(t, http.MethodPost, ts.URL+"/api/selection", `{"owner":"bob"}`)
	_, body = do(t, http.MethodGet, ts.URL+"/viz", "")
	if !strings.Contains(body, `const initialOwner = "bob"`) {
		t.Error("page without select= should open on the shared selection")
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/viz?layout=spiral", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid layout status = %d, want 400", resp.StatusCode)
	}
}

func TestVizPage_OrderingError(t *testing.T) {
	ts, _, path := newTestServer(t)
	seedUnorderable(t, path)

	resp, body := do(t, http.MethodGet, ts.URL+"/viz", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	if !strings.Contains(body, "Story graph unavailable") || strings.Contains(body, "cytoscape(") {
		t.Error("failed assembly should render the error page, never a graph")
	}
}

func TestSelectionEndpoints(t *testing.T) {
	ts, _, _ := newTestServer(t)

	_, body := do(t, http.MethodGet, ts.URL+"/api/selection", "")
	if !strings.Contains(body, `"selected":false`) {
		t.Errorf("initial selection = %s", body)
	}

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/selection", `{"owner":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty owner status = %d, want 400", resp.StatusCode)
	}

	do(t, http.MethodPost, ts.URL+"/api/selection", `{"owner":"alice"}`)
	_, body = do(t, http.MethodPost, ts.URL+"/api/selection", `{"owner":"bob"}`)
	if !strings.Contains(body, `"owner":"bob"`) || !strings.Contains(body, `"selected":true`) {
		t.Errorf("selection after alice, bob = %s", body)
	}
}
