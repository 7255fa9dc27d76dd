package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/particle.report/internal/db"
	"github.com/banshee-data/particle.report/internal/fsutil"
	"github.com/banshee-data/particle.report/internal/particle/l3objects"
	"github.com/banshee-data/particle.report/internal/particle/pipeline"
	"github.com/banshee-data/particle.report/internal/testutil"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// testResult runs the pipeline over a grid with one gamma and one beta.
func testResult(t *testing.T) *pipeline.Result {
	t.Helper()

	g := testutil.ParseGrid(t, `
0 0 0 0 0 0 0 500
0 0 0 0 0 0 0 0
0 0 0 0 0 0 0 0
0 0 0 0 0 0 0 0
0 2 2 2 0 0 0 0
0 2 2 2 0 0 0 0
0 2 2 2 0 0 0 0
0 0 0 0 0 0 0 0
`)
	res, err := pipeline.Run(context.Background(), g, nil)
	require.NoError(t, err)
	require.Len(t, res.Particles, 2)
	return res
}

func TestTypeColor(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, pt := range l3objects.AllPartTypes {
		c := TypeColor(pt)
		assert.True(t, c.IsValid(), "%s colour out of gamut", pt)
		seen[c.Hex()] = true
	}
	assert.Len(t, seen, len(l3objects.AllPartTypes))
	assert.Equal(t, TypeColor(l3objects.Unknown), TypeColor(l3objects.PartType(99)))
}

func TestRenderer_WritePNG(t *testing.T) {
	t.Parallel()

	res := testResult(t)
	r := NewRenderer(4)

	var buf bytes.Buffer
	require.NoError(t, r.WritePNG(&buf, res, []int{0, 1}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	buf.Reset()
	require.NoError(t, r.WritePNG(&buf, res, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	assert.Error(t, r.WritePNG(&buf, res, []int{5}))
}

func TestRenderer_SavePNG(t *testing.T) {
	t.Parallel()

	res := testResult(t)
	fsys := fsutil.NewMemoryFileSystem()

	require.NoError(t, NewRenderer(0).SavePNG(fsys, "out/tracks.png", res, []int{1}))
	data, err := fsys.ReadFile("out/tracks.png")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestCharts(t *testing.T) {
	t.Parallel()

	res := testResult(t)

	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, TallyChart(res.Tally)))
	html := buf.String()
	assert.Contains(t, html, "Particle tally")
	for _, pt := range l3objects.AllPartTypes {
		assert.Contains(t, html, pt.String())
	}

	buf.Reset()
	require.NoError(t, RenderChart(&buf, TracksChart(res, []int{0})))
	html = buf.String()
	assert.Contains(t, html, "Particle tracks")
	assert.Contains(t, html, res.Summaries[0].Type.String())
}

func TestTracksChart_NoGrid(t *testing.T) {
	t.Parallel()

	res := testResult(t)
	bare := &pipeline.Result{Particles: res.Particles, Summaries: res.Summaries}

	var buf bytes.Buffer
	require.NotPanics(t, func() {
		require.NoError(t, RenderChart(&buf, TracksChart(bare, []int{0, 1})))
	})
	assert.Contains(t, buf.String(), "showing 0 of 2")
}

// fakeRuns is an in-memory RunReader.
type fakeRuns struct {
	runs   map[string]*db.Run
	tracks map[string][]l3objects.Summary
}

func (f *fakeRuns) ListRuns(limit int) ([]*db.Run, error) {
	var out []*db.Run
	for _, r := range f.runs {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRuns) GetRun(id string) (*db.Run, error) {
	if r, ok := f.runs[id]; ok {
		return r, nil
	}
	return nil, db.ErrRunNotFound
}

func (f *fakeRuns) ListTracks(id string) ([]l3objects.Summary, error) {
	return f.tracks[id], nil
}

func (f *fakeRuns) TallyByRun(id string) (map[l3objects.PartType]int, error) {
	if id == "broken" {
		return nil, errors.New("tally failed")
	}
	out := map[l3objects.PartType]int{}
	for _, s := range f.tracks[id] {
		out[s.Type]++
	}
	return out, nil
}

func newTestServer(t *testing.T, runs RunReader) (*Server, *pipeline.Result) {
	t.Helper()
	res := testResult(t)
	return NewServer(res, NewViewer(len(res.Particles), Combined), NewRenderer(2), runs), res
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestServer_Tracks(t *testing.T) {
	t.Parallel()

	s, res := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/tracks")
	require.Equal(t, http.StatusOK, rec.Code)
	var body tracksResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Tracks, len(res.Particles))
	assert.Equal(t, Combined, body.View.Mode)

	rec = do(t, s, http.MethodPost, "/api/tracks")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Track(t *testing.T) {
	t.Parallel()

	s, res := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/tracks/1")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail l3objects.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, res.Particles[1].ID(), detail.ID)
	assert.NotNil(t, detail.Roundness)
	assert.NotNil(t, detail.Winding)
	assert.Len(t, detail.Coords, res.Particles[1].Size())

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/tracks/9").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/tracks/abc").Code)
}

func TestServer_Tally(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/tally")
	require.Equal(t, http.StatusOK, rec.Code)
	var tally map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tally))
	assert.Equal(t, map[string]int{"ALPHA": 0, "BETA": 1, "GAMMA": 1, "MUON": 0, "UNKNOWN": 0}, tally)
}

func TestServer_View(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)

	steps := []struct {
		action string
		want   ViewState
	}{
		{"toggle", ViewState{Mode: Single, Index: 0, Count: 2}},
		{"next", ViewState{Mode: Single, Index: 1, Count: 2}},
		{"next", ViewState{Mode: Single, Index: 0, Count: 2}},
		{"prev", ViewState{Mode: Single, Index: 1, Count: 2}},
		{"combined", ViewState{Mode: Combined, Index: 1, Count: 2}},
		{"select&index=0", ViewState{Mode: Combined, Index: 0, Count: 2}},
	}
	for _, st := range steps {
		rec := do(t, s, http.MethodPost, "/api/view?action="+st.action)
		require.Equal(t, http.StatusOK, rec.Code, st.action)
		var got struct {
			Mode  string `json:"mode"`
			Index int    `json:"index"`
			Count int    `json:"count"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, st.want.Mode.String(), got.Mode, st.action)
		assert.Equal(t, st.want.Index, got.Index, st.action)
		assert.Equal(t, st.want.Count, got.Count, st.action)
	}

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/view?action=jump").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/view?action=select&index=7").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/view").Code)
}

func TestServer_ChartsAndPlot(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)

	for _, path := range []string{"/charts/tally", "/charts/tracks"} {
		rec := do(t, s, http.MethodGet, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"), path)
		assert.Contains(t, rec.Body.String(), "echarts", path)
	}

	rec := do(t, s, http.MethodGet, "/plot.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), pngMagic))
}

func TestServer_Runs(t *testing.T) {
	t.Parallel()

	runs := &fakeRuns{
		runs: map[string]*db.Run{
			"r1":     {RunID: "r1", Source: "a.txt", Reach: 2},
			"broken": {RunID: "broken"},
		},
		tracks: map[string][]l3objects.Summary{
			"r1": {
				{ID: 1, Type: l3objects.Gamma, Size: 1, TotalEnergy: 5, AvgEnergy: 5, MaxEnergy: 5},
				// Stored under older rules; two cells is a gamma now.
				{ID: 2, Type: l3objects.Muon, Size: 2, TotalEnergy: 2, AvgEnergy: 1, MaxEnergy: 1},
			},
		},
	}
	s, _ := newTestServer(t, runs)

	rec := do(t, s, http.MethodGet, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []db.Run
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list, 2)

	rec = do(t, s, http.MethodGet, "/api/runs/r1")
	require.Equal(t, http.StatusOK, rec.Code)
	var one struct {
		Run          db.Run         `json:"run"`
		Tally        map[string]int `json:"tally"`
		Tracks       []l3objects.Summary
		CurrentModel string         `json:"current_model"`
		CurrentTally map[string]int `json:"current_tally"`
		Changed      []int          `json:"changed"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&one))
	assert.Equal(t, "a.txt", one.Run.Source)
	assert.Equal(t, 1, one.Tally["GAMMA"])
	assert.Equal(t, 1, one.Tally["MUON"])
	assert.Len(t, one.Tracks, 2)
	assert.Equal(t, "heuristic-v1.0", one.CurrentModel)
	assert.Equal(t, 2, one.CurrentTally["GAMMA"])
	assert.Equal(t, 0, one.CurrentTally["MUON"])
	assert.Len(t, one.CurrentTally, len(l3objects.AllPartTypes))
	assert.Equal(t, []int{2}, one.Changed)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/runs/missing").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, s, http.MethodGet, "/api/runs/broken").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/runs?limit=-1").Code)
}

func TestServer_NoRunStore(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/runs").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/runs/r1").Code)
}
