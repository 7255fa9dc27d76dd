package monitor

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/particle.report/internal/db"
	"github.com/banshee-data/particle.report/internal/httputil"
	"github.com/banshee-data/particle.report/internal/particle/l2tracks"
	"github.com/banshee-data/particle.report/internal/particle/l3objects"
	"github.com/banshee-data/particle.report/internal/particle/pipeline"
)

// RunReader is the read side of the run store.
type RunReader interface {
	ListRuns(limit int) ([]*db.Run, error)
	GetRun(runID string) (*db.Run, error)
	ListTracks(runID string) ([]l3objects.Summary, error)
	TallyByRun(runID string) (map[l3objects.PartType]int, error)
}

// Server serves one pipeline result over HTTP, plus stored runs when a
// RunReader is attached.
type Server struct {
	res        *pipeline.Result
	view       *Viewer
	renderer   *Renderer
	runs       RunReader
	classifier *l3objects.ParticleClassifier
	mux        *http.ServeMux
}

// NewServer creates a server for res. runs may be nil.
func NewServer(res *pipeline.Result, view *Viewer, renderer *Renderer, runs RunReader) *Server {
	s := &Server{
		res:        res,
		view:       view,
		renderer:   renderer,
		runs:       runs,
		classifier: l3objects.NewParticleClassifier(),
		mux:        http.NewServeMux(),
	}
	s.mux.HandleFunc("/api/tracks", s.handleTracks)
	s.mux.HandleFunc("/api/tracks/{index}", s.handleTrack)
	s.mux.HandleFunc("/api/tally", s.handleTally)
	s.mux.HandleFunc("/api/view", s.handleView)
	s.mux.HandleFunc("/api/runs", s.handleRuns)
	s.mux.HandleFunc("/api/runs/{id}", s.handleRun)
	s.mux.HandleFunc("/charts/tally", s.handleTallyChart)
	s.mux.HandleFunc("/charts/tracks", s.handleTracksChart)
	s.mux.HandleFunc("/plot.png", s.handlePlot)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type tracksResponse struct {
	View   ViewState           `json:"view"`
	Tracks []l3objects.Summary `json:"tracks"`
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet) {
		return
	}
	httputil.WriteJSONOK(w, tracksResponse{View: s.view.State(), Tracks: s.res.Summaries})
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet) {
		return
	}
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		httputil.BadRequest(w, "track index must be an integer")
		return
	}
	if i < 0 || i >= len(s.res.Particles) {
		httputil.NotFound(w, fmt.Sprintf("track index %d out of range", i))
		return
	}
	httputil.WriteJSONOK(w, s.res.Particles[i].Detail(s.res.Grid))
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet) {
		return
	}
	httputil.WriteJSONOK(w, s.res.Tally)
}

// handleView reports the viewer state on GET and changes it on POST.
// POST actions: next, prev, toggle, combined, single, select (with index).
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodPost {
		switch action := r.URL.Query().Get("action"); action {
		case "next":
			s.view.Next()
		case "prev":
			s.view.Prev()
		case "toggle":
			s.view.Toggle()
		case "combined":
			s.view.SetMode(Combined)
		case "single":
			s.view.SetMode(Single)
		case "select":
			i, err := strconv.Atoi(r.URL.Query().Get("index"))
			if err != nil {
				httputil.BadRequest(w, "index must be an integer")
				return
			}
			if err := s.view.Select(i); err != nil {
				httputil.BadRequest(w, err.Error())
				return
			}
		default:
			httputil.BadRequest(w, fmt.Sprintf("unknown action %q", action))
			return
		}
	}
	httputil.WriteJSONOK(w, s.view.State())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet) {
		return
	}
	if s.runs == nil {
		httputil.NotFound(w, "no run store configured")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, runs)
}

type runResponse struct {
	Run    *db.Run                    `json:"run"`
	Tally  map[l3objects.PartType]int `json:"tally"`
	Tracks []l3objects.Summary        `json:"tracks"`

	// The stored tracks re-classified by the current rules.
	CurrentModel string                     `json:"current_model"`
	CurrentTally map[l3objects.PartType]int `json:"current_tally"`
	Changed      []l2tracks.TrackID         `json:"changed"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet) {
		return
	}
	if s.runs == nil {
		httputil.NotFound(w, "no run store configured")
		return
	}
	id := r.PathValue("id")
	run, err := s.runs.GetRun(id)
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	tally, err := s.runs.TallyByRun(id)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	tracks, err := s.runs.ListTracks(id)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	current, changed := s.reclassify(tracks)
	httputil.WriteJSONOK(w, runResponse{
		Run:          run,
		Tally:        tally,
		Tracks:       tracks,
		CurrentModel: s.classifier.ModelVersion,
		CurrentTally: current,
		Changed:      changed,
	})
}

// reclassify runs the current rules over stored tracks. It returns the new
// tally and the ids whose type differs from the stored one.
func (s *Server) reclassify(tracks []l3objects.Summary) (map[l3objects.PartType]int, []l2tracks.TrackID) {
	tally := make(map[l3objects.PartType]int, len(l3objects.AllPartTypes))
	for _, pt := range l3objects.AllPartTypes {
		tally[pt] = 0
	}
	changed := []l2tracks.TrackID{}
	for _, t := range tracks {
		r := s.classifier.ClassifySummary(t)
		tally[r.Type]++
		if r.Type != t.Type {
			changed = append(changed, t.ID)
		}
	}
	return tally, changed
}

func (s *Server) handleTallyChart(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet) {
		return
	}
	var buf bytes.Buffer
	if err := RenderChart(&buf, TallyChart(s.res.Tally)); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBody(w, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleTracksChart(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet) {
		return
	}
	var buf bytes.Buffer
	if err := RenderChart(&buf, TracksChart(s.res, s.view.Visible())); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBody(w, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	if !httputil.AllowMethods(w, r, http.MethodGet) {
		return
	}
	var buf bytes.Buffer
	if err := s.renderer.WritePNG(&buf, s.res, s.view.Visible()); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBody(w, "image/png", buf.Bytes())
}
