package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/fwconfig/internal/api"
	"github.com/gyaneshwarpardhi/fwconfig/internal/catalog"
	"github.com/gyaneshwarpardhi/fwconfig/internal/config"
	"github.com/gyaneshwarpardhi/fwconfig/internal/engine"
	"github.com/gyaneshwarpardhi/fwconfig/internal/registry"
)

const topProjection = `
version: v1
sequences:
  - name: topProjection
    expr: noMuon
`

type server struct {
	t    *testing.T
	h    http.Handler
	file string
}

func newServer(t *testing.T, src string) *server {
	t.Helper()
	file := filepath.Join(t.TempDir(), "process.yaml")
	require.NoError(t, os.WriteFile(file, []byte(src), 0o644))

	loader, err := config.NewLoader(file)
	require.NoError(t, err)
	base, err := catalog.Fragments("pf2pat-topprojection", "outertracker-mctruth")
	require.NoError(t, err)
	eng := engine.New(engine.Options{Registry: registry.Builtin(), Strict: true, Base: base})
	_, err = eng.Rebuild(loader.Bundle())
	require.NoError(t, err)

	return &server{t: t, h: api.New(eng, loader), file: file}
}

func (s *server) do(method, target, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestProcess(t *testing.T) {
	s := newServer(t, topProjection)

	rec := s.do(http.MethodGet, "/v1/process", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, []interface{}{"topProjection"}, body["sequences"])
	assert.Len(t, body["modules"], 2)
}

func TestModule(t *testing.T) {
	s := newServer(t, topProjection)

	rec := s.do(http.MethodGet, "/v1/modules/noMuon", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "producer", body["kind"])
	assert.Equal(t, "TPPFCandidatesOnPFCandidates", body["type"])
	params := body["params"].(map[string]interface{})
	assert.Contains(t, params, "topCollection")

	rec = s.do(http.MethodGet, "/v1/modules/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistograms(t *testing.T) {
	s := newServer(t, topProjection)

	rec := s.do(http.MethodGet, "/v1/modules/OuterTrackerMCTruth/histograms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Histograms []struct {
			Name       string `json:"name"`
			Descriptor struct {
				X struct {
					Nbins int     `json:"nbins"`
					Min   float64 `json:"min"`
					Max   float64 `json:"max"`
				} `json:"x"`
			} `json:"descriptor"`
		} `json:"histograms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Histograms, 18)
	assert.Equal(t, "TH1TPart_Pt", body.Histograms[0].Name)
	assert.Equal(t, 50, body.Histograms[0].Descriptor.X.Nbins)
	assert.Equal(t, 200.0, body.Histograms[0].Descriptor.X.Max)

	rec = s.do(http.MethodGet, "/v1/modules/noMuon/histograms", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"module": "noMuon", "histograms": []}`, rec.Body.String())
}

func TestSequence(t *testing.T) {
	s := newServer(t, topProjection)

	rec := s.do(http.MethodGet, "/v1/sequences/topProjection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name": "topProjection", "expr": "noMuon", "steps": [{"label": "noMuon"}]}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/sequences/PF2PAT", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/psets/SimTrackMatching", "").Code)
}

func TestSelect(t *testing.T) {
	s := newServer(t, topProjection)

	rec := s.do(http.MethodPost, "/v1/event-content/PF2PATStudiesEventContent/select",
		`{"branches": ["recoPFJets_pfJets__PF2PAT", "recoMuons_muons__RECO"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"kept": ["recoPFJets_pfJets__PF2PAT", "recoMuons_muons__RECO"], "dropped": []}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/v1/event-content/missing/select", `{"branches": []}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/v1/event-content/PF2PATEventContent/select", `{"branches": ["notABranch"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/event-content/PF2PATEventContent/select", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	huge := `{"branches": ["` + strings.Repeat("x", 2<<20) + `"]}`
	rec = s.do(http.MethodPost, "/v1/event-content/PF2PATEventContent/select", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDump(t *testing.T) {
	s := newServer(t, topProjection)

	rec := s.do(http.MethodGet, "/v1/process/dump", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))

	f, err := config.DecodeYAML(rec.Body.Bytes())
	require.NoError(t, err, rec.Body.String())
	assert.Len(t, f.Modules, 2)
	assert.Equal(t, []config.SequenceDecl{{Name: "topProjection", Expr: "noMuon"}}, f.Sequences)
}

func TestReload(t *testing.T) {
	s := newServer(t, topProjection)
	before := decodeBody(t, s.do(http.MethodGet, "/v1/process", ""))["id"]

	require.NoError(t, os.WriteFile(s.file, []byte("version: v1\nsequences: [{name: s, expr: pfJets}]\n"), 0o644))
	rec := s.do(http.MethodPost, "/v1/reload", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "pfJets")
	assert.Equal(t, before, decodeBody(t, s.do(http.MethodGet, "/v1/process", ""))["id"])

	require.NoError(t, os.WriteFile(s.file, []byte("version: v1\nsequences: [{name: s, expr: noMuon}]\n"), 0o644))
	rec = s.do(http.MethodPost, "/v1/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	after := decodeBody(t, rec)["process"]
	assert.NotEqual(t, before, after)

	require.NoError(t, os.WriteFile(s.file, []byte("version: [\n"), 0o644))
	rec = s.do(http.MethodPost, "/v1/reload", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestProbes(t *testing.T) {
	eng := engine.New(engine.Options{})
	h := api.New(eng, nil)

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}
	assert.Equal(t, http.StatusOK, get("/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/readyz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/v1/process").Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/reload", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	_, err := eng.Rebuild(&config.Bundle{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get("/readyz").Code)
	assert.Equal(t, http.StatusOK, get("/metrics").Code)
}
