package api

import (
	"encoding/json"
	"net/http"

	"github.com/gyaneshwarpardhi/fwconfig/internal/assembler"
	"github.com/gyaneshwarpardhi/fwconfig/internal/module"
	"github.com/gyaneshwarpardhi/fwconfig/internal/pset"
	"github.com/gyaneshwarpardhi/fwconfig/internal/sequence"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

type moduleSummary struct {
	Label string      `json:"label"`
	Kind  module.Kind `json:"kind"`
	Type  string      `json:"type"`
}

type moduleResponse struct {
	moduleSummary
	Params *pset.PSet `json:"params"`
}

type processResponse struct {
	ID           string          `json:"id"`
	Sources      []string        `json:"sources"`
	Warnings     []string        `json:"warnings,omitempty"`
	PSets        []string        `json:"psets"`
	Modules      []moduleSummary `json:"modules"`
	Sequences    []string        `json:"sequences"`
	EventContent []string        `json:"event_content"`
}

type sequenceResponse struct {
	Name  string          `json:"name"`
	Expr  string          `json:"expr"`
	Steps []sequence.Step `json:"steps"`
}

type selectRequest struct {
	Branches []string `json:"branches"`
}

func summary(m *module.Module) moduleSummary {
	return moduleSummary{Label: m.Label(), Kind: m.Kind(), Type: m.Type()}
}

func moduleSummaries(p *assembler.Process) []moduleSummary {
	mods := p.Modules()
	out := make([]moduleSummary, len(mods))
	for i, m := range mods {
		out[i] = summary(m)
	}
	return out
}
