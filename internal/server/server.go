package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/openpv/icsrgen/internal/casedata"
	"github.com/openpv/icsrgen/internal/icsr"
	"github.com/openpv/icsrgen/internal/mapping"
	"github.com/openpv/icsrgen/internal/output"
)

// Server exposes the ICSR generator over HTTP. Each conversion request is
// independent; the shared mapping table is immutable, so the handlers are
// safe for concurrent use.
type Server struct {
	mapper *mapping.Table
	out    *output.Manager
	log    zerolog.Logger
	router *mux.Router
}

// New wires the conversion routes. The output manager is optional; when set,
// every generated document is archived under its output directory.
func New(mapper *mapping.Table, out *output.Manager, log zerolog.Logger) *Server {
	s := &Server{
		mapper: mapper,
		out:    out,
		log:    log,
		router: mux.NewRouter(),
	}

	s.router.HandleFunc("/convert", s.handleConvert).Methods("POST")
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	return s
}

// Router returns the configured HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe starts serving on addr and blocks.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info().Str("addr", addr).Msg("Server started")
	return http.ListenAndServe(addr, s.router)
}

// handleConvert accepts a case record as the JSON request body and responds
// with the generated ICSR XML. Query parameters: message_id overrides the
// generated message identifier, pretty=false disables indentation.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	record, err := casedata.FromBytes(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid case JSON: "+err.Error())
		return
	}

	assembler := icsr.NewAssembler(s.mapper, casedata.NewEvaluator(record), s.log)
	messageID := r.URL.Query().Get("message_id")
	pretty := r.URL.Query().Get("pretty") != "false"

	doc := assembler.Assemble(messageID)
	rendered, err := icsr.Render(doc, pretty)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to render document: "+err.Error())
		return
	}

	if s.out != nil {
		extension, _ := doc.Find("id").Attr("extension")
		if _, err := s.out.WriteXML(rendered, "icsr_"+extension); err != nil {
			s.log.Error().Err(err).Msg("Failed to archive generated document")
		}
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(rendered)); err != nil {
		s.log.Error().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.log.Warn().Int("status", status).Str("error", message).Msg("Request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
