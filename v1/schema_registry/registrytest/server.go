// Package registrytest provides an in-memory schema registry served over
// HTTP for tests.
package registrytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

type entry struct {
	Subject    string
	Version    int
	Schema     string
	SchemaType string
}

// Server is a minimal schema registry. It implements register, lookup by
// id, lookup by subject/version and compatibility checks, and counts every
// request by "METHOD /path".
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	nextID   uint32
	byID     map[uint32]entry
	subjects map[string][]uint32
	calls    map[string]int
	status   int
	delay    time.Duration
}

// NewServer starts a registry that assigns ids from firstID upwards.
// The server is closed by the caller.
func NewServer(firstID uint32) *Server {
	s := &Server{
		nextID:   firstID,
		byID:     map[uint32]entry{},
		subjects: map[string][]uint32{},
		calls:    map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Add stores schema under subject without counting a request and returns its id.
func (s *Server) Add(subject, schema string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.register(subject, schema, "")
}

// AddWithType is Add for a schema of the given registry type, e.g. "JSON".
func (s *Server) AddWithType(subject, schema, schemaType string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.register(subject, schema, schemaType)
}

// Calls returns how many requests matched route, e.g. "GET /schemas/ids/42".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls returns the number of requests served.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Fail makes every following request answer with status. Zero restores
// normal behaviour.
func (s *Server) Fail(status int) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// SetDelay delays every following response by d.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls[r.Method+" "+r.URL.Path]++
	status, delay := s.status, s.delay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if status != 0 {
		writeError(w, status, status*100+1, "forced failure")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "subjects" && parts[2] == "versions":
		s.handleRegister(w, r, parts[1])
	case r.Method == http.MethodGet && len(parts) == 3 && parts[0] == "schemas" && parts[1] == "ids":
		s.handleByID(w, parts[2])
	case r.Method == http.MethodGet && len(parts) == 4 && parts[0] == "subjects" && parts[2] == "versions":
		s.handleByVersion(w, parts[1], parts[3])
	case r.Method == http.MethodPost && len(parts) == 5 && parts[0] == "compatibility":
		s.handleCompatibility(w, parts[2])
	default:
		writeError(w, http.StatusNotFound, 404, "HTTP 404 Not Found")
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, subject string) {
	var req struct {
		Schema     string `json:"schema"`
		SchemaType string `json:"schemaType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Schema == "" {
		writeError(w, http.StatusUnprocessableEntity, 42201, "Invalid schema")
		return
	}

	s.mu.Lock()
	id := s.register(subject, req.Schema, req.SchemaType)
	s.mu.Unlock()

	writeJSON(w, map[string]interface{}{"id": id})
}

// register must be called with mu held.
func (s *Server) register(subject, schema, schemaType string) uint32 {
	for _, id := range s.subjects[subject] {
		if s.byID[id].Schema == schema {
			return id
		}
	}

	id := s.nextID
	s.nextID++
	s.subjects[subject] = append(s.subjects[subject], id)
	s.byID[id] = entry{
		Subject:    subject,
		Version:    len(s.subjects[subject]),
		Schema:     schema,
		SchemaType: schemaType,
	}
	return id
}

func (s *Server) handleByID(w http.ResponseWriter, rawID string) {
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		writeError(w, http.StatusNotFound, 40403, "Schema not found")
		return
	}

	s.mu.Lock()
	e, ok := s.byID[uint32(id)]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, 40403, "Schema "+rawID+" not found")
		return
	}

	resp := map[string]interface{}{"schema": e.Schema}
	if e.SchemaType != "" {
		resp["schemaType"] = e.SchemaType
	}
	writeJSON(w, resp)
}

func (s *Server) handleByVersion(w http.ResponseWriter, subject, ref string) {
	s.mu.Lock()
	ids := s.subjects[subject]
	s.mu.Unlock()

	if len(ids) == 0 {
		writeError(w, http.StatusNotFound, 40401, "Subject '"+subject+"' not found.")
		return
	}

	idx := len(ids) - 1
	if ref != "latest" {
		v, err := strconv.Atoi(ref)
		if err != nil || v < 1 || v > len(ids) {
			writeError(w, http.StatusNotFound, 40402, "Version "+ref+" not found.")
			return
		}
		idx = v - 1
	}

	s.mu.Lock()
	e := s.byID[ids[idx]]
	s.mu.Unlock()

	resp := map[string]interface{}{
		"subject": e.Subject,
		"version": e.Version,
		"id":      ids[idx],
		"schema":  e.Schema,
	}
	if e.SchemaType != "" {
		resp["schemaType"] = e.SchemaType
	}
	writeJSON(w, resp)
}

func (s *Server) handleCompatibility(w http.ResponseWriter, subject string) {
	s.mu.Lock()
	_, ok := s.subjects[subject]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, 40401, "Subject '"+subject+"' not found.")
		return
	}
	writeJSON(w, map[string]interface{}{"is_compatible": true})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/vnd.schemaregistry.v1+json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/vnd.schemaregistry.v1+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error_code": code,
		"message":    message,
	})
}
