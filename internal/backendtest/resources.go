package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const maxUpload = 10 << 20

// collection is an ordered list of JSON objects with integer ids.
type collection struct {
	next  int
	items []map[string]any
}

func (c *collection) add(item map[string]any) map[string]any {
	item = maps.Clone(item)
	if item == nil {
		item = make(map[string]any)
	}
	if _, ok := item["id"]; !ok {
		c.next++
		item["id"] = c.next
	} else if n, ok := item["id"].(int); ok && n > c.next {
		c.next = n
	}
	if _, ok := item["created_at"]; !ok {
		item["created_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	c.items = append(c.items, item)
	return maps.Clone(item)
}

func (c *collection) find(id string) int {
	for i, item := range c.items {
		if fmt.Sprint(item["id"]) == id {
			return i
		}
	}
	return -1
}

func (c *collection) snapshot() []map[string]any {
	out := make([]map[string]any, len(c.items))
	for i, item := range c.items {
		out[i] = maps.Clone(item)
	}
	return out
}

func (s *Server) list(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Items(name))
	}
}

func (s *Server) logs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"logs": s.Items("logs")})
}

func (s *Server) createJSON(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, ok := readJSON(w, r)
		if !ok {
			return
		}
		delete(item, "id")

		s.mu.Lock()
		created := s.collectionLocked(name).add(item)
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) updateJSON(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patch, ok := readJSON(w, r)
		if !ok {
			return
		}
		s.patch(w, name, chi.URLParam(r, "id"), patch)
	}
}

func (s *Server) createMultipart(name, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, ok := s.readForm(w, r, field)
		if !ok {
			return
		}
		delete(item, "id")

		s.mu.Lock()
		created := s.collectionLocked(name).add(item)
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) updateMultipart(name, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patch, ok := s.readForm(w, r, field)
		if !ok {
			return
		}
		s.patch(w, name, chi.URLParam(r, "id"), patch)
	}
}

func (s *Server) patch(w http.ResponseWriter, name, id string, patch map[string]any) {
	delete(patch, "id")

	s.mu.Lock()
	c := s.collectionLocked(name)
	i := c.find(id)
	if i < 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "not_found", name+" "+id+" not found")
		return
	}
	maps.Copy(c.items[i], patch)
	updated := maps.Clone(c.items[i])
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) confirm(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.patch(w, name, chi.URLParam(r, "id"), map[string]any{"confirmed": true})
	}
}

func (s *Server) remove(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		s.mu.Lock()
		c := s.collectionLocked(name)
		i := c.find(id)
		if i < 0 {
			s.mu.Unlock()
			writeError(w, http.StatusNotFound, "not_found", name+" "+id+" not found")
			return
		}
		c.items = append(c.items[:i], c.items[i+1:]...)
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{"message": "deleted"})
	}
}

func readJSON(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
		return nil, false
	}
	var item map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return nil, false
	}
	return item, true
}

// readForm parses a multipart body whose field part holds the JSON object.
// An "image" file part sets image_url.
func (s *Server) readForm(w http.ResponseWriter, r *http.Request, field string) (map[string]any, bool) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/form-data") {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be multipart/form-data")
		return nil, false
	}
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", "invalid multipart body")
		return nil, false
	}

	var item map[string]any
	if err := json.Unmarshal([]byte(r.FormValue(field)), &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid "+field+" part")
		return nil, false
	}

	if file, header, err := r.FormFile("image"); err == nil {
		_ = file.Close()
		item["image_url"] = "/uploads/" + header.Filename
		s.mu.Lock()
		s.uploads = append(s.uploads, header.Filename)
		s.mu.Unlock()
	}
	return item, true
}
