package pbtest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recordRequest)

	r.Get("/api/health", s.health)
	r.Post("/api/admins/auth-with-password", s.adminAuthWithPassword)
	r.Get("/api/files/{collection}/{id}/{filename}", s.serveFile)

	r.Route("/api/collections/{collection}", func(r chi.Router) {
		r.Get("/", s.viewCollection)
		r.Patch("/", s.updateCollection)
		r.Post("/auth-with-password", s.authWithPassword)
		r.Post("/auth-refresh", s.authRefresh)
		r.Route("/records", func(r chi.Router) {
			r.Get("/", s.listRecords)
			r.Post("/", s.createRecord)
			r.Get("/{id}", s.viewRecord)
			r.Patch("/{id}", s.updateRecord)
			r.Delete("/{id}", s.deleteRecord)
		})
	})

	return r
}

// recordRequest appends every request to the log before it is handled.
func (s *Server) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"code": 200, "message": "API is healthy", "data": map[string]any{}})
}

// ------------------------------------------------------------------
// Auth
// ------------------------------------------------------------------

func (s *Server) authWithPassword(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	var req struct {
		Identity string `json:"identity"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Something went wrong while processing your request.")
		return
	}

	s.mu.Lock()
	var match map[string]any
	for _, rec := range s.records[collection] {
		if rec["email"] == req.Identity {
			match = copyRecord(rec)
			break
		}
	}
	var hash string
	if match != nil {
		hash = s.passwords[match["id"].(string)]
	}
	s.mu.Unlock()

	if match == nil || !checkPassword(req.Password, hash) {
		writeError(w, http.StatusBadRequest, "Failed to authenticate.")
		return
	}
	token, err := s.mintToken(match["id"].(string), "authRecord", collection)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "record": match})
}

func (s *Server) adminAuthWithPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identity string `json:"identity"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Something went wrong while processing your request.")
		return
	}

	s.mu.Lock()
	var match map[string]any
	for _, admin := range s.admins {
		if admin["email"] == req.Identity {
			match = copyRecord(admin)
			break
		}
	}
	var hash string
	if match != nil {
		hash = s.adminPasswords[match["id"].(string)]
	}
	s.mu.Unlock()

	if match == nil || !checkPassword(req.Password, hash) {
		writeError(w, http.StatusBadRequest, "Failed to authenticate.")
		return
	}
	token, err := s.mintToken(match["id"].(string), "admin", "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "admin": match})
}

func (s *Server) authRefresh(w http.ResponseWriter, r *http.Request) {
	claims, err := s.parseToken(r.Header.Get("Authorization"))
	if err != nil || claims.TokenType != "authRecord" {
		writeError(w, http.StatusUnauthorized, "The request requires valid record authorization token to be set.")
		return
	}
	collection := chi.URLParam(r, "collection")

	s.mu.Lock()
	var match map[string]any
	for _, rec := range s.records[collection] {
		if rec["id"] == claims.RecordID {
			match = copyRecord(rec)
			break
		}
	}
	s.mu.Unlock()

	if match == nil {
		writeError(w, http.StatusNotFound, "Missing auth record context.")
		return
	}
	token, err := s.mintToken(claims.RecordID, "authRecord", collection)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "record": match})
}

func (s *Server) requireAdmin(r *http.Request) bool {
	claims, err := s.parseToken(r.Header.Get("Authorization"))
	return err == nil && claims.TokenType == "admin"
}

// ------------------------------------------------------------------
// Collections
// ------------------------------------------------------------------

func (s *Server) viewCollection(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(r) {
		writeError(w, http.StatusUnauthorized, "The request requires valid admin authorization token to be set.")
		return
	}
	name := chi.URLParam(r, "collection")
	s.mu.Lock()
	meta, ok := s.collections[name]
	var out CollectionMeta
	if ok {
		out = *meta
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// updateCollection patches only the rule keys present in the body. A JSON
// null clears the rule back to admin only.
func (s *Server) updateCollection(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(r) {
		writeError(w, http.StatusUnauthorized, "The request requires valid admin authorization token to be set.")
		return
	}
	name := chi.URLParam(r, "collection")
	var patch map[string]any
	if err := readJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Something went wrong while processing your request.")
		return
	}

	s.mu.Lock()
	meta, ok := s.collections[name]
	if ok {
		for key, target := range map[string]**string{
			"listRule":   &meta.ListRule,
			"viewRule":   &meta.ViewRule,
			"createRule": &meta.CreateRule,
			"updateRule": &meta.UpdateRule,
			"deleteRule": &meta.DeleteRule,
		} {
			raw, present := patch[key]
			if !present {
				continue
			}
			if raw == nil {
				*target = nil
			} else if str, isStr := raw.(string); isStr {
				rule := str
				*target = &rule
			}
		}
	}
	var out CollectionMeta
	if ok {
		out = *meta
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ------------------------------------------------------------------
// Records
// ------------------------------------------------------------------

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	q := r.URL.Query()

	s.mu.Lock()
	all := make([]map[string]any, 0, len(s.records[collection]))
	for _, rec := range s.records[collection] {
		all = append(all, copyRecord(rec))
	}
	s.mu.Unlock()

	if filter := q.Get("filter"); filter != "" {
		kept := all[:0]
		for _, rec := range all {
			ok, err := matchFilter(rec, filter)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid filter expression.")
				return
			}
			if ok {
				kept = append(kept, rec)
			}
		}
		all = kept
	}
	if sortExpr := q.Get("sort"); sortExpr != "" {
		sortRecords(all, sortExpr)
	}

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	if perPage < 1 {
		perPage = 30
	}
	items, totalPages := paginate(all, page, perPage)

	writeJSON(w, http.StatusOK, map[string]any{
		"page":       page,
		"perPage":    perPage,
		"totalItems": len(all),
		"totalPages": totalPages,
		"items":      items,
	})
}

func (s *Server) viewRecord(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")
	rec := s.Record(collection, id)
	if rec == nil {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	fields, files, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Something went wrong while processing your request.")
		return
	}

	rec := map[string]any{"id": newRecordID()}
	now := time.Now().UTC().Format(dateTimeLayout)
	rec["created"] = now
	rec["updated"] = now

	var passwordHash string
	if collection == "users" {
		password, _ := fields["password"].(string)
		confirm, _ := fields["passwordConfirm"].(string)
		if password == "" || password != confirm {
			writeError(w, http.StatusBadRequest, "Failed to create record.")
			return
		}
		hash, err := hashForStore(password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		passwordHash = hash
		delete(fields, "password")
		delete(fields, "passwordConfirm")
		if _, ok := fields["verified"]; !ok {
			fields["verified"] = false
		}
	}
	for k, v := range fields {
		rec[k] = v
	}
	for field, file := range files {
		rec[field] = file.name
	}

	s.mu.Lock()
	s.records[collection] = append(s.records[collection], rec)
	if passwordHash != "" {
		s.passwords[rec["id"].(string)] = passwordHash
	}
	for _, file := range files {
		s.files[fileKey(collection, rec["id"].(string), file.name)] = file
	}
	out := copyRecord(rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")
	fields, files, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Something went wrong while processing your request.")
		return
	}

	s.mu.Lock()
	var rec map[string]any
	for _, candidate := range s.records[collection] {
		if candidate["id"] == id {
			rec = candidate
			break
		}
	}
	if rec == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.")
		return
	}

	if collection == "users" {
		if password, ok := fields["password"].(string); ok && password != "" {
			oldPassword, _ := fields["oldPassword"].(string)
			confirm, _ := fields["passwordConfirm"].(string)
			if !checkPassword(oldPassword, s.passwords[id]) || password != confirm {
				s.mu.Unlock()
				writeError(w, http.StatusBadRequest, "Failed to update record.")
				return
			}
			hash, err := hashForStore(password)
			if err != nil {
				s.mu.Unlock()
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			s.passwords[id] = hash
		}
		delete(fields, "oldPassword")
		delete(fields, "password")
		delete(fields, "passwordConfirm")
	}

	for k, v := range fields {
		rec[k] = v
	}
	for field, file := range files {
		rec[field] = file.name
		s.files[fileKey(collection, id, file.name)] = file
	}
	rec["updated"] = time.Now().UTC().Format(dateTimeLayout)
	out := copyRecord(rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	recs := s.records[collection]
	found := false
	for i, rec := range recs {
		if rec["id"] == id {
			s.records[collection] = append(recs[:i], recs[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	key := fileKey(chi.URLParam(r, "collection"), chi.URLParam(r, "id"), chi.URLParam(r, "filename"))
	s.mu.Lock()
	file, ok := s.files[key]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.")
		return
	}
	w.Header().Set("Content-Type", file.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.data)))
	w.Write(file.data)
}

// ------------------------------------------------------------------
// Body parsing and response helpers
// ------------------------------------------------------------------

// parseBody accepts either a JSON object or a multipart form. Multipart
// values that decode as JSON are stored decoded, everything else stays a
// string, matching how the backend coerces form fields.
func parseBody(r *http.Request) (map[string]any, map[string]fileObject, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, nil, err
		}
		fields := map[string]any{}
		for key, vals := range r.MultipartForm.Value {
			if len(vals) > 0 {
				fields[key] = parseFormValue(vals[0])
			}
		}
		files := map[string]fileObject{}
		for key, headers := range r.MultipartForm.File {
			for _, header := range headers {
				f, err := header.Open()
				if err != nil {
					return nil, nil, err
				}
				data, err := io.ReadAll(f)
				f.Close()
				if err != nil {
					return nil, nil, err
				}
				files[key] = fileObject{
					name:        header.Filename,
					contentType: header.Header.Get("Content-Type"),
					data:        data,
				}
			}
		}
		return fields, files, nil
	}

	fields := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	return fields, nil, nil
}

func parseFormValue(v string) any {
	var parsed any
	if err := json.Unmarshal([]byte(v), &parsed); err == nil {
		return parsed
	}
	return v
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError responds with the backend's error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"code": status, "message": message, "data": map[string]any{}})
}
