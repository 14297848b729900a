// Package pbtest runs an in-process PocketBase lookalike for tests.
//
// The fake covers the slice of the API the wrappers touch: password auth for
// records and admins, record CRUD with filter, sort and paging, file serving,
// and collection rule management. State lives in memory and every request is
// recorded so tests can assert on traffic, or on the absence of it.
package pbtest

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const dateTimeLayout = "2006-01-02 15:04:05.000Z"

// Request is one recorded HTTP request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
	Body   []byte
}

// CollectionMeta mirrors the collection model returned by the settings API.
// A nil rule means admin only, an empty string means public.
type CollectionMeta struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	ListRule   *string `json:"listRule"`
	ViewRule   *string `json:"viewRule"`
	CreateRule *string `json:"createRule"`
	UpdateRule *string `json:"updateRule"`
	DeleteRule *string `json:"deleteRule"`
}

type fileObject struct {
	name        string
	contentType string
	data        []byte
}

type Server struct {
	*httptest.Server

	secret string

	mu             sync.Mutex
	collections    map[string]*CollectionMeta
	records        map[string][]map[string]any
	passwords      map[string]string
	admins         []map[string]any
	adminPasswords map[string]string
	files          map[string]fileObject
	requests       []Request
}

// New starts a fake server seeded with empty users, submissions and mosques
// collections. The server is closed when the test finishes.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		secret:         uuid.NewString(),
		collections:    map[string]*CollectionMeta{},
		records:        map[string][]map[string]any{},
		passwords:      map[string]string{},
		adminPasswords: map[string]string{},
		files:          map[string]fileObject{},
	}
	for _, name := range []string{"users", "submissions", "mosques"} {
		typ := "base"
		if name == "users" {
			typ = "auth"
		}
		s.collections[name] = &CollectionMeta{ID: newRecordID(), Name: name, Type: typ}
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// ------------------------------------------------------------------
// Seeding
// ------------------------------------------------------------------

// SeedUser stores an auth record with a bcrypt password and returns a copy of
// the record.
func (s *Server) SeedUser(t *testing.T, email, password, name string, verified bool) map[string]any {
	t.Helper()
	hash := hashPassword(t, password)
	now := time.Now().UTC().Format(dateTimeLayout)
	rec := map[string]any{
		"id":       newRecordID(),
		"email":    email,
		"name":     name,
		"verified": verified,
		"created":  now,
		"updated":  now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records["users"] = append(s.records["users"], rec)
	s.passwords[rec["id"].(string)] = hash
	return copyRecord(rec)
}

// SeedAdmin stores a superuser account for the admin auth endpoint.
func (s *Server) SeedAdmin(t *testing.T, email, password string) map[string]any {
	t.Helper()
	hash := hashPassword(t, password)
	rec := map[string]any{"id": newRecordID(), "email": email}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins = append(s.admins, rec)
	s.adminPasswords[rec["id"].(string)] = hash
	return copyRecord(rec)
}

// SeedRecord stores a record in the named collection, filling in id, created
// and updated when absent, and returns a copy.
func (s *Server) SeedRecord(t *testing.T, collection string, fields map[string]any) map[string]any {
	t.Helper()
	rec := copyRecord(fields)
	if _, ok := rec["id"]; !ok {
		rec["id"] = newRecordID()
	}
	now := time.Now().UTC().Format(dateTimeLayout)
	if _, ok := rec["created"]; !ok {
		rec["created"] = now
	}
	if _, ok := rec["updated"]; !ok {
		rec["updated"] = now
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[collection] = append(s.records[collection], rec)
	return copyRecord(rec)
}

// SeedFile makes a stored file available under the record's file URL.
func (s *Server) SeedFile(t *testing.T, collection, recordID, filename, contentType string, data []byte) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[fileKey(collection, recordID, filename)] = fileObject{name: filename, contentType: contentType, data: data}
}

// SetCreateRule overwrites a collection's create rule.
func (s *Server) SetCreateRule(collection string, rule *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if meta, ok := s.collections[collection]; ok {
		meta.CreateRule = rule
	}
}

// ------------------------------------------------------------------
// State access for assertions
// ------------------------------------------------------------------

// Record returns a copy of the stored record, or nil when missing.
func (s *Server) Record(collection, id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records[collection] {
		if rec["id"] == id {
			return copyRecord(rec)
		}
	}
	return nil
}

// Records returns copies of every stored record in seed order.
func (s *Server) Records(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.records[collection]))
	for _, rec := range s.records[collection] {
		out = append(out, copyRecord(rec))
	}
	return out
}

// Collection returns a copy of the collection metadata.
func (s *Server) Collection(name string) (CollectionMeta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.collections[name]
	if !ok {
		return CollectionMeta{}, false
	}
	return *meta, true
}

// Requests returns the recorded requests so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount reports how many requests the server has seen.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// ResetRequests clears the request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// ------------------------------------------------------------------
// Tokens and ids
// ------------------------------------------------------------------

type tokenClaims struct {
	RecordID     string `json:"id"`
	TokenType    string `json:"type"`
	CollectionID string `json:"collectionId,omitempty"`
	jwt.RegisteredClaims
}

func (s *Server) mintToken(recordID, tokenType, collection string) (string, error) {
	claims := tokenClaims{
		RecordID:     recordID,
		TokenType:    tokenType,
		CollectionID: collection,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func (s *Server) parseToken(tokenStr string) (*tokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// newRecordID yields a 15 character lowercase alphanumeric id, the shape the
// backend hands out.
func newRecordID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:15]
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := hashForStore(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

// hashForStore uses the minimum cost; these hashes only live for one test.
func hashForStore(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash), err
}

func checkPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func copyRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func fileKey(collection, recordID, filename string) string {
	return collection + "/" + recordID + "/" + filename
}
