// Package fakebackend is an in-process stand-in for the portal backend,
// used by tests across the module.
package fakebackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/clinician-portal/api"
	"github.com/jrsteele09/clinician-portal/profile"
)

const (
	signingSecret = "fake-backend-secret"
	CheckoutHost  = "https://checkout.example.com"
)

type account struct {
	password string
	profile  profile.Profile
	courses  api.CoursesResponse
}

type failure struct {
	status  int
	message string
}

// Backend serves the portal API from memory.
type Backend struct {
	server *httptest.Server

	lock      sync.Mutex
	accounts  map[string]*account // email -> account
	tokens    map[string]string   // access token -> email
	failures  map[string]failure  // path -> forced failure
	calls     map[string]int      // path -> request count
	checkouts []CheckoutCall
	requestID []string
}

// CheckoutCall records one checkout request.
type CheckoutCall struct {
	Path string
	Body map[string]any
}

// New starts a backend; it is shut down when the test ends.
func New(t interface{ Cleanup(func()) }) *Backend {
	b := &Backend{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		failures: make(map[string]failure),
		calls:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+api.PathRegister, b.handleRegister)
	mux.HandleFunc("POST "+api.PathLogin, b.handleLogin)
	mux.HandleFunc("GET "+api.PathProfile, b.requireToken(b.handleProfile))
	mux.HandleFunc("GET "+api.PathCourses, b.requireToken(b.handleCourses))
	mux.HandleFunc("POST "+api.PathCheckout, b.requireToken(b.handleCheckout))
	mux.HandleFunc("POST "+api.PathCheckoutStandard, b.requireToken(b.handleCheckout))
	mux.HandleFunc("POST "+api.PathCheckoutPremium, b.requireToken(b.handleCheckout))

	b.server = httptest.NewServer(b.count(mux))
	t.Cleanup(b.server.Close)
	return b
}

// URL is the backend's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// AddAccount registers an account directly, bypassing /auth/register.
func (b *Backend) AddAccount(email, password string, p profile.Profile) {
	b.lock.Lock()
	defer b.lock.Unlock()
	p.Email = email
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	b.accounts[email] = &account{password: password, profile: p}
}

// SetProfile replaces the profile the backend returns for email.
func (b *Backend) SetProfile(email string, p profile.Profile) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if acc, ok := b.accounts[email]; ok {
		acc.profile = p
	}
}

// SetCourses sets the /courses response for email.
func (b *Backend) SetCourses(email string, courses api.CoursesResponse) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if acc, ok := b.accounts[email]; ok {
		acc.courses = courses
	}
}

// Fail makes every request to path answer with status and {"message": message}.
// An empty message sends a body without one.
func (b *Backend) Fail(path string, status int, message string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.failures[path] = failure{status: status, message: message}
}

// Recover clears a forced failure.
func (b *Backend) Recover(path string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	delete(b.failures, path)
}

// Calls counts requests to path.
func (b *Backend) Calls(path string) int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.calls[path]
}

// Checkouts returns the checkout requests received so far.
func (b *Backend) Checkouts() []CheckoutCall {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]CheckoutCall(nil), b.checkouts...)
}

// RequestIDs returns the X-Request-Id headers seen so far.
func (b *Backend) RequestIDs() []string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]string(nil), b.requestID...)
}

// IssueToken signs an access token for email as the login endpoint would.
func (b *Backend) IssueToken(email string) string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.issueTokenLocked(email)
}

func (b *Backend) issueTokenLocked(email string) string {
	now := time.Now()
	claims := jwtlib.RegisteredClaims{
		Subject:   email,
		ID:        uuid.NewString(),
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(time.Hour)),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	b.tokens[token] = email
	return token
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		b.calls[r.URL.Path]++
		b.requestID = append(b.requestID, r.Header.Get(api.HeaderRequestID))
		f, failing := b.failures[r.URL.Path]
		b.lock.Unlock()

		if failing {
			if f.message == "" {
				writeJSON(w, f.status, map[string]any{})
				return
			}
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireToken(next func(http.ResponseWriter, *http.Request, *account)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		b.lock.Lock()
		email, ok := b.tokens[parts[1]]
		acc := b.accounts[email]
		b.lock.Unlock()

		if !ok || acc == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r, acc)
	}
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if _, exists := b.accounts[req.Email]; exists {
		writeError(w, http.StatusConflict, "Clinician with this email already exists")
		return
	}
	acc := &account{
		password: req.Password,
		profile: profile.Profile{
			ID:               uuid.NewString(),
			Email:            req.Email,
			OrganizationName: req.OrganizationName,
			OwnerName:        req.OwnerName,
			LicenseNumber:    req.LicenseNumber,
			Position:         req.Position,
			Website:          req.Website,
		},
	}
	b.accounts[req.Email] = acc
	writeJSON(w, http.StatusCreated, b.authResponseLocked(acc))
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	acc, ok := b.accounts[req.Email]
	if !ok || acc.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, b.authResponseLocked(acc))
}

func (b *Backend) handleProfile(w http.ResponseWriter, _ *http.Request, acc *account) {
	b.lock.Lock()
	p := acc.profile
	b.lock.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) handleCourses(w http.ResponseWriter, _ *http.Request, acc *account) {
	b.lock.Lock()
	c := acc.courses
	b.lock.Unlock()
	if c.Courses == nil {
		c.Courses = []api.Course{}
	}
	if c.AllCourses == nil {
		c.AllCourses = []api.Course{}
	}
	writeJSON(w, http.StatusOK, c)
}

func (b *Backend) handleCheckout(w http.ResponseWriter, r *http.Request, _ *account) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, _ := body["amount"].(float64)
	currency, _ := body["currency"].(string)
	if currency == "" {
		currency = "inr"
	}

	sessionID := "cs_test_" + uuid.NewString()
	b.lock.Lock()
	b.checkouts = append(b.checkouts, CheckoutCall{Path: r.URL.Path, Body: body})
	b.lock.Unlock()

	writeJSON(w, http.StatusCreated, api.CheckoutSession{
		SessionID: sessionID,
		URL:       CheckoutHost + "/pay/" + sessionID,
		Amount:    int(amount),
		Currency:  currency,
	})
}

func (b *Backend) authResponseLocked(acc *account) map[string]any {
	// Answers with the legacy "clinician" key.
	return map[string]any{
		"accessToken":  b.issueTokenLocked(acc.profile.Email),
		"refreshToken": "refresh-" + uuid.NewString(),
		"clinician":    legacyProfile(acc.profile),
	}
}

func legacyProfile(p profile.Profile) map[string]any {
	m := map[string]any{
		"id":            p.ID,
		"email":         p.Email,
		"clinicianName": p.OrganizationName,
		"ownerName":     p.OwnerName,
		"licenseNumber": p.LicenseNumber,
		"position":      p.Position,
	}
	if p.Website != nil {
		m["website"] = *p.Website
	}
	return m
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message, "statusCode": status})
}
