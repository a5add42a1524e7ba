package portalauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Saraswati-Portal/portalauth/token"
)

const testSigningKey = "portal-test-secret"

// fakePortal is an in-memory stand-in for the portal identity backend. It
// keeps one active OTP challenge per (email, purpose): issuing a new one
// supersedes the previous, a consumed one never verifies again, and expiry
// is driven by the fake's own clock.
type fakePortal struct {
	mu sync.Mutex

	users      map[string]*portalUser
	challenges map[string]*portalChallenge
	resetAuthz map[string]string

	now     time.Time
	otpSeq  int
	authSeq int

	// mintBrokenTokens makes login return an undecodable access token.
	mintBrokenTokens bool
}

type portalUser struct {
	password   string
	role       string
	department string
	verified   bool
}

type portalChallenge struct {
	code      string
	expiresAt time.Time
	consumed  bool
}

func newFakePortal() *fakePortal {
	return &fakePortal{
		users:      make(map[string]*portalUser),
		challenges: make(map[string]*portalChallenge),
		resetAuthz: make(map[string]string),
		now:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (p *fakePortal) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(p.handler())
	t.Cleanup(srv.Close)
	return srv
}

// advance moves the fake clock forward; used to expire challenges.
func (p *fakePortal) advance(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = p.now.Add(d)
}

// addUser seeds a verified account directly, bypassing registration.
func (p *fakePortal) addUser(email, password, role string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[email] = &portalUser{password: password, role: role, verified: true}
}

// lastOTP returns the code of the active challenge for email+purpose.
func (p *fakePortal) lastOTP(email, purpose string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.challenges[purpose+":"+email]
	if !ok {
		return ""
	}
	return ch.code
}

func (p *fakePortal) isVerified(email string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[email]
	return ok && u.verified
}

func (p *fakePortal) passwordOf(email string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[email]
	if !ok {
		return ""
	}
	return u.password
}

func (p *fakePortal) issueChallenge(email, purpose string) {
	p.otpSeq++
	p.challenges[purpose+":"+email] = &portalChallenge{
		code:      fmt.Sprintf("%06d", p.otpSeq),
		expiresAt: p.now.Add(10 * time.Minute),
	}
}

// checkChallenge verifies code against the active challenge. On success the
// challenge is consumed and removed.
func (p *fakePortal) checkChallenge(email, purpose, code string) (string, bool) {
	key := purpose + ":" + email
	ch, ok := p.challenges[key]
	if !ok || ch.consumed {
		return "Invalid OTP", false
	}
	if p.now.After(ch.expiresAt) {
		return "OTP expired", false
	}
	if ch.code != code {
		return "Invalid OTP", false
	}
	ch.consumed = true
	delete(p.challenges, key)
	return "", true
}

func (p *fakePortal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/register", p.handleRegister)
	mux.HandleFunc("/auth/verify-otp", p.handleVerifyOTP)
	mux.HandleFunc("/auth/login", p.handleLogin)
	mux.HandleFunc("/auth/forgot-password", p.handleForgotPassword)
	mux.HandleFunc("/auth/verify-reset-otp", p.handleVerifyResetOTP)
	mux.HandleFunc("/auth/reset-password", p.handleResetPassword)
	return mux
}

func (p *fakePortal) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Role       string `json:"role"`
		Department string `json:"department"`
		AdminKey   string `json:"admin_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.users[req.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if req.Role == "admin" && req.AdminKey != "portal-admin-key" {
		writeDetail(w, http.StatusForbidden, "Invalid admin key")
		return
	}

	p.users[req.Email] = &portalUser{
		password:   req.Password,
		role:       req.Role,
		department: req.Department,
	}
	p.issueChallenge(req.Email, "registration")
	writeMessage(w, "OTP sent to email")
}

func (p *fakePortal) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.users[req.Email]
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	if detail, ok := p.checkChallenge(req.Email, "registration", req.OTP); !ok {
		writeDetail(w, http.StatusBadRequest, detail)
		return
	}

	user.verified = true
	writeMessage(w, "Account verified")
}

func (p *fakePortal) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.users[req.Email]
	if !ok || user.password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.verified {
		writeDetail(w, http.StatusForbidden, "Account not verified")
		return
	}

	accessToken := "not-a-jwt"
	if !p.mintBrokenTokens {
		accessToken = mintAccessToken(req.Email, user.role, p.now.Add(time.Hour))
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

func (p *fakePortal) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.users[req.Email]; !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}

	p.issueChallenge(req.Email, "reset")
	writeMessage(w, "Reset OTP sent to email")
}

func (p *fakePortal) handleVerifyResetOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if detail, ok := p.checkChallenge(req.Email, "reset", req.OTP); !ok {
		writeDetail(w, http.StatusBadRequest, detail)
		return
	}

	p.authSeq++
	authz := fmt.Sprintf("reset-authz-%d", p.authSeq)
	p.resetAuthz[req.Email] = authz

	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "OTP verified",
		"reset_token": authz,
	})
}

func (p *fakePortal) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"new_password"`
		ResetToken  string `json:"reset_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.users[req.Email]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	authz, ok := p.resetAuthz[req.Email]
	if !ok || req.ResetToken != authz {
		writeDetail(w, http.StatusForbidden, "Reset not authorized")
		return
	}

	user.password = req.NewPassword
	delete(p.resetAuthz, req.Email)
	writeMessage(w, "Password updated")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func mintAccessToken(email, role string, expiresAt time.Time) string {
	claims := jwt.MapClaims{
		"sub":   email,
		"email": email,
		"role":  role,
		"exp":   expiresAt.Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(testSigningKey))
	if err != nil {
		panic(err)
	}
	return signed
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New().WithBaseURL(baseURL).Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

// registerAndVerify runs a full registration for a student account.
func registerAndVerify(t *testing.T, client *Client, portal *fakePortal, email, password string) {
	t.Helper()

	pending, err := client.Register(context.Background(), RegisterInput{
		Email:      email,
		Password:   password,
		Department: "CSE",
		Role:       token.RoleStudent,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := pending.VerifyOTP(context.Background(), portal.lastOTP(email, "registration")); err != nil {
		t.Fatalf("verify otp: %v", err)
	}
}
