// auth_flow_test.go contains integration tests for the login and 2FA
// handlers. They run against real PostgreSQL and Valkey and are skipped
// when those services are unavailable.
package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"estatepress/internal/models"
	"estatepress/internal/session"
)

const (
	seedAdminEmail = "admin@estatepress.local"
	testTOTPSecret = "JBSWY3DPEHPK3PXP"
)

// seedAdmin returns the seeded admin with TOTP reset, restoring that state
// when the test ends.
func seedAdmin(t *testing.T, env *testEnv) *models.User {
	t.Helper()
	user, err := env.UserStore.FindByEmail(seedAdminEmail)
	if err != nil || user == nil {
		t.Skip("skipping: default admin user not found in database, run seed first")
	}
	if err := env.UserStore.ResetTOTP(user.ID); err != nil {
		t.Fatalf("reset totp: %v", err)
	}
	t.Cleanup(func() { env.UserStore.ResetTOTP(user.ID) })
	return user
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLoginPage_ReturnsHTML(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Auth.LoginPage(rec, httptest.NewRequest(http.MethodGet, "/admin/login", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
}

// A fully authenticated session skips the login form.
func TestLoginPage_AuthenticatedRedirectsToDashboard(t *testing.T) {
	env := newTestEnv(t)

	sess := testSession(uuid.New(), seedAdminEmail, "admin", true)
	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.LoginPage(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/dashboard" {
		t.Errorf("Location: got %q, want /admin/dashboard", loc)
	}
}

func TestLoginPage_PartialSessionDoesNotRedirect(t *testing.T) {
	env := newTestEnv(t)

	sess := testSession(uuid.New(), seedAdminEmail, "admin", false)
	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.LoginPage(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestLoginSubmit_NeedsSetup(t *testing.T) {
	env := newTestEnv(t)
	seedAdmin(t, env)

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, formRequest("/admin/login", url.Values{
		"email":    {seedAdminEmail},
		"password": {"admin"},
	}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/2fa/setup" {
		t.Errorf("Location: got %q, want /admin/2fa/setup", loc)
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s cookie after login", session.CookieName)
	}
}

func TestLoginSubmit_TOTPEnabledGoesToVerify(t *testing.T) {
	env := newTestEnv(t)
	user := seedAdmin(t, env)

	if err := env.UserStore.SetTOTPSecret(user.ID, testTOTPSecret); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}
	if err := env.UserStore.EnableTOTP(user.ID); err != nil {
		t.Fatalf("enable totp: %v", err)
	}

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, formRequest("/admin/login", url.Values{
		"email":    {seedAdminEmail},
		"password": {"admin"},
	}))

	if loc := rec.Header().Get("Location"); loc != "/admin/2fa/verify" {
		t.Errorf("Location: got %q, want /admin/2fa/verify", loc)
	}
}

func TestLoginSubmit_BadCredentials(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		email string
		pass  string
	}{
		{"wrong password", seedAdminEmail, "wrong-password-definitely-not-correct"},
		{"unknown email", "nobody-xyz@example.com", "irrelevant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.Auth.LoginSubmit(rec, formRequest("/admin/login", url.Values{
				"email":    {tt.email},
				"password": {tt.pass},
			}))

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if !strings.Contains(rec.Body.String(), "Invalid email or password") {
				t.Error("expected error message in response body")
			}
		})
	}
}

func TestTwoFASetupPage_NoSession(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Auth.TwoFASetupPage(rec, httptest.NewRequest(http.MethodGet, "/admin/2fa/setup", nil))

	if loc := rec.Header().Get("Location"); rec.Code != http.StatusSeeOther || loc != "/admin/login" {
		t.Errorf("got %d %q, want 303 /admin/login", rec.Code, loc)
	}
}

// The setup page issues a secret and shows it as a QR code.
func TestTwoFASetupPage_ShowsQRCode(t *testing.T) {
	env := newTestEnv(t)
	user := seedAdmin(t, env)

	sess := testSession(user.ID, user.Email, string(user.Role), false)
	req := httptest.NewRequest(http.MethodGet, "/admin/2fa/setup", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.TwoFASetupPage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "data:image/png;base64,") {
		t.Error("expected QR code image in the setup page")
	}

	stored, err := env.UserStore.FindByID(user.ID)
	if err != nil || stored == nil || stored.TOTPSecret == nil {
		t.Fatalf("expected a stored TOTP secret, err=%v", err)
	}
	if stored.TOTPEnabled {
		t.Error("TOTP must stay disabled until the first code is verified")
	}
}

func TestTwoFASetupPage_AlreadyEnabledGoesToVerify(t *testing.T) {
	env := newTestEnv(t)
	user := seedAdmin(t, env)

	if err := env.UserStore.SetTOTPSecret(user.ID, testTOTPSecret); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}
	if err := env.UserStore.EnableTOTP(user.ID); err != nil {
		t.Fatalf("enable totp: %v", err)
	}

	sess := testSession(user.ID, user.Email, string(user.Role), false)
	req := httptest.NewRequest(http.MethodGet, "/admin/2fa/setup", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.TwoFASetupPage(rec, req)

	if loc := rec.Header().Get("Location"); rec.Code != http.StatusSeeOther || loc != "/admin/2fa/verify" {
		t.Errorf("got %d %q, want 303 /admin/2fa/verify", rec.Code, loc)
	}
}

func TestTwoFAVerifyPage(t *testing.T) {
	env := newTestEnv(t)

	t.Run("no session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.Auth.TwoFAVerifyPage(rec, httptest.NewRequest(http.MethodGet, "/admin/2fa/verify", nil))
		if loc := rec.Header().Get("Location"); loc != "/admin/login" {
			t.Errorf("Location: got %q, want /admin/login", loc)
		}
	})

	t.Run("with session", func(t *testing.T) {
		sess := testSession(uuid.New(), seedAdminEmail, "admin", false)
		req := httptest.NewRequest(http.MethodGet, "/admin/2fa/verify", nil)
		req = req.WithContext(ctxWithSession(req.Context(), sess))
		rec := httptest.NewRecorder()

		env.Auth.TwoFAVerifyPage(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusOK)
		}
	})
}

func TestTwoFAVerifySubmit_NoSession(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Auth.TwoFAVerifySubmit(rec, formRequest("/admin/2fa/verify", url.Values{"code": {"123456"}}))

	if loc := rec.Header().Get("Location"); rec.Code != http.StatusSeeOther || loc != "/admin/login" {
		t.Errorf("got %d %q, want 303 /admin/login", rec.Code, loc)
	}
}

// A wrong code during enrolment shows the same QR code again.
func TestTwoFAVerifySubmit_InvalidCodeDuringSetup(t *testing.T) {
	env := newTestEnv(t)
	user := seedAdmin(t, env)

	if err := env.UserStore.SetTOTPSecret(user.ID, testTOTPSecret); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}

	sess := testSession(user.ID, user.Email, string(user.Role), false)
	req := formRequest("/admin/2fa/verify", url.Values{"code": {"000000"}})
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.TwoFAVerifySubmit(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Invalid code") {
		t.Error("expected invalid code message")
	}
	if !strings.Contains(body, testTOTPSecret) {
		t.Error("expected the same secret to be shown again")
	}
}

// A valid code enables TOTP and completes the session.
func TestTwoFAVerifySubmit_ValidCodeCompletesLogin(t *testing.T) {
	env := newTestEnv(t)
	user := seedAdmin(t, env)

	if err := env.UserStore.SetTOTPSecret(user.ID, testTOTPSecret); err != nil {
		t.Fatalf("set totp secret: %v", err)
	}

	// Log in for real so the session exists in Valkey.
	loginRec := httptest.NewRecorder()
	sess := testSession(user.ID, user.Email, string(user.Role), false)
	if _, err := env.Sessions.Create(t.Context(), loginRec, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	code, err := totp.GenerateCode(testTOTPSecret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	req := formRequest("/admin/2fa/verify", url.Values{"code": {code}})
	for _, c := range loginRec.Result().Cookies() {
		req.AddCookie(c)
	}
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	env.Auth.TwoFAVerifySubmit(rec, req)

	if loc := rec.Header().Get("Location"); rec.Code != http.StatusSeeOther || loc != "/admin/dashboard" {
		t.Fatalf("got %d %q, want 303 /admin/dashboard", rec.Code, loc)
	}

	stored, err := env.UserStore.FindByID(user.ID)
	if err != nil || stored == nil {
		t.Fatalf("find user: %v", err)
	}
	if !stored.TOTPEnabled {
		t.Error("expected TOTP to be enabled after the first valid code")
	}

	got, err := env.Sessions.Get(t.Context(), req)
	if err != nil || got == nil {
		t.Fatalf("session get: %v", err)
	}
	if !got.TwoFADone {
		t.Error("expected session to be marked 2FA done")
	}
}

func TestLogout_RedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Auth.Logout(rec, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))

	if loc := rec.Header().Get("Location"); rec.Code != http.StatusSeeOther || loc != "/admin/login" {
		t.Errorf("got %d %q, want 303 /admin/login", rec.Code, loc)
	}
}
