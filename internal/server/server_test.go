package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/vtk-it/declaro/internal/auth/session"
	"github.com/vtk-it/declaro/internal/auth/token"
	billdomain "github.com/vtk-it/declaro/internal/bill/domain"
	"github.com/vtk-it/declaro/internal/cache"
	"github.com/vtk-it/declaro/internal/config"
	profiledomain "github.com/vtk-it/declaro/internal/profile/domain"
	"go.uber.org/zap"
)

type fakeProfileService struct {
	profiles map[snowflake.ID]profiledomain.Profile
	password string
}

func (f *fakeProfileService) Signup(ctx context.Context, req profiledomain.SignupRequest) (profiledomain.Profile, error) {
	return profiledomain.Profile{}, profiledomain.ErrEmailTaken
}

func (f *fakeProfileService) Authenticate(ctx context.Context, email, password string) (profiledomain.Profile, error) {
	if password != f.password {
		return profiledomain.Profile{}, profiledomain.ErrBadCredentials
	}
	for _, p := range f.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return profiledomain.Profile{}, profiledomain.ErrBadCredentials
}

func (f *fakeProfileService) GetByID(ctx context.Context, id snowflake.ID) (profiledomain.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return profiledomain.Profile{}, profiledomain.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfileService) List(ctx context.Context) ([]profiledomain.Profile, error) {
	out := make([]profiledomain.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProfileService) Update(ctx context.Context, req profiledomain.UpdateProfileRequest) (profiledomain.Profile, error) {
	return profiledomain.Profile{}, nil
}

func (f *fakeProfileService) SetPrivileges(ctx context.Context, req profiledomain.SetPrivilegesRequest) (profiledomain.Profile, error) {
	return profiledomain.Profile{}, nil
}

type fakeBillService struct {
	bills   []billdomain.Bill
	lastErr error
}

func (f *fakeBillService) Create(ctx context.Context, req billdomain.CreateBillRequest) (billdomain.Bill, error) {
	return billdomain.Bill{}, f.lastErr
}

func (f *fakeBillService) Update(ctx context.Context, req billdomain.UpdateBillRequest) (billdomain.Bill, error) {
	if f.lastErr != nil {
		return billdomain.Bill{}, f.lastErr
	}
	return f.bills[0], nil
}

func (f *fakeBillService) ReplaceReceipt(ctx context.Context, req billdomain.ReplaceReceiptRequest) (billdomain.Bill, error) {
	return billdomain.Bill{}, f.lastErr
}

func (f *fakeBillService) GetByID(ctx context.Context, actor billdomain.Actor, id string) (billdomain.Bill, error) {
	if f.lastErr != nil {
		return billdomain.Bill{}, f.lastErr
	}
	for _, b := range f.bills {
		if b.ID.String() == id {
			return b, nil
		}
	}
	return billdomain.Bill{}, billdomain.ErrNotFound
}

func (f *fakeBillService) ListOwn(ctx context.Context, actor billdomain.Actor) (billdomain.ListBillsResponse, error) {
	return billdomain.ListBillsResponse{Bills: f.bills}, f.lastErr
}

func (f *fakeBillService) ListScoped(ctx context.Context, actor billdomain.Actor) (billdomain.ListBillsResponse, error) {
	if !actor.Admin && len(actor.AllowedPosts) == 0 {
		return billdomain.ListBillsResponse{}, billdomain.ErrForbidden
	}
	return billdomain.ListBillsResponse{Bills: f.bills}, nil
}

func (f *fakeBillService) SetPaid(ctx context.Context, actor billdomain.Actor, id string, paid bool) (billdomain.Bill, error) {
	return billdomain.Bill{}, f.lastErr
}

func (f *fakeBillService) SetBooked(ctx context.Context, actor billdomain.Actor, id string, booked bool) (billdomain.Bill, error) {
	return billdomain.Bill{}, f.lastErr
}

func (f *fakeBillService) Delete(ctx context.Context, actor billdomain.Actor, id string) error {
	return f.lastErr
}

func testConfig() config.Config {
	return config.Config{
		AuthJWTSecret: "test-secret",
		SessionTTL:    time.Hour,
	}
}

func newTestServer(t *testing.T, billSvc billdomain.Service, profileSvc profiledomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	issuer, err := token.NewIssuer(cfg)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine:     r,
		cfg:        cfg,
		log:        zap.NewNop(),
		sessions:   session.NewManager(cfg),
		tokens:     issuer,
		billSvc:    billSvc,
		profileSvc: profileSvc,
		reports:    cache.NewReportCache(),
	}
	srv.registerAuthRoutes()
	srv.registerAPIRoutes()
	return srv
}

func sessionCookie(t *testing.T, srv *Server, profileID snowflake.ID) *http.Cookie {
	t.Helper()
	raw, _, err := srv.tokens.Issue(profileID.String(), time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return &http.Cookie{Name: session.DefaultCookieName, Value: raw}
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	srv.engine.ServeHTTP(resp, req)
	return resp
}

func testProfiles() *fakeProfileService {
	return &fakeProfileService{
		password: "hunter2-hunter2",
		profiles: map[snowflake.ID]profiledomain.Profile{
			101: {ID: 101, Email: "an@vtk.be", Name: "An Peeters"},
			999: {ID: 999, Email: "penning@vtk.be", Name: "Penningmeester", Admin: true},
		},
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	srv := newTestServer(t, &fakeBillService{}, testProfiles())

	body := bytes.NewBufferString(`{"email":"an@vtk.be","password":"hunter2-hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	resp := do(srv, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range resp.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected a session cookie on successful login")
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}

	// the cookie must round-trip through the auth middleware
	me := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	me.AddCookie(cookie)
	meResp := do(srv, me)
	if meResp.Code != http.StatusOK {
		t.Fatalf("expected 200 from /auth/me, got %d", meResp.Code)
	}
	var profile profiledomain.Profile
	if err := json.Unmarshal(meResp.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Email != "an@vtk.be" {
		t.Fatalf("unexpected profile %q", profile.Email)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t, &fakeBillService{}, testProfiles())

	body := bytes.NewBufferString(`{"email":"an@vtk.be","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	resp := do(srv, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	for _, c := range resp.Result().Cookies() {
		if c.Name == session.DefaultCookieName && c.Value != "" {
			t.Fatal("no session cookie may be set on a failed login")
		}
	}
}

func TestAPIRequiresSession(t *testing.T) {
	srv := newTestServer(t, &fakeBillService{}, testProfiles())

	resp := do(srv, httptest.NewRequest(http.MethodGet, "/api/bills", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a cookie, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/bills", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "not-a-jwt"})
	resp = do(srv, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a garbage token, got %d", resp.Code)
	}
}

func TestStaleSessionForDeletedProfile(t *testing.T) {
	profiles := testProfiles()
	srv := newTestServer(t, &fakeBillService{}, profiles)
	cookie := sessionCookie(t, srv, 101)
	delete(profiles.profiles, 101)

	req := httptest.NewRequest(http.MethodGet, "/api/bills", nil)
	req.AddCookie(cookie)
	resp := do(srv, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a deleted profile, got %d", resp.Code)
	}
}

func TestListBillsAppliesFilters(t *testing.T) {
	paid := billdomain.Bill{ID: 1, Name: "An", Post: "Fakbar", Amount: 1050, Paid: true, UID: "101"}
	open := billdomain.Bill{ID: 2, Name: "An", Post: "Theokot", Amount: 2000, UID: "101"}
	srv := newTestServer(t, &fakeBillService{bills: []billdomain.Bill{paid, open}}, testProfiles())
	cookie := sessionCookie(t, srv, 101)

	req := httptest.NewRequest(http.MethodGet, "/api/bills?unpaid=true", nil)
	req.AddCookie(cookie)
	resp := do(srv, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var page struct {
		Bills     []billdomain.Bill `json:"bills"`
		Number    int               `json:"page"`
		PageCount int               `json:"page_count"`
		Total     int               `json:"total"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 || len(page.Bills) != 1 || page.Bills[0].ID != 2 {
		t.Fatalf("expected only the unpaid bill, got %+v", page)
	}
	if page.Number != 1 || page.PageCount != 1 {
		t.Fatalf("unexpected pagination %+v", page)
	}
}

func TestListBillsAbsorbsMalformedFilters(t *testing.T) {
	bills := []billdomain.Bill{
		{ID: 1, Name: "An", Post: "Fakbar", Amount: 1050, UID: "101"},
		{ID: 2, Name: "An", Post: "Theokot", Amount: 2000, UID: "101"},
	}
	srv := newTestServer(t, &fakeBillService{bills: bills}, testProfiles())
	cookie := sessionCookie(t, srv, 101)

	req := httptest.NewRequest(http.MethodGet, "/api/bills?amount_min=abc&date_from=31/31/2024&page=zzz", nil)
	req.AddCookie(cookie)
	resp := do(srv, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("malformed filter input must not fail the request, got %d", resp.Code)
	}

	var page struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("malformed bounds must be ignored, got total %d", page.Total)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"not found", billdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"paid lock", billdomain.ErrBillPaid, http.StatusConflict, "conflict"},
		{"forbidden", billdomain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"bad amount", billdomain.ErrInvalidAmount, http.StatusBadRequest, "validation_error"},
		{"bad receipt type", billdomain.ErrUnsupportedReceiptType, http.StatusBadRequest, "unsupported_asset_type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeBillService{lastErr: tc.err}, testProfiles())
			cookie := sessionCookie(t, srv, 101)

			req := httptest.NewRequest(http.MethodPut, "/api/bills/42",
				bytes.NewBufferString(`{"name":"An","post":"Fakbar","amount":"10.50","payment_method":"vtk"}`))
			req.Header.Set("Content-Type", "application/json")
			req.AddCookie(cookie)
			resp := do(srv, req)

			if resp.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, resp.Code, resp.Body.String())
			}
			var body struct {
				Error struct {
					Type string `json:"type"`
				} `json:"error"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Error.Type != tc.wantType {
				t.Fatalf("expected error type %q, got %q", tc.wantType, body.Error.Type)
			}
		})
	}
}

func TestAdminOnlyRoutes(t *testing.T) {
	srv := newTestServer(t, &fakeBillService{}, testProfiles())

	member := sessionCookie(t, srv, 101)
	admin := sessionCookie(t, srv, 999)

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.AddCookie(member)
	if resp := do(srv, req); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a plain member, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.AddCookie(admin)
	if resp := do(srv, req); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for an admin, got %d", resp.Code)
	}
}

func TestListAllBillsScopedByPrivilege(t *testing.T) {
	bills := []billdomain.Bill{{ID: 1, Name: "An", Post: "Fakbar", Amount: 1050, UID: "101"}}
	srv := newTestServer(t, &fakeBillService{bills: bills}, testProfiles())

	req := httptest.NewRequest(http.MethodGet, "/api/bills/all", nil)
	req.AddCookie(sessionCookie(t, srv, 101))
	if resp := do(srv, req); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for an unprivileged member, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/bills/all", nil)
	req.AddCookie(sessionCookie(t, srv, 999))
	if resp := do(srv, req); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for an admin, got %d", resp.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	srv := newTestServer(t, &fakeBillService{}, testProfiles())

	resp := do(srv, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	for _, c := range resp.Result().Cookies() {
		if c.Name == session.DefaultCookieName && c.MaxAge >= 0 {
			t.Fatal("logout must expire the session cookie")
		}
	}
}
