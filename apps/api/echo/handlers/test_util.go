package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/volatiletech/null/v8"

	"github.com/Fernando88323/PortalDocente-sub001/apps/api/echo/helpers"
	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/cycle"
	"github.com/Fernando88323/PortalDocente-sub001/core/grades"
	"github.com/Fernando88323/PortalDocente-sub001/core/group"
	"github.com/Fernando88323/PortalDocente-sub001/core/report"
	"github.com/Fernando88323/PortalDocente-sub001/core/roster"
	"github.com/Fernando88323/PortalDocente-sub001/core/user"
	emailsvc "github.com/Fernando88323/PortalDocente-sub001/services/email"
	inmemdb "github.com/Fernando88323/PortalDocente-sub001/storage/database/inmem"
)

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

func testConf() *core.Config {
	return &core.Config{
		TestMode:         true,
		Env:              "TEST",
		AppName:          "PortalDocente",
		SecretKey:        []byte("secret"),
		DefaultFromEmail: mail.Address{Name: "PortalDocente", Address: "noreply@localhost"},
		NotesEnabled:     true,
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Academia: core.AcademiaConfig{Timeout: time.Second},
	}
}

// fakeUpstream plays the academic-records service in handler tests.
type fakeUpstream struct {
	cycle      string
	cycleErr   error
	docenteID  int
	groups     []group.Group
	groupsErr  error
	rosterRecs []roster.StudentRecord
	nma        null.Float64
	rosterErr  error
	saveRes    []grades.SaveResult
	saveErr    error
	habilitada bool
	permErr    error
	approval   []report.ApprovalSource
	solvency   []report.SolvencySource
	reportErr  error
}

var _ Upstream = (*fakeUpstream)(nil)

func (f *fakeUpstream) CurrentCycle(ctx context.Context) (string, error) {
	return f.cycle, f.cycleErr
}

func (f *fakeUpstream) DocenteID(ctx context.Context) (int, error) {
	return f.docenteID, nil
}

func (f *fakeUpstream) Groups(ctx context.Context, docenteID int, cyc cycle.Cycle) ([]group.Group, error) {
	return f.groups, f.groupsErr
}

func (f *fakeUpstream) Roster(ctx context.Context, groupID int) ([]roster.StudentRecord, null.Float64, error) {
	return f.rosterRecs, f.nma, f.rosterErr
}

func (f *fakeUpstream) SaveGrades(ctx context.Context, groupID int, recs []roster.StudentRecord) ([]grades.SaveResult, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if f.saveRes != nil {
		return f.saveRes, nil
	}
	results := make([]grades.SaveResult, len(recs))
	for i, rec := range recs {
		results[i] = grades.SaveResult{EnrollmentID: rec.EnrollmentID, Success: true}
	}
	return results, nil
}

func (f *fakeUpstream) ApprovalRows(ctx context.Context, fl report.Filters) ([]report.ApprovalSource, error) {
	return f.approval, f.reportErr
}

func (f *fakeUpstream) SolvencyRows(ctx context.Context, fl report.Filters) ([]report.SolvencySource, error) {
	return f.solvency, f.reportErr
}

func (f *fakeUpstream) GroupPermission(ctx context.Context, docenteID, groupID int) (bool, error) {
	return f.habilitada, f.permErr
}

type testApp struct {
	app      *echo.Echo
	conf     *core.Config
	usrSvc   *user.Service
	upstream *fakeUpstream
}

func initApp(t *testing.T) *testApp {
	t.Helper()
	core.InitValidators()

	conf := testConf()
	usrSvc := user.NewService(inmemdb.NewUserRepository())
	upstream := &fakeUpstream{
		cycle:     "01/2025",
		docenteID: 42,
		groups: []group.Group{
			{ID: 7, Subject: "Redes I", Classroom: "A-1", Shift: "matutina", Cycle: "01/25"},
			{ID: 8, Subject: "Redes II", Classroom: "B-2", Shift: "vespertina", Cycle: "01/25"},
		},
		rosterRecs: []roster.StudentRecord{
			{EnrollmentID: 11, FirstName: "Ana", LastName: "Diaz", Code: "AD100", P1: 7.5, P2: 7.5, P3: 6},
			{EnrollmentID: 22, FirstName: "Berta", LastName: "Luna", Code: "BL200", P1: 5, P2: 5, P3: 4},
		},
		nma:        null.Float64From(6),
		habilitada: true,
	}

	app := echo.New()
	app.Pre(middleware.RemoveTrailingSlash())
	app.HTTPErrorHandler = helpers.NewAppHTTPErrorHandler(testLogger{}, func() {})

	v1 := app.Group("/v1")
	jwt := helpers.ConfigureAuth(conf.AppName, conf.SecretKey, conf.Server.JWTExpirationDelta, conf.Server.JWTRefreshExpirationDelta)

	RegisterAuthAPI(v1, jwt, usrSvc)
	RegisterUserAPI(v1, jwt, usrSvc)
	RegisterPortalAPI(v1, jwt, PortalDeps{
		Conf:     conf,
		Logger:   testLogger{},
		UserSvc:  usrSvc,
		PondRepo: inmemdb.NewPonderationRepository(),
		MailSvc:  emailsvc.NewConsoleServiceMock(conf),
		NewUpstream: func(core.AcademiaConfig, core.Logger) Upstream {
			return upstream
		},
	})

	return &testApp{app: app, conf: conf, usrSvc: usrSvc, upstream: upstream}
}

func createUser(t *testing.T, svc *user.Service, uname string, roles []string) user.User {
	t.Helper()
	usr, err := svc.Create(user.NewUser{
		Name:            uname,
		Username:        uname,
		Email:           uname + "@test.test",
		RefID:           42,
		Password:        "Str0ngPwd!",
		PasswordConfirm: "Str0ngPwd!",
		Roles:           roles,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := helpers.GetUserClaims(usr)
	token, err := helpers.GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decodeBody() failed: %v; body: %s", err, rec.Body.String())
	}
}
