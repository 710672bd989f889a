package handlers

import (
	"net/http"
	"testing"

	"github.com/Fernando88323/PortalDocente-sub001/core/user"
)

func TestPortalAPI_authRequired(t *testing.T) {
	ta := initApp(t)

	// no token
	req, rec := newRequest(http.MethodGet, "/v1/portal/cycle")
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %d, want 401", rec.Code)
	}

	// a valid token without any portal role
	roleless := createUser(t, ta.usrSvc, "intruso", nil)
	req, rec = newAuthRequest(http.MethodGet, "/v1/portal/cycle", getToken(t, roleless))
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("code = %d, want 403; body: %s", rec.Code, rec.Body.String())
	}
}

func TestPortalAPI_cycle(t *testing.T) {
	ta := initApp(t)
	token := getToken(t, createUser(t, ta.usrSvc, "profe", user.DocenteRoles))

	// nothing resolved yet
	req, rec := newAuthRequest(http.MethodGet, "/v1/portal/cycle", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
	}
	var res CycleResponse
	decodeBody(t, rec, &res)
	if res.Status != "idle" || res.Cycle != "" {
		t.Errorf("initial cycle = %+v", res)
	}

	// resolve against the upstream, long form normalized to the short token
	req, rec = newAuthRequest(http.MethodPost, "/v1/portal/cycle/resolve", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &res)
	if res.Status != "resolved" || res.Cycle != "01/25" || res.Fallback {
		t.Errorf("resolved cycle = %+v", res)
	}

	// manual override through the progressive mask
	req, rec = newAuthRequest(http.MethodPut, "/v1/portal/cycle", token,
		marshallObj(t, CycleOverrideRequest{Cycle: "0225"}))
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
	}
	decodeBody(t, rec, &res)
	if res.Cycle != "02/25" || !res.Fallback {
		t.Errorf("overridden cycle = %+v", res)
	}

	// garbage overrides are rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/portal/cycle", token,
		marshallObj(t, CycleOverrideRequest{Cycle: "99/25"}))
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}

	// incomplete input fails field validation before any parse
	req, rec = newAuthRequest(http.MethodPut, "/v1/portal/cycle", token,
		marshallObj(t, CycleOverrideRequest{Cycle: "012"}))
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
	var flds map[string]string
	decodeBody(t, rec, &flds)
	if flds["ciclo"] == "" {
		t.Errorf("validation fields = %v, want a ciclo message", flds)
	}

	// reset re-arms the resolver
	req, rec = newAuthRequest(http.MethodDelete, "/v1/portal/cycle", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
	}
	res = CycleResponse{} // omitempty fields are absent from the body; don't keep stale values
	decodeBody(t, rec, &res)
	if res.Status != "idle" || res.Cycle != "" {
		t.Errorf("cycle after reset = %+v", res)
	}
}

func TestPortalAPI_groups(t *testing.T) {
	ta := initApp(t)
	token := getToken(t, createUser(t, ta.usrSvc, "profe", user.DocenteRoles))

	// refresh resolves the cycle on demand and fills the catalog
	req, rec := newAuthRequest(http.MethodPost, "/v1/portal/groups/refresh", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
	}
	var cat CatalogResponse
	decodeBody(t, rec, &cat)
	if cat.Cycle != "01/25" || len(cat.Groups) != 2 {
		t.Errorf("catalog = %+v", cat)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/portal/groups", token)
	ta.app.ServeHTTP(rec, req)
	decodeBody(t, rec, &cat)
	if len(cat.Groups) != 2 {
		t.Errorf("catalog = %+v", cat)
	}

	// selecting a group resolves its permission and loads the roster
	req, rec = newAuthRequest(http.MethodPost, "/v1/portal/groups/7/select", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
	}
	var sel GroupSelectResponse
	decodeBody(t, rec, &sel)
	if sel.Group.ID != 7 || !sel.EditAllowed {
		t.Errorf("select = %+v", sel)
	}

	// a group outside the catalog is not selectable
	req, rec = newAuthRequest(http.MethodPost, "/v1/portal/groups/999/select", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404; body: %s", rec.Code, rec.Body.String())
	}
}

func TestPortalAPI_roster(t *testing.T) {
	ta := initApp(t)
	token := getToken(t, createUser(t, ta.usrSvc, "profe", user.DocenteRoles))

	// nothing loaded yet
	req, rec := newAuthRequest(http.MethodGet, "/v1/portal/roster", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404; body: %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/portal/groups/refresh", token)
	ta.app.ServeHTTP(rec, req)
	req, rec = newAuthRequest(http.MethodPost, "/v1/portal/groups/7/select", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("select code = %d; body: %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/portal/roster", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
	}
	var res RosterResponse
	decodeBody(t, rec, &res)
	if res.GroupID != 7 || len(res.Students) != 2 {
		t.Fatalf("roster = %+v", res)
	}
	if res.NMA == nil || *res.NMA != 6 {
		t.Errorf("NMA = %v, want 6", res.NMA)
	}

	// grades come back recomputed, never the upstream's derived values
	ana := res.Students[0]
	if ana.EnrollmentID != 11 || ana.NP != 4.5 || ana.NF != 6.9 {
		t.Errorf("record = %+v, want NP 4.5 NF 6.9", ana)
	}
}

func TestPortalAPI_students(t *testing.T) {
	ta := initApp(t)
	token := getToken(t, createUser(t, ta.usrSvc, "profe", user.DocenteRoles))

	req, rec := newAuthRequest(http.MethodPost, "/v1/portal/groups/refresh", token)
	ta.app.ServeHTTP(rec, req)

	req, rec = newAuthRequest(http.MethodGet, "/v1/portal/students", token)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; body: %s", rec.Code, rec.Body.String())
	}
	var res StudentsResponse
	decodeBody(t, rec, &res)
	// two catalog groups, the fake serves the same two students for each
	if len(res.Students) != 4 {
		t.Errorf("students = %d, want 4", len(res.Students))
	}
}

func TestPortalAPI_perViewerIsolation(t *testing.T) {
	ta := initApp(t)
	profe := getToken(t, createUser(t, ta.usrSvc, "profe", user.DocenteRoles))
	decano := getToken(t, createUser(t, ta.usrSvc, "decano", user.DecanoRoles))

	// the first viewer loads a roster
	req, rec := newAuthRequest(http.MethodPost, "/v1/portal/groups/refresh", profe)
	ta.app.ServeHTTP(rec, req)
	req, rec = newAuthRequest(http.MethodPost, "/v1/portal/groups/7/select", profe)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("select code = %d; body: %s", rec.Code, rec.Body.String())
	}

	// the second viewer's portal state is untouched
	req, rec = newAuthRequest(http.MethodGet, "/v1/portal/roster", decano)
	ta.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404 for the other viewer", rec.Code)
	}
}
