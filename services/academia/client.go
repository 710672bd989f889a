// Package academia wraps the JSON-over-HTTPS academic-records upstream. All
// endpoints are session-cookie authenticated; the client keeps a cookie jar
// and surfaces a 401 from any endpoint as ErrAuthExpired, which is terminal
// for the current portal view.
package academia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/http/cookiejar"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/cycle"
	"github.com/Fernando88323/PortalDocente-sub001/core/grades"
	"github.com/Fernando88323/PortalDocente-sub001/core/group"
	"github.com/Fernando88323/PortalDocente-sub001/core/permission"
	"github.com/Fernando88323/PortalDocente-sub001/core/report"
	"github.com/Fernando88323/PortalDocente-sub001/core/roster"
)

var (
	ErrAuthExpired = errors.New("academia: session expired")
	ErrBadPayload  = errors.New("academia: malformed payload")
)

type Client struct {
	http   *http.Client
	conf   core.AcademiaConfig
	logger core.Logger
}

// interface conformance with the core consumers
var (
	_ cycle.Source       = (*Client)(nil)
	_ group.Client       = (*Client)(nil)
	_ roster.Client      = (*Client)(nil)
	_ grades.Client      = (*Client)(nil)
	_ report.Client      = (*Client)(nil)
	_ permission.Fetcher = (*Client)(nil)
)

func NewClient(conf core.AcademiaConfig, logger core.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		http:   &http.Client{Timeout: conf.Timeout, Jar: jar},
		conf:   conf,
		logger: logger,
	}
}

// CurrentCycle is the primary source for the current academic cycle.
func (c *Client) CurrentCycle(ctx context.Context) (string, error) {
	var payload struct {
		OK          bool   `json:"ok"`
		CicloActual string `json:"cicloActual"`
	}
	if err := c.getJSON(ctx, c.conf.CycleURL, &payload); err != nil {
		return "", err
	}
	if !payload.OK || payload.CicloActual == "" {
		return "", errors.Wrap(ErrBadPayload, "cycle endpoint answered ok=false")
	}
	return payload.CicloActual, nil
}

// DocenteID resolves the viewer's docente reference id from the protected
// endpoint (first step of the group listing).
func (c *Client) DocenteID(ctx context.Context) (int, error) {
	var payload struct {
		IDReferencia int `json:"IDReferencia"`
	}
	if err := c.getJSON(ctx, c.conf.DocenteIDURL, &payload); err != nil {
		return 0, err
	}
	if payload.IDReferencia == 0 {
		return 0, errors.Wrap(ErrBadPayload, "protected id endpoint returned no IDReferencia")
	}
	return payload.IDReferencia, nil
}

// Groups lists the docente's groups for a cycle.
func (c *Client) Groups(ctx context.Context, docenteID int, cyc cycle.Cycle) ([]group.Group, error) {
	body := map[string]interface{}{"iddocente": docenteID, "ciclo": cyc.String()}
	raw, err := c.do(ctx, http.MethodPost, c.conf.GroupsURL, body)
	if err != nil {
		return nil, err
	}

	var groups []group.Group
	if err := unmarshalData(raw, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Roster fetches the grading roster of a group along with the NMA reference
// value, which the upstream may embed at the top level, inside the first
// record, or nested under data.NMA — checked in that priority order.
func (c *Client) Roster(ctx context.Context, groupID int) ([]roster.StudentRecord, null.Float64, error) {
	url := fmt.Sprintf("%s/%d/estudiantes", c.conf.RosterURL, groupID)
	raw, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, null.Float64{}, err
	}

	var recs []roster.StudentRecord
	if err := unmarshalData(raw, &recs); err != nil {
		return nil, null.Float64{}, err
	}
	return recs, extractNMA(raw), nil
}

// SaveGrades bulk-upserts a group's grade rows. The upstream reports per-row
// success; zero accepted rows means "no changes detected".
func (c *Client) SaveGrades(ctx context.Context, groupID int, recs []roster.StudentRecord) ([]grades.SaveResult, error) {
	url := fmt.Sprintf("%s/%d/notas", c.conf.RosterURL, groupID)
	raw, err := c.do(ctx, http.MethodPut, url, recs)
	if err != nil {
		return nil, err
	}

	var results []grades.SaveResult
	if err := unmarshalData(raw, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ApprovalRows fetches the per-student approval payload for a cycle
// (optionally narrowed to one group).
func (c *Client) ApprovalRows(ctx context.Context, f report.Filters) ([]report.ApprovalSource, error) {
	body := map[string]interface{}{"ciclo": f.Cycle.String()}
	if f.GroupID != 0 {
		body["idgrupo"] = f.GroupID
	}
	raw, err := c.do(ctx, http.MethodPost, c.conf.ReportURL, body)
	if err != nil {
		return nil, err
	}

	var rows []report.ApprovalSource
	if err := unmarshalData(raw, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SolvencyRows fetches the per-student payment-solvency payload for a cycle
// and cuota.
func (c *Client) SolvencyRows(ctx context.Context, f report.Filters) ([]report.SolvencySource, error) {
	body := map[string]interface{}{"ciclo": f.Cycle.String(), "cuota": f.Cuota}
	raw, err := c.do(ctx, http.MethodPost, c.conf.ReportURL, body)
	if err != nil {
		return nil, err
	}

	var rows []report.SolvencySource
	if err := unmarshalData(raw, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GroupPermission fetches the group-specific "grading enabled" override.
// A missing endpoint (404, connection refused) wraps permission.ErrUnavailable
// so the gate can apply its role-based fallback.
func (c *Client) GroupPermission(ctx context.Context, docenteID, groupID int) (bool, error) {
	url := fmt.Sprintf("%s/%d/permisos-grupo/%d", c.conf.ConfigURL, docenteID, groupID)

	var payload struct {
		Habilitada bool `json:"habilitada"`
	}
	if err := c.getJSON(ctx, url, &payload); err != nil {
		var statusErr *statusError
		var netErr net.Error
		if errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound {
			return false, errors.Wrap(permission.ErrUnavailable, err.Error())
		}
		if errors.As(err, &netErr) || errors.Is(err, io.EOF) {
			return false, errors.Wrap(permission.ErrUnavailable, err.Error())
		}
		return false, err
	}
	return payload.Habilitada, nil
}

// plumbing

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("academia: %s answered %d", e.url, e.code)
}

func (c *Client) do(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "calling %s", url)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuthExpired
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &statusError{code: res.StatusCode, url: url}
	}

	data, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	data, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(ErrBadPayload, "decoding %s: %v", url, err)
	}
	return nil
}

// unmarshalData decodes either a {"data": [...]} wrapper or a bare payload
// into out; the upstream is inconsistent about which it returns.
func unmarshalData(raw []byte, out interface{}) error {
	if len(raw) == 0 {
		return errors.Wrap(ErrBadPayload, "empty response body")
	}
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Data) > 0 {
		raw = wrapper.Data
	}
	// data may itself be an object holding the rows under "estudiantes"
	var nested struct {
		Estudiantes json.RawMessage `json:"estudiantes"`
	}
	if raw[0] == '{' {
		if err := json.Unmarshal(raw, &nested); err == nil && len(nested.Estudiantes) > 0 {
			raw = nested.Estudiantes
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(ErrBadPayload, "decoding rows: %v", err)
	}
	return nil
}

// extractNMA pulls the NMA reference value out of a roster payload, checking
// the top level, then the first record, then data.NMA. Absence everywhere
// yields an invalid value, distinct from an NMA of 0.
func extractNMA(raw []byte) null.Float64 {
	type nmaField struct {
		NMA null.Float64 `json:"NMA"`
	}

	// 1. top level
	var top nmaField
	if err := json.Unmarshal(raw, &top); err == nil && top.NMA.Valid {
		return top.NMA
	}

	// locate the rows: bare array or under "data"
	rows := raw
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Data) > 0 {
		rows = wrapper.Data
	}

	// 2. first record
	var recs []nmaField
	if err := json.Unmarshal(rows, &recs); err == nil && len(recs) > 0 && recs[0].NMA.Valid {
		return recs[0].NMA
	}

	// 3. nested under data.NMA
	var data nmaField
	if err := json.Unmarshal(rows, &data); err == nil && data.NMA.Valid {
		return data.NMA
	}

	return null.Float64{}
}
