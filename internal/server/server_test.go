package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/promptdb/promptdb/pkg/agent"
	"github.com/promptdb/promptdb/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	plan map[string]any
	err  error
}

func (s *stubGenerator) GeneratePlan(context.Context, llm.Request) (map[string]any, error) {
	return s.plan, s.err
}

func newTestServer(t *testing.T, gen llm.Generator) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	srv := New(Config{
		Agent:     agent.NewWithDB(db, nil),
		Generator: gen,
		Model:     "test-model",
	})
	return srv, mock
}

func expectIntrospection(mock sqlmock.Sqlmock, table string) {
	mock.ExpectQuery("SELECT table_name, column_name, data_type").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}).
			AddRow(table, "id", "integer"))
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doRequest(t, srv.Routes(), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestSchemaEndpoint(t *testing.T) {
	srv, mock := newTestServer(t, nil)
	expectIntrospection(mock, "users")

	rec := doRequest(t, srv.Routes(), http.MethodGet, "/v1/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var schema agent.Schema
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	assert.Contains(t, schema, "users")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaEndpointDatabaseFailure(t *testing.T) {
	srv, mock := newTestServer(t, nil)
	mock.ExpectQuery("SELECT table_name, column_name, data_type").
		WillReturnError(assert.AnError)

	rec := doRequest(t, srv.Routes(), http.MethodGet, "/v1/schema", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPlanEndpoint(t *testing.T) {
	gen := &stubGenerator{plan: map[string]any{"operation": "select", "table": "users"}}
	srv, mock := newTestServer(t, gen)
	expectIntrospection(mock, "users")

	rec := doRequest(t, srv.Routes(), http.MethodPost, "/v1/plan", `{"prompt": "list users"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"operation": "select", "table": "users"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanEndpointRequiresPrompt(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doRequest(t, srv.Routes(), http.MethodPost, "/v1/plan", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "prompt is required")
}

func TestQueryEndpointWithPrompt(t *testing.T) {
	gen := &stubGenerator{plan: map[string]any{"operation": "select", "table": "users"}}
	srv, mock := newTestServer(t, gen)

	expectIntrospection(mock, "users")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE TRUE`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	rec := doRequest(t, srv.Routes(), http.MethodPost, "/v1/query", `{"prompt": "list users"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rows      []map[string]any `json:"rows"`
		RawQuery  string           `json:"rawQuery"`
		QueryType string           `json:"queryType"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, `SELECT * FROM "users" WHERE TRUE`, resp.RawQuery)
	assert.Equal(t, agent.QueryTypeSQL, resp.QueryType)
	require.Len(t, resp.Rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryEndpointWithInlinePlan(t *testing.T) {
	// No generator needed: the pre-built plan bypasses generation, but an
	// introspection still runs for table resolution.
	srv, mock := newTestServer(t, nil)

	expectIntrospection(mock, "Orders")
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM "Orders" WHERE id = 1 RETURNING *`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	body := `{"plan": {"operation": "delete", "table": "orders", "where": "id = 1"}}`
	rec := doRequest(t, srv.Routes(), http.MethodPost, "/v1/query", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `DELETE FROM \"Orders\" WHERE id = 1 RETURNING *`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryEndpointIncompletePlan(t *testing.T) {
	srv, mock := newTestServer(t, nil)
	expectIntrospection(mock, "users")

	body := `{"plan": {"operation": "select"}}`
	rec := doRequest(t, srv.Routes(), http.MethodPost, "/v1/query", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing operation or table")
}

func TestQueryEndpointUnsupportedOperation(t *testing.T) {
	srv, mock := newTestServer(t, nil)
	expectIntrospection(mock, "users")

	body := `{"plan": {"operation": "truncate", "table": "users"}}`
	rec := doRequest(t, srv.Routes(), http.MethodPost, "/v1/query", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported operation")
}

func TestQueryEndpointRequiresPromptOrPlan(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doRequest(t, srv.Routes(), http.MethodPost, "/v1/query", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "prompt or plan is required")
}

func TestQueryEndpointMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doRequest(t, srv.Routes(), http.MethodPost, "/v1/query", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestQueryEndpointDatabaseFailure(t *testing.T) {
	srv, mock := newTestServer(t, nil)

	expectIntrospection(mock, "users")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE TRUE`)).
		WillReturnError(sql.ErrConnDone)

	body := `{"plan": {"operation": "select", "table": "users"}}`
	rec := doRequest(t, srv.Routes(), http.MethodPost, "/v1/query", body)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
