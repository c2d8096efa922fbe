package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DDNStorage/qosd/internal/httpclient"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return &Client{
		http:   httpclient.Wrap(srv.Client()),
		server: srv.URL,
	}
}

func TestClient_Query_DataScope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"results": [
				{"series": [
					{"columns": ["time","ost_index","job_id","value"],
					 "values": [[1700000000, "0", "cp.1001", 1234.5]]}
				]}
			]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	rows, qerr := c.Query(context.Background(), DataQuery("testfs"), 1700000000)
	require.Nil(t, qerr)
	require.Len(t, rows.Rows, 1)
	assert.Equal(t, "cp.1001", rows.Rows[0].JobID)
	assert.Equal(t, "0", rows.Rows[0].OSTIndex)
	assert.Equal(t, 1234.5, rows.Rows[0].Value)
}

func TestClient_Query_MetadataScope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"results": [
				{"series": [
					{"columns": ["time","job_id","sum"],
					 "values": [[1700000000, "cp.1002", 42]]}
				]}
			]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	rows, qerr := c.Query(context.Background(), MetadataQuery("testfs"), 1700000000)
	require.Nil(t, qerr)
	require.Len(t, rows.Rows, 1)
	assert.Equal(t, "cp.1002", rows.Rows[0].JobID)
	assert.Equal(t, float64(42), rows.Rows[0].Value)
}

func TestClient_Query_NoSeriesIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	rows, qerr := c.Query(context.Background(), DataQuery("testfs"), 0)
	require.Nil(t, qerr)
	assert.Empty(t, rows.Rows)
}

func TestClient_Query_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, qerr := c.Query(context.Background(), DataQuery("testfs"), 0)
	require.NotNil(t, qerr)
	assert.Equal(t, ErrStatus, qerr.Kind)
}

func TestClient_Query_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, qerr := c.Query(context.Background(), DataQuery("testfs"), 0)
	require.NotNil(t, qerr)
	assert.Equal(t, ErrMalformedBody, qerr.Kind)
}

func TestClient_Query_MissingColumn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"results": [
				{"series": [
					{"columns": ["time","job_id"],
					 "values": [[1700000000, "cp.1001"]]}
				]}
			]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, qerr := c.Query(context.Background(), DataQuery("testfs"), 0)
	require.NotNil(t, qerr)
	assert.Equal(t, ErrMissingColumn, qerr.Kind)
}

func TestNew_DefaultsTimeout(t *testing.T) {
	c := New("http://localhost:8086", 59*time.Second)
	assert.Equal(t, "http://localhost:8086", c.server)
	assert.Equal(t, 59*time.Second, c.http.Timeout)
}

func TestDataQuery_RendersStart(t *testing.T) {
	q := DataQuery("scratch")
	rendered := renderStart(q, 120)
	assert.Contains(t, rendered, "fs_name = 'scratch'")
	assert.Contains(t, rendered, "time > 120s")
}
