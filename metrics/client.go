package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DDNStorage/qosd/internal/httpclient"
)

// Client issues read-only queries against the time-series metrics store.
// It is stateless beyond its connection pool and is safe for concurrent
// use by multiple filesystem controllers sharing one Client (spec §5).
type Client struct {
	http   *httpclient.Client
	server string
}

// New builds a Client against the given metrics server URL. timeout
// should default to the window length minus one second (spec §4.1) so a
// hung query cannot starve a roll-over; callers pass it explicitly
// because the Client has no notion of window length.
func New(server string, timeout time.Duration) *Client {
	return &Client{
		http:   httpclient.New(timeout),
		server: server,
	}
}

// queryResponse mirrors the time-series store's wire format. The absence
// of the "series" key inside a result means no data for that query, not
// an error (spec §6).
type queryResponse struct {
	Results []struct {
		Series []struct {
			Columns []string        `json:"columns"`
			Values  [][]interface{} `json:"values"`
		} `json:"series"`
		Error string `json:"error"`
	} `json:"results"`
}

// Query runs q against the metrics store with the window start
// substituted for the `<START>` placeholder, returning either the parsed
// Rows or a classified QueryError. It performs no retries; the caller
// decides whether and when to retry (spec §4.1).
func (c *Client) Query(ctx context.Context, q string, startSeconds int64) (Rows, *QueryError) {
	rendered := renderStart(q, startSeconds)

	u, err := url.Parse(c.server)
	if err != nil {
		return Rows{}, &QueryError{Kind: ErrNetwork, Query: rendered, Wrapped: err}
	}
	u.Path = "/query"
	values := u.Query()
	values.Set("q", rendered)
	u.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Rows{}, &QueryError{Kind: ErrNetwork, Query: rendered, Wrapped: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Rows{}, &QueryError{Kind: ErrNetwork, Query: rendered, Wrapped: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Rows{}, &QueryError{Kind: ErrStatus, Query: rendered, Wrapped: statusError(resp.StatusCode)}
	}

	var parsed queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Rows{}, &QueryError{Kind: ErrMalformedBody, Query: rendered, Wrapped: err}
	}

	return decodeRows(parsed)
}

func decodeRows(parsed queryResponse) (Rows, *QueryError) {
	var out Rows

	for _, result := range parsed.Results {
		for _, series := range result.Series {
			idx := columnIndex(series.Columns)
			if idx.time < 0 || idx.jobID < 0 || idx.value < 0 {
				return Rows{}, &QueryError{Kind: ErrMissingColumn, Wrapped: errMissingColumn}
			}

			for _, row := range series.Values {
				r, err := decodeRow(row, idx)
				if err != nil {
					return Rows{}, &QueryError{Kind: ErrMalformedBody, Wrapped: err}
				}
				out.Rows = append(out.Rows, r)
			}
		}
	}

	return out, nil
}

type columnIndexes struct {
	time     int
	ostIndex int
	jobID    int
	value    int
}

// columnIndex locates the positionally-significant columns spec §6 names:
// data-scope rows carry (time, ost_index, job_id, value), metadata-scope
// rows carry (time, job_id, value).
func columnIndex(columns []string) columnIndexes {
	idx := columnIndexes{time: -1, ostIndex: -1, jobID: -1, value: -1}
	for i, col := range columns {
		switch col {
		case "time":
			idx.time = i
		case "ost_index":
			idx.ostIndex = i
		case "job_id":
			idx.jobID = i
		case "value", "sum":
			idx.value = i
		}
	}
	return idx
}

func decodeRow(raw []interface{}, idx columnIndexes) (Row, error) {
	var r Row

	t, err := decodeTime(raw[idx.time])
	if err != nil {
		return Row{}, err
	}
	r.Time = t

	if idx.ostIndex >= 0 {
		r.OSTIndex = decodeString(raw[idx.ostIndex])
	}

	r.JobID = decodeString(raw[idx.jobID])

	v, err := decodeFloat(raw[idx.value])
	if err != nil {
		return Row{}, err
	}
	r.Value = v

	return r, nil
}

func decodeTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case float64:
		return time.Unix(int64(t), 0).UTC(), nil
	case string:
		secs, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			if parsed, perr := time.Parse(time.RFC3339, t); perr == nil {
				return parsed.UTC(), nil
			}
			return time.Time{}, errBadTime
		}
		return time.Unix(secs, 0).UTC(), nil
	default:
		return time.Time{}, errBadTime
	}
}

func decodeString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func decodeFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, errBadValue
		}
		return f, nil
	default:
		return 0, errBadValue
	}
}
