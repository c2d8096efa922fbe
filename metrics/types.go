// Package metrics talks to the filesystem's external time-series store
// read-only: one query type for data-scope (OST) job stats and one for
// metadata-scope (MDT) job stats, each returning a tabular Rows result
// consumed positionally by the usage aggregator.
package metrics

import "time"

// Scope distinguishes the data (bulk I/O) path from the metadata
// (namespace operation) path.
type Scope int

const (
	ScopeData Scope = iota
	ScopeMetadata
)

func (s Scope) String() string {
	switch s {
	case ScopeData:
		return "data"
	case ScopeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// Row is one positionally-decoded result row. Data-scope rows carry
// (time, ost_index, job_id, value); metadata-scope rows carry
// (time, job_id, value). OSTIndex is the zero value for metadata rows.
type Row struct {
	Time     time.Time
	OSTIndex string
	JobID    string
	Value    float64
}

// Rows is the parsed result of one query. An empty Rows (no series in the
// response) means "no data" and is not itself an error.
type Rows struct {
	Rows []Row
}

// ErrorKind classifies why a query failed, so the worker loop can decide
// whether the failure is this cycle's problem only (spec §7 TransientMetrics).
type ErrorKind int

const (
	ErrNetwork ErrorKind = iota
	ErrStatus
	ErrMalformedBody
	ErrMissingColumn
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNetwork:
		return "network"
	case ErrStatus:
		return "status"
	case ErrMalformedBody:
		return "malformed_body"
	case ErrMissingColumn:
		return "missing_column"
	default:
		return "unknown"
	}
}

// QueryError wraps a classified metrics-query failure. All instances are
// TransientMetrics per spec §7: the caller skips this scope for the
// current cycle and retries next tick.
type QueryError struct {
	Kind    ErrorKind
	Query   string
	Wrapped error
}

func (e *QueryError) Error() string {
	if e.Wrapped != nil {
		return e.Kind.String() + ": " + e.Wrapped.Error()
	}
	return e.Kind.String()
}

func (e *QueryError) Unwrap() error {
	return e.Wrapped
}
