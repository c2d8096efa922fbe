package metrics

import "github.com/DDNStorage/qosd/errors"

var (
	errMissingColumn = errors.New("metrics: response missing an expected column")
	errBadTime       = errors.New("metrics: row has an unparsable time value")
	errBadValue      = errors.New("metrics: row has a non-numeric value")
)

func statusError(code int) error {
	return errors.Newf("metrics: non-success status %d", code)
}
