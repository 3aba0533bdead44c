package plagiarism

import (
	"errors"

	"github.com/RishiKendai/aegis-console/internal/scanner"
)

// ErrScanInProgress is returned when a scan is triggered while another one
// for the same session has not resolved yet.
var ErrScanInProgress = errors.New("plagiarism scan already in progress")

const fallbackFailureMessage = "Failed to check plagiarism. Please try again."

// FailureMessage picks the message shown to the viewer for a failed scan:
// the service's detail when it sent one, a generic text otherwise.
func FailureMessage(err error) string {
	var reqErr *scanner.ScanRequestError
	if errors.As(err, &reqErr) && reqErr.Detail != "" {
		return reqErr.Detail
	}
	return fallbackFailureMessage
}
