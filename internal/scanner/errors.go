package scanner

import "fmt"

// ScanRequestError is returned when the scanning service answers with a
// non-success status.
type ScanRequestError struct {
	StatusCode int
	Detail     string
}

func (e *ScanRequestError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("scan request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("scan request failed with status %d: %s", e.StatusCode, e.Detail)
}

// ScanTransportError is returned when the scan request could not complete.
type ScanTransportError struct {
	Op  string
	Err error
}

func (e *ScanTransportError) Error() string {
	return fmt.Sprintf("scan transport failure (%s): %v", e.Op, e.Err)
}

func (e *ScanTransportError) Unwrap() error {
	return e.Err
}
