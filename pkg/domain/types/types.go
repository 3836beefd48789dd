package types

import (
	"log/slog"
	"strconv"

	"github.com/google/uuid"
)

type (
	ScanID    int64
	RequestID string

	GoogleProjectID string
	BQDatasetID     string
	BQTableID       string

	DatabaseDSN string
)

func (x ScanID) Int64() int64 {
	return int64(x)
}

func (x ScanID) String() string {
	return strconv.FormatInt(int64(x), 10)
}

// ParseScanID parses a decimal scan ID, e.g. from a query parameter.
func ParseScanID(s string) (ScanID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ScanID(n), nil
}

func NewRequestID() RequestID {
	return RequestID(uuid.NewString())
}

func (x RequestID) String() string {
	return string(x)
}

func (x GoogleProjectID) String() string { return string(x) }
func (x BQDatasetID) String() string     { return string(x) }
func (x BQTableID) String() string       { return string(x) }

// DatabaseDSN may embed credentials, never log the raw value.
func (x DatabaseDSN) LogValue() slog.Value {
	return slog.StringValue("***********")
}

func (x DatabaseDSN) String() string {
	return "***********"
}

// Unmask returns the raw DSN for connecting to the database.
func (x DatabaseDSN) Unmask() string {
	return string(x)
}
