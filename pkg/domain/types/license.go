package types

// LicenseStatus is the answer to "does this host run a license-requiring JDK?".
// It is deliberately three-valued: a host that has never submitted a scan is
// not the same as a host that was scanned and came back clean.
type LicenseStatus string

const (
	LicenseRequired    LicenseStatus = "true"
	LicenseNotRequired LicenseStatus = "false"
	LicenseUnknown     LicenseStatus = "unknown"
)

func (x LicenseStatus) String() string {
	return string(x)
}
