package meta

import "sync"

// The service identity is set once at startup and read by logging,
// tracing and alerting; a global avoids threading two strings through
// every constructor.
//
//nolint:gochecknoglobals // write-once service identity
var (
	svcOnce    sync.Once
	svcName    string
	svcVersion string
)

// SetServiceInfo records the service name and version. The first call
// wins; later calls are ignored.
func SetServiceInfo(name, version string) {
	svcOnce.Do(func() {
		svcName = name
		svcVersion = version
	})
}

// GetServiceName returns the name set by SetServiceInfo, or "" before it ran.
func GetServiceName() string {
	return svcName
}

// GetServiceVersion returns the version set by SetServiceInfo, or "" before it ran.
func GetServiceVersion() string {
	return svcVersion
}
