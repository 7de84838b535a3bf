package types

// Version is the project version reported by the CLI, build manifests and
// notifications.
const Version = "0.3.0"

// ContractVersion stamps published records and events. Readers compare it
// before trusting field names; it moves in lockstep with Version.
const ContractVersion = Version

// UserAgent identifies ffpkg to HTTP endpoints, e.g. "ffpkg/0.3.0".
func UserAgent() string {
	return "ffpkg/" + Version
}
