package version

// These variables are set via ldflags during build
var (
	// Version is the semantic version of smokeport
	Version = "dev"

	// Commit is the git commit hash
	Commit = "none"

	// Date is the build date
	Date = "unknown"

	// BuiltBy indicates what triggered the build (goreleaser, make, go build)
	BuiltBy = "unknown"
)

// GetVersion returns the bare version string
func GetVersion() string {
	return Version
}

// GetFullVersion returns version, commit, build date and builder in one line
func GetFullVersion() string {
	return Version + " (commit: " + Commit + ", built: " + Date + ", by: " + BuiltBy + ")"
}
