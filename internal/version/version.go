package version

var (
	// Version is the semantic version of the binary. Overridden at build time.
	Version = "dev"
	// Commit is the git commit hash. Overridden at build time.
	Commit = "unknown"
	// BuildDate is the build timestamp. Overridden at build time.
	BuildDate = "unknown"
)

// Name is the binary name reported in the HTTP User-Agent.
const Name = "rba-aud-rates"

// UserAgent identifies this build to the feed host.
func UserAgent() string {
	return Name + "/" + Version
}
