package version

// Set at build time with -ldflags "-X github.com/app-sre/awquery/pkg/version.version=...".
var version = "dev"

func Version() string {
	return version
}
