// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// Build information, overridden with -ldflags -X at release time.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent identifies this build in requests to the producer.
func UserAgent() string {
	return "rlmtrace/" + Version + " (" + Sha + ")"
}
