// Package buildinfo carries version data set with -ldflags -X.
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

func Info() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"builtAt": BuiltAt,
	}
}

// String renders the version line printed by -version.
func String() string {
	s := "feederplan " + Version
	if Commit != "" {
		s += fmt.Sprintf(" (%s)", Commit)
	}
	if BuiltAt != "" {
		s += " built " + BuiltAt
	}
	return s
}
