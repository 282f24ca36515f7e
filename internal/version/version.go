package version

import "fmt"

// Version is the service version. It follows semantic versioning.
var Version = "0.3.0"

// DevVersion is the service version of development build.
var DevVersion = "0.3.0"

func GetCurrentVersion(mode string) string {
	if mode == "dev" {
		return DevVersion
	}
	return Version
}

func GetVersionString(mode string) string {
	return fmt.Sprintf("v%s", GetCurrentVersion(mode))
}
