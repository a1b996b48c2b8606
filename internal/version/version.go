package version

// Version is the semantic version of the application, overridable at build
// time with -ldflags "-X ...internal/version.Version=".
var Version = "1.7.0"
