// Package build carries version information stamped in at link time:
//
//	go build -ldflags "-X github.com/drummonds/bboxpick/internal/build.Version=v0.3.0"
package build

// Version of the running binary
var Version = "dev"
