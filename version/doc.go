// Package version exposes the cloudreq build version.
//
// Values are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/cloudreq/version.Version=1.2.0"
//
// When they are not, the VCS stamp embedded by the Go toolchain is used.
package version
