// Package platform contains OS and external tooling glue: filesystem helpers,
// AudioSet CSV segment parsing, and availability checks for the external
// binaries the pipeline shells out to.
package platform
