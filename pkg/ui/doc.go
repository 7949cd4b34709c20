// Package ui prints the command line tool's human facing output: banners,
// status lines and summary blocks. Structured logs go through pkg/logger;
// this package only formats what a person reads at the end of a command.
package ui
