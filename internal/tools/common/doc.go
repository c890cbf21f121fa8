// Package common provides shared helpers for tool handlers: argument
// accessors and the instrumentation wrapper every handler runs behind.
package common
