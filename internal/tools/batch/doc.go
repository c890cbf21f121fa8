// Package batch runs a function over every item of a batch and collects one
// result per item, so a failing item never blocks its siblings.
package batch
