// Package match pairs two resolved input collections for pipeline
// processing, either strictly by position or by broadcasting a single
// reference across every target.
package match
