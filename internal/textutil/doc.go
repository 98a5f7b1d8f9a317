// Package textutil provides small text helpers shared across the
// pipeline: sanitizing names for safe filesystem use and a generic
// conditional used where an if/else would drown a short expression.
package textutil
