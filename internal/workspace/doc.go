// Package workspace manages the scratch directory tree shared by all
// pipeline stages. Each run gets a uuid-named directory under the
// configured root, guarded by a flock so concurrent runs cannot trample
// each other, with an append-only cleanup registry drained on Close.
package workspace
