// Package inputs resolves user-supplied input specifications (subtitle
// files, "container:track" pairs, directories) into ordered collections
// of lazily materialized subtitle units. Resolution order is fixed here,
// by case-folded name, so positional matching stays deterministic across
// runs on an unchanged filesystem.
package inputs
