// Package journal persists per-pair pipeline outcomes in a SQLite
// database inside the workspace root. Re-runs against a retained
// workspace consult it to skip pairs whose outputs already exist.
package journal
