// Package txn groups the reads and writes of one sync resolution.
//
// Reads are memoized so every step of a resolution sees the same remote
// snapshot:
//
//	u := txn.New(ctx)
//	remote, err := txn.Fetch(u, "remote", source.Fetch)
//
// Writes are staged and committed in order. When one fails, the actions
// already executed are rolled back in reverse order:
//
//	u.Stage(txn.Func("replace quotes", replace, restore))
//	u.Stage(txn.Func("record last sync", record, nil))
//	err := u.Commit(ctx)
package txn
