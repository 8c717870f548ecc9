// Package transaction groups the commands issued for one user-level edit.
//
// Commands added to a Transaction execute immediately, so the edit is
// visible while it is being built. Commit hands the grouped commands to a
// history as a single undo step. A Transaction that is closed without being
// committed undoes everything it executed, in reverse order:
//
//	tx := transaction.New(hist, "Paste")
//	defer tx.Close() // rolls back unless committed
//	if err := tx.Add(cmd); err != nil {
//	    return err
//	}
//	_, err := tx.Commit()
//
// Run wraps the same pattern around a function and also rolls back when the
// function panics.
//
// # Context Snapshots
//
// A Transaction records opaque snapshots of host UI state (for example the
// active selection) right before its first command runs and again at
// commit. The snapshots are never parsed. Large snapshots are kept
// zstd-compressed.
package transaction
