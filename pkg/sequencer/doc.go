//go:build unix

// Package sequencer provides the transaction sequencer log of a table.
//
//   - Every table has a single writer, which appends one record per committed transaction. A record references the
//     WAL writer, WAL segment and transaction within that segment holding the data. Transactions are numbered
//     starting at 1 in commit order.
//   - Structural changes like adding or renaming columns are committed through the same log. Their serialized form is
//     stored in a separate payload file, together with an index which maps every structure version to its end offset.
//   - Any number of readers, in the same or in other processes, can follow the writer with a TransactionLogCursor.
//     A reader never observes a partially written transaction.
//   - The files are located in the table directory and are called `_txnlog`, `_txnlog.meta.d` and `_txnlog.meta.i`.
//   - The package is only available on unix systems. Readers follow the writer through shared memory mappings of
//     files which grow while being mapped.
package sequencer
