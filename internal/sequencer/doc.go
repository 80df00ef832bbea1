// Package sequencer provides the transaction sequencer log of a table.
//
// The sequencer establishes a single global commit order for all WAL writers of a table. The on-disk structure looks
// like this:
//
//   - The sequencer log file holds a header and one fixed size record per committed transaction. A record references
//     the WAL writer, segment and segment transaction which hold the data. Structural changes get a record as well,
//     marked with a reserved WAL id.
//   - The structural change payload file holds the serialized structural changes, each prefixed with its length.
//   - The structural change index file holds the end offset of every structure version in the payload file.
//
// There is a single writer per table, the TransactionLog. It is not safe for concurrent use. Any number of readers
// can follow the writer with their own TransactionLogCursor or TableMetadataChangeLog, each with a private mapping.
// The writer publishes a transaction by storing the new transaction count into the header with release semantics
// after the record is complete. Readers load the count with acquire semantics before touching records, so a reader
// never observes a partially written record.
package sequencer
