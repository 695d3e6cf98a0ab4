// Package framing splits a chunked byte stream into newline-delimited
// JSON frames.
//
// A Decoder owns the bytes that have arrived but are not yet terminated by
// a newline. Chunk boundaries carry no meaning: a record may be split at
// any byte offset, including inside a multi-byte UTF-8 sequence, and is
// decoded once its terminating newline arrives. Blank lines are skipped,
// and a malformed line is reported without disturbing the lines around it.
package framing
