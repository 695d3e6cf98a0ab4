// Package subprocess provides the stdio transport for a child process.
//
// This package spawns an executable and exchanges newline-delimited JSON
// with it over stdin and stdout. It handles executable resolution, process
// lifecycle, stderr diagnostics, and the mapping of stream and exit
// failures to events delivered to the consumer.
package subprocess
