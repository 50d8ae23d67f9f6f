// Package output renders HTTP exchanges for the terminal.
//
// Supported renderings:
//   - Text: start line, sorted headers and a pretty-printed body
//   - Structured: the exchange as a JSON or YAML document
//   - Errors: the message plus its "Caused by" chain
//
// Pretty modes control reformatting and color independently; color is
// only emitted when the writer is known to be a terminal.
package output
