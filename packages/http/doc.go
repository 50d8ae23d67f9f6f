// Package http assembles and sends the requests built from command-line items.
//
// It covers:
//   - Content model selection (JSON, form, multipart, raw, empty)
//   - Body serialization for each model
//   - Default headers with per-name override and unset
//   - URL normalization and query items
//   - A net/http based Transport with redirect, TLS and proxy options
//   - Digest challenge handling and response decompression
package http
