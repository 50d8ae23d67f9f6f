// Package cmd implements the ht command line using Cobra.
//
// The root command takes an optional METHOD, a URL and request items:
//
//	ht [flags] [METHOD] URL [ITEM...]
//
// Common methods also exist as subcommands (get, post, put, patch, delete,
// head, options) alongside version and completion. Flag defaults come from
// HT_* environment variables, and the process exit code reflects how the
// exchange ended: 0 for any received response, 2 on timeout, 6 on too many
// redirects, 64 on bad usage and 1 for everything else.
package cmd
