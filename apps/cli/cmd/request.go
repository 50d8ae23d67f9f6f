package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	neturl "net/url"
	"regexp"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/ht/packages/core/config"
	"github.com/abdul-hamid-achik/ht/packages/core/parser"
	"github.com/abdul-hamid-achik/ht/packages/http"
	"github.com/abdul-hamid-achik/ht/packages/output"
	"github.com/spf13/cobra"
)

type requestFlags struct {
	offline      bool
	ignoreStdin  bool
	form         bool
	verbose      bool
	follow       bool
	debug        bool
	pretty       string
	verify       string
	print        string
	auth         string
	authType     string
	bearer       string
	proxy        string
	dump         string
	maxRedirects int
	timeout      time.Duration
}

// bindFlags registers the request flags with defaults taken from the
// environment configuration.
func (a *app) bindFlags(rootCmd *cobra.Command) {
	f := &a.flags
	cfg := a.cfg
	flags := rootCmd.PersistentFlags()

	flags.BoolVar(&f.offline, "offline", false, "Build and print the request without sending it")
	flags.BoolVarP(&f.ignoreStdin, "ignore-stdin", "I", false, "Do not read a request body from stdin")
	flags.BoolVarP(&f.form, "form", "f", false, "Serialize data items as form fields")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Print the request as well as the response")
	flags.StringVar(&f.pretty, "pretty", cfg.Pretty, "Output processing: all, colors, format or none (env: HT_PRETTY)")
	flags.StringVarP(&f.print, "print", "p", "", "Parts to print: H request headers, B request body, h response headers, b response body")
	flags.StringVar(&f.verify, "verify", cfg.Verify, "Verify certificates: true, false or a CA bundle path (env: HT_VERIFY)")
	flags.StringVarP(&f.auth, "auth", "a", "", "Credentials as USER[:PASSWORD]")
	flags.StringVarP(&f.authType, "auth-type", "A", "basic", "Authentication scheme for --auth: basic or digest")
	flags.StringVar(&f.bearer, "bearer", "", "Bearer token for the Authorization header")
	flags.BoolVarP(&f.follow, "follow", "F", cfg.GetFollowRedirects(), "Follow redirects")
	flags.IntVar(&f.maxRedirects, "max-redirects", cfg.MaxRedirects, "Maximum redirects to follow with --follow (env: HT_MAX_REDIRECTS)")
	flags.DurationVar(&f.timeout, "timeout", cfg.TimeoutDuration(), "Request timeout, 0 disables it (env: HT_TIMEOUT)")
	flags.StringVar(&f.proxy, "proxy", cfg.Proxy, "Proxy URL for the request (env: HT_PROXY)")
	flags.StringVar(&f.dump, "dump", "", "Print the exchange as a json or yaml document instead of text")
	flags.BoolVar(&f.debug, "debug", cfg.GetDebug(), "Log transport activity to stderr (env: HT_DEBUG)")
}

var methodPattern = regexp.MustCompile(`^[a-zA-Z]+$`)

// splitMethod separates an optional leading METHOD from the URL and items.
// A word is only a method when something that is not an item follows it.
func splitMethod(args []string) (method, target string, items []string) {
	if len(args) >= 2 && methodPattern.MatchString(args[0]) && !parser.IsItem(args[1]) {
		return strings.ToUpper(args[0]), args[1], args[2:]
	}
	return "", args[0], args[1:]
}

// guessMethod picks POST when there is something to send, GET otherwise.
func guessMethod(items []parser.Item, rawBody []byte) string {
	if len(rawBody) > 0 {
		return "POST"
	}
	for _, item := range items {
		if item.IsBody() {
			return "POST"
		}
	}
	return "GET"
}

func newLogger(debug bool, w io.Writer) *log.Logger {
	if !debug {
		return log.New(io.Discard, "", 0)
	}
	return log.New(w, "ht: ", log.LstdFlags|log.Lmicroseconds)
}

type outputSettings struct {
	pretty output.PrettyMode
	parts  output.Parts
	dump   output.DumpFormat
}

func (a *app) outputSettings() (outputSettings, error) {
	var s outputSettings
	var err error

	switch a.flags.pretty {
	case "":
		s.pretty = output.PrettyNone
		if a.streams.outTerminal {
			s.pretty = output.PrettyAll
		}
	default:
		if s.pretty, err = output.ParsePrettyMode(a.flags.pretty); err != nil {
			return s, newUsageError(err)
		}
	}

	s.parts = output.DefaultParts(a.flags.verbose, a.flags.offline)
	if a.flags.print != "" {
		if s.parts, err = output.ParseParts(a.flags.print); err != nil {
			return s, newUsageError(err)
		}
	}

	if a.flags.dump != "" {
		if s.dump, err = output.ParseDumpFormat(a.flags.dump); err != nil {
			return s, newUsageError(err)
		}
	}
	return s, nil
}

func (a *app) readStdin() ([]byte, bool, error) {
	if a.flags.ignoreStdin || a.streams.in == nil || a.streams.inTerminal {
		return nil, false, nil
	}
	data, err := io.ReadAll(a.streams.in)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read request body from stdin: %w", err)
	}
	return data, true, nil
}

func (a *app) assembleOptions(rawBody []byte, hasRawBody bool) http.AssembleOptions {
	opts := http.AssembleOptions{
		Form:       a.flags.form,
		RawBody:    rawBody,
		HasRawBody: hasRawBody,
		TestMode:   a.cfg.GetTestMode(),
		Version:    version,
		Bearer:     a.flags.bearer,
	}
	if a.flags.auth != "" && a.flags.authType == "basic" {
		opts.Auth = a.flags.auth
	}
	return opts
}

func (a *app) clientOptions(logger *log.Logger) ([]http.ClientOption, error) {
	verify, caPath := a.cfg.Merge(&config.Config{Verify: a.flags.verify}).GetVerify()
	opts := []http.ClientOption{
		http.WithTimeout(a.flags.timeout),
		http.WithFollowRedirects(a.flags.follow),
		http.WithMaxRedirects(a.flags.maxRedirects),
		http.WithVerify(verify),
		http.WithLogger(logger),
	}

	if caPath != "" {
		pool, err := http.LoadRootCAs(caPath)
		if err != nil {
			return nil, newUsageError(err)
		}
		opts = append(opts, http.WithRootCAs(pool))
	}

	if a.flags.proxy != "" {
		proxy, err := neturl.Parse(a.flags.proxy)
		if err != nil || proxy.Host == "" {
			return nil, &usageError{msg: fmt.Sprintf("invalid proxy URL %q", a.flags.proxy)}
		}
		opts = append(opts, http.WithProxy(proxy))
	}

	if a.flags.auth != "" && a.flags.authType == "digest" {
		user, pass, _ := strings.Cut(a.flags.auth, ":")
		opts = append(opts, http.WithDigestAuth(user, pass))
	}

	return opts, nil
}

func (a *app) validateFlags() error {
	switch a.flags.authType {
	case "basic", "digest":
	default:
		return &usageError{msg: fmt.Sprintf("invalid auth type %q (want basic or digest)", a.flags.authType)}
	}
	if a.flags.maxRedirects < 0 {
		return &usageError{msg: "--max-redirects cannot be negative"}
	}
	if a.flags.timeout < 0 {
		return &usageError{msg: "--timeout cannot be negative"}
	}
	return nil
}

// runRequest is the whole exchange: parse, assemble, print, send, print.
func (a *app) runRequest(ctx context.Context, method, target string, tokens []string) error {
	if a.cfgErr != nil {
		return newUsageError(a.cfgErr)
	}
	if err := a.validateFlags(); err != nil {
		return err
	}
	settings, err := a.outputSettings()
	if err != nil {
		return err
	}

	items, err := parser.ParseAll(tokens)
	if err != nil {
		return err
	}

	rawBody, hasRawBody, err := a.readStdin()
	if err != nil {
		return err
	}
	if method == "" {
		method = guessMethod(items, rawBody)
	}

	logger := newLogger(a.flags.debug, a.streams.err)

	req, err := http.Assemble(method, target, items, a.assembleOptions(rawBody, hasRawBody))
	if err != nil {
		return err
	}
	logger.Printf("assembled %s %s (%s body, %d bytes)", req.Method(), req.URLString(), req.Content(), len(req.Body()))

	printer := output.NewPrinter(
		output.WithWriter(a.streams.out),
		output.WithPretty(settings.pretty),
		output.WithColor(a.streams.outTerminal && !a.cfg.GetNoColor()),
		output.WithParts(settings.parts),
	)

	if settings.dump == "" {
		if err := printer.PrintRequest(req); err != nil {
			return err
		}
	}

	if a.flags.offline {
		if settings.dump != "" {
			return output.WriteStructured(a.streams.out, settings.dump, req, nil)
		}
		return nil
	}

	opts, err := a.clientOptions(logger)
	if err != nil {
		return err
	}
	resp, err := a.newTransport(opts...).Send(ctx, req)
	if err != nil {
		return err
	}

	if settings.dump != "" {
		return output.WriteStructured(a.streams.out, settings.dump, req, resp)
	}
	return printer.PrintResponse(resp)
}
