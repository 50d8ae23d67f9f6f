package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/abdul-hamid-achik/ht/packages/core/config"
	"github.com/abdul-hamid-achik/ht/packages/http"
	"github.com/abdul-hamid-achik/ht/packages/output"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// streams are the process's standard files plus what we know about them.
type streams struct {
	in          io.Reader
	out         io.Writer
	err         io.Writer
	inTerminal  bool
	outTerminal bool
	errTerminal bool
}

func osStreams() streams {
	return streams{
		in:          os.Stdin,
		out:         os.Stdout,
		err:         os.Stderr,
		inTerminal:  output.IsTerminal(os.Stdin),
		outTerminal: output.IsTerminal(os.Stdout),
		errTerminal: output.IsTerminal(os.Stderr),
	}
}

type transportFactory func(opts ...http.ClientOption) http.Transport

func newClientTransport(opts ...http.ClientOption) http.Transport {
	return http.NewClient(opts...)
}

// app carries everything a single invocation needs.
type app struct {
	streams      streams
	cfg          *config.Config
	cfgErr       error
	newTransport transportFactory
	flags        requestFlags
}

func newApp(lookup config.LookupFunc, s streams, newTransport transportFactory) *app {
	cfg, err := config.Load(lookup)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return &app{
		streams:      s,
		cfg:          cfg,
		cfgErr:       err,
		newTransport: newTransport,
	}
}

// Execute runs the CLI with the process arguments and exits.
func Execute(v, bt string) {
	version = v
	buildTime = bt

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.LookupEnv, osStreams(), newClientTransport)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, lookup config.LookupFunc, s streams, newTransport transportFactory) int {
	a := newApp(lookup, s, newTransport)
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		colored := s.errTerminal && !a.cfg.GetNoColor()
		_ = output.PrintError(s.err, err, colored)
	}
	return exitCodeFor(err)
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ht [flags] [METHOD] URL [ITEM...]",
		Short: "A friendly command-line HTTP client",
		Long: heredoc.Doc(`
			ht sends HTTP requests built from short command-line items and
			prints the exchange in a readable form.

			Items:
			  name=value      string field in a JSON (or --form) body
			  name:=json      raw JSON field (numbers, booleans, arrays, objects)
			  name==value     query string parameter
			  Header:value    request header; "Header:" removes a default header
			  Header;         request header with an empty value
			  field@path      file upload (multipart)
			  name=@path      string field read from a file
			  name:=@path     raw JSON field read from a file

			A backslash escapes a separator character inside a key.
		`),
		Example: heredoc.Doc(`
			$ ht httpbin.org/get search==go
			$ ht post httpbin.org/post name=ali age:=29 X-API-Key:secret
			$ ht --form post httpbin.org/post avatar@me.png
			$ ht -v --offline put :3000/users/1 admin:=true
			$ echo '{"raw":true}' | ht post httpbin.org/post
		`),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			method, target, items := splitMethod(args)
			return a.runRequest(cmd.Context(), method, target, items)
		},
	}

	rootCmd.SetIn(a.streams.in)
	rootCmd.SetOut(a.streams.out)
	rootCmd.SetErr(a.streams.err)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newUsageError(err)
	})

	a.bindFlags(rootCmd)

	for _, method := range methods {
		rootCmd.AddCommand(newMethodCmd(a, method))
	}
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}
