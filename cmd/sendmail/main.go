// Command sendmail submits one email to a mail relay server the same way the
// browser form does, printing the resulting status line.
package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/Abraxas-365/mailrelay/pkg/submitx"
	"github.com/spf13/cobra"
)

const defaultURL = "http://localhost:8080"

type options struct {
	url      string
	to       string
	from     string
	subject  string
	body     string
	bodyFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logx.Error(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{url: defaultURL}
	if v := os.Getenv("MAILRELAY_URL"); v != "" {
		opts.url = v
	}

	cmd := &cobra.Command{
		Use:           "sendmail",
		Short:         "Queue an email on a mail relay server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", opts.url, "base URL of the relay (env MAILRELAY_URL)")
	f.StringVar(&opts.to, "to", "", "recipient address")
	f.StringVar(&opts.from, "from", "", "sender address")
	f.StringVar(&opts.subject, "subject", "", "subject line")
	f.StringVar(&opts.body, "body", "", "message body")
	f.StringVar(&opts.bodyFile, "body-file", "", `read the body from a file ("-" for stdin)`)
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")

	return cmd
}

// run submits the form. Failures of the submission itself only show up in
// the status line; the command errors only on unusable input. Like the
// browser form, a pending submission waits for the server without a
// deadline until interrupted.
func run(cmd *cobra.Command, opts options) error {
	body := opts.body
	if opts.bodyFile != "" {
		b, err := readBody(cmd.InOrStdin(), opts.bodyFile)
		if err != nil {
			return err
		}
		body = b
	}

	form := submitx.Form{
		submitx.FieldTo:        opts.to,
		submitx.FieldFromEmail: opts.from,
		submitx.FieldSubject:   opts.subject,
		submitx.FieldBody:      body,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := submitx.NewHandler(
		submitx.NewClient(opts.url),
		form,
		submitx.NewWriterStatus(cmd.OutOrStdout()),
	)
	handler.HandleSubmit(ctx, &submitx.SubmitEvent{})
	return nil
}

func readBody(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}
