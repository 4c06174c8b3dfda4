// Command webhook-sign prints signature header values for a webhook payload,
// for replaying deliveries against a local webhook-guard with curl.
//
//	webhook-sign -scheme simple -secret-env GITHUB_WEBHOOK_SECRET -file push.json
//	echo '{"id":"evt_1"}' | webhook-sign -scheme timestamped -secret whsec_x
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"webhook-guard/internal/signature"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	// .env is optional, same as for the server
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, time.Now))
}

type options struct {
	scheme    string
	secret    string
	secretEnv string
	timestamp int64
	file      string
	header    bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, now func() time.Time) int {
	fs := flag.NewFlagSet("webhook-sign", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.scheme, "scheme", string(signature.SchemeSimple), "signature scheme: simple or timestamped")
	fs.StringVar(&opts.secret, "secret", "", "signing secret")
	fs.StringVar(&opts.secretEnv, "secret-env", "", "read the signing secret from this environment variable")
	fs.Int64Var(&opts.timestamp, "timestamp", 0, "unix timestamp for the timestamped scheme (default now)")
	fs.StringVar(&opts.file, "file", "", "payload file (default stdin)")
	fs.BoolVar(&opts.header, "header", false, "print the full header line instead of the value")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "webhook-sign: unexpected arguments: %v\n", fs.Args())
		return exitUsage
	}

	scheme, err := signature.ParseScheme(opts.scheme)
	if err != nil {
		fmt.Fprintf(stderr, "webhook-sign: %v\n", err)
		return exitUsage
	}

	key, err := resolveSecret(opts)
	if err != nil {
		fmt.Fprintf(stderr, "webhook-sign: %v\n", err)
		return exitUsage
	}

	payload, err := readPayload(opts.file, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "webhook-sign: reading payload: %v\n", err)
		return exitError
	}

	ts := opts.timestamp
	if ts == 0 {
		ts = now().Unix()
	}

	value := signature.Sign(scheme, key, payload, ts)
	if opts.header {
		fmt.Fprintf(stdout, "%s: %s\n", headerName(scheme), value)
	} else {
		fmt.Fprintln(stdout, value)
	}
	return exitOK
}

func resolveSecret(opts options) (string, error) {
	if opts.secret != "" && opts.secretEnv != "" {
		return "", errors.New("-secret and -secret-env are mutually exclusive")
	}
	if opts.secretEnv != "" {
		value := os.Getenv(opts.secretEnv)
		if value == "" {
			return "", fmt.Errorf("environment variable %s is not set", opts.secretEnv)
		}
		return value, nil
	}
	if opts.secret == "" {
		return "", errors.New("one of -secret or -secret-env is required")
	}
	return opts.secret, nil
}

func readPayload(file string, stdin io.Reader) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(file)
}

func headerName(scheme signature.Scheme) string {
	if scheme == signature.SchemeTimestamped {
		return signature.HeaderStripe
	}
	return signature.HeaderGitHub
}
