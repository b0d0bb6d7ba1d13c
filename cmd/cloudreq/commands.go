package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/cloudreq/progress"
	"github.com/kbukum/cloudreq/request"
)

func (a *app) get(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("get", pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	anonymous := fs.Bool("anonymous", false, "do not send the stored token")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return fmt.Errorf("get: expected exactly one path")
	}

	resp, err := a.client.Send(ctx, request.Options{
		URL:          fs.Arg(0),
		RefreshToken: request.Bool(!*anonymous),
	})
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(resp.Body)
	return err
}

func (a *app) download(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("download", pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	output := fs.StringP("output", "o", "", "destination file (default: stdout)")
	quiet := fs.BoolP("quiet", "q", false, "do not report progress")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return fmt.Errorf("download: expected exactly one path")
	}

	opts := request.Options{URL: fs.Arg(0)}
	if !*quiet {
		opts.OnProgress = func(s progress.State) {
			fmt.Fprintf(a.stderr, "\r%s", formatProgress(s))
		}
	}

	stream, err := a.client.Stream(ctx, opts)
	if err != nil {
		return err
	}
	defer stream.Close()

	var dst io.Writer = a.stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("download: %w", err)
		}
		defer f.Close()
		dst = f
	}

	n, err := io.Copy(dst, stream)
	if !*quiet {
		fmt.Fprintln(a.stderr)
	}
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if stream.Length != nil && n != *stream.Length {
		return fmt.Errorf("download: received %d of %d bytes", n, *stream.Length)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("login: expected a token")
	}
	if err := a.tokens.Set(ctx, args[0]); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	claims, err := a.tokens.Claims(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Logged in as %s\n", displayName(claims.Username, claims.Subject))
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	resp, err := a.client.Send(ctx, request.Options{
		URL:          a.cfg.WhoamiPath,
		RefreshToken: request.Bool(false),
	})
	if err != nil {
		return err
	}

	var raw string
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		raw = string(resp.Body)
	}
	if err := a.tokens.Set(ctx, raw); err != nil {
		return fmt.Errorf("whoami: %w", err)
	}
	claims, err := a.tokens.Claims(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(claims)
}

func displayName(names ...string) string {
	for _, n := range names {
		if n != "" {
			return n
		}
	}
	return "unknown user"
}

func formatProgress(s progress.State) string {
	if s.Total < 0 {
		return fmt.Sprintf("%d bytes", s.Received)
	}
	eta := "--"
	if s.ETA >= 0 {
		eta = (time.Duration(s.ETA) * time.Second).String()
	}
	return fmt.Sprintf("%3.0f%% %d/%d bytes ETA %s", s.Percent, s.Received, s.Total, eta)
}
