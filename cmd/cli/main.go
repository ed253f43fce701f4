// Command nk is a CLI client for the NutriKeeper HTTP API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "nutrikeeper")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "nutrikeeper")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tf tokenFile) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tf)
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", errors.New("no token (login required)")
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

// ---- http client ----

// apiError is a non-2xx response decoded from the server's error body.
type apiError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("http %d: %s: %s", e.Status, e.Code, e.Message)
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func newClient(base, token string, timeout time.Duration) *client {
	return &client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: timeout},
	}
}

// do sends a JSON body (nil for none) and decodes the JSON response into out.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *client) send(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		e := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(b, e) != nil || e.Code == "" {
			e.Code, e.Message = http.StatusText(resp.StatusCode), strings.TrimSpace(string(b))
		}
		return e
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(b, out)
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

const usageText = `nk CLI
Usage:
  nk [-addr URL] <cmd> [args]

Commands:
  version
  register   -u <name> -p <password>
  login      -u <name> -p <password>                 (saves token)
  onboard    -gender g -age n -height cm -weight kg -goal type [-kcal n ...]
  goal       -goal type [-kcal n -protein n -fat n -carbs n -sugar n -fiber n]
  water      -ml <n> [-at RFC3339]
  water-rm   -id <uuid>
  weight     -kg <x> [-date YYYY-MM-DD]
  meal       -title <s> -kcal <x> [-at RFC3339 -protein x -fat x -carbs x]
  meal-rm    -id <uuid> [-keep-draft]
  draft      [-text <s>] [-img file]...              (photo/text analysis)
  show       -id <uuid>                              (draft)
  confirm    -id <uuid> [-title s -kcal x -at RFC3339 -file overrides.json]
  discard    -id <uuid>
  dashboard  [-date YYYY-MM-DD]
`

var (
	version   = "dev"
	buildDate = "unknown"
)

// run dispatches one subcommand; output goes to out.
func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("nk", flag.ContinueOnError)
	addr := global.String("addr", envOr("NK_ADDR", "http://localhost:8080"), "server base URL")
	timeout := global.Duration("timeout", 2*time.Minute, "request timeout")
	global.SetOutput(io.Discard)
	if err := global.Parse(args); err != nil {
		return errUsage
	}
	if global.NArg() < 1 {
		return errUsage
	}
	cmd, rest := global.Arg(0), global.Args()[1:]

	anon := newClient(*addr, "", *timeout)
	authed := func() (*client, error) {
		tok, err := loadToken()
		if err != nil {
			return nil, err
		}
		return newClient(*addr, tok, *timeout), nil
	}

	switch cmd {
	case "version":
		fmt.Fprintf(out, "nk %s (%s)\n", version, buildDate)
		return nil
	case "register":
		return cmdRegister(ctx, anon, rest, out)
	case "login":
		return cmdLogin(ctx, anon, rest, out)
	}

	handlers := map[string]func(context.Context, *client, []string, io.Writer) error{
		"onboard":   cmdOnboard,
		"goal":      cmdGoal,
		"water":     cmdWater,
		"water-rm":  cmdWaterRm,
		"weight":    cmdWeight,
		"meal":      cmdMeal,
		"meal-rm":   cmdMealRm,
		"draft":     cmdDraft,
		"show":      cmdShow,
		"confirm":   cmdConfirm,
		"discard":   cmdDiscard,
		"dashboard": cmdDashboard,
	}
	h, ok := handlers[cmd]
	if !ok {
		return errUsage
	}
	c, err := authed()
	if err != nil {
		return err
	}
	return h(ctx, c, rest, out)
}

var errUsage = errors.New("usage")

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// main runs the command until it finishes or the process is interrupted.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
