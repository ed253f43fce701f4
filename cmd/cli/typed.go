package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	u "github.com/gofrs/uuid/v5"
)

// ------- flag helpers -------

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

// optFloat is a float flag that remembers whether it was set.
type optFloat struct{ v *float64 }

func (o *optFloat) String() string {
	if o.v == nil {
		return ""
	}
	return fmt.Sprint(*o.v)
}

func (o *optFloat) Set(s string) error {
	var f float64
	if _, err := fmt.Sscan(s, &f); err != nil {
		return err
	}
	o.v = &f
	return nil
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", fs.Name(), err)
	}
	return nil
}

// ------- validators -------

func requireID(id string) (string, error) {
	v, err := u.FromString(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("need -id <uuid>: %w", err)
	}
	return v.String(), nil
}

func parseAt(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("bad -at (RFC3339 expected): %w", err)
	}
	return &t, nil
}

func validDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("bad -date (YYYY-MM-DD expected): %w", err)
	}
	return nil
}

// ------- account -------

func credentialsFlags(name string, args []string) (string, string, error) {
	fs := newFlags(name)
	user := fs.String("u", "", "name")
	pass := fs.String("p", "", "password")
	if err := parse(fs, args); err != nil {
		return "", "", err
	}
	if *user == "" || *pass == "" {
		return "", "", errors.New("need -u and -p")
	}
	return *user, *pass, nil
}

func cmdRegister(ctx context.Context, c *client, args []string, out io.Writer) error {
	name, pass, err := credentialsFlags("register", args)
	if err != nil {
		return err
	}
	var resp struct {
		UserID string `json:"user_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{"name": name, "password": pass}, &resp); err != nil {
		return err
	}
	fmt.Fprintln(out, resp.UserID)
	return nil
}

func cmdLogin(ctx context.Context, c *client, args []string, out io.Writer) error {
	name, pass, err := credentialsFlags("login", args)
	if err != nil {
		return err
	}
	var tf tokenFile
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"name": name, "password": pass}, &tf); err != nil {
		return err
	}
	if tf.ExpiresAt.IsZero() {
		tf.ExpiresAt = time.Now().Add(15 * time.Minute)
	}
	if err := saveToken(tf); err != nil {
		return err
	}
	fmt.Fprintln(out, "ok")
	return nil
}

// ------- goals -------

type goalFlags struct {
	goal   *string
	target *float64
	kcal   *int

	protein, fat, carbs, sugar, fiber *int
}

func addGoalFlags(fs *flag.FlagSet) goalFlags {
	return goalFlags{
		goal:    fs.String("goal", "", "maintain|lose|gain|eat_healthy"),
		target:  fs.Float64("target", 0, "target weight, kg"),
		kcal:    fs.Int("kcal", 0, "daily calories"),
		protein: fs.Int("protein", 0, "protein, g"),
		fat:     fs.Int("fat", 0, "fat, g"),
		carbs:   fs.Int("carbs", 0, "carbohydrates, g"),
		sugar:   fs.Int("sugar", 0, "sugar, g"),
		fiber:   fs.Int("fiber", 0, "fiber, g"),
	}
}

func (g goalFlags) body() map[string]any {
	return map[string]any{
		"goal": *g.goal, "target_weight_kg": *g.target, "calories": *g.kcal,
		"protein_g": *g.protein, "fat_g": *g.fat, "carbs_g": *g.carbs,
		"sugar_g": *g.sugar, "fiber_g": *g.fiber,
	}
}

func cmdGoal(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := newFlags("goal")
	g := addGoalFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	var resp map[string]any
	if *g.goal == "" {
		if err := c.do(ctx, http.MethodGet, "/api/goals/current", nil, &resp); err != nil {
			return err
		}
	} else if err := c.do(ctx, http.MethodPost, "/api/goals", g.body(), &resp); err != nil {
		return err
	}
	printJSON(out, resp)
	return nil
}

func cmdOnboard(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := newFlags("onboard")
	gender := fs.String("gender", "", "gender")
	age := fs.Int("age", 0, "age, years")
	height := fs.Float64("height", 0, "height, cm")
	weight := fs.Float64("weight", 0, "weight, kg")
	g := addGoalFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if *g.goal == "" || *weight <= 0 {
		return errors.New("need -goal and -weight")
	}
	body := g.body()
	body["gender"], body["age"], body["height_cm"], body["weight_kg"] = *gender, *age, *height, *weight
	var resp map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/onboarding/submit", body, &resp); err != nil {
		return err
	}
	printJSON(out, resp)
	return nil
}

// ------- water / weight -------

func cmdWater(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := newFlags("water")
	ml := fs.Int("ml", 0, "amount, ml")
	at := fs.String("at", "", "time, RFC3339 (default now)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *ml <= 0 {
		return errors.New("need -ml > 0")
	}
	when, err := parseAt(*at)
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/water", map[string]any{"ml": *ml, "drank_at": when}, &resp); err != nil {
		return err
	}
	printJSON(out, resp)
	return nil
}

func cmdWaterRm(ctx context.Context, c *client, args []string, out io.Writer) error {
	return deleteByID(ctx, c, "water-rm", "/api/water/", args, out)
}

func cmdWeight(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := newFlags("weight")
	kg := fs.Float64("kg", 0, "weight, kg")
	date := fs.String("date", "", "YYYY-MM-DD (default today)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *kg <= 0 {
		return errors.New("need -kg > 0")
	}
	if err := validDate(*date); err != nil {
		return err
	}
	body := map[string]any{"kg": *kg}
	if *date != "" {
		body["date"] = *date
	}
	var resp map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/weight", body, &resp); err != nil {
		return err
	}
	printJSON(out, resp)
	return nil
}

// ------- meals -------

func cmdMeal(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := newFlags("meal")
	title := fs.String("title", "", "meal name")
	at := fs.String("at", "", "time, RFC3339 (default now)")
	var kcal, protein, fat, carbs optFloat
	fs.Var(&kcal, "kcal", "calories")
	fs.Var(&protein, "protein", "protein, g")
	fs.Var(&fat, "fat", "fat, g")
	fs.Var(&carbs, "carbs", "carbohydrates, g")
	if err := parse(fs, args); err != nil {
		return err
	}
	when, err := parseAt(*at)
	if err != nil {
		return err
	}
	body := map[string]any{
		"total_kcal": kcal.v,
		"eaten_at":   when,
		"macros":     map[string]any{"protein_g": protein.v, "fat_g": fat.v, "carbohydrates_g": carbs.v},
	}
	if *title != "" {
		body["title"] = *title
	}
	var resp map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/meals", body, &resp); err != nil {
		return err
	}
	printJSON(out, resp)
	return nil
}

func cmdMealRm(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := newFlags("meal-rm")
	id := fs.String("id", "", "meal id")
	keep := fs.Bool("keep-draft", false, "leave the source draft confirmed")
	if err := parse(fs, args); err != nil {
		return err
	}
	mid, err := requireID(*id)
	if err != nil {
		return err
	}
	q := url.Values{}
	if *keep {
		q.Set("cascade_draft", "false")
	}
	path := "/api/meals/" + mid
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp map[string]any
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return err
	}
	printJSON(out, resp)
	return nil
}

// ------- drafts -------

// buildDraftForm writes the multipart body for draft creation.
func buildDraftForm(text string, images []string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if text != "" {
		if err := mw.WriteField("text", text); err != nil {
			return nil, "", err
		}
	}
	for _, p := range images {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, "", err
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, filepath.Base(p)))
		h.Set("Content-Type", http.DetectContentType(data))
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func cmdDraft(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := newFlags("draft")
	text := fs.String("text", "", "meal description")
	var images multiFlag
	fs.Var(&images, "img", "photo file (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *text == "" && len(images) == 0 {
		return errors.New("need -text or -img")
	}
	body, ct, err := buildDraftForm(*text, images)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/drafts", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", ct)
	var resp map[string]any
	if err := c.send(req, &resp); err != nil {
		return err
	}
	printJSON(out, resp)
	return nil
}

func cmdShow(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := newFlags("show")
	id := fs.String("id", "", "draft id")
	if err := parse(fs, args); err != nil {
		return err
	}
	did, err := requireID(*id)
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/drafts/"+did, nil, &resp); err != nil {
		return err
	}
	printJSON(out, resp)
	return nil
}

func cmdConfirm(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := newFlags("confirm")
	id := fs.String("id", "", "draft id")
	title := fs.String("title", "", "override name")
	at := fs.String("at", "", "override time, RFC3339")
	file := fs.String("file", "", "overrides JSON file ('-'=stdin)")
	var kcal optFloat
	fs.Var(&kcal, "kcal", "override calories")
	if err := parse(fs, args); err != nil {
		return err
	}
	did, err := requireID(*id)
	if err != nil {
		return err
	}

	over := map[string]any{}
	if *file != "" {
		b, err := readAll(*file)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(b, &over); err != nil {
			return fmt.Errorf("overrides: %w", err)
		}
	}
	if *title != "" {
		over["title"] = *title
	}
	if kcal.v != nil {
		over["total_kcal"] = *kcal.v
	}
	when, err := parseAt(*at)
	if err != nil {
		return err
	}
	if when != nil {
		over["eaten_at"] = when
	}

	var resp map[string]any
	if err := c.do(ctx, http.MethodPost, "/api/drafts/"+did+"/confirm", over, &resp); err != nil {
		return err
	}
	printJSON(out, resp)
	return nil
}

func cmdDiscard(ctx context.Context, c *client, args []string, out io.Writer) error {
	return deleteByID(ctx, c, "discard", "/api/drafts/", args, out)
}

func deleteByID(ctx context.Context, c *client, name, prefix string, args []string, out io.Writer) error {
	fs := newFlags(name)
	id := fs.String("id", "", "id")
	if err := parse(fs, args); err != nil {
		return err
	}
	rid, err := requireID(*id)
	if err != nil {
		return err
	}
	var resp map[string]any
	if err := c.do(ctx, http.MethodDelete, prefix+rid, nil, &resp); err != nil {
		return err
	}
	printJSON(out, resp)
	return nil
}

// ------- dashboard -------

func cmdDashboard(ctx context.Context, c *client, args []string, out io.Writer) error {
	fs := newFlags("dashboard")
	date := fs.String("date", "", "YYYY-MM-DD (default today)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := validDate(*date); err != nil {
		return err
	}
	path := "/api/dashboard"
	if *date != "" {
		path += "?date=" + url.QueryEscape(*date)
	}
	var resp json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return err
	}
	fmt.Fprintln(out, pretty(resp))
	return nil
}

// ------- misc -------

func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

func pretty(b []byte) string {
	var out any
	if json.Unmarshal(b, &out) == nil {
		j, _ := json.MarshalIndent(out, "", "  ")
		return string(j)
	}
	return string(b)
}
