// Command spotfinder is a terminal front door to the family-friendly spot
// finder API: search venues around a coordinate, inspect details and
// reviews, and manage the login session.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/oyakomap/spotfinder/internal/client"
	"github.com/oyakomap/spotfinder/internal/geo"
	"github.com/oyakomap/spotfinder/internal/search"
	"github.com/oyakomap/spotfinder/internal/types"
	"github.com/oyakomap/spotfinder/pkg/config"
)

func main() {
	// .env is optional; the environment wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log.Level)
	deps, err := InitDependencies(cfg, logger)
	if err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	cmd := "search"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	ctx := context.Background()
	switch cmd {
	case "search":
		err = runSearch(ctx, deps, args)
	case "detail":
		err = runDetail(ctx, deps, args)
	case "reviews":
		err = runReviews(ctx, deps, args)
	case "login":
		err = runLogin(ctx, deps, args)
	case "logout":
		err = deps.Client.Logout(ctx)
	case "me":
		err = runMe(ctx, deps)
	default:
		err = fmt.Errorf("unknown command %q (want search, detail, reviews, login, logout, me)", cmd)
	}
	if err != nil {
		logger.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func runSearch(ctx context.Context, deps *Dependencies, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	q := fs.String("q", "", "query text")
	lat := fs.Float64("lat", 0, "search center latitude")
	lng := fs.Float64("lng", 0, "search center longitude")
	sortKey := fs.String("sort", "", "sort: distance, overall, count, new")
	features := fs.String("features", "", "comma-separated feature codes (AND)")
	locate := fs.Bool("locate", false, "center the search on the device position")
	pages := fs.Int("pages", 1, "number of pages to fetch")
	share := fs.String("share", "", "restore state from a shared query string")
	if err := fs.Parse(args); err != nil {
		return err
	}

	values, err := url.ParseQuery(strings.TrimPrefix(*share, "?"))
	if err != nil {
		return fmt.Errorf("parse share query: %w", err)
	}
	ctrl := deps.Controller
	ctrl.Init(values)

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["lat"] && set["lng"] {
		ctrl.SetCenter(geo.Coordinate{Lat: *lat, Lng: *lng})
	}
	if *locate {
		// The acquirer pushes the position into the controller on success.
		if err := deps.Location.Request(ctx); err != nil {
			return err
		}
	}
	if *q != "" {
		ctrl.SetQuery(*q)
	}
	if *sortKey != "" {
		ctrl.SetSort(search.ParseSortKey(*sortKey))
	}
	if *features != "" {
		ctrl.ApplyFeatures(strings.Split(*features, ","))
	}
	ctrl.Submit()

	if err := ctrl.Load(ctx, nil); err != nil {
		return err
	}
	for i := 1; i < *pages; i++ {
		if ctrl.NextCursor() == nil {
			break
		}
		if err := ctrl.LoadMore(ctx); err != nil {
			return err
		}
	}

	visible := ctrl.Visible()
	center := ctrl.Center()
	fmt.Printf("%d places around %.4f,%.4f\n", len(visible), center.Lat, center.Lng)
	for _, p := range visible {
		fmt.Println(formatPlace(p))
	}
	if link := deps.ShareLink.String(); link != "" {
		fmt.Println("share:", link)
	}
	return nil
}

func formatPlace(p types.Place) string {
	rating := "-"
	if p.Rating.Overall != nil {
		rating = fmt.Sprintf("%.1f (%d)", *p.Rating.Overall, p.Rating.Count)
	}
	return fmt.Sprintf("  %-36s %6.2fkm  ★%s  %s [%s]",
		p.Name, p.Location.DistanceM/1000, rating, p.Category.Label,
		strings.Join(p.FeaturesSummary, ","))
}

func runDetail(ctx context.Context, deps *Dependencies, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: spotfinder detail <place-id>")
	}
	detail, err := deps.Client.GetPlace(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", detail.Name, detail.Category.Label)
	if detail.Address != nil {
		fmt.Println("  address:", *detail.Address)
	}
	if detail.Rating.Overall != nil {
		fmt.Printf("  rating: %.1f over %d reviews\n", *detail.Rating.Overall, detail.Rating.Count)
	}
	for _, f := range detail.Features {
		line := "  - " + f.Label
		if f.Detail != nil {
			line += " (" + *f.Detail + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func runReviews(ctx context.Context, deps *Dependencies, args []string) error {
	fs := flag.NewFlagSet("reviews", flag.ContinueOnError)
	sortKey := fs.String("sort", "new", "sort: new or rating")
	hasPhoto := fs.Bool("has-photo", false, "only reviews with photos")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: spotfinder reviews [flags] <place-id>")
	}
	page, err := deps.Client.ListReviews(ctx, fs.Arg(0), client.ReviewListParams{
		Sort:     *sortKey,
		HasPhoto: *hasPhoto,
	})
	if err != nil {
		return err
	}
	for _, r := range page.Items {
		fmt.Printf("★%.1f %s — %s\n", r.Overall, r.User.Nickname, r.CreatedAt)
		fmt.Println(" ", r.Text)
	}
	return nil
}

func runLogin(ctx context.Context, deps *Dependencies, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	session, err := deps.Client.Login(ctx, client.LoginParams{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Println("logged in as", session.User.Email)
	return nil
}

func runMe(ctx context.Context, deps *Dependencies) error {
	user, err := deps.Client.Me(ctx)
	if err != nil {
		return err
	}
	nickname := ""
	if user.Nickname != nil {
		nickname = *user.Nickname
	}
	fmt.Printf("%s (%s) role=%s\n", user.Email, nickname, user.Role)
	return nil
}
