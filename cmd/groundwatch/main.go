// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

// Package main is the Groundwatch command line client.
//
// Groundwatch monitors satellite imagery for threats: operators upload
// captures, the backend runs detection, and detections surface as threats
// that can be acknowledged and verified. This CLI covers the full operator
// workflow plus a live watch mode that tails the threat stream.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): GROUNDWATCH_* environment variables, a YAML config file,
// built-in defaults. The only required setting is the backend URL:
//
//	export GROUNDWATCH_API_URL=https://api.groundwatch.example
//	groundwatch login -u operator1 -p 'correct horse'
//	groundwatch threats -severity high
//	groundwatch watch
//
// Session tokens are stored in $XDG_CONFIG_HOME/groundwatch/session.json
// (mode 0600) and refreshed transparently when the access token expires.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/groundwatch/groundwatch/internal/client"
	"github.com/groundwatch/groundwatch/internal/config"
	"github.com/groundwatch/groundwatch/internal/logging"
	"github.com/groundwatch/groundwatch/internal/models"
	"github.com/groundwatch/groundwatch/internal/session"
	"github.com/groundwatch/groundwatch/internal/validation"
	"github.com/groundwatch/groundwatch/internal/watch"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const commandTimeout = 60 * time.Second

func usage() {
	fmt.Fprintf(os.Stderr, `groundwatch - satellite imagery threat monitoring

Usage:
  groundwatch <command> [flags]

Auth:
  register  -u <user> -e <email> -p <password> [-name NAME] [-unit UNIT]
  login     -u <user> -p <password>
  logout
  whoami

Imagery:
  images    [-region R] [-status S] [-page N] [-limit N]
  image     -id <id>
  upload    -file <path> [-region R]
  rm        -id <id>
  analyze   -id <id>
  analyses  [-image ID] [-status S] [-page N] [-limit N]
  analysis  -id <id>

Threats:
  threats   [-severity S] [-class C] [-ack true|false] [-page N] [-limit N]
  threat    -id <id>
  ack       -id <id>
  verify    -id <id>

Account:
  profile
  set-profile  [-name NAME] [-rank RANK] [-unit UNIT] [-avatar URL]
  settings
  set-settings [-email true|false] [-critical true|false] [-region R]
               [-map STYLE] [-overlay O] [-threshold low|medium|high|critical]

Monitoring:
  stats
  watch
  version
`)
	os.Exit(2)
}

func fail(err error) {
	var reqErr *validation.RequestError
	if errors.As(err, &reqErr) {
		for _, fe := range reqErr.Fields() {
			fmt.Fprintf(os.Stderr, "invalid input: %s\n", fe.Error())
		}
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	if cmd == "version" {
		fmt.Printf("groundwatch %s (%s)\n", version, buildDate)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	store, err := session.NewStore(cfg.CredentialsPath())
	if err != nil {
		fail(err)
	}
	api := client.New(&cfg.API, store)

	if cmd == "watch" {
		runWatch(api, cfg)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := dispatch(ctx, api, store, cmd, args); err != nil {
		fail(err)
	}
}

//nolint:gocyclo // Flat command dispatch, one case per subcommand.
func dispatch(ctx context.Context, api *client.Client, store *session.Store, cmd string, args []string) error {
	switch cmd {

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		u := fs.String("u", "", "username")
		e := fs.String("e", "", "email")
		p := fs.String("p", "", "password")
		name := fs.String("name", "", "full name")
		unit := fs.String("unit", "", "unit")
		_ = fs.Parse(args)

		user, err := api.Register(ctx, models.RegisterRequest{
			Username: *u, Email: *e, Password: *p, FullName: *name, Unit: *unit,
		})
		if err != nil {
			return err
		}
		fmt.Printf("registered %s (%s)\n", user.Username, user.ID)
		return nil

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(args)

		user, err := api.Login(ctx, models.LoginRequest{Username: *u, Password: *p})
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s\n", user.Username)
		return nil

	case "logout":
		if err := api.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil

	case "whoami":
		if !store.Authenticated() {
			return client.ErrNotLoggedIn
		}
		user, err := api.CurrentUser(ctx)
		if err != nil {
			return err
		}
		renderUser(os.Stdout, user)
		if exp, err := session.TokenExpiry(store.AccessToken()); err == nil {
			fmt.Printf("token expires: %s\n", exp.Local().Format(time.RFC1123))
		}
		return nil

	case "images":
		fs := flag.NewFlagSet("images", flag.ExitOnError)
		region := fs.String("region", "", "region filter")
		status := fs.String("status", "", "status filter")
		page := fs.Int("page", 0, "page number")
		limit := fs.Int("limit", 0, "page size")
		_ = fs.Parse(args)

		imgs, err := api.ListImages(ctx, models.ImageFilter{
			Region: *region, Status: *status, Page: *page, Limit: *limit,
		})
		if err != nil {
			return err
		}
		renderImages(os.Stdout, imgs)
		return nil

	case "image":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		img, err := api.GetImage(ctx, id)
		if err != nil {
			return err
		}
		renderImages(os.Stdout, &models.Collection[models.SatelliteImage]{
			Items: []models.SatelliteImage{*img}, Total: 1,
		})
		return nil

	case "upload":
		fs := flag.NewFlagSet("upload", flag.ExitOnError)
		file := fs.String("file", "", "image file path")
		region := fs.String("region", "", "capture region")
		_ = fs.Parse(args)
		if *file == "" {
			return errors.New("need -file")
		}

		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()

		img, err := api.UploadImage(ctx, filepath.Base(*file), f, *region)
		if err != nil {
			return err
		}
		fmt.Printf("uploaded %s (%s) status=%s\n", img.Filename, img.ID, img.Status)
		return nil

	case "rm":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		if err := api.DeleteImage(ctx, id); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", id)
		return nil

	case "analyze":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		analysis, err := api.AnalyzeImage(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("analysis %s queued for image %s\n", analysis.ID, analysis.ImageID)
		return nil

	case "analyses":
		fs := flag.NewFlagSet("analyses", flag.ExitOnError)
		image := fs.String("image", "", "image ID filter")
		status := fs.String("status", "", "status filter")
		page := fs.Int("page", 0, "page number")
		limit := fs.Int("limit", 0, "page size")
		_ = fs.Parse(args)

		runs, err := api.ListAnalyses(ctx, models.AnalysisFilter{
			ImageID: *image, Status: *status, Page: *page, Limit: *limit,
		})
		if err != nil {
			return err
		}
		renderAnalyses(os.Stdout, runs)
		return nil

	case "analysis":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		run, err := api.GetAnalysis(ctx, id)
		if err != nil {
			return err
		}
		renderAnalyses(os.Stdout, &models.Collection[models.Analysis]{
			Items: []models.Analysis{*run}, Total: 1,
		})
		return nil

	case "threats":
		fs := flag.NewFlagSet("threats", flag.ExitOnError)
		severity := fs.String("severity", "", "minimum severity filter")
		class := fs.String("class", "", "threat class filter")
		ack := fs.String("ack", "", "acknowledged filter (true|false)")
		page := fs.Int("page", 0, "page number")
		limit := fs.Int("limit", 0, "page size")
		_ = fs.Parse(args)

		filter := models.ThreatFilter{
			Severity: *severity, Class: *class, Page: *page, Limit: *limit,
		}
		if *ack != "" {
			v := *ack == "true"
			filter.Acknowledged = &v
		}
		threats, err := api.ListThreats(ctx, filter)
		if err != nil {
			return err
		}
		renderThreats(os.Stdout, threats)
		return nil

	case "threat":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		threat, err := api.GetThreat(ctx, id)
		if err != nil {
			return err
		}
		renderThreatDetail(os.Stdout, threat)
		return nil

	case "ack":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		threat, err := api.AcknowledgeThreat(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("acknowledged %s (%s %s)\n", threat.ID, threat.Severity, threat.Class)
		return nil

	case "verify":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		threat, err := api.VerifyThreat(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("verified %s (%s %s)\n", threat.ID, threat.Severity, threat.Class)
		return nil

	case "profile":
		user, err := api.Profile(ctx)
		if err != nil {
			return err
		}
		renderUser(os.Stdout, user)
		return nil

	case "set-profile":
		fs := flag.NewFlagSet("set-profile", flag.ExitOnError)
		name := fs.String("name", "", "full name")
		rank := fs.String("rank", "", "rank")
		unit := fs.String("unit", "", "unit")
		avatar := fs.String("avatar", "", "avatar URL")
		_ = fs.Parse(args)

		user, err := api.UpdateProfile(ctx, models.UpdateProfileRequest{
			FullName: *name, Rank: *rank, Unit: *unit, AvatarURL: *avatar,
		})
		if err != nil {
			return err
		}
		renderUser(os.Stdout, user)
		return nil

	case "settings":
		settings, err := api.Settings(ctx)
		if err != nil {
			return err
		}
		renderSettings(os.Stdout, settings)
		return nil

	case "set-settings":
		fs := flag.NewFlagSet("set-settings", flag.ExitOnError)
		email := fs.Bool("email", false, "email notifications")
		critical := fs.Bool("critical", true, "notify on critical threats")
		region := fs.String("region", "", "default region")
		mapStyle := fs.String("map", "", "map style")
		overlay := fs.String("overlay", "", "map overlay")
		threshold := fs.String("threshold", "", "severity threshold")
		_ = fs.Parse(args)

		// The endpoint replaces the whole settings document, so start from
		// the current server state and overlay only the flags that were
		// actually passed.
		current, err := api.Settings(ctx)
		if err != nil {
			return err
		}
		req := models.UpdateSettingsRequest{
			NotifyEmail:       current.NotifyEmail,
			NotifyCritical:    current.NotifyCritical,
			DefaultRegion:     current.DefaultRegion,
			MapStyle:          current.MapStyle,
			MapOverlay:        current.MapOverlay,
			SeverityThreshold: current.SeverityThreshold,
		}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "email":
				req.NotifyEmail = *email
			case "critical":
				req.NotifyCritical = *critical
			case "region":
				req.DefaultRegion = *region
			case "map":
				req.MapStyle = *mapStyle
			case "overlay":
				req.MapOverlay = *overlay
			case "threshold":
				req.SeverityThreshold = *threshold
			}
		})

		settings, err := api.UpdateSettings(ctx, req)
		if err != nil {
			return err
		}
		renderSettings(os.Stdout, settings)
		return nil

	case "stats":
		stats, err := api.DashboardStats(ctx)
		if err != nil {
			return err
		}
		renderStats(os.Stdout, stats)
		return nil

	default:
		usage()
		return nil
	}
}

// requireID parses the common single -id flag form.
func requireID(args []string) (string, error) {
	fs := flag.NewFlagSet("id", flag.ExitOnError)
	id := fs.String("id", "", "resource ID")
	_ = fs.Parse(args)
	if *id == "" {
		return "", errors.New("need -id")
	}
	return *id, nil
}

// runWatch runs supervised watch mode until interrupted.
func runWatch(api *client.Client, cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("watching for threats (ctrl-c to stop)")
	runner := watch.NewRunner(api, cfg, os.Stdout)
	if err := runner.Run(ctx); err != nil {
		fail(err)
	}
}
