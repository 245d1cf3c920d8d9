package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"no-time-buddy/internal/board"
	"no-time-buddy/internal/bot"
	"no-time-buddy/internal/config"
	"no-time-buddy/internal/model"
	"no-time-buddy/internal/repository"
	"no-time-buddy/internal/service"
)

const usage = `usage: missions [-config file] <command>

commands:
  add -title T -deadline YYYY-MM-DD   save a mission
  list                                active missions, earliest deadline first
  cancel <id>                         cancel a mission
  digest                              overdue, due soon and later missions
  bot                                 run the Telegram bot and the digest schedule
`

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "missions.yaml", "configuration file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := mustMakeLogger(cfg.LogLevel)

	if err := run(cfg, log, flag.Args()); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger, args []string) error {
	db, err := repository.NewDB(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer func() {
		if err := repository.Close(db); err != nil {
			log.Error("failed to close db", "error", err)
		}
	}()

	missionSvc := service.NewMissionService(repository.NewMissionRepository(db))
	digestSvc := service.NewDigestService(missionSvc)
	missions := board.New(missionSvc, cfg.ActorID, log)

	ctx := context.Background()
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		title := fs.String("title", "", "mission title")
		deadline := fs.String("deadline", "", "deadline, YYYY-MM-DD")
		_ = fs.Parse(rest)

		var due *time.Time
		if *deadline != "" {
			d, err := time.ParseInLocation(time.DateOnly, *deadline, time.Local)
			if err != nil {
				return fmt.Errorf("deadline %q: expected YYYY-MM-DD", *deadline)
			}
			due = &d
		}
		return printView(os.Stdout, missions.Save(ctx, *title, due))
	case "list":
		return printView(os.Stdout, missions.Refresh(ctx))
	case "cancel":
		if len(rest) != 1 {
			return errors.New("cancel takes exactly one mission id")
		}
		id, err := strconv.ParseUint(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("mission id %q: %w", rest[0], err)
		}
		return printView(os.Stdout, missions.Cancel(ctx, uint(id)))
	case "digest":
		now := missionSvc.Now()
		digest, err := digestSvc.Build(ctx, now)
		if err != nil {
			return fmt.Errorf("digest: %w", err)
		}
		printDigest(os.Stdout, digest, now)
		return nil
	case "bot":
		return runBot(cfg, log, missions, digestSvc)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runBot(cfg config.Config, log *slog.Logger, missions *board.Board, digest *service.DigestService) error {
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telegramBot, err := bot.New(cfg.Telegram, missions, digest, log)
	if err != nil {
		return err
	}

	sendDigest := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.SendDigest(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("digest", "error", err)
		}
	}

	scheduler := service.NewSchedulerService(time.Local, log.With("logger", "scheduler"))
	if cfg.Report.Interval > 0 {
		_, err = scheduler.ScheduleInterval(cfg.Report.Interval, sendDigest)
	} else {
		_, err = scheduler.ScheduleDaily(cfg.Report.Time, sendDigest)
	}
	if err != nil {
		return fmt.Errorf("schedule digest: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Info("mission bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}
	log.Info("shutdown complete")

	return nil
}

// printView writes the notice and the list. A failed notice becomes the
// command error so the exit status is 1.
func printView(w io.Writer, view board.View) error {
	if view.Notice != nil {
		fmt.Fprintf(w, "[%s] %s\n", view.Notice.Title, view.Notice.Message)
	}

	if view.Loaded {
		if len(view.Missions) == 0 {
			fmt.Fprintln(w, "No active missions.")
		} else {
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tDEADLINE\tLEFT")
			for _, m := range view.Missions {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.ID, m.Title, m.Deadline.Format(time.DateOnly), m.Remaining)
			}
			tw.Flush()
		}
	}

	if view.Notice.Failed() {
		return errors.New(view.Notice.Message)
	}
	return nil
}

func printDigest(w io.Writer, d service.Digest, now time.Time) {
	fmt.Fprintf(w, "Mission digest for %s\n", d.Date.Format(time.DateOnly))
	if d.Empty() {
		fmt.Fprintln(w, "Nothing planned.")
		return
	}

	section := func(title string, missions []model.Mission) {
		if len(missions) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s:\n", title)
		for _, m := range missions {
			fmt.Fprintf(w, "  #%d %s (%s)\n", m.ID, m.Title, service.FormatDaysLeft(service.DaysLeft(m.Deadline, now)))
		}
	}

	section("Overdue", d.Overdue)
	section("Due soon", d.DueSoon)
	section("Later", d.Upcoming)
}

func mustMakeLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
