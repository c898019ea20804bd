package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"airbnb-eda/config"
	"airbnb-eda/utils"
)

const usage = `usage: airbnb-eda <command> [flags]

commands:
  clean      clean listings, calendar and reviews, write CSVs (and PostgreSQL)
  occupancy  per-listing occupancy rates
  plot       render one chart (-kind scatter|box|bar|reviews|occupancy|price)
  report     clean, export XLSX, render all charts, print insights
  watch      re-run report whenever an input file changes
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logger)

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "clean":
		err = a.runClean(ctx, args)
	case "occupancy":
		err = a.runOccupancy(args)
	case "plot":
		err = a.runPlot(args)
	case "report":
		err = a.runReport(ctx, args)
	case "watch":
		err = a.runWatch(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("%s failed: %v", os.Args[1], err)
		stop()
		os.Exit(1)
	}
}
