package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-gota/gota/dataframe"

	"airbnb-eda/charts"
	"airbnb-eda/config"
	"airbnb-eda/models"
	"airbnb-eda/services"
	"airbnb-eda/storage"
	"airbnb-eda/utils"
	"airbnb-eda/watcher"
)

type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	cleaner  *services.Cleaner
	insights *services.InsightService
	out      io.Writer

	// openStore connects the listing store used when PostgreSQL is enabled.
	openStore func(ctx context.Context) (storage.ListingWriter, error)
}

func newApp(cfg *config.Config, logger *utils.Logger) *app {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		cleaner:  services.NewCleaner(logger, cfg.DropColumns),
		insights: services.NewInsightService(logger),
		out:      os.Stdout,
	}
	a.openStore = a.openPostgres
	return a
}

// dataset is one cleaned snapshot of the input files. Calendar and reviews
// are optional; listings are not.
type dataset struct {
	listings  dataframe.DataFrame
	calendar  dataframe.DataFrame
	reviews   dataframe.DataFrame
	occupancy []models.Occupancy

	hasCalendar bool
	hasReviews  bool
}

// load reads and cleans the configured inputs concurrently. When a calendar
// is present its occupancy rates are merged into the listings frame.
func (a *app) load() (*dataset, error) {
	ds := &dataset{}
	ds.hasCalendar = exists(a.cfg.CalendarCSV)
	ds.hasReviews = exists(a.cfg.ReviewsCSV)

	pool := utils.NewWorkerPool(a.cfg.MaxConcurrency)
	pool.Submit(func() error {
		df, err := a.loadClean(a.cfg.ListingsCSV, a.cleaner.CleanListings)
		ds.listings = df
		return err
	})
	if ds.hasCalendar {
		pool.Submit(func() error {
			df, err := a.loadClean(a.cfg.CalendarCSV, a.cleaner.CleanCalendar)
			ds.calendar = df
			return err
		})
	} else {
		a.logger.Warn("[load] No calendar at %s, occupancy is skipped", a.cfg.CalendarCSV)
	}
	if ds.hasReviews {
		pool.Submit(func() error {
			df, err := a.loadClean(a.cfg.ReviewsCSV, a.cleaner.CleanReviews)
			ds.reviews = df
			return err
		})
	} else {
		a.logger.Warn("[load] No reviews at %s, review counts are skipped", a.cfg.ReviewsCSV)
	}
	if errs := pool.Wait(); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if ds.hasCalendar {
		occ, err := services.Occupancy(ds.calendar)
		if err != nil {
			return nil, err
		}
		ds.occupancy = occ
		merged, err := services.MergeOccupancy(ds.listings, occ)
		if err != nil {
			return nil, err
		}
		ds.listings = merged
	}
	return ds, nil
}

func (a *app) loadClean(path string, clean func(dataframe.DataFrame) (dataframe.DataFrame, error)) (dataframe.DataFrame, error) {
	start := time.Now()
	raw, err := storage.LoadCSV(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	df, err := clean(raw)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Info("[load] %s: %d rows, %d columns (%s)", path, df.Nrow(), df.Ncol(), time.Since(start).Round(time.Millisecond))
	return df, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// table is one named frame bound for an output backend. A table whose
// build fails is skipped.
type table struct {
	name  string
	build func() (dataframe.DataFrame, error)
}

func frameTable(name string, df dataframe.DataFrame) table {
	return table{name: name, build: func() (dataframe.DataFrame, error) { return df, nil }}
}

// writeTables sends every table to w, then closes it.
func (a *app) writeTables(w storage.FrameWriter, tables []table) error {
	for _, t := range tables {
		df, err := t.build()
		if err != nil {
			a.logger.Warn("[output] Skipping %q: %v", t.name, err)
			continue
		}
		if err := w.WriteFrame(t.name, df); err != nil {
			_ = w.Close()
			return err
		}
		a.logger.Debug("[output] Wrote %q (%d rows)", t.name, df.Nrow())
	}
	return w.Close()
}

func (a *app) writeCleanCSVs(ds *dataset) error {
	w, err := storage.NewCSVWriter(a.cfg.OutputDir)
	if err != nil {
		return err
	}

	tables := []table{frameTable("listings_clean", ds.listings)}
	if ds.hasCalendar {
		tables = append(tables,
			frameTable("calendar_clean", ds.calendar),
			frameTable("occupancy", services.OccupancyFrame(ds.occupancy)),
		)
	}
	if ds.hasReviews {
		tables = append(tables, frameTable("reviews_clean", ds.reviews))
	}
	if err := a.writeTables(w, tables); err != nil {
		return err
	}
	a.logger.Info("[csv] Wrote %d files to %s", len(tables), a.cfg.OutputDir)
	return nil
}

func (a *app) openPostgres(ctx context.Context) (storage.ListingWriter, error) {
	retry := &utils.RetryConfig{MaxAttempts: a.cfg.MaxRetries, BaseDelay: time.Second, Logger: a.logger}
	pg, err := storage.NewPostgresWriter(ctx, a.cfg.DSN(), retry)
	if err != nil {
		return nil, err
	}
	return pg, nil
}

// persist stores the cleaned listings and occupancy and reads the listings
// back. It returns nil summaries when PostgreSQL is disabled.
func (a *app) persist(ctx context.Context, summaries []*models.ListingSummary, occ []models.Occupancy) ([]*models.ListingSummary, error) {
	if !a.cfg.PostgresEnabled {
		return nil, nil
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if err := store.Write(summaries, occ); err != nil {
		return nil, err
	}
	a.logger.Info("[postgres] Stored %d listings and %d occupancy rows", len(summaries), len(occ))
	return store.FetchAll()
}

func (a *app) runClean(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ds, err := a.load()
	if err != nil {
		return err
	}
	if err := a.writeCleanCSVs(ds); err != nil {
		return err
	}

	summaries, err := services.Summaries(ds.listings)
	if err != nil {
		return err
	}
	_, err = a.persist(ctx, summaries, ds.occupancy)
	return err
}

func (a *app) runOccupancy(args []string) error {
	fs := flag.NewFlagSet("occupancy", flag.ContinueOnError)
	top := fs.Int("top", 10, "number of busiest listings to log")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !exists(a.cfg.CalendarCSV) {
		return fmt.Errorf("occupancy: calendar %s not found", a.cfg.CalendarCSV)
	}
	cal, err := a.loadClean(a.cfg.CalendarCSV, a.cleaner.CleanCalendar)
	if err != nil {
		return err
	}
	occ, err := services.Occupancy(cal)
	if err != nil {
		return err
	}

	w, err := storage.NewCSVWriter(a.cfg.OutputDir)
	if err != nil {
		return err
	}
	if err := w.WriteFrame("occupancy", services.OccupancyFrame(occ)); err != nil {
		return err
	}
	a.logger.Info("[occupancy] %d listings written to %s", len(occ), w.Path("occupancy"))

	busiest, err := services.GroupMean(services.OccupancyFrame(occ), models.ColOccupancyRate, models.ColListingID)
	if err != nil {
		return err
	}
	for i, s := range busiest {
		if i == *top {
			break
		}
		a.logger.Info("[occupancy] %2d. listing %s: %.0f%%", i+1, s.Group, s.Mean*100)
	}
	return nil
}

// figure builds one chart from the dataset.
func (a *app) figure(ds *dataset, kind, kpi, col, period string) (charts.Figure, error) {
	switch kind {
	case "scatter":
		return charts.Scatter(ds.listings, kpi, col)
	case "box":
		return charts.BoxPlot(ds.listings, kpi, col)
	case "bar":
		stats, err := services.GroupMean(ds.listings, kpi, col)
		if err != nil {
			return nil, err
		}
		return charts.MeanBar(stats, kpi, col)
	case "reviews":
		if !ds.hasReviews {
			return nil, fmt.Errorf("reviews chart: no reviews loaded")
		}
		points, err := services.ReviewCounts(ds.reviews, period)
		if err != nil {
			return nil, err
		}
		return charts.TimeSeries(points, "reviews per "+period, "reviews")
	case "occupancy":
		if !ds.hasCalendar {
			return nil, fmt.Errorf("occupancy chart: no calendar loaded")
		}
		points, err := services.DailyOccupancy(ds.calendar)
		if err != nil {
			return nil, err
		}
		return charts.TimeSeries(points, "daily occupancy", models.ColOccupancyRate)
	case "price":
		if !ds.hasCalendar {
			return nil, fmt.Errorf("price chart: no calendar loaded")
		}
		points, err := services.AveragePriceByDate(ds.calendar)
		if err != nil {
			return nil, err
		}
		return charts.TimeSeries(points, "average nightly price", models.ColPrice)
	default:
		return nil, fmt.Errorf("unknown chart kind %q", kind)
	}
}

func chartName(kind, kpi, col, period string) string {
	switch kind {
	case "scatter", "box", "bar":
		return fmt.Sprintf("%s_%s_by_%s", kind, kpi, col)
	case "reviews":
		return "reviews_per_" + period
	default:
		return kind + "_by_date"
	}
}

func (a *app) runPlot(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	kind := fs.String("kind", "scatter", "scatter, box, bar, reviews, occupancy or price")
	kpi := fs.String("kpi", models.ColPrice, "column plotted on the y-axis")
	col := fs.String("column", "accommodates", "column plotted on the x-axis or grouped by")
	period := fs.String("period", services.PeriodMonth, "review bucket: day or month")
	name := fs.String("name", "", "output file name (without .png)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ds, err := a.load()
	if err != nil {
		return err
	}
	fig, err := a.figure(ds, *kind, *kpi, *col, *period)
	if err != nil {
		return err
	}

	if *name == "" {
		*name = chartName(*kind, *kpi, *col, *period)
	}
	path, err := storage.SavePNG(a.cfg.ChartOutputDir, *name, fig)
	if err != nil {
		return err
	}
	a.logger.Info("[plot] Saved %s", path)
	return nil
}

type reportOptions struct {
	kpi     string
	column  string
	scatter string
}

func (o *reportOptions) bind(fs *flag.FlagSet) {
	fs.StringVar(&o.kpi, "kpi", models.ColPrice, "numeric column to analyse")
	fs.StringVar(&o.column, "column", models.ColRoomType, "category column to group by")
	fs.StringVar(&o.scatter, "scatter", "accommodates", "numeric column for the scatter chart x-axis")
}

func (a *app) runReport(ctx context.Context, args []string) error {
	var opts reportOptions
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	opts.bind(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.report(ctx, opts)
}

// report runs the whole pipeline: clean CSVs, the XLSX workbook, every chart
// concurrently, optional PostgreSQL, then the printed insights.
func (a *app) report(ctx context.Context, opts reportOptions) error {
	start := time.Now()
	a.logger.Info("=== Report starting ===")

	ds, err := a.load()
	if err != nil {
		return err
	}
	if err := a.writeCleanCSVs(ds); err != nil {
		return err
	}
	if err := a.writeWorkbook(ds, opts); err != nil {
		return err
	}
	a.renderCharts(ds, opts)

	summaries, err := services.Summaries(ds.listings)
	if err != nil {
		return err
	}
	stored, err := a.persist(ctx, summaries, ds.occupancy)
	switch {
	case err != nil:
		a.logger.Error("[postgres] %v", err)
	case stored != nil:
		summaries = stored
	}

	a.insights.Print(a.out, a.insights.Generate(summaries, ds.occupancy))
	a.logger.Info("=== Report done in %s ===", time.Since(start).Round(time.Millisecond))
	return nil
}

func (a *app) writeWorkbook(ds *dataset, opts reportOptions) error {
	xw, err := storage.NewXLSXWriter(a.cfg.XLSXOutputPath)
	if err != nil {
		return err
	}

	sheets := []table{
		frameTable("listings", ds.listings),
		{"mean " + opts.kpi + " by " + opts.column, func() (dataframe.DataFrame, error) {
			stats, err := services.GroupMean(ds.listings, opts.kpi, opts.column)
			return services.GroupFrame(stats, opts.column), err
		}},
		{"count by " + opts.column, func() (dataframe.DataFrame, error) {
			stats, err := services.GroupCount(ds.listings, opts.column)
			return services.GroupFrame(stats, opts.column), err
		}},
	}
	if ds.hasCalendar {
		sheets = append(sheets,
			frameTable("occupancy", services.OccupancyFrame(ds.occupancy)),
			table{"daily occupancy", func() (dataframe.DataFrame, error) {
				points, err := services.DailyOccupancy(ds.calendar)
				return services.PointsFrame(points, models.ColOccupancyRate), err
			}},
		)
	}
	if ds.hasReviews {
		sheets = append(sheets, table{"reviews per month", func() (dataframe.DataFrame, error) {
			points, err := services.ReviewCounts(ds.reviews, services.PeriodMonth)
			return services.PointsFrame(points, "reviews"), err
		}})
	}

	if err := a.writeTables(xw, sheets); err != nil {
		return err
	}
	a.logger.Info("[xlsx] Wrote %s", a.cfg.XLSXOutputPath)
	return nil
}

// renderCharts draws every report chart on the worker pool. Charts the data
// cannot support are logged and skipped.
func (a *app) renderCharts(ds *dataset, opts reportOptions) {
	type job struct{ kind, kpi, col string }
	jobs := []job{
		{"scatter", opts.kpi, opts.scatter},
		{"box", opts.kpi, opts.column},
		{"bar", opts.kpi, opts.column},
	}
	if ds.hasCalendar {
		jobs = append(jobs, job{kind: "occupancy"}, job{kind: "price"})
	}
	if ds.hasReviews {
		jobs = append(jobs, job{kind: "reviews"})
	}

	pool := utils.NewWorkerPool(a.cfg.MaxConcurrency)
	for _, j := range jobs {
		pool.Submit(func() error {
			fig, err := a.figure(ds, j.kind, j.kpi, j.col, services.PeriodMonth)
			if err != nil {
				return err
			}
			path, err := storage.SavePNG(a.cfg.ChartOutputDir, chartName(j.kind, j.kpi, j.col, services.PeriodMonth), fig)
			if err != nil {
				return err
			}
			a.logger.Info("[charts] Saved %s", path)
			return nil
		})
	}
	for _, err := range pool.Wait() {
		if errors.Is(err, charts.ErrNotEnoughData) || errors.Is(err, charts.ErrMissingColumn) || errors.Is(err, services.ErrMissingColumn) {
			a.logger.Warn("[charts] Skipped: %v", err)
			continue
		}
		a.logger.Error("[charts] %v", err)
	}
}

func (a *app) runWatch(ctx context.Context, args []string) error {
	var opts reportOptions
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	opts.bind(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.report(ctx, opts); err != nil {
		a.logger.Error("[watch] %v", err)
	}

	w, err := watcher.New(a.cfg.InputFiles(), time.Duration(a.cfg.WatchDebounceMs)*time.Millisecond, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("[watch] Waiting for changes, Ctrl+C to stop")
	return w.Run(ctx, func(changed []string) {
		if err := a.report(ctx, opts); err != nil {
			a.logger.Error("[watch] %v", err)
		}
	})
}
