package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"almanac/internal/bars"
	"almanac/internal/config"
	apperrors "almanac/internal/errors"
)

// cancelCheckEvery is how many rows are read between context checks
const cancelCheckEvery = 10000

// Series is a loaded bar file
type Series struct {
	Path       string
	Resolution Resolution
	// Bars are chronological and each satisfies bars.Bar.Validate
	Bars []bars.Bar
	// Skipped counts rows dropped for violating a bar invariant
	Skipped int
}

// Daily returns the series as daily bars, resampling minute data
func (s *Series) Daily() []bars.DailyBar {
	if s.Resolution == Daily {
		return bars.AsDaily(s.Bars)
	}
	return bars.ResampleDaily(s.Bars)
}

// Reader loads bar files
type Reader struct {
	location *time.Location
	sheet    string
	logger   *slog.Logger
}

// Option configures a Reader
type Option func(*Reader)

// WithLocation sets the timezone timestamps are read in (default UTC)
func WithLocation(loc *time.Location) Option {
	return func(r *Reader) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithSheet selects the worksheet of XLSX files (default the first)
func WithSheet(sheet string) Option {
	return func(r *Reader) { r.sheet = sheet }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReader creates a Reader
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		location: time.UTC,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "loader"))
	return r
}

// Load reads path and keeps the bars dated within [from, to]; zero bounds
// are open. The format follows the extension: .csv and .txt are text, .xlsx
// is a workbook.
func (r *Reader) Load(ctx context.Context, path string, from, to bars.Date) (*Series, error) {
	start := time.Now()

	var (
		raw []bars.Bar
		res Resolution
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case config.ExtCSV, config.ExtTXT:
		raw, res, err = r.loadText(ctx, path)
	case config.ExtXLSX:
		raw, res, err = r.loadWorkbook(ctx, path)
	default:
		return nil, apperrors.NewFieldError("path", "unsupported file extension "+ext, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	series := &Series{Path: path, Resolution: res}
	valid := make([]bars.Bar, 0, len(raw))
	for _, b := range raw {
		if b.IsValid() {
			valid = append(valid, b)
		} else {
			series.Skipped++
		}
	}
	series.Bars = bars.InRange(bars.SortChronological(valid), from, to)

	if len(series.Bars) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("bars between %s and %s in %s", boundString(from), boundString(to), path))
	}
	if series.Skipped > 0 {
		r.logger.WarnContext(ctx, "Dropped invalid bars",
			slog.String("path", path),
			slog.Int("skipped", series.Skipped))
	}

	r.logger.InfoContext(ctx, "Loaded bars",
		slog.String("path", path),
		slog.String("resolution", string(res)),
		slog.Int("rows", len(raw)),
		slog.Int("bars", len(series.Bars)),
		slog.String("first", series.Bars[0].Time.Format(time.RFC3339)),
		slog.String("last", series.Bars[len(series.Bars)-1].Time.Format(time.RFC3339)),
		slog.Duration("duration", time.Since(start)))
	return series, nil
}

// Read parses comma separated bars from src
func (r *Reader) Read(ctx context.Context, src io.Reader) ([]bars.Bar, Resolution, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	p := &rowParser{loc: r.location}
	var out []bars.Bar
	for line := 1; ; line++ {
		if line%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, "", err
			}
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", parseError(line, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		b, header, err := p.parse(record, line)
		if err != nil {
			return nil, "", err
		}
		if !header {
			out = append(out, b)
		}
	}
	return out, resolutionOf(p), nil
}

func (r *Reader) loadText(ctx context.Context, path string) ([]bars.Bar, Resolution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", apperrors.NewStorageError("failed to open bar file", err).WithContext("path", path)
	}
	defer f.Close()
	return r.Read(ctx, f)
}

func (r *Reader) loadWorkbook(ctx context.Context, path string) ([]bars.Bar, Resolution, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", apperrors.NewStorageError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, "", apperrors.NewNotFoundError("worksheet in " + path)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, "", apperrors.NewNotFoundError(fmt.Sprintf("worksheet %q in %s", sheet, path))
	}
	defer rows.Close()

	p := &rowParser{loc: r.location}
	var out []bars.Bar
	for line := 1; rows.Next(); line++ {
		if line%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, "", err
			}
		}
		cells, err := rows.Columns()
		if err != nil {
			return nil, "", parseError(line, err)
		}
		if blank(cells) {
			continue
		}
		b, header, err := p.parse(cells, line)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				appErr.WithContext("sheet", sheet)
			}
			return nil, "", err
		}
		if !header {
			out = append(out, b)
		}
	}
	if err := rows.Error(); err != nil {
		return nil, "", apperrors.NewStorageError("failed to read worksheet", err)
	}
	r.logger.DebugContext(ctx, "Read worksheet", slog.String("sheet", sheet), slog.Int("bars", len(out)))
	return out, resolutionOf(p), nil
}

func resolutionOf(p *rowParser) Resolution {
	if p.cols == nil {
		return Minute
	}
	return p.cols.resolution()
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func boundString(d bars.Date) string {
	if d.IsZero() {
		return "*"
	}
	return d.String()
}
