package watcher

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/legacybridge/client"
)

// Subdirectories a handled file is moved into.
const (
	processedDir = "processed"
	errorDir     = "error"
)

// expectedHeader is the column layout legacy exports must follow.
var expectedHeader = []string{"customer_id", "item_name", "price", "quantity"}

// OrderSubmitter posts one order to the orders service.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, order client.OrderRequest) error
}

// Watcher polls a dropzone directory for legacy CSV order exports and
// submits each row as an order. Handled files move to processed/ on
// success or error/ on failure, so a file is never picked up twice.
type Watcher struct {
	dir       string
	interval  time.Duration
	submitter OrderSubmitter
	logger    *slog.Logger
}

// New creates a dropzone watcher.
func New(dir string, interval time.Duration, submitter OrderSubmitter, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:       dir,
		interval:  interval,
		submitter: submitter,
		logger:    logger,
	}
}

// Run polls the dropzone until the context is canceled. The dropzone and
// its subdirectories are created on first use.
func (w *Watcher) Run(ctx context.Context) error {
	for _, dir := range []string{w.dir, filepath.Join(w.dir, processedDir), filepath.Join(w.dir, errorDir)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create dropzone directory %s: %w", dir, err)
		}
	}

	w.logger.Info("watching dropzone",
		slog.String("dir", w.dir),
		slog.Duration("interval", w.interval),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

// scan processes every CSV currently in the dropzone.
func (w *Watcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to read dropzone", slog.String("error", err.Error()))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		w.processFile(ctx, entry.Name())
	}
}

// processFile submits every row of one file and moves it out of the
// dropzone. A single bad row fails the whole file: rows already submitted
// stay submitted, and the file lands in error/ for manual review.
func (w *Watcher) processFile(ctx context.Context, name string) {
	path := filepath.Join(w.dir, name)
	submitted, err := w.submitRows(ctx, path)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to process legacy file",
			slog.String("file", name),
			slog.Int("rows_submitted", submitted),
			slog.String("error", err.Error()),
		)
		w.move(ctx, name, errorDir)
		return
	}

	w.logger.InfoContext(ctx, "processed legacy file",
		slog.String("file", name),
		slog.Int("rows_submitted", submitted),
	)
	w.move(ctx, name, processedDir)
}

func (w *Watcher) submitRows(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path) // #nosec G304 -- path is confined to the dropzone
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return 0, err
	}

	submitted := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return submitted, nil
		}
		if err != nil {
			return submitted, fmt.Errorf("line %d: %w", line, err)
		}

		order, err := parseRow(record)
		if err != nil {
			return submitted, fmt.Errorf("line %d: %w", line, err)
		}

		if err := w.submitter.SubmitOrder(ctx, order); err != nil {
			return submitted, fmt.Errorf("line %d: %w", line, err)
		}
		submitted++
	}
}

func validateHeader(header []string) error {
	if len(header) != len(expectedHeader) {
		return fmt.Errorf("expected %d columns, got %d", len(expectedHeader), len(header))
	}
	for i, want := range expectedHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return fmt.Errorf("expected column %q at position %d, got %q", want, i+1, header[i])
		}
	}
	return nil
}

// parseRow maps one legacy record to an order with a single line item.
func parseRow(record []string) (client.OrderRequest, error) {
	if len(record) != len(expectedHeader) {
		return client.OrderRequest{}, fmt.Errorf("expected %d fields, got %d", len(expectedHeader), len(record))
	}

	customerID := strings.TrimSpace(record[0])
	itemName := strings.TrimSpace(record[1])
	if customerID == "" || itemName == "" {
		return client.OrderRequest{}, fmt.Errorf("customer_id and item_name must not be empty")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil || price < 0 {
		return client.OrderRequest{}, fmt.Errorf("invalid price %q", record[2])
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil || quantity < 1 {
		return client.OrderRequest{}, fmt.Errorf("invalid quantity %q", record[3])
	}

	return client.OrderRequest{
		CustomerID: customerID,
		Items: []client.OrderItem{{
			Name:     itemName,
			Price:    price,
			Quantity: quantity,
		}},
		TotalAmount: price * float64(quantity),
	}, nil
}

func (w *Watcher) move(ctx context.Context, name, subdir string) {
	src := filepath.Join(w.dir, name)
	dst := filepath.Join(w.dir, subdir, name)
	if err := os.Rename(src, dst); err != nil {
		w.logger.ErrorContext(ctx, "failed to move handled file",
			slog.String("file", name),
			slog.String("dest", subdir),
			slog.String("error", err.Error()),
		)
	}
}
