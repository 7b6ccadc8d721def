package record

import (
	"encoding/csv"
	"os"

	"property-scraper/internal/entity"
	"property-scraper/pkg/apperr"
)

// Writer appends output rows to a CSV file. The file is opened on the first
// Append, so a run that fails before producing a row leaves no file behind.
// Every row is flushed before Append returns.
type Writer struct {
	path string
	file *os.File
	csv  *csv.Writer
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Append(rec entity.OutputRecord) error {
	const op = "Append"

	if w.file == nil {
		if err := w.open(); err != nil {
			return err
		}
	}

	if err := w.csv.Write(rec.Values()); err != nil {
		return apperr.Wrap(op, apperr.CodeOutputFailed, err, map[string]any{
			apperr.MetaReason: "write_row_failed",
			apperr.MetaPath:   w.path,
		})
	}

	w.csv.Flush()

	if err := w.csv.Error(); err != nil {
		return apperr.Wrap(op, apperr.CodeOutputFailed, err, map[string]any{
			apperr.MetaReason: "flush_failed",
			apperr.MetaPath:   w.path,
		})
	}

	return nil
}

func (w *Writer) open() error {
	const op = "open"

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeOutputFailed, err, map[string]any{
			apperr.MetaReason: "open_failed",
			apperr.MetaStage:  apperr.StageOutput,
			apperr.MetaPath:   w.path,
		})
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return apperr.Wrap(op, apperr.CodeOutputFailed, err, map[string]any{
			apperr.MetaReason: "stat_failed",
			apperr.MetaPath:   w.path,
		})
	}

	cw := csv.NewWriter(f)

	if info.Size() == 0 {
		if err := cw.Write(Columns()); err != nil {
			_ = f.Close()

			return apperr.Wrap(op, apperr.CodeOutputFailed, err, map[string]any{
				apperr.MetaReason: "write_header_failed",
				apperr.MetaPath:   w.path,
			})
		}
	}

	w.file = f
	w.csv = cw

	return nil
}

func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}

	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()
	w.file = nil

	if flushErr != nil {
		return flushErr
	}

	return closeErr
}
