package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
)

// ErrUnknownFormat is returned when a record does not start with a known header.
var ErrUnknownFormat = errors.New("unknown statistics format")

// recordHeader is the header of format version 1.
var recordHeader = []string{"event_type", "average_time"}

// EncodeRecord writes record as CSV, one row per event type in ascending order.
func EncodeRecord(w io.Writer, record domain.StatisticsRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return err
	}
	for _, eventType := range record.EventTypes() {
		row := []string{eventType, strconv.FormatFloat(record[eventType], 'f', -1, 64)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeRecord reads a record written by EncodeRecord. Rows with a zero
// average are dropped. An empty input decodes to an empty record.
func DecodeRecord(r io.Reader) (domain.StatisticsRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(recordHeader)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.StatisticsRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !slices.Equal(header, recordHeader) {
		return nil, fmt.Errorf("%w: header %v", ErrUnknownFormat, header)
	}

	record := domain.StatisticsRecord{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return record, nil
		}
		if err != nil {
			return nil, err
		}
		avg, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid average_time for %q: %w", row[0], err)
		}
		if avg != 0 {
			record[row[0]] = avg
		}
	}
}
