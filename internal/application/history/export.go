package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// utf8BOM leads the export so spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// exportHeader is the fixed column set, one row per entry, newest first.
var exportHeader = []string{"Timestamp", "Model", "Duration", "Prompt", "Response"}

// exportTimeLayout keeps the millisecond part of the entry key so an
// exported timestamp parses back to the exact UnixMilli value.
const exportTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ExportCSV serializes the full log to w. encoding/csv quotes any field
// containing a separator, quote, or newline with internal quotes doubled,
// so re-import is lossless for arbitrary prompt/response text.
func (s *Service) ExportCSV(w io.Writer) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, entry := range s.List() {
		row := []string{
			time.UnixMilli(entry.Timestamp).UTC().Format(exportTimeLayout),
			entry.ModelID,
			strconv.FormatFloat(entry.DurationSeconds, 'f', 3, 64),
			entry.Prompt,
			entry.Response,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export history: %w", err)
	}
	return nil
}
