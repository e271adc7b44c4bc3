package render

import (
	"encoding/csv"
	"io"

	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

// CSVRenderer writes the spreadsheet contract: a fixed header followed by
// one row per record, blank last_price when the symbol was not found.
type CSVRenderer struct{}

func (CSVRenderer) Render(w io.Writer, records []types.PriceRecord, _ RenderOptions) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.Header()); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Symbol, FormatPrice(r.LastPrice), FormatAsAt(r), r.Source}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
