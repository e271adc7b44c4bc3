package render

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

// TableRenderer prints records as a terminal table.
type TableRenderer struct{}

func (TableRenderer) Render(w io.Writer, records []types.PriceRecord, opts RenderOptions) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if opts.Color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false

	cols := types.Header()
	hdr := make(table.Row, len(cols))
	for i, c := range cols {
		hdr[i] = strings.ToUpper(c)
	}
	tw.AppendHeader(hdr)

	maxWidth := opts.MaxColWidth
	if maxWidth <= 0 {
		maxWidth = 40
	}
	cfgs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		cfg := table.ColumnConfig{Number: i + 1, WidthMax: maxWidth}
		if c == types.ColLastPrice {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	tw.SetColumnConfigs(cfgs)

	missing := 0
	for _, r := range records {
		price := FormatPrice(r.LastPrice)
		if !r.LastPrice.Valid {
			missing++
			price = "n/a"
			if opts.Color {
				price = text.Colors{text.FgRed}.Sprint(price)
			}
		}
		tw.AppendRow(table.Row{r.Symbol, price, FormatAsAt(r), r.Source})
	}
	if missing > 0 {
		tw.AppendFooter(table.Row{"", "", "missing", missing})
	}

	tw.Render()
	return nil
}
