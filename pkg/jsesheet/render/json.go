package render

import (
	"encoding/json"
	"io"

	"github.com/komsit37/jsesheet/pkg/jsesheet/types"
)

// jsonRecord is the output shape for JSONRenderer. A missing price is null.
type jsonRecord struct {
	Symbol    string  `json:"symbol"`
	LastPrice *string `json:"last_price"`
	AsAt      string  `json:"as_at"`
	Source    string  `json:"source"`
}

type JSONRenderer struct{}

func (JSONRenderer) Render(w io.Writer, records []types.PriceRecord, opts RenderOptions) error {
	out := make([]jsonRecord, 0, len(records))
	for _, r := range records {
		jr := jsonRecord{Symbol: r.Symbol, AsAt: FormatAsAt(r), Source: r.Source}
		if r.LastPrice.Valid {
			p := FormatPrice(r.LastPrice)
			jr.LastPrice = &p
		}
		out = append(out, jr)
	}
	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
