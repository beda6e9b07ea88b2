package v1

import (
	"net/http"

	"github.com/govalues/decimal"
)

func (s *Server) listMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := s.journalSvc.Movements(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]movementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, movementResponse{
			ID:          m.ID,
			Date:        m.Date,
			Description: m.Description,
			AccountCode: m.AccountCode,
			QuantityIn:  m.QuantityIn.String(),
			QuantityOut: m.QuantityOut.String(),
			UnitCost:    m.UnitCost.String(),
			Value:       m.Value.String(),
		})
	}
	toJSON(w, http.StatusOK, out)
}

// currentStock serves the cached counters; recomputedStock rebuilds from the
// movement log and is the reference figure when drift is suspected.
func (s *Server) currentStock(w http.ResponseWriter, r *http.Request) {
	stock, err := s.journalSvc.CurrentStock(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toStockResponse(stock))
}

func (s *Server) recomputedStock(w http.ResponseWriter, r *http.Request) {
	stock, err := s.journalSvc.RecomputedStock(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toStockResponse(stock))
}

func toStockResponse(stock map[string]decimal.Decimal) stockResponse {
	out := stockResponse{Stock: make(map[string]string, len(stock))}
	for code, qty := range stock {
		out.Stock[code] = qty.String()
	}
	return out
}
