package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"

	"github.com/govalues/decimal"
)

// Settings is the small persisted key-value map backing company-level state:
// cached stock counters, company profile fields and the reporting currency.
type Settings map[string]string

const (
	MaxPairs     = 64
	MaxKeyLen    = 64
	MaxValLen    = 256
	MaxTotalJSON = 8192
)

// Well-known keys.
const (
	KeyCompanyName = "company_name"
	KeyCurrency    = "currency"
	// StockKeyPrefix prefixes the cached per-account stock counters,
	// e.g. current_stock_103.
	StockKeyPrefix = "current_stock_"
)

// StockKey returns the settings key caching the stock counter for an
// inventory account code.
func StockKey(accountCode string) string { return StockKeyPrefix + accountCode }

func New(m map[string]string) Settings {
	if m == nil {
		return Settings{}
	}
	out := make(Settings, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s Settings) Clone() Settings {
	if s == nil {
		return Settings{}
	}
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func (s Settings) Get(k string) (string, bool) { v, ok := s[k]; return v, ok }

// Decimal parses the value under k, treating a missing or malformed value as
// zero. Stock counters rely on this so a never-written counter reads as 0.
func (s Settings) Decimal(k string) decimal.Decimal {
	raw, ok := s[k]
	if !ok {
		return decimal.Decimal{}
	}
	d, err := decimal.Parse(raw)
	if err != nil {
		return decimal.Decimal{}
	}
	return d
}

func (s Settings) Set(k, v string) {
	if len(s) >= MaxPairs {
		if _, exists := s[k]; !exists {
			return
		}
	}
	if len(k) == 0 || len(k) > MaxKeyLen {
		return
	}
	if len(v) > MaxValLen {
		return
	}
	s[k] = v
}

func (s Settings) Del(k string) { delete(s, k) }

func (s Settings) Validate() error {
	if len(s) > MaxPairs {
		return errors.New("settings: too many pairs")
	}
	for k, v := range s {
		if len(k) == 0 || len(k) > MaxKeyLen {
			return errors.New("settings: key too long or empty")
		}
		if len(v) > MaxValLen {
			return errors.New("settings: value too long")
		}
	}
	b, err := s.MarshalStableJSON()
	if err != nil {
		return err
	}
	if len(b) > MaxTotalJSON {
		return errors.New("settings: exceeds max json size")
	}
	return nil
}

// MarshalStableJSON returns a deterministic JSON representation with keys sorted.
func (s Settings) MarshalStableJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("{}"), nil
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, k := range keys {
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(s[k])
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		if i < len(keys)-1 {
			buf.WriteByte(',')
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s Settings) MarshalJSON() ([]byte, error) { return s.MarshalStableJSON() }

func (s *Settings) UnmarshalJSON(b []byte) error {
	var tmp map[string]string
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = Settings{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*s = New(tmp)
	return nil
}
