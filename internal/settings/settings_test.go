package settings

import (
	"strings"
	"testing"
)

func TestSetRespectsLimits(t *testing.T) {
	s := New(nil)
	s.Set("", "x")
	if _, ok := s.Get(""); ok {
		t.Error("empty key must be rejected")
	}
	s.Set(strings.Repeat("k", MaxKeyLen+1), "x")
	if len(s) != 0 {
		t.Error("oversized key must be rejected")
	}
	s.Set("ok", strings.Repeat("v", MaxValLen+1))
	if _, ok := s.Get("ok"); ok {
		t.Error("oversized value must be rejected")
	}
	for i := 0; i < MaxPairs+10; i++ {
		s.Set("key_"+strings.Repeat("a", i%8)+string(rune('a'+i%26))+string(rune('0'+i%10)), "v")
	}
	if len(s) > MaxPairs {
		t.Errorf("pairs = %d, exceeds max %d", len(s), MaxPairs)
	}
}

func TestDecimalFallsBackToZero(t *testing.T) {
	s := New(map[string]string{
		StockKey("103"): "42.5",
		"bad":           "not-a-number",
	})
	if got := s.Decimal(StockKey("103")); got.String() != "42.5" {
		t.Errorf("decimal = %s", got)
	}
	if got := s.Decimal("bad"); !got.IsZero() {
		t.Errorf("malformed value must read zero, got %s", got)
	}
	if got := s.Decimal("missing"); !got.IsZero() {
		t.Errorf("missing key must read zero, got %s", got)
	}
}

func TestMarshalStableJSON_SortedKeys(t *testing.T) {
	s := New(map[string]string{"b": "2", "a": "1", "c": "3"})
	b, err := s.MarshalStableJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"a":"1","b":"2","c":"3"}` {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestUnmarshalJSON(t *testing.T) {
	var s Settings
	if err := s.UnmarshalJSON([]byte(`{"currency":"IDR"}`)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, _ := s.Get("currency"); v != "IDR" {
		t.Fatalf("currency = %q", v)
	}
	if err := s.UnmarshalJSON([]byte("null")); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if len(s) != 0 {
		t.Fatalf("null must reset, got %v", s)
	}
}

func TestStockKey(t *testing.T) {
	if got := StockKey("103"); got != "current_stock_103" {
		t.Fatalf("stock key = %s", got)
	}
}
