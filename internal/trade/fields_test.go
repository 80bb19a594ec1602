package trade

import (
	"testing"
)

func TestParseFields(t *testing.T) {
	rng := NewRng("fields")

	t.Run("constants keep their type", func(t *testing.T) {
		fields, err := ParseFields(rng, map[string]string{
			"flag":  "true",
			"lots":  "42",
			"ratio": "0.25",
			"desk":  "emea",
		})
		if err != nil {
			t.Fatal(err)
		}
		if v := fields["flag"](); v != true {
			t.Errorf("flag = %#v", v)
		}
		if v := fields["lots"](); v != int64(42) {
			t.Errorf("lots = %#v", v)
		}
		if v := fields["ratio"](); v != 0.25 {
			t.Errorf("ratio = %#v", v)
		}
		if v := fields["desk"](); v != "emea" {
			t.Errorf("desk = %#v", v)
		}
	})

	t.Run("int range stays in bounds", func(t *testing.T) {
		fields, err := ParseFields(rng, map[string]string{"venue": "/ir3,7"})
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 1000; i++ {
			v := fields["venue"]().(int64)
			if v < 3 || v >= 7 {
				t.Fatalf("venue %d out of [3, 7)", v)
			}
		}
	})

	t.Run("single parameter is the upper bound", func(t *testing.T) {
		fields, err := ParseFields(rng, map[string]string{"lat": "/f2"})
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 1000; i++ {
			v := fields["lat"]().(float64)
			if v < 0 || v >= 2 {
				t.Fatalf("lat %v out of [0, 2)", v)
			}
		}
	})

	t.Run("strings", func(t *testing.T) {
		fields, err := ParseFields(rng, map[string]string{"a": "/s5", "b": "/sx8", "c": "/sw3"})
		if err != nil {
			t.Fatal(err)
		}
		if s := fields["a"]().(string); len(s) != 5 {
			t.Errorf("a = %q", s)
		}
		if s := fields["b"]().(string); len(s) != 8 {
			t.Errorf("b = %q", s)
		}
		words := map[string]bool{}
		for i := 0; i < 200; i++ {
			words[fields["c"]().(string)] = true
		}
		if len(words) > 3 {
			t.Errorf("expected at most 3 word pairs, got %d", len(words))
		}
	})

	bad := map[string]map[string]string{
		"reserved name":   {"price": "1"},
		"bad name":        {"bad-name": "1"},
		"unknown gen":     {"x": "/q"},
		"bad bool":        {"x": "/b200"},
		"empty int range": {"x": "/i5,5"},
		"bad number":      {"x": "/f1.2.3"},
	}
	for name, spec := range bad {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseFields(rng, spec); err == nil {
				t.Errorf("expected error for %v", spec)
			}
		})
	}
}
