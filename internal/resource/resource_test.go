package resource

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  ID
		ok    bool
	}{
		{"energy", Energy, true},
		{"Minerals", Minerals, true},
		{" credits ", Credits, true},
		{"gold", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Parse(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestUnits(t *testing.T) {
	want := map[ID]string{
		Energy:     "MW",
		Minerals:   "kT",
		Population: "hab",
		Technology: "RP",
		Food:       "t",
		Credits:    "CR",
	}
	for id, unit := range want {
		if got := id.Unit(); got != unit {
			t.Errorf("%s.Unit() = %q, want %q", id, got, unit)
		}
	}
	if got := ID(42).Unit(); got != "" {
		t.Errorf("unknown resource unit = %q, want empty", got)
	}
}

func TestAmountsJSONKeys(t *testing.T) {
	a := Amounts{Credits: 500, Minerals: 100}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]float64
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["credits"] != 500 || back["minerals"] != 100 {
		t.Errorf("unexpected keys: %s", b)
	}
}

func TestFormatCost(t *testing.T) {
	tests := []struct {
		name string
		cost Amounts
		want string
	}{
		{"solar", Amounts{Energy: 0, Minerals: 100, Credits: 500}, "100 Minerals, 500 Credits"},
		{"lab", Amounts{Technology: 0, Credits: 1200}, "1200 Credits"},
		{"free", Amounts{}, "Free"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cost.FormatCost(); got != tt.want {
				t.Errorf("FormatCost() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEachSkipsZeroAndUnknown(t *testing.T) {
	a := Amounts{Energy: 50, Food: 0, ID(9): 3}
	var seen []ID
	a.Each(func(id ID, _ float64) { seen = append(seen, id) })
	if len(seen) != 1 || seen[0] != Energy {
		t.Errorf("Each visited %v, want [energy]", seen)
	}
	if id, ok := a.Unknown(); !ok || id != ID(9) {
		t.Errorf("Unknown() = %v, %v; want resource(9), true", id, ok)
	}
}
