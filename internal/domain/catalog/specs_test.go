package catalog

import (
	"encoding/json"
	"testing"
)

func TestSpecsPreservesOrder(t *testing.T) {
	raw := `{"voltage":"400V","power_kw":7.5,"rpm":1450,"coolant":"oil","ip_rating":"IP55"}`

	var specs Specs
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	keys := specs.Keys()
	want := []string{"voltage", "power_kw", "rpm", "coolant", "ip_rating"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}

	power, _ := specs.Get("power_kw")
	if !power.IsNumber || power.Number != 7.5 {
		t.Fatalf("power_kw = %+v", power)
	}
	if power.String() != "7.5" {
		t.Fatalf("power_kw string = %q", power.String())
	}

	encoded, err := json.Marshal(specs)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(encoded) != `{"voltage":"400V","power_kw":7.5,"rpm":1450,"coolant":"oil","ip_rating":"IP55"}` {
		t.Fatalf("Marshal() = %s", encoded)
	}
}

func TestSpecsRejectsNested(t *testing.T) {
	var specs Specs
	if err := json.Unmarshal([]byte(`{"dims":{"w":1}}`), &specs); err == nil {
		t.Fatalf("Unmarshal() expected error for nested object")
	}
	if err := json.Unmarshal([]byte(`[1,2]`), &specs); err == nil {
		t.Fatalf("Unmarshal() expected error for array")
	}
}

func TestSpecsNullAndEmpty(t *testing.T) {
	var specs Specs
	if err := json.Unmarshal([]byte(`null`), &specs); err != nil {
		t.Fatalf("Unmarshal(null) error = %v", err)
	}
	encoded, err := json.Marshal(specs)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(encoded) != "{}" {
		t.Fatalf("Marshal(empty) = %s", encoded)
	}
}

func TestSpecsSetKeepsFirstPosition(t *testing.T) {
	var specs Specs
	if _, ok := specs.Get("rpm"); ok || specs.Len() != 0 {
		t.Fatalf("zero Specs should be empty")
	}
	specs.Set("rpm", NumberValue(1450))
	specs.Set("brand", TextValue("WEG"))
	specs.Set("rpm", NumberValue(1500))

	encoded, err := json.Marshal(specs)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(encoded) != `{"rpm":1500,"brand":"WEG"}` {
		t.Fatalf("Marshal() = %s", encoded)
	}
}

func TestSpecsBooleanBecomesText(t *testing.T) {
	var specs Specs
	if err := json.Unmarshal([]byte(`{"atex":true,"phase":null}`), &specs); err == nil {
		t.Fatalf("Unmarshal() expected error for null value")
	}
	if err := json.Unmarshal([]byte(`{"atex":true}`), &specs); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if value, _ := specs.Get("atex"); value.IsNumber || value.Text != "true" {
		t.Fatalf("atex = %+v", value)
	}
}

func TestSpecsFromMapSortsKeys(t *testing.T) {
	specs, err := SpecsFromMap(map[string]any{"rpm": int64(1450), "brand": "WEG", "load": 0.8})
	if err != nil {
		t.Fatalf("SpecsFromMap() error = %v", err)
	}
	keys := specs.Keys()
	if keys[0] != "brand" || keys[1] != "load" || keys[2] != "rpm" {
		t.Fatalf("keys = %v", keys)
	}

	if _, err := SpecsFromMap(map[string]any{"x": []any{1}}); err == nil {
		t.Fatalf("SpecsFromMap() expected error for array value")
	}
}

func TestMachineDisplayNameAndLowStock(t *testing.T) {
	if got := (Machine{Name: "Torno CNC", Model: "TX-200"}).DisplayName(); got != "Torno CNC (TX-200)" {
		t.Fatalf("DisplayName() = %q", got)
	}
	if got := (Machine{Name: "Prensa P-40", Model: "P-40"}).DisplayName(); got != "Prensa P-40" {
		t.Fatalf("DisplayName() = %q", got)
	}
	if !(Part{Quantity: 2, MinQuantity: 2}).LowStock() {
		t.Fatalf("LowStock() = false at threshold")
	}
}
