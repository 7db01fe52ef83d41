package visitor

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name    string
		timeIn  *string
		timeOut *string
		want    Status
	}{
		{"no times", nil, nil, StatusScheduled},
		{"blank time in", strPtr("  "), nil, StatusScheduled},
		{"arrived", strPtr("09:00"), nil, StatusCheckedIn},
		{"arrived blank time out", strPtr("09:00"), strPtr(""), StatusCheckedIn},
		{"left", strPtr("09:00"), strPtr("17:00"), StatusCheckedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Visitor{TimeIn: tt.timeIn, TimeOut: tt.timeOut}
			if got := v.Status(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   Status
		wantOK bool
	}{
		{"", "", true},
		{"all", "", true},
		{"ALL", "", true},
		{"scheduled", StatusScheduled, true},
		{"checked-in", StatusCheckedIn, true},
		{" Checked-Out ", StatusCheckedOut, true},
		{"gone", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStatus(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// Every exported Visitor field must appear in Fields under its JSON name.
func TestFieldsMatchJSONTags(t *testing.T) {
	typ := reflect.TypeOf(Visitor{})
	if typ.NumField() != len(Fields) {
		t.Fatalf("Visitor has %d fields, Fields has %d entries", typ.NumField(), len(Fields))
	}

	for i := 0; i < typ.NumField(); i++ {
		tag := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
		if Fields[i].Wire != tag {
			t.Errorf("field %d: Fields wire = %q, json tag = %q", i, Fields[i].Wire, tag)
		}
		col, ok := ColumnFor(tag)
		if !ok {
			t.Errorf("no column for wire name %q", tag)
			continue
		}
		if wire, _ := WireFor(col); wire != tag {
			t.Errorf("WireFor(%q) = %q, want %q", col, wire, tag)
		}
	}
}

func TestMarshalIncludesStatus(t *testing.T) {
	v := Visitor{ID: 1, Name: "Ann", Surname: "Lee", TimeIn: strPtr("09:00")}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["status"] != string(StatusCheckedIn) {
		t.Errorf("status = %v, want %q", got["status"], StatusCheckedIn)
	}
	if _, ok := got["timeOut"]; ok {
		t.Error("absent timeOut should be omitted")
	}
	if got["timeIn"] != "09:00" {
		t.Errorf("timeIn = %v", got["timeIn"])
	}
}

func TestFullName(t *testing.T) {
	v := &Visitor{Name: "Ann", Surname: "Lee"}
	if got := v.FullName(); got != "Ann Lee" {
		t.Errorf("got %q, want %q", got, "Ann Lee")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Duration
		wantOK bool
	}{
		{"16:30:00", 16*time.Hour + 30*time.Minute, true},
		{"9:15", 9*time.Hour + 15*time.Minute, true},
		{"4:30 pm", 16*time.Hour + 30*time.Minute, true},
		{"12:05 AM", 5 * time.Minute, true},
		{"", 0, false},
		{"soon", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseClock(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseClock(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
