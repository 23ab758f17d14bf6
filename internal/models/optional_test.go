package models

import (
	"encoding/json"
	"testing"
)

func TestOptionalTriState(t *testing.T) {
	t.Parallel()

	type payload struct {
		Due Optional[string] `json:"due"`
	}

	tests := []struct {
		name      string
		body      string
		wantSet   bool
		wantValid bool
		wantValue string
	}{
		{
			name: "absent field",
			body: `{}`,
		},
		{
			name:    "explicit null",
			body:    `{"due": null}`,
			wantSet: true,
		},
		{
			name:      "value",
			body:      `{"due": "2026-06-01"}`,
			wantSet:   true,
			wantValid: true,
			wantValue: "2026-06-01",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var p payload
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.Due.Set != tt.wantSet || p.Due.Valid != tt.wantValid {
				t.Errorf("got Set=%v Valid=%v, want Set=%v Valid=%v",
					p.Due.Set, p.Due.Valid, tt.wantSet, tt.wantValid)
			}
			if p.Due.Value != tt.wantValue {
				t.Errorf("value = %q, want %q", p.Due.Value, tt.wantValue)
			}

			ptr := p.Due.Ptr()
			if tt.wantValid {
				if ptr == nil || *ptr != tt.wantValue {
					t.Errorf("Ptr() = %v, want %q", ptr, tt.wantValue)
				}
			} else if ptr != nil {
				t.Errorf("Ptr() = %v, want nil", *ptr)
			}
		})
	}
}

func TestOptionalRejectsWrongType(t *testing.T) {
	t.Parallel()

	var o Optional[int]
	if err := json.Unmarshal([]byte(`"ten"`), &o); err == nil {
		t.Error("expected type error")
	}
}
