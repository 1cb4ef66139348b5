package systems

import "testing"

func TestParseUpdateModes(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    UpdateMode
		wantErr bool
	}{
		{"empty", nil, 0, false},
		{"single", []string{"flocking"}, ModeFlocking, false},
		{"all", []string{"function", "flocking", "field"}, ModeAll, false},
		{"case and space", []string{" Field ", "FUNCTION"}, ModeField | ModeFunction, false},
		{"unknown", []string{"flocking", "gravity"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUpdateModes(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateModeString(t *testing.T) {
	tests := []struct {
		m    UpdateMode
		want string
	}{
		{0, "none"},
		{ModeFlocking, "flocking"},
		{ModeAll, "function|flocking|field"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.m, got, tt.want)
		}
	}
}
