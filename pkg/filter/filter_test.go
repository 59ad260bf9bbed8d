package filter

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		expr     string
		wantKind Kind
		wantErr  bool
	}{
		{"", KindNone, false},
		{"web", KindSubstring, false},
		{"/", KindSubstring, false},
		{"/^web-/", KindPattern, false},
		{"//", KindPattern, false},
		{"/web(/", KindNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Parse(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if err == nil && f.Kind() != tt.wantKind {
				t.Errorf("Parse(%q).Kind() = %v, want %v", tt.expr, f.Kind(), tt.wantKind)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		fields []string
		want   bool
	}{
		{"none matches everything", "", []string{"/Common/api-vip"}, true},
		{"none matches no fields", "", nil, true},
		{"substring on path", "web", []string{"/Common/web-vip", "web-vip", ""}, true},
		{"substring miss", "web", []string{"/Common/api-vip", "api-vip", "/Common/10.0.0.2:443"}, false},
		{"substring is case sensitive", "WEB", []string{"/Common/web-vip"}, false},
		{"substring on destination", "10.0.0.1", []string{"/Common/a", "a", "/Common/10.0.0.1:80"}, true},
		{"pattern anchored", "/^api-/", []string{"/Common/api-vip", "api-vip"}, true},
		{"pattern miss", "/^api-/", []string{"/Common/web-vip", "web-vip"}, false},
		{"pattern any field", "/:443$/", []string{"/Common/x", "x", "/Common/10.0.0.1:443"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := MustParse(tt.expr)
			if got := f.Match(tt.fields...); got != tt.want {
				t.Errorf("Match(%v) = %v, want %v", tt.fields, got, tt.want)
			}
		})
	}
}
