package model

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestMemberNodeIdentity(t *testing.T) {
	tests := []struct {
		name     string
		member   Member
		wantName string
		wantPath string
	}{
		{
			name:     "host and port",
			member:   Member{Name: "web-1:80", FullPath: "/Common/web-1:80"},
			wantName: "web-1",
			wantPath: "/Common/web-1",
		},
		{
			name:     "address named member",
			member:   Member{Name: "10.1.1.1:443", FullPath: "/Common/10.1.1.1:443"},
			wantName: "10.1.1.1",
			wantPath: "/Common/10.1.1.1",
		},
		{
			name:     "no port",
			member:   Member{Name: "web-1", FullPath: "/Common/web-1"},
			wantName: "web-1",
			wantPath: "/Common/web-1",
		},
		{
			name:     "empty",
			member:   Member{},
			wantName: "",
			wantPath: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.member.NodeName(); got != tt.wantName {
				t.Errorf("NodeName() = %q, want %q", got, tt.wantName)
			}
			if got := tt.member.NodePath(); got != tt.wantPath {
				t.Errorf("NodePath() = %q, want %q", got, tt.wantPath)
			}
		})
	}
}

func TestOptionalDecodesAbsentAsNone(t *testing.T) {
	var vip VirtualServer
	if err := json.Unmarshal([]byte(`{"name":"web-vip","fullPath":"/Common/web-vip"}`), &vip); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if vip.Pool.IsSet() {
		t.Error("Pool should be absent")
	}

	if err := json.Unmarshal([]byte(`{"name":"web-vip","pool":"/Common/web-pool"}`), &vip); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if pool, ok := vip.Pool.Get(); !ok || pool != "/Common/web-pool" {
		t.Errorf("Pool = %q (set=%v), want /Common/web-pool", pool, ok)
	}
}

func TestOptionalYAMLOmitsAbsent(t *testing.T) {
	out, err := yaml.Marshal(VirtualServer{Name: "api-vip", FullPath: "/Common/api-vip"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := "name: api-vip\nfullPath: /Common/api-vip\n"
	if string(out) != want {
		t.Errorf("Marshal() = %q, want %q", out, want)
	}

	var vip VirtualServer
	if err := yaml.Unmarshal([]byte("name: web-vip\npool: /Common/web-pool\n"), &vip); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if vip.Pool.OrElse("") != "/Common/web-pool" {
		t.Errorf("Pool = %q, want /Common/web-pool", vip.Pool.OrElse(""))
	}
	if vip.Destination.IsSet() {
		t.Error("Destination should be absent")
	}
}
