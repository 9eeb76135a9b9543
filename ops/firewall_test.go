package ops

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/victoralfred/hostadm/catalog"
	"github.com/victoralfred/hostadm/executor"
	"github.com/victoralfred/hostadm/validation"
)

// fakeTool installs an executable stub and points the catalog at it.
func fakeTool(t *testing.T, cat *catalog.Catalog, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("writing stub: %v", err)
	}
	if err := cat.Override(name, path); err != nil {
		t.Fatalf("override: %v", err)
	}
	return path
}

// missingTool points the catalog at a path that does not exist, so the
// host's own binaries cannot leak into the probe.
func missingTool(t *testing.T, cat *catalog.Catalog, name string) {
	t.Helper()
	if err := cat.Override(name, filepath.Join(t.TempDir(), name)); err != nil {
		t.Fatalf("override: %v", err)
	}
}

func TestDetectFirewall(t *testing.T) {
	t.Run("prefers ufw", func(t *testing.T) {
		cat := catalog.NewCatalog()
		want := fakeTool(t, cat, "ufw")
		fakeTool(t, cat, "firewall-cmd")
		fakeTool(t, cat, "iptables")

		fw, err := DetectFirewall(cat)
		if err != nil {
			t.Fatalf("DetectFirewall() error = %v", err)
		}
		if fw.Kind != FirewallUFW {
			t.Errorf("kind = %v, want ufw", fw.Kind)
		}
		if fw.Path != want {
			t.Errorf("path = %q, want %q", fw.Path, want)
		}
	})

	t.Run("falls back to firewalld", func(t *testing.T) {
		cat := catalog.NewCatalog()
		missingTool(t, cat, "ufw")
		fakeTool(t, cat, "firewall-cmd")
		fakeTool(t, cat, "iptables")

		fw, err := DetectFirewall(cat)
		if err != nil {
			t.Fatalf("DetectFirewall() error = %v", err)
		}
		if fw.Kind != FirewallFirewalld {
			t.Errorf("kind = %v, want firewalld", fw.Kind)
		}
	})

	t.Run("falls back to iptables", func(t *testing.T) {
		cat := catalog.NewCatalog()
		missingTool(t, cat, "ufw")
		missingTool(t, cat, "firewall-cmd")
		fakeTool(t, cat, "iptables")

		fw, err := DetectFirewall(cat)
		if err != nil {
			t.Fatalf("DetectFirewall() error = %v", err)
		}
		if fw.Kind != FirewallIptables {
			t.Errorf("kind = %v, want iptables", fw.Kind)
		}
	})

	t.Run("no frontend", func(t *testing.T) {
		cat := catalog.NewCatalog()
		missingTool(t, cat, "ufw")
		missingTool(t, cat, "firewall-cmd")
		missingTool(t, cat, "iptables")

		_, err := DetectFirewall(cat)
		if !errors.Is(err, executor.ErrToolUnavailable) {
			t.Errorf("error = %v, want ErrToolUnavailable", err)
		}
	})
}

func TestFirewallKind_String(t *testing.T) {
	tests := []struct {
		kind FirewallKind
		want string
	}{
		{FirewallUnknown, "unknown"},
		{FirewallUFW, "ufw"},
		{FirewallFirewalld, "firewalld"},
		{FirewallIptables, "iptables"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestFirewallStatus_Plan(t *testing.T) {
	tests := []struct {
		name string
		fw   Firewall
		tool string
		want []string
	}{
		{
			name: "ufw",
			fw:   Firewall{Kind: FirewallUFW, Path: "/usr/sbin/ufw"},
			tool: "ufw",
			want: []string{"status"},
		},
		{
			name: "firewalld",
			fw:   Firewall{Kind: FirewallFirewalld, Path: "/usr/bin/firewall-cmd"},
			tool: "firewall-cmd",
			want: []string{"--list-all"},
		},
		{
			name: "iptables",
			fw:   Firewall{Kind: FirewallIptables, Path: "/usr/sbin/iptables"},
			tool: "iptables",
			want: []string{"-L", "-n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := planSingle(t, &FirewallStatus{Firewall: tt.fw})
			if cmd.Tool != tt.tool {
				t.Errorf("tool = %q, want %q", cmd.Tool, tt.tool)
			}
			assertArgs(t, cmd, tt.want...)
		})
	}
}

func TestAllowPort_Plan_UFW(t *testing.T) {
	op := &AllowPort{
		Firewall: Firewall{Kind: FirewallUFW, Path: "/usr/sbin/ufw"},
		Port:     "8080",
		Proto:    "tcp",
	}

	cmd := planSingle(t, op)
	assertArgs(t, cmd, "allow", "8080/tcp")
	assertMetadata(t, cmd, "operation", "firewall.allow")
	assertMetadata(t, cmd, "target", "8080/tcp")
}

func TestDenyPort_Plan_UFW(t *testing.T) {
	op := &DenyPort{
		Firewall: Firewall{Kind: FirewallUFW, Path: "/usr/sbin/ufw"},
		Port:     "23",
		Proto:    "tcp",
	}

	cmd := planSingle(t, op)
	assertArgs(t, cmd, "deny", "23/tcp")
}

func TestAllowPort_Plan_Firewalld(t *testing.T) {
	op := &AllowPort{
		Firewall: Firewall{Kind: FirewallFirewalld, Path: "/usr/bin/firewall-cmd"},
		Port:     "8080",
		Proto:    "tcp",
	}

	if err := op.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	cmds, err := op.Plan(catalog.NewCatalog())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want the rule change and the reload", len(cmds))
	}
	assertArgs(t, cmds[0], "--permanent", "--add-port=8080/tcp")
	assertArgs(t, cmds[1], "--reload")
}

func TestDenyPort_Plan_Firewalld(t *testing.T) {
	op := &DenyPort{
		Firewall: Firewall{Kind: FirewallFirewalld, Path: "/usr/bin/firewall-cmd"},
		Port:     "53",
		Proto:    "udp",
	}

	if err := op.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	cmds, err := op.Plan(catalog.NewCatalog())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("got %d commands, want the rule change and the reload", len(cmds))
	}
	assertArgs(t, cmds[0], "--permanent", "--remove-port=53/udp")
	assertArgs(t, cmds[1], "--reload")
}

func TestPortRules_Plan_Iptables(t *testing.T) {
	fw := Firewall{Kind: FirewallIptables, Path: "/usr/sbin/iptables"}

	allow := planSingle(t, &AllowPort{Firewall: fw, Port: "8080", Proto: "tcp"})
	assertArgs(t, allow, "-A", "INPUT", "-p", "tcp", "--dport", "8080", "-j", "ACCEPT")

	deny := planSingle(t, &DenyPort{Firewall: fw, Port: "23", Proto: "tcp"})
	assertArgs(t, deny, "-A", "INPUT", "-p", "tcp", "--dport", "23", "-j", "DROP")
}

func TestAllowPort_DefaultProto(t *testing.T) {
	op := &AllowPort{
		Firewall: Firewall{Kind: FirewallUFW, Path: "/usr/sbin/ufw"},
		Port:     "8080",
	}

	cmd := planSingle(t, op)
	assertArgs(t, cmd, "allow", "8080/tcp")
}

func TestPortRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		proto   string
		wantErr error
	}{
		{name: "tcp", port: "443", proto: "tcp"},
		{name: "udp", port: "53", proto: "udp"},
		{name: "default proto", port: "8080"},
		{name: "empty port", port: "", proto: "tcp", wantErr: validation.ErrEmptyInput},
		{name: "port zero", port: "0", proto: "tcp", wantErr: validation.ErrOutOfRange},
		{name: "port beyond range", port: "70000", proto: "tcp", wantErr: validation.ErrOutOfRange},
		{name: "non-numeric port", port: "https", proto: "tcp", wantErr: validation.ErrInvalidFormat},
		{name: "bad proto", port: "443", proto: "icmp", wantErr: validation.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePortRule(tt.port, tt.proto)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("validatePortRule() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validatePortRule() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
