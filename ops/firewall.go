package ops

import (
	"fmt"

	"github.com/victoralfred/hostadm/catalog"
	"github.com/victoralfred/hostadm/executor"
	"github.com/victoralfred/hostadm/validation"
)

// FirewallKind identifies a supported firewall frontend.
type FirewallKind int

const (
	// FirewallUnknown means no frontend has been selected yet.
	FirewallUnknown FirewallKind = iota

	// FirewallUFW is the Ubuntu uncomplicated firewall.
	FirewallUFW

	// FirewallFirewalld is firewalld driven through firewall-cmd.
	FirewallFirewalld

	// FirewallIptables is raw iptables.
	FirewallIptables
)

// String returns the frontend name.
func (k FirewallKind) String() string {
	switch k {
	case FirewallUFW:
		return "ufw"
	case FirewallFirewalld:
		return "firewalld"
	case FirewallIptables:
		return "iptables"
	default:
		return "unknown"
	}
}

// Firewall names a detected frontend and its binary. Callers thread
// the value through explicitly; detection keeps no process state, so
// two runners can disagree about the frontend without interfering.
type Firewall struct {
	Kind FirewallKind
	Path string
}

// DetectFirewall probes for a supported frontend in preference order:
// ufw, then firewall-cmd, then raw iptables.
func DetectFirewall(cat *catalog.Catalog) (Firewall, error) {
	probes := []struct {
		tool string
		kind FirewallKind
	}{
		{"ufw", FirewallUFW},
		{"firewall-cmd", FirewallFirewalld},
		{"iptables", FirewallIptables},
	}

	for _, p := range probes {
		if !cat.Available(p.tool) {
			continue
		}
		path, err := cat.Resolve(p.tool)
		if err != nil {
			continue
		}
		return Firewall{Kind: p.kind, Path: path}, nil
	}

	return Firewall{}, &executor.ExecutionError{
		Op:         "detect",
		Tool:       "firewall",
		Err:        executor.ErrToolUnavailable,
		Code:       executor.ErrCodeToolUnavailable,
		Details:    "no supported firewall frontend found",
		Suggestion: "install ufw, firewalld, or iptables",
	}
}

// resolveFirewall returns the given frontend, detecting one when the
// caller left it unset.
func resolveFirewall(cat *catalog.Catalog, fw Firewall) (Firewall, error) {
	if fw.Kind != FirewallUnknown {
		return fw, nil
	}
	return DetectFirewall(cat)
}

// FirewallStatus reports the state of the active firewall frontend.
type FirewallStatus struct {
	operation

	// Firewall selects the frontend. The zero value detects one at
	// plan time.
	Firewall Firewall `yaml:"-"`
}

func (o *FirewallStatus) Op() string { return "firewall.status" }

func (o *FirewallStatus) Validate() error { return nil }

func (o *FirewallStatus) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	fw, err := resolveFirewall(cat, o.Firewall)
	if err != nil {
		return nil, err
	}

	switch fw.Kind {
	case FirewallUFW:
		return planOne(executor.NewCommand("ufw", fw.Path).
			Arg("status").
			WithMetadata(metaOperation, o.Op()).
			Build())
	case FirewallFirewalld:
		return planOne(executor.NewCommand("firewall-cmd", fw.Path).
			Flag("--list-all").
			WithMetadata(metaOperation, o.Op()).
			Build())
	case FirewallIptables:
		return planOne(executor.NewCommand("iptables", fw.Path).
			Flag("-L").
			Flag("-n").
			WithMetadata(metaOperation, o.Op()).
			Build())
	default:
		return nil, fmt.Errorf("unsupported firewall frontend %s", fw.Kind)
	}
}

// AllowPort opens a port on the active firewall frontend.
type AllowPort struct {
	operation

	// Firewall selects the frontend. The zero value detects one at
	// plan time.
	Firewall Firewall `yaml:"-"`

	// Port is the port number to open.
	Port string `yaml:"port"`

	// Proto is "tcp" or "udp". An empty value means tcp.
	Proto string `yaml:"proto"`
}

func (o *AllowPort) Op() string { return "firewall.allow" }

func (o *AllowPort) Validate() error {
	return validatePortRule(o.Port, o.Proto)
}

func (o *AllowPort) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	return planPortRule(cat, o.Firewall, o.Op(), o.Port, protoOrDefault(o.Proto), true)
}

// DenyPort closes a port on the active firewall frontend. On ufw and
// iptables this inserts a deny rule; on firewalld it removes the
// port from the permanent configuration.
type DenyPort struct {
	operation

	// Firewall selects the frontend. The zero value detects one at
	// plan time.
	Firewall Firewall `yaml:"-"`

	// Port is the port number to close.
	Port string `yaml:"port"`

	// Proto is "tcp" or "udp". An empty value means tcp.
	Proto string `yaml:"proto"`
}

func (o *DenyPort) Op() string { return "firewall.deny" }

func (o *DenyPort) Validate() error {
	return validatePortRule(o.Port, o.Proto)
}

func (o *DenyPort) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	return planPortRule(cat, o.Firewall, o.Op(), o.Port, protoOrDefault(o.Proto), false)
}

// validatePortRule checks a port/protocol pair. Port 0 passes the
// numeric grammar but no tool can route it, so it is rejected here.
func validatePortRule(port, proto string) error {
	var errs validation.Errors

	value, err := validation.NumericValue("port", port)
	errs.Append(err)
	if err == nil && value == 0 {
		errs.Append(&validation.Error{
			Field:   "port",
			Kind:    validation.KindNumeric,
			Code:    validation.ReasonOutOfRange,
			Err:     validation.ErrOutOfRange,
			Message: "port 0 cannot be opened or closed",
		})
	}

	switch proto {
	case "", "tcp", "udp":
	default:
		errs.Append(&validation.Error{
			Field:   "proto",
			Kind:    validation.KindIdentifier,
			Code:    validation.ReasonInvalidFormat,
			Err:     validation.ErrInvalidFormat,
			Message: `must be "tcp" or "udp"`,
		})
	}

	return errs.Err()
}

func protoOrDefault(proto string) string {
	if proto == "" {
		return "tcp"
	}
	return proto
}

// planPortRule plans the frontend-specific commands for one port
// change. firewalld needs two: the permanent rule change, then a
// reload to make it live.
func planPortRule(cat *catalog.Catalog, fw Firewall, opKey, port, proto string, allow bool) ([]*executor.Command, error) {
	fw, err := resolveFirewall(cat, fw)
	if err != nil {
		return nil, err
	}
	target := port + "/" + proto

	switch fw.Kind {
	case FirewallUFW:
		action := "deny"
		if allow {
			action = "allow"
		}
		return planOne(executor.NewCommand("ufw", fw.Path).
			Arg(action).
			Arg(target).
			WithMetadata(metaOperation, opKey).
			WithMetadata(metaTarget, target).
			Build())

	case FirewallFirewalld:
		rule := "--remove-port=" + target
		if allow {
			rule = "--add-port=" + target
		}
		change, err := executor.NewCommand("firewall-cmd", fw.Path).
			Flag("--permanent").
			Flag(rule).
			WithMetadata(metaOperation, opKey).
			WithMetadata(metaTarget, target).
			Build()
		if err != nil {
			return nil, err
		}
		reload, err := executor.NewCommand("firewall-cmd", fw.Path).
			Flag("--reload").
			WithMetadata(metaOperation, opKey).
			WithMetadata(metaTarget, target).
			Build()
		if err != nil {
			return nil, err
		}
		return []*executor.Command{change, reload}, nil

	case FirewallIptables:
		jump := "DROP"
		if allow {
			jump = "ACCEPT"
		}
		return planOne(executor.NewCommand("iptables", fw.Path).
			Option("-A", "INPUT").
			Option("-p", proto).
			Option("--dport", port).
			Option("-j", jump).
			WithMetadata(metaOperation, opKey).
			WithMetadata(metaTarget, target).
			Build())

	default:
		return nil, fmt.Errorf("unsupported firewall frontend %s", fw.Kind)
	}
}
