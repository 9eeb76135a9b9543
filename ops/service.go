package ops

import (
	"github.com/victoralfred/hostadm/catalog"
	"github.com/victoralfred/hostadm/executor"
	"github.com/victoralfred/hostadm/validation"
)

// serviceCommand plans one systemctl verb against a unit. Flags come
// before the verb, the way the systemctl synopsis orders them.
func serviceCommand(cat *catalog.Catalog, opKey, verb, unit string, flags ...string) ([]*executor.Command, error) {
	bin, err := cat.Resolve("systemctl")
	if err != nil {
		return nil, err
	}

	b := executor.NewCommand("systemctl", bin)
	for _, f := range flags {
		b.Flag(f)
	}
	return planOne(b.Arg(verb).
		Arg(unit).
		WithMetadata(metaOperation, opKey).
		WithMetadata(metaTarget, unit).
		Build())
}

// ServiceStart starts a systemd unit.
type ServiceStart struct {
	operation

	// Unit is the unit name, with or without the .service suffix.
	Unit string `yaml:"unit"`
}

func (o *ServiceStart) Op() string { return "service.start" }

func (o *ServiceStart) Validate() error {
	_, err := validation.Identifier("unit", o.Unit)
	return err
}

func (o *ServiceStart) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	return serviceCommand(cat, o.Op(), "start", o.Unit)
}

// ServiceStop stops a systemd unit.
type ServiceStop struct {
	operation

	// Unit is the unit name, with or without the .service suffix.
	Unit string `yaml:"unit"`
}

func (o *ServiceStop) Op() string { return "service.stop" }

func (o *ServiceStop) Validate() error {
	_, err := validation.Identifier("unit", o.Unit)
	return err
}

func (o *ServiceStop) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	return serviceCommand(cat, o.Op(), "stop", o.Unit)
}

// ServiceRestart restarts a systemd unit.
type ServiceRestart struct {
	operation

	// Unit is the unit name, with or without the .service suffix.
	Unit string `yaml:"unit"`
}

func (o *ServiceRestart) Op() string { return "service.restart" }

func (o *ServiceRestart) Validate() error {
	_, err := validation.Identifier("unit", o.Unit)
	return err
}

func (o *ServiceRestart) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	return serviceCommand(cat, o.Op(), "restart", o.Unit)
}

// ServiceEnable enables a systemd unit at boot.
type ServiceEnable struct {
	operation

	// Unit is the unit name, with or without the .service suffix.
	Unit string `yaml:"unit"`
}

func (o *ServiceEnable) Op() string { return "service.enable" }

func (o *ServiceEnable) Validate() error {
	_, err := validation.Identifier("unit", o.Unit)
	return err
}

func (o *ServiceEnable) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	return serviceCommand(cat, o.Op(), "enable", o.Unit)
}

// ServiceDisable disables a systemd unit at boot.
type ServiceDisable struct {
	operation

	// Unit is the unit name, with or without the .service suffix.
	Unit string `yaml:"unit"`
}

func (o *ServiceDisable) Op() string { return "service.disable" }

func (o *ServiceDisable) Validate() error {
	_, err := validation.Identifier("unit", o.Unit)
	return err
}

func (o *ServiceDisable) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	return serviceCommand(cat, o.Op(), "disable", o.Unit)
}

// ServiceStatus reports the state of a systemd unit. An inactive unit
// makes systemctl exit 3, which classification treats as an answer
// rather than a failure.
type ServiceStatus struct {
	operation

	// Unit is the unit name, with or without the .service suffix.
	Unit string `yaml:"unit"`
}

func (o *ServiceStatus) Op() string { return "service.status" }

func (o *ServiceStatus) Validate() error {
	_, err := validation.Identifier("unit", o.Unit)
	return err
}

func (o *ServiceStatus) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	return serviceCommand(cat, o.Op(), "status", o.Unit, "--no-pager")
}
