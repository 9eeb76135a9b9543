package ops

import (
	"github.com/victoralfred/hostadm/catalog"
	"github.com/victoralfred/hostadm/executor"
	"github.com/victoralfred/hostadm/secret"
	"github.com/victoralfred/hostadm/validation"
)

// sambaPassword builds the two-line confirmation payload smbpasswd -s
// reads on stdin.
func sambaPassword(value *secret.Value) *secret.Source {
	return secret.NewPayload().
		Secret(value).
		Newline().
		Secret(value).
		Newline().
		Seal()
}

// SambaUserAdd enables an existing local account for Samba with
// smbpasswd -a. With a password supplied the tool runs in batch mode
// and reads it over stdin; without one the user is prompted directly.
type SambaUserAdd struct {
	operation

	// User is the account to enable. It must already exist locally.
	User string `yaml:"user"`

	// Password is the Samba password. When nil, smbpasswd prompts on
	// the controlling terminal.
	Password *secret.Value `yaml:"-"`
}

func (o *SambaUserAdd) Op() string { return "samba.add" }

func (o *SambaUserAdd) Validate() error {
	_, err := validation.Identifier("user", o.User)
	return err
}

func (o *SambaUserAdd) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("smbpasswd")
	if err != nil {
		return nil, err
	}

	b := executor.NewCommand("smbpasswd", bin)
	if o.Password != nil {
		b.Flag("-s").WithStdin(sambaPassword(o.Password))
	} else {
		b.WithInteractive()
	}
	return planOne(b.Flag("-a").
		Arg(o.User).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.User).
		Build())
}

// SambaUserEnable re-enables a disabled Samba account.
type SambaUserEnable struct {
	operation

	// User is the account to enable.
	User string `yaml:"user"`
}

func (o *SambaUserEnable) Op() string { return "samba.enable" }

func (o *SambaUserEnable) Validate() error {
	_, err := validation.Identifier("user", o.User)
	return err
}

func (o *SambaUserEnable) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("smbpasswd")
	if err != nil {
		return nil, err
	}

	return planOne(executor.NewCommand("smbpasswd", bin).
		Flag("-e").
		Arg(o.User).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.User).
		Build())
}

// SambaUserDisable disables a Samba account without deleting it.
type SambaUserDisable struct {
	operation

	// User is the account to disable.
	User string `yaml:"user"`
}

func (o *SambaUserDisable) Op() string { return "samba.disable" }

func (o *SambaUserDisable) Validate() error {
	_, err := validation.Identifier("user", o.User)
	return err
}

func (o *SambaUserDisable) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("smbpasswd")
	if err != nil {
		return nil, err
	}

	return planOne(executor.NewCommand("smbpasswd", bin).
		Flag("-d").
		Arg(o.User).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.User).
		Build())
}

// SambaUserDelete removes an account from the Samba password database.
// The local account itself is untouched.
type SambaUserDelete struct {
	operation

	// User is the account to remove.
	User string `yaml:"user"`
}

func (o *SambaUserDelete) Op() string { return "samba.delete" }

func (o *SambaUserDelete) Validate() error {
	_, err := validation.Identifier("user", o.User)
	return err
}

func (o *SambaUserDelete) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("smbpasswd")
	if err != nil {
		return nil, err
	}

	return planOne(executor.NewCommand("smbpasswd", bin).
		Flag("-x").
		Arg(o.User).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.User).
		Build())
}

// SambaSetPassword changes a Samba password. With a password supplied
// smbpasswd runs in batch mode over stdin; without one the prompt
// passes through to the terminal.
type SambaSetPassword struct {
	operation

	// User is the account to change.
	User string `yaml:"user"`

	// Password is the new password. When nil, smbpasswd prompts on the
	// controlling terminal.
	Password *secret.Value `yaml:"-"`
}

func (o *SambaSetPassword) Op() string { return "samba.passwd" }

func (o *SambaSetPassword) Validate() error {
	_, err := validation.Identifier("user", o.User)
	return err
}

func (o *SambaSetPassword) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("smbpasswd")
	if err != nil {
		return nil, err
	}

	b := executor.NewCommand("smbpasswd", bin)
	if o.Password != nil {
		b.Flag("-s").WithStdin(sambaPassword(o.Password))
	} else {
		b.WithInteractive()
	}
	return planOne(b.Arg(o.User).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.User).
		Build())
}

// SambaList lists the accounts in the Samba password database with
// pdbedit.
type SambaList struct {
	operation

	// Verbose asks for the full record per account.
	Verbose bool `yaml:"verbose"`
}

func (o *SambaList) Op() string { return "samba.list" }

func (o *SambaList) Validate() error { return nil }

func (o *SambaList) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("pdbedit")
	if err != nil {
		return nil, err
	}

	return planOne(executor.NewCommand("pdbedit", bin).
		Flag("-L").
		FlagIf(o.Verbose, "-v").
		WithMetadata(metaOperation, o.Op()).
		Build())
}

// SambaCheckConfig validates the Samba configuration with testparm.
// The -s flag suppresses the interactive continuation prompt so the
// check runs unattended.
type SambaCheckConfig struct {
	operation
}

func (o *SambaCheckConfig) Op() string { return "samba.check" }

func (o *SambaCheckConfig) Validate() error { return nil }

func (o *SambaCheckConfig) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("testparm")
	if err != nil {
		return nil, err
	}

	return planOne(executor.NewCommand("testparm", bin).
		Flag("-s").
		WithMetadata(metaOperation, o.Op()).
		Build())
}
