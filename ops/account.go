package ops

import (
	"fmt"
	"strings"

	"github.com/victoralfred/hostadm/catalog"
	"github.com/victoralfred/hostadm/executor"
	"github.com/victoralfred/hostadm/secret"
	"github.com/victoralfred/hostadm/validation"
)

// UserAdd creates a local account with useradd.
type UserAdd struct {
	operation

	// Name is the login name for the new account.
	Name string `yaml:"name"`

	// UID fixes the numeric user ID instead of taking the next free
	// one.
	UID string `yaml:"uid"`

	// Group sets the primary group, by name or numeric ID. The group
	// must already exist.
	Group string `yaml:"group"`

	// Groups lists supplementary groups the account joins.
	Groups []string `yaml:"groups"`

	// Home overrides the default home directory path.
	Home string `yaml:"home"`

	// Shell overrides the default login shell.
	Shell string `yaml:"shell"`

	// Comment is the GECOS field.
	Comment string `yaml:"comment"`

	// CreateHome makes useradd create the home directory.
	CreateHome bool `yaml:"create_home"`

	// System creates a system account.
	System bool `yaml:"system"`
}

func (o *UserAdd) Op() string { return "user.add" }

func (o *UserAdd) Validate() error {
	var errs validation.Errors
	_, err := validation.Identifier("name", o.Name)
	errs.Append(err)
	if o.UID != "" {
		_, err := validation.Numeric("uid", o.UID)
		errs.Append(err)
	}
	if o.Group != "" {
		errs.Append(nameOrID("group", o.Group))
	}
	for i, g := range o.Groups {
		errs.Append(nameOrID(fmt.Sprintf("groups[%d]", i), g))
	}
	if o.Home != "" {
		_, err := validation.Path("home", o.Home)
		errs.Append(err)
	}
	if o.Shell != "" {
		_, err := validation.Path("shell", o.Shell)
		errs.Append(err)
	}
	if o.Comment != "" {
		_, err := validation.FreeText("comment", o.Comment)
		errs.Append(err)
	}
	return errs.Err()
}

func (o *UserAdd) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("useradd")
	if err != nil {
		return nil, err
	}

	b := executor.NewCommand("useradd", bin).
		FlagIf(o.System, "--system").
		FlagIf(o.CreateHome, "--create-home")
	if o.UID != "" {
		b.Option("--uid", o.UID)
	}
	if o.Group != "" {
		b.Option("--gid", o.Group)
		b.WithMetadata(metaGroup, o.Group)
	}
	if len(o.Groups) > 0 {
		// useradd takes supplementary groups as one comma-joined value.
		b.Option("--groups", strings.Join(o.Groups, ","))
		if o.Group == "" {
			b.WithMetadata(metaGroup, strings.Join(o.Groups, ","))
		}
	}
	if o.Home != "" {
		b.Option("--home-dir", o.Home)
	}
	if o.Shell != "" {
		b.Option("--shell", o.Shell)
	}
	if o.Comment != "" {
		b.Option("--comment", o.Comment)
	}
	return planOne(b.Arg(o.Name).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.Name).
		Build())
}

// UserMod changes attributes of an existing account with usermod. At
// least one change must be requested.
type UserMod struct {
	operation

	// Name is the login name of the account to change.
	Name string `yaml:"name"`

	// NewName renames the account.
	NewName string `yaml:"new_name"`

	// UID changes the numeric user ID.
	UID string `yaml:"uid"`

	// Group changes the primary group, by name or numeric ID.
	Group string `yaml:"group"`

	// Groups replaces the supplementary group list, or extends it when
	// Append is set.
	Groups []string `yaml:"groups"`

	// Append adds Groups to the current supplementary list instead of
	// replacing it.
	Append bool `yaml:"append"`

	// Home changes the home directory path.
	Home string `yaml:"home"`

	// MoveHome moves the contents of the old home to the new one.
	MoveHome bool `yaml:"move_home"`

	// Shell changes the login shell.
	Shell string `yaml:"shell"`

	// Comment changes the GECOS field.
	Comment string `yaml:"comment"`
}

func (o *UserMod) Op() string { return "user.mod" }

func (o *UserMod) Validate() error {
	var errs validation.Errors
	_, err := validation.Identifier("name", o.Name)
	errs.Append(err)
	if !o.hasChanges() {
		errs.Append(&validation.Error{
			Field:   "options",
			Kind:    validation.KindFreeText,
			Code:    validation.ReasonEmptyInput,
			Err:     validation.ErrEmptyInput,
			Message: "no changes requested",
		})
	}
	if o.NewName != "" {
		_, err := validation.Identifier("new_name", o.NewName)
		errs.Append(err)
	}
	if o.UID != "" {
		_, err := validation.Numeric("uid", o.UID)
		errs.Append(err)
	}
	if o.Group != "" {
		errs.Append(nameOrID("group", o.Group))
	}
	for i, g := range o.Groups {
		errs.Append(nameOrID(fmt.Sprintf("groups[%d]", i), g))
	}
	if o.Home != "" {
		_, err := validation.Path("home", o.Home)
		errs.Append(err)
	}
	if o.MoveHome && o.Home == "" {
		errs.Append(&validation.Error{
			Field:   "move_home",
			Kind:    validation.KindFreeText,
			Code:    validation.ReasonEmptyInput,
			Err:     validation.ErrEmptyInput,
			Message: "move_home requires a new home path",
		})
	}
	if o.Shell != "" {
		_, err := validation.Path("shell", o.Shell)
		errs.Append(err)
	}
	if o.Comment != "" {
		_, err := validation.FreeText("comment", o.Comment)
		errs.Append(err)
	}
	return errs.Err()
}

func (o *UserMod) hasChanges() bool {
	return o.NewName != "" || o.UID != "" || o.Group != "" ||
		len(o.Groups) > 0 || o.Home != "" || o.Shell != "" || o.Comment != ""
}

func (o *UserMod) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("usermod")
	if err != nil {
		return nil, err
	}

	b := executor.NewCommand("usermod", bin)
	if o.NewName != "" {
		b.Option("--login", o.NewName)
		b.WithMetadata(metaNewName, o.NewName)
	}
	if o.UID != "" {
		b.Option("--uid", o.UID)
	}
	if o.Group != "" {
		b.Option("--gid", o.Group)
		b.WithMetadata(metaGroup, o.Group)
	}
	if len(o.Groups) > 0 {
		b.FlagIf(o.Append, "--append")
		b.Option("--groups", strings.Join(o.Groups, ","))
		if o.Group == "" {
			b.WithMetadata(metaGroup, strings.Join(o.Groups, ","))
		}
	}
	if o.Home != "" {
		b.FlagIf(o.MoveHome, "--move-home")
		b.Option("--home", o.Home)
	}
	if o.Shell != "" {
		b.Option("--shell", o.Shell)
	}
	if o.Comment != "" {
		b.Option("--comment", o.Comment)
	}
	return planOne(b.Arg(o.Name).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.Name).
		Build())
}

// UserDel removes a local account with userdel.
type UserDel struct {
	operation

	// Name is the login name of the account to remove.
	Name string `yaml:"name"`

	// RemoveHome deletes the home directory and mail spool with the
	// account.
	RemoveHome bool `yaml:"remove_home"`

	// Force removes the account even while the user is logged in.
	Force bool `yaml:"force"`
}

func (o *UserDel) Op() string { return "user.del" }

func (o *UserDel) Validate() error {
	_, err := validation.Identifier("name", o.Name)
	return err
}

func (o *UserDel) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("userdel")
	if err != nil {
		return nil, err
	}

	return planOne(executor.NewCommand("userdel", bin).
		FlagIf(o.Force, "--force").
		FlagIf(o.RemoveHome, "--remove").
		Arg(o.Name).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.Name).
		Build())
}

// SetPassword sets a local account password by feeding chpasswd over
// stdin. A secret is required: chpasswd has no prompt of its own, and
// the password never appears in the argument vector.
type SetPassword struct {
	operation

	// Name is the login name of the account.
	Name string `yaml:"name"`

	// Password is the new password. The payload is consumed on
	// execution and wiped afterwards.
	Password *secret.Value `yaml:"-"`
}

func (o *SetPassword) Op() string { return "user.passwd" }

func (o *SetPassword) Validate() error {
	var errs validation.Errors
	_, err := validation.Identifier("name", o.Name)
	errs.Append(err)
	if o.Password == nil {
		errs.Append(&validation.Error{
			Field:   "password",
			Kind:    validation.KindFreeText,
			Code:    validation.ReasonEmptyInput,
			Err:     validation.ErrEmptyInput,
			Message: "a password is required",
		})
	}
	return errs.Err()
}

func (o *SetPassword) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("chpasswd")
	if err != nil {
		return nil, err
	}

	// chpasswd reads "name:password" lines on stdin.
	payload := secret.NewPayload().
		Text(o.Name + ":").
		Secret(o.Password).
		Newline().
		Seal()

	return planOne(executor.NewCommand("chpasswd", bin).
		WithStdin(payload).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.Name).
		Build())
}

// UserInfo looks up an account in the passwd database with getent, or
// in the joined domain with wbinfo when Domain is set.
type UserInfo struct {
	operation

	// Name is the login name to look up.
	Name string `yaml:"name"`

	// Domain queries winbind instead of the local passwd database.
	Domain bool `yaml:"domain"`
}

func (o *UserInfo) Op() string { return "user.info" }

func (o *UserInfo) Validate() error {
	_, err := validation.Identifier("name", o.Name)
	return err
}

func (o *UserInfo) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	if o.Domain {
		bin, err := cat.Resolve("wbinfo")
		if err != nil {
			return nil, err
		}
		return planOne(executor.NewCommand("wbinfo", bin).
			Option("-i", o.Name).
			WithMetadata(metaOperation, o.Op()).
			WithMetadata(metaTarget, o.Name).
			Build())
	}

	bin, err := cat.Resolve("getent")
	if err != nil {
		return nil, err
	}
	return planOne(executor.NewCommand("getent", bin).
		Arg("passwd").
		Arg(o.Name).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.Name).
		Build())
}

// GroupAdd creates a group with groupadd.
type GroupAdd struct {
	operation

	// Name is the name for the new group.
	Name string `yaml:"name"`

	// GID fixes the numeric group ID.
	GID string `yaml:"gid"`

	// System creates a system group.
	System bool `yaml:"system"`
}

func (o *GroupAdd) Op() string { return "group.add" }

func (o *GroupAdd) Validate() error {
	var errs validation.Errors
	_, err := validation.Identifier("name", o.Name)
	errs.Append(err)
	if o.GID != "" {
		_, err := validation.Numeric("gid", o.GID)
		errs.Append(err)
	}
	return errs.Err()
}

func (o *GroupAdd) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("groupadd")
	if err != nil {
		return nil, err
	}

	b := executor.NewCommand("groupadd", bin).
		FlagIf(o.System, "--system")
	if o.GID != "" {
		b.Option("--gid", o.GID)
	}
	return planOne(b.Arg(o.Name).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.Name).
		Build())
}

// GroupMod renames a group or changes its ID with groupmod. At least
// one change must be requested.
type GroupMod struct {
	operation

	// Name is the group to change.
	Name string `yaml:"name"`

	// NewName renames the group.
	NewName string `yaml:"new_name"`

	// GID changes the numeric group ID.
	GID string `yaml:"gid"`
}

func (o *GroupMod) Op() string { return "group.mod" }

func (o *GroupMod) Validate() error {
	var errs validation.Errors
	_, err := validation.Identifier("name", o.Name)
	errs.Append(err)
	if o.NewName == "" && o.GID == "" {
		errs.Append(&validation.Error{
			Field:   "options",
			Kind:    validation.KindFreeText,
			Code:    validation.ReasonEmptyInput,
			Err:     validation.ErrEmptyInput,
			Message: "no changes requested",
		})
	}
	if o.NewName != "" {
		_, err := validation.Identifier("new_name", o.NewName)
		errs.Append(err)
	}
	if o.GID != "" {
		_, err := validation.Numeric("gid", o.GID)
		errs.Append(err)
	}
	return errs.Err()
}

func (o *GroupMod) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("groupmod")
	if err != nil {
		return nil, err
	}

	b := executor.NewCommand("groupmod", bin)
	if o.NewName != "" {
		b.Option("--new-name", o.NewName)
		b.WithMetadata(metaNewName, o.NewName)
	}
	if o.GID != "" {
		b.Option("--gid", o.GID)
	}
	return planOne(b.Arg(o.Name).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.Name).
		Build())
}

// GroupDel removes a group with groupdel.
type GroupDel struct {
	operation

	// Name is the group to remove.
	Name string `yaml:"name"`

	// Force removes the group even if it is some user's primary group.
	Force bool `yaml:"force"`
}

func (o *GroupDel) Op() string { return "group.del" }

func (o *GroupDel) Validate() error {
	_, err := validation.Identifier("name", o.Name)
	return err
}

func (o *GroupDel) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("groupdel")
	if err != nil {
		return nil, err
	}

	return planOne(executor.NewCommand("groupdel", bin).
		FlagIf(o.Force, "--force").
		Arg(o.Name).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.Name).
		Build())
}

// GroupInfo looks up a group in the group database with getent.
type GroupInfo struct {
	operation

	// Name is the group to look up.
	Name string `yaml:"name"`
}

func (o *GroupInfo) Op() string { return "group.info" }

func (o *GroupInfo) Validate() error {
	_, err := validation.Identifier("name", o.Name)
	return err
}

func (o *GroupInfo) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("getent")
	if err != nil {
		return nil, err
	}

	return planOne(executor.NewCommand("getent", bin).
		Arg("group").
		Arg(o.Name).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.Name).
		Build())
}

// MemberAdd adds a user to a group with gpasswd.
type MemberAdd struct {
	operation

	// User is the account to add.
	User string `yaml:"user"`

	// Group is the group to add the user to.
	Group string `yaml:"group"`
}

func (o *MemberAdd) Op() string { return "member.add" }

func (o *MemberAdd) Validate() error {
	var errs validation.Errors
	_, err := validation.Identifier("user", o.User)
	errs.Append(err)
	_, err = validation.Identifier("group", o.Group)
	errs.Append(err)
	return errs.Err()
}

func (o *MemberAdd) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("gpasswd")
	if err != nil {
		return nil, err
	}

	return planOne(executor.NewCommand("gpasswd", bin).
		Option("-a", o.User).
		Arg(o.Group).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.User).
		WithMetadata(metaGroup, o.Group).
		Build())
}

// MemberRemove removes a user from a group with gpasswd.
type MemberRemove struct {
	operation

	// User is the account to remove.
	User string `yaml:"user"`

	// Group is the group to remove the user from.
	Group string `yaml:"group"`
}

func (o *MemberRemove) Op() string { return "member.remove" }

func (o *MemberRemove) Validate() error {
	var errs validation.Errors
	_, err := validation.Identifier("user", o.User)
	errs.Append(err)
	_, err = validation.Identifier("group", o.Group)
	errs.Append(err)
	return errs.Err()
}

func (o *MemberRemove) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("gpasswd")
	if err != nil {
		return nil, err
	}

	return planOne(executor.NewCommand("gpasswd", bin).
		Option("-d", o.User).
		Arg(o.Group).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.User).
		WithMetadata(metaGroup, o.Group).
		Build())
}
