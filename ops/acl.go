package ops

import (
	"fmt"

	"github.com/victoralfred/hostadm/catalog"
	"github.com/victoralfred/hostadm/executor"
	"github.com/victoralfred/hostadm/validation"
)

// ACLGet reads the access control list of a filesystem path with
// getfacl. Symlinks are resolved to their physical path.
type ACLGet struct {
	operation

	// Path is the file or directory to inspect.
	Path string `yaml:"path"`
}

func (o *ACLGet) Op() string { return "acl.get" }

func (o *ACLGet) Validate() error {
	_, err := validation.Path("path", o.Path)
	return err
}

func (o *ACLGet) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("getfacl")
	if err != nil {
		return nil, err
	}

	return planOne(executor.NewCommand("getfacl", bin).
		Flag("-p").
		Arg(o.Path).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.Path).
		Build())
}

// ACLSet modifies access control entries on a path with setfacl. Each
// entry is parsed against the ACL grammar and re-rendered in canonical
// form, one -m pair per entry.
type ACLSet struct {
	operation

	// Path is the file or directory to change.
	Path string `yaml:"path"`

	// Entries are ACL entries such as "user:alice:rwx" or
	// "d:group:devs:r-x".
	Entries []string `yaml:"entries"`

	// Recursive applies the entries to all files and directories
	// beneath Path.
	Recursive bool `yaml:"recursive"`

	// Default marks every entry as a default entry, the setfacl -d
	// spelling.
	Default bool `yaml:"default"`
}

func (o *ACLSet) Op() string { return "acl.set" }

func (o *ACLSet) Validate() error {
	var errs validation.Errors
	_, err := validation.Path("path", o.Path)
	errs.Append(err)
	if len(o.Entries) == 0 {
		errs.Append(&validation.Error{
			Field:   "entries",
			Kind:    validation.KindACLEntry,
			Code:    validation.ReasonEmptyInput,
			Err:     validation.ErrEmptyInput,
			Message: "at least one entry is required",
		})
	}
	for i, raw := range o.Entries {
		_, err := validation.ACLEntry(fmt.Sprintf("entries[%d]", i), raw)
		errs.Append(err)
	}
	return errs.Err()
}

func (o *ACLSet) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("setfacl")
	if err != nil {
		return nil, err
	}

	b := executor.NewCommand("setfacl", bin).
		FlagIf(o.Recursive, "-R").
		FlagIf(o.Default, "-d")
	for i, raw := range o.Entries {
		entry, err := validation.ACLEntry(fmt.Sprintf("entries[%d]", i), raw)
		if err != nil {
			return nil, err
		}
		b.Option("-m", entry.String())
	}
	return planOne(b.Arg(o.Path).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.Path).
		Build())
}

// ACLClear removes all extended ACL entries from a path with
// setfacl -b, leaving only the base owner, group, and other bits.
type ACLClear struct {
	operation

	// Path is the file or directory to strip.
	Path string `yaml:"path"`

	// Recursive strips all files and directories beneath Path too.
	Recursive bool `yaml:"recursive"`
}

func (o *ACLClear) Op() string { return "acl.clear" }

func (o *ACLClear) Validate() error {
	_, err := validation.Path("path", o.Path)
	return err
}

func (o *ACLClear) Plan(cat *catalog.Catalog) ([]*executor.Command, error) {
	bin, err := cat.Resolve("setfacl")
	if err != nil {
		return nil, err
	}

	return planOne(executor.NewCommand("setfacl", bin).
		FlagIf(o.Recursive, "-R").
		Flag("-b").
		Arg(o.Path).
		WithMetadata(metaOperation, o.Op()).
		WithMetadata(metaTarget, o.Path).
		Build())
}
