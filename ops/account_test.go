package ops

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/victoralfred/hostadm/secret"
	"github.com/victoralfred/hostadm/validation"
)

func TestUserAdd_Plan(t *testing.T) {
	op := &UserAdd{
		Name:       "alice",
		UID:        "1200",
		Group:      "staff",
		Groups:     []string{"devs", "wheel"},
		Home:       "/home/alice",
		Shell:      "/bin/bash",
		Comment:    "Alice Liddell",
		CreateHome: true,
	}

	cmd := planSingle(t, op)
	if cmd.Tool != "useradd" {
		t.Errorf("tool = %q, want useradd", cmd.Tool)
	}
	assertArgs(t, cmd,
		"--create-home",
		"--uid", "1200",
		"--gid", "staff",
		"--groups", "devs,wheel",
		"--home-dir", "/home/alice",
		"--shell", "/bin/bash",
		"--comment", "Alice Liddell",
		"alice",
	)
	assertMetadata(t, cmd, "operation", "user.add")
	assertMetadata(t, cmd, "target", "alice")
	assertMetadata(t, cmd, "group", "staff")
}

func TestUserAdd_Plan_Minimal(t *testing.T) {
	cmd := planSingle(t, &UserAdd{Name: "bob"})
	assertArgs(t, cmd, "bob")
}

func TestUserAdd_Plan_System(t *testing.T) {
	cmd := planSingle(t, &UserAdd{Name: "svc-web", System: true})
	assertArgs(t, cmd, "--system", "svc-web")
}

func TestUserAdd_Validate(t *testing.T) {
	tests := []struct {
		name    string
		op      *UserAdd
		wantErr error
	}{
		{name: "minimal", op: &UserAdd{Name: "alice"}},
		{name: "numeric primary group", op: &UserAdd{Name: "alice", Group: "1000"}},
		{name: "missing name", op: &UserAdd{}, wantErr: validation.ErrEmptyInput},
		{name: "name with space", op: &UserAdd{Name: "bad name"}, wantErr: validation.ErrInvalidFormat},
		{name: "name with semicolon", op: &UserAdd{Name: "alice;id"}, wantErr: validation.ErrInvalidFormat},
		{name: "non-numeric uid", op: &UserAdd{Name: "alice", UID: "12ab"}, wantErr: validation.ErrInvalidFormat},
		{name: "relative home", op: &UserAdd{Name: "alice", Home: "home/alice"}, wantErr: validation.ErrInvalidFormat},
		{name: "traversal home", op: &UserAdd{Name: "alice", Home: "/home/../etc"}, wantErr: validation.ErrPathTraversal},
		{name: "bad supplementary group", op: &UserAdd{Name: "alice", Groups: []string{"devs", "a b"}}, wantErr: validation.ErrInvalidFormat},
		{name: "comment with newline", op: &UserAdd{Name: "alice", Comment: "x\ny"}, wantErr: validation.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserMod_Plan(t *testing.T) {
	op := &UserMod{
		Name:     "alice",
		NewName:  "alice2",
		Groups:   []string{"devs"},
		Append:   true,
		Home:     "/srv/alice",
		MoveHome: true,
	}

	cmd := planSingle(t, op)
	assertArgs(t, cmd,
		"--login", "alice2",
		"--append",
		"--groups", "devs",
		"--move-home",
		"--home", "/srv/alice",
		"alice",
	)
	assertMetadata(t, cmd, "operation", "user.mod")
	assertMetadata(t, cmd, "target", "alice")
	assertMetadata(t, cmd, "new_name", "alice2")
}

func TestUserMod_Validate(t *testing.T) {
	tests := []struct {
		name    string
		op      *UserMod
		wantErr error
	}{
		{name: "shell change", op: &UserMod{Name: "alice", Shell: "/bin/zsh"}},
		{name: "no changes", op: &UserMod{Name: "alice"}, wantErr: validation.ErrEmptyInput},
		{name: "move without home", op: &UserMod{Name: "alice", MoveHome: true}, wantErr: validation.ErrEmptyInput},
		{name: "bad new name", op: &UserMod{Name: "alice", NewName: "2pac"}, wantErr: validation.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserDel_Plan(t *testing.T) {
	cmd := planSingle(t, &UserDel{Name: "alice", RemoveHome: true, Force: true})
	assertArgs(t, cmd, "--force", "--remove", "alice")
	assertMetadata(t, cmd, "operation", "user.del")
	assertMetadata(t, cmd, "target", "alice")
}

func TestSetPassword_RequiresSecret(t *testing.T) {
	err := (&SetPassword{Name: "alice"}).Validate()
	if !errors.Is(err, validation.ErrEmptyInput) {
		t.Fatalf("Validate() error = %v, want ErrEmptyInput", err)
	}

	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatal("expected *validation.Error")
	}
	if verr.Field != "password" {
		t.Errorf("field = %q, want password", verr.Field)
	}
}

func TestSetPassword_Plan(t *testing.T) {
	op := &SetPassword{Name: "alice", Password: secret.FromString("s3cret")}

	cmd := planSingle(t, op)
	if cmd.Tool != "chpasswd" {
		t.Errorf("tool = %q, want chpasswd", cmd.Tool)
	}
	if len(cmd.Args) != 0 {
		t.Errorf("args = %v, want none", cmd.Args)
	}
	if cmd.Stdin == nil {
		t.Fatal("expected a stdin payload")
	}
	if cmd.Interactive {
		t.Error("chpasswd must not run interactively")
	}

	data, err := io.ReadAll(cmd.Stdin)
	if err != nil {
		t.Fatalf("reading payload: %v", err)
	}
	if string(data) != "alice:s3cret\n" {
		t.Errorf("payload = %q, want alice:s3cret newline", data)
	}

	// The credential travels only on the secret channel.
	if strings.Contains(cmd.String(), "s3cret") {
		t.Error("password leaked into the rendered command")
	}
}

func TestUserInfo_Plan(t *testing.T) {
	local := planSingle(t, &UserInfo{Name: "alice"})
	if local.Tool != "getent" {
		t.Errorf("tool = %q, want getent", local.Tool)
	}
	assertArgs(t, local, "passwd", "alice")

	domain := planSingle(t, &UserInfo{Name: "alice", Domain: true})
	if domain.Tool != "wbinfo" {
		t.Errorf("tool = %q, want wbinfo", domain.Tool)
	}
	assertArgs(t, domain, "-i", "alice")
}

func TestGroupAdd_Plan(t *testing.T) {
	cmd := planSingle(t, &GroupAdd{Name: "devs", GID: "2000", System: true})
	assertArgs(t, cmd, "--system", "--gid", "2000", "devs")
	assertMetadata(t, cmd, "operation", "group.add")
	assertMetadata(t, cmd, "target", "devs")
}

func TestGroupMod_Plan(t *testing.T) {
	cmd := planSingle(t, &GroupMod{Name: "devs", NewName: "eng"})
	assertArgs(t, cmd, "--new-name", "eng", "devs")
	assertMetadata(t, cmd, "new_name", "eng")
}

func TestGroupMod_Validate_RequiresChange(t *testing.T) {
	err := (&GroupMod{Name: "devs"}).Validate()
	if !errors.Is(err, validation.ErrEmptyInput) {
		t.Fatalf("Validate() error = %v, want ErrEmptyInput", err)
	}
}

func TestGroupDel_Plan(t *testing.T) {
	cmd := planSingle(t, &GroupDel{Name: "devs", Force: true})
	assertArgs(t, cmd, "--force", "devs")
}

func TestGroupInfo_Plan(t *testing.T) {
	cmd := planSingle(t, &GroupInfo{Name: "devs"})
	if cmd.Tool != "getent" {
		t.Errorf("tool = %q, want getent", cmd.Tool)
	}
	assertArgs(t, cmd, "group", "devs")
}

func TestMemberAdd_Plan(t *testing.T) {
	cmd := planSingle(t, &MemberAdd{User: "alice", Group: "devs"})
	if cmd.Tool != "gpasswd" {
		t.Errorf("tool = %q, want gpasswd", cmd.Tool)
	}
	assertArgs(t, cmd, "-a", "alice", "devs")
	assertMetadata(t, cmd, "target", "alice")
	assertMetadata(t, cmd, "group", "devs")
}

func TestMemberRemove_Plan(t *testing.T) {
	cmd := planSingle(t, &MemberRemove{User: "alice", Group: "devs"})
	assertArgs(t, cmd, "-d", "alice", "devs")
}

func TestMember_Validate(t *testing.T) {
	if err := (&MemberAdd{User: "alice"}).Validate(); !errors.Is(err, validation.ErrEmptyInput) {
		t.Errorf("missing group: error = %v, want ErrEmptyInput", err)
	}
	if err := (&MemberRemove{Group: "devs"}).Validate(); !errors.Is(err, validation.ErrEmptyInput) {
		t.Errorf("missing user: error = %v, want ErrEmptyInput", err)
	}
}
