package ops

import (
	"errors"
	"testing"

	"github.com/victoralfred/hostadm/validation"
)

func TestService_Plan(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want []string
	}{
		{name: "start", op: &ServiceStart{Unit: "nginx"}, want: []string{"start", "nginx"}},
		{name: "stop", op: &ServiceStop{Unit: "nginx"}, want: []string{"stop", "nginx"}},
		{name: "restart", op: &ServiceRestart{Unit: "smbd.service"}, want: []string{"restart", "smbd.service"}},
		{name: "enable", op: &ServiceEnable{Unit: "nginx"}, want: []string{"enable", "nginx"}},
		{name: "disable", op: &ServiceDisable{Unit: "nginx"}, want: []string{"disable", "nginx"}},
		{name: "status", op: &ServiceStatus{Unit: "nginx"}, want: []string{"--no-pager", "status", "nginx"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := planSingle(t, tt.op)
			if cmd.Tool != "systemctl" {
				t.Errorf("tool = %q, want systemctl", cmd.Tool)
			}
			assertArgs(t, cmd, tt.want...)
			assertMetadata(t, cmd, "operation", tt.op.Op())
		})
	}
}

func TestService_Validate(t *testing.T) {
	if err := (&ServiceStart{}).Validate(); !errors.Is(err, validation.ErrEmptyInput) {
		t.Errorf("missing unit: error = %v, want ErrEmptyInput", err)
	}
	if err := (&ServiceStop{Unit: "bad unit"}).Validate(); !errors.Is(err, validation.ErrInvalidFormat) {
		t.Errorf("unit with space: error = %v, want ErrInvalidFormat", err)
	}
	if err := (&ServiceStatus{Unit: "winbind.service"}).Validate(); err != nil {
		t.Errorf("dotted unit: error = %v", err)
	}
}
