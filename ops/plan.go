package ops

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// planFactories maps plan-file operation keys to fresh values. The
// password operations are not plannable: secrets do not belong in
// plan files. samba.add stays plannable; without a password the tool
// runs its own prompt.
var planFactories = map[string]func() Operation{
	"user.add":        func() Operation { return &UserAdd{} },
	"user.mod":        func() Operation { return &UserMod{} },
	"user.del":        func() Operation { return &UserDel{} },
	"user.info":       func() Operation { return &UserInfo{} },
	"group.add":       func() Operation { return &GroupAdd{} },
	"group.mod":       func() Operation { return &GroupMod{} },
	"group.del":       func() Operation { return &GroupDel{} },
	"group.info":      func() Operation { return &GroupInfo{} },
	"member.add":      func() Operation { return &MemberAdd{} },
	"member.remove":   func() Operation { return &MemberRemove{} },
	"samba.add":       func() Operation { return &SambaUserAdd{} },
	"samba.enable":    func() Operation { return &SambaUserEnable{} },
	"samba.disable":   func() Operation { return &SambaUserDisable{} },
	"samba.delete":    func() Operation { return &SambaUserDelete{} },
	"samba.list":      func() Operation { return &SambaList{} },
	"samba.check":     func() Operation { return &SambaCheckConfig{} },
	"acl.get":         func() Operation { return &ACLGet{} },
	"acl.set":         func() Operation { return &ACLSet{} },
	"acl.clear":       func() Operation { return &ACLClear{} },
	"firewall.status": func() Operation { return &FirewallStatus{} },
	"firewall.allow":  func() Operation { return &AllowPort{} },
	"firewall.deny":   func() Operation { return &DenyPort{} },
	"service.start":   func() Operation { return &ServiceStart{} },
	"service.stop":    func() Operation { return &ServiceStop{} },
	"service.restart": func() Operation { return &ServiceRestart{} },
	"service.enable":  func() Operation { return &ServiceEnable{} },
	"service.disable": func() Operation { return &ServiceDisable{} },
	"service.status":  func() Operation { return &ServiceStatus{} },
}

// PlanOperations returns the operation keys accepted in plan files,
// sorted.
func PlanOperations() []string {
	keys := make([]string, 0, len(planFactories))
	for key := range planFactories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ParsePlan decodes a YAML plan: a list of mappings, each carrying an
// "op" key naming the operation and the operation's own fields
// alongside. Operations come back in file order; validation happens
// later, when each one is applied.
func ParsePlan(data []byte) ([]Operation, error) {
	var doc []yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}

	parsed := make([]Operation, 0, len(doc))
	for i, node := range doc {
		var head struct {
			Op string `yaml:"op"`
		}
		if err := node.Decode(&head); err != nil {
			return nil, fmt.Errorf("plan entry %d: %w", i+1, err)
		}
		if head.Op == "" {
			return nil, fmt.Errorf("plan entry %d: missing op key", i+1)
		}

		factory, ok := planFactories[head.Op]
		if !ok {
			return nil, fmt.Errorf("plan entry %d: unknown operation %q", i+1, head.Op)
		}

		op := factory()
		if err := node.Decode(op); err != nil {
			return nil, fmt.Errorf("plan entry %d (%s): %w", i+1, head.Op, err)
		}
		parsed = append(parsed, op)
	}
	return parsed, nil
}
