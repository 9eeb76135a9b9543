// Package catalog maps wrapped system tools to their installed
// binaries.
//
// Every tool hostadm invokes is listed here with its conventional
// absolute path. Nothing is ever resolved through $PATH: handlers ask
// the catalog for the binary, and the executor probes it before any
// privilege work happens. Site-specific locations come in through a
// YAML override file, never from the environment.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrUnknownTool indicates a tool name with no catalog entry.
var ErrUnknownTool = errors.New("unknown tool")

// Tool is one wrapped system tool.
type Tool struct {
	// Name is the catalog key ("useradd", "smbpasswd", ...).
	Name string

	// Path is the absolute binary path.
	Path string
}

// defaultTools lists every tool hostadm wraps, at its conventional
// location.
func defaultTools() map[string]string {
	return map[string]string{
		"useradd":      "/usr/sbin/useradd",
		"usermod":      "/usr/sbin/usermod",
		"userdel":      "/usr/sbin/userdel",
		"groupadd":     "/usr/sbin/groupadd",
		"groupmod":     "/usr/sbin/groupmod",
		"groupdel":     "/usr/sbin/groupdel",
		"gpasswd":      "/usr/bin/gpasswd",
		"chpasswd":     "/usr/sbin/chpasswd",
		"smbpasswd":    "/usr/bin/smbpasswd",
		"pdbedit":      "/usr/bin/pdbedit",
		"testparm":     "/usr/bin/testparm",
		"getent":       "/usr/bin/getent",
		"wbinfo":       "/usr/bin/wbinfo",
		"getfacl":      "/usr/bin/getfacl",
		"setfacl":      "/usr/bin/setfacl",
		"systemctl":    "/usr/bin/systemctl",
		"ufw":          "/usr/sbin/ufw",
		"firewall-cmd": "/usr/bin/firewall-cmd",
		"iptables":     "/usr/sbin/iptables",
		"sudo":         "/usr/bin/sudo",
	}
}

// Catalog resolves tool names to binary paths and probes
// availability.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]string
}

// NewCatalog creates a catalog with the default tool table.
func NewCatalog() *Catalog {
	return &Catalog{tools: defaultTools()}
}

// Resolve returns the absolute binary path for a tool name.
func (c *Catalog) Resolve(name string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	path, ok := c.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return path, nil
}

// Override replaces a tool's binary path. The path must be absolute.
func (c *Catalog) Override(name, path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("override for %s: path must be absolute", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tools[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	c.tools[name] = path
	return nil
}

// Probe reports whether the binary exists and is executable.
func (c *Catalog) Probe(binary string) error {
	info, err := os.Stat(binary)
	if err != nil {
		return fmt.Errorf("probing %s: %w", binary, err)
	}
	if info.IsDir() {
		return fmt.Errorf("probing %s: is a directory", binary)
	}
	if info.Mode()&0o111 == 0 {
		return fmt.Errorf("probing %s: not executable", binary)
	}
	return nil
}

// Available reports whether a tool resolves and its binary probes
// clean.
func (c *Catalog) Available(name string) bool {
	path, err := c.Resolve(name)
	if err != nil {
		return false
	}
	return c.Probe(path) == nil
}

// Tools returns every catalog entry, sorted by name.
func (c *Catalog) Tools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tools := make([]Tool, 0, len(c.tools))
	for name, path := range c.tools {
		tools = append(tools, Tool{Name: name, Path: path})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}
