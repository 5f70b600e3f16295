package hypr

import (
	"context"
	"fmt"
	"strings"
)

// Bind is one runtime keybinding that execs a shell command.
type Bind struct {
	Mods    string
	Key     string
	Command string
}

// ParseKey splits "SUPER+ALT+space" into Hyprland mods and key.
func ParseKey(spec string) (mods string, key string, err error) {
	parts := strings.Split(strings.TrimSpace(spec), "+")
	key = strings.TrimSpace(parts[len(parts)-1])
	if key == "" {
		return "", "", fmt.Errorf("key spec %q has no key", spec)
	}
	modParts := make([]string, 0, len(parts)-1)
	for _, part := range parts[:len(parts)-1] {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part == "" {
			return "", "", fmt.Errorf("key spec %q has an empty modifier", spec)
		}
		modParts = append(modParts, part)
	}
	return strings.Join(modParts, " "), key, nil
}

func (b Bind) bindCommand() string {
	return fmt.Sprintf("keyword bind %s, %s, exec, %s", b.Mods, b.Key, b.Command)
}

func (b Bind) unbindCommand() string {
	return fmt.Sprintf("keyword unbind %s, %s", b.Mods, b.Key)
}

// Keymap is a set of global binds plus binds that live only inside a submap.
type Keymap struct {
	Global []Bind
	Submap string
	Local  []Bind
}

// Install registers every bind in one hyprctl batch.
func (k Keymap) Install(ctx context.Context) error {
	return Batch(ctx, k.commands(Bind.bindCommand)...)
}

// Remove drops every bind registered by Install.
func (k Keymap) Remove(ctx context.Context) error {
	return Batch(ctx, k.commands(Bind.unbindCommand)...)
}

func (k Keymap) commands(render func(Bind) string) []string {
	commands := make([]string, 0, len(k.Global)+len(k.Local)+2)
	for _, b := range k.Global {
		commands = append(commands, render(b))
	}
	if k.Submap != "" && len(k.Local) > 0 {
		commands = append(commands, "keyword submap "+k.Submap)
		for _, b := range k.Local {
			commands = append(commands, render(b))
		}
		commands = append(commands, "keyword submap reset")
	}
	return commands
}
