// Package commands holds the slash-command menu published to Telegram.
package commands

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command describes one slash command shown in the client menu.
type Command struct {
	// Name is the command without the leading slash.
	Name        string
	Description string
	// Hidden commands are routed but not advertised.
	Hidden bool
}

// Publisher is the part of *tele.Bot used to publish the menu.
type Publisher interface {
	SetCommands(opts ...any) error
}

// Menu is an ordered, validated list of commands.
type Menu struct {
	cmds []Command
}

// NewMenu validates cmds and keeps their order.
func NewMenu(cmds ...Command) (*Menu, error) {
	seen := make(map[string]struct{}, len(cmds))
	out := make([]Command, 0, len(cmds))
	for _, c := range cmds {
		name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Name), "/"))
		if name == "" || strings.ContainsAny(name, " @") {
			return nil, fmt.Errorf("invalid command name %q", c.Name)
		}
		if strings.TrimSpace(c.Description) == "" {
			return nil, fmt.Errorf("command %q has no description", name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate command %q", name)
		}
		seen[name] = struct{}{}
		c.Name = name
		out = append(out, c)
	}
	return &Menu{cmds: out}, nil
}

// Visible returns the advertised commands in declaration order.
func (m *Menu) Visible() []tele.Command {
	if m == nil {
		return nil
	}
	list := make([]tele.Command, 0, len(m.cmds))
	for _, c := range m.cmds {
		if c.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: c.Name, Description: c.Description})
	}
	return list
}

// Publish sends the visible commands via setMyCommands.
func (m *Menu) Publish(p Publisher) error {
	list := m.Visible()
	if len(list) == 0 {
		return nil
	}
	return p.SetCommands(list)
}
