package router

import (
	"strings"

	"github.com/m3rciful/campusbot/core/telegram/state"
)

// Predicate decides whether a route handles an event.
type Predicate func(ev *Event) bool

// Command matches /name with or without arguments.
func Command(name string) Predicate {
	name = strings.ToLower(strings.TrimPrefix(name, "/"))
	return func(ev *Event) bool {
		return ev.Kind == KindCommand && ev.Command == name
	}
}

// AnyCommand matches every slash command.
func AnyCommand() Predicate {
	return func(ev *Event) bool { return ev.Kind == KindCommand }
}

// BareCommand matches /name without arguments.
func BareCommand(name string) Predicate {
	cmd := Command(name)
	return func(ev *Event) bool {
		return cmd(ev) && ev.Args == ""
	}
}

// DeepLink matches /name carrying a non-empty argument.
func DeepLink(name string) Predicate {
	cmd := Command(name)
	return func(ev *Event) bool {
		return cmd(ev) && ev.Args != ""
	}
}

// Callback matches a button press with exactly data.
func Callback(data string) Predicate {
	return func(ev *Event) bool {
		return ev.Kind == KindCallback && ev.Data == data
	}
}

// CallbackFunc matches a button press whose data satisfies fn.
func CallbackFunc(fn func(data string) bool) Predicate {
	return func(ev *Event) bool {
		return ev.Kind == KindCallback && fn(ev.Data)
	}
}

// InState matches when the sender's conversation is at tag.
func InState(tag state.Tag) Predicate {
	return func(ev *Event) bool {
		return ev.Conversation.Is(tag)
	}
}

// Text matches plain text messages (commands excluded).
func Text() Predicate {
	return func(ev *Event) bool { return ev.Kind == KindText }
}

// Photo matches photo messages.
func Photo() Predicate {
	return func(ev *Event) bool { return ev.Kind == KindPhoto }
}

// Message matches any chat message including commands and media.
func Message() Predicate {
	return func(ev *Event) bool { return ev.IsMessage() }
}

// All matches when every predicate matches.
func All(ps ...Predicate) Predicate {
	return func(ev *Event) bool {
		for _, p := range ps {
			if !p(ev) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one predicate matches.
func Any(ps ...Predicate) Predicate {
	return func(ev *Event) bool {
		for _, p := range ps {
			if p(ev) {
				return true
			}
		}
		return false
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(ev *Event) bool { return !p(ev) }
}
