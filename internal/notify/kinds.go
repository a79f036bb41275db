package notify

import (
	"fmt"
	"strings"
)

// Kind is a bitmask of filesystem event kinds. Bit values match the Linux
// inotify masks so the native backend can pass them through unchanged.
type Kind uint32

const (
	Access       Kind = 0x00000001
	Modify       Kind = 0x00000002
	Attrib       Kind = 0x00000004
	CloseWrite   Kind = 0x00000008
	CloseNowrite Kind = 0x00000010
	Open         Kind = 0x00000020
	MovedFrom    Kind = 0x00000040
	MovedTo      Kind = 0x00000080
	Create       Kind = 0x00000100
	Delete       Kind = 0x00000200
	DeleteSelf   Kind = 0x00000400
	MoveSelf     Kind = 0x00000800
	Unmount      Kind = 0x00002000
	QOverflow    Kind = 0x00004000
	Ignored      Kind = 0x00008000
	IsDir        Kind = 0x40000000

	Close     = CloseWrite | CloseNowrite
	Move      = MovedFrom | MovedTo
	AllEvents = Access | Modify | Attrib | Close | Open | Move | Create | Delete | DeleteSelf | MoveSelf
)

type kindName struct {
	kind Kind
	name string
}

// kindNames is in bit order; rendering follows this order.
var kindNames = []kindName{
	{Access, "ACCESS"},
	{Modify, "MODIFY"},
	{Attrib, "ATTRIB"},
	{CloseWrite, "CLOSE_WRITE"},
	{CloseNowrite, "CLOSE_NOWRITE"},
	{Open, "OPEN"},
	{MovedFrom, "MOVED_FROM"},
	{MovedTo, "MOVED_TO"},
	{Create, "CREATE"},
	{Delete, "DELETE"},
	{DeleteSelf, "DELETE_SELF"},
	{MoveSelf, "MOVE_SELF"},
	{Unmount, "UNMOUNT"},
	{QOverflow, "Q_OVERFLOW"},
	{Ignored, "IGNORED"},
	{IsDir, "ISDIR"},
}

var aliases = map[string]Kind{
	"close":      Close,
	"move":       Move,
	"all_events": AllEvents,
}

// Has reports whether any bit of other is set in k.
func (k Kind) Has(other Kind) bool {
	return k&other != 0
}

// Names returns the upper-case names of the bits set in k, in bit order.
func (k Kind) Names() []string {
	names := make([]string, 0, 2)
	for _, entry := range kindNames {
		if k&entry.kind != 0 {
			names = append(names, entry.name)
		}
	}
	return names
}

// Split returns the single-bit kinds set in k, in bit order.
func (k Kind) Split() []Kind {
	kinds := make([]Kind, 0, 2)
	for _, entry := range kindNames {
		if k&entry.kind != 0 {
			kinds = append(kinds, entry.kind)
		}
	}
	return kinds
}

// Join renders the names of k separated by sep.
func (k Kind) Join(sep string) string {
	return strings.Join(k.Names(), sep)
}

func (k Kind) String() string {
	if k == 0 {
		return ""
	}
	return k.Join(",")
}

// UnknownEventError reports an event name that does not exist.
type UnknownEventError struct {
	Name string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("%q is not a valid event! Run with --help to see a list of available events.", e.Name)
}

// ParseKind resolves a single event name, case-insensitively.
func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if kind, ok := aliases[key]; ok {
		return kind, nil
	}
	for _, entry := range kindNames {
		if entry.kind == IsDir || entry.kind == QOverflow || entry.kind == Ignored {
			continue
		}
		if strings.ToLower(entry.name) == key {
			return entry.kind, nil
		}
	}
	return 0, &UnknownEventError{Name: name}
}

// ParseKinds accepts repeated and comma separated event names. An empty
// list selects AllEvents.
func ParseKinds(values []string) (Kind, error) {
	var kinds Kind
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			kind, err := ParseKind(part)
			if err != nil {
				return 0, err
			}
			kinds |= kind
		}
	}
	if kinds == 0 {
		return AllEvents, nil
	}
	return kinds, nil
}

// EventNames lists the selectable event names for help output.
func EventNames() []string {
	names := make([]string, 0, len(kindNames)+len(aliases))
	for _, entry := range kindNames {
		if entry.kind&AllEvents == 0 && entry.kind != Unmount {
			continue
		}
		names = append(names, strings.ToLower(entry.name))
	}
	return append(names, "close", "move", "all_events")
}
