package messages

import (
	"fmt"
)

// Type is the message-type code carried in the first byte of every frame.
type Type uint8

const (
	ServerDetails Type = 0x00
	DODList       Type = 0x01

	PlayerUpdate Type = 0x10
	PlayerAdd    Type = 0x11
	PlayerRemove Type = 0x12

	VehicleUpdate    Type = 0x20
	VehicleAdd       Type = 0x21
	VehicleDestroyed Type = 0x22

	FobAdd    Type = 0x30
	FobRemove Type = 0x31

	FlagUpdate Type = 0x40
	FlagList   Type = 0x41

	Kill Type = 0x50
	Chat Type = 0x51

	TicketsTeam1 Type = 0x52
	TicketsTeam2 Type = 0x53

	RallyAdd    Type = 0x60
	RallyRemove Type = 0x61

	CacheAdd    Type = 0x70
	CacheRemove Type = 0x71
	CacheReveal Type = 0x72
	IntelChange Type = 0x73

	Revive            Type = 0xa0
	KitAllocated      Type = 0xa1
	SquadName         Type = 0xa2
	SquadLeaderOrders Type = 0xa3

	RoundEnd Type = 0xf0
	Ticks    Type = 0xf1
)

var typeNames = map[Type]string{ // nolint:gochecknoglobals
	ServerDetails:     "server_details",
	DODList:           "dod_list",
	PlayerUpdate:      "player_update",
	PlayerAdd:         "player_add",
	PlayerRemove:      "player_remove",
	VehicleUpdate:     "vehicle_update",
	VehicleAdd:        "vehicle_add",
	VehicleDestroyed:  "vehicle_destroyed",
	FobAdd:            "fob_add",
	FobRemove:         "fob_remove",
	FlagUpdate:        "flag_update",
	FlagList:          "flag_list",
	Kill:              "kill",
	Chat:              "chat",
	TicketsTeam1:      "tickets_team1",
	TicketsTeam2:      "tickets_team2",
	RallyAdd:          "rally_add",
	RallyRemove:       "rally_remove",
	CacheAdd:          "cache_add",
	CacheRemove:       "cache_remove",
	CacheReveal:       "cache_reveal",
	IntelChange:       "intel_change",
	Revive:            "revive",
	KitAllocated:      "kit_allocated",
	SquadName:         "squad_name",
	SquadLeaderOrders: "sl_orders",
	RoundEnd:          "round_end",
	Ticks:             "ticks",
}

// String returns the event name of the type, e.g. "kill".
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%02x)", uint8(t))
}

// Known reports whether t is in the message type table.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseType returns the type with the given event name.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown message type %q", name)
}

// Types returns every known type in code order.
func Types() []Type {
	types := make([]Type, 0, len(typeNames))
	for code := 0; code <= 0xff; code++ {
		if t := Type(code); t.Known() {
			types = append(types, t)
		}
	}
	return types
}

// UnknownTypeError is returned for a type code that has no schema.
type UnknownTypeError struct {
	Code uint8
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("no schema for message type %s", Type(e.Code))
}

func (e UnknownTypeError) Is(err error) bool {
	_, ok := err.(UnknownTypeError)
	return ok
}
