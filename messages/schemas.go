package messages

import (
	"github.com/wkalt/prdemo/codec"
)

/*
Schemas for the message payloads of a demo. Each frame is a type code followed
by a payload; the table at the bottom maps codes to the schema that decodes the
payload. Types without an entry (chat, rallies, caches and so on) are framed
but have no known payload layout.
*/

////////////////////////////////////////////////////////////////////////////////

// Bits of the PlayerUpdate flags field. Each gates the field of the same name.
var PlayerUpdateFlags = []codec.Flag{ // nolint:gochecknoglobals
	{Name: "team", Bit: 1},
	{Name: "squad", Bit: 2},
	{Name: "vehicle", Bit: 4},
	{Name: "health", Bit: 8},
	{Name: "score", Bit: 16},
	{Name: "teamwork_score", Bit: 32},
	{Name: "kills", Bit: 64},
	{Name: "teamkills", Bit: 128},
	{Name: "deaths", Bit: 256},
	{Name: "ping", Bit: 512},
	{Name: "is_alive", Bit: 2048},
	{Name: "is_joining", Bit: 4096},
	{Name: "position", Bit: 8192},
	{Name: "rotation", Bit: 16384},
	{Name: "kit_name", Bit: 32768},
}

// Bits of the VehicleUpdate flags field.
var VehicleUpdateFlags = []codec.Flag{ // nolint:gochecknoglobals
	{Name: "team", Bit: 1},
	{Name: "position", Bit: 2},
	{Name: "rotation", Bit: 4},
	{Name: "health", Bit: 8},
}

var (
	// Header is the length prefix of a frame.
	Header = codec.NewSchema("Header", // nolint:gochecknoglobals
		codec.Bind("length", codec.Uint16),
	)

	// TypeCode is the first byte of a frame.
	TypeCode = codec.NewSchema("TypeCode", // nolint:gochecknoglobals
		codec.Bind("type", codec.Uint8),
	)

	Position = codec.NewSchema("Position", // nolint:gochecknoglobals
		codec.Bind("x", codec.Int16),
		codec.Bind("y", codec.Int16),
		codec.Bind("z", codec.Int16),
	)

	Map = codec.NewSchema("Map", // nolint:gochecknoglobals
		codec.Bind("name", codec.String),
		codec.Bind("gamemode", codec.String),
		codec.Bind("layer", codec.Uint8),
	)

	ServerDetailsSchema = codec.NewSchema("ServerDetails", // nolint:gochecknoglobals
		codec.Bind("version", codec.Int32),
		codec.Bind("demo_time_per_tick", codec.Float32),
		codec.Bind("ip_port", codec.String),
		codec.Bind("server_name", codec.String),
		codec.Bind("max_players", codec.Uint8),
		codec.Bind("round_length", codec.Uint16),
		codec.Bind("briefing_time", codec.Uint16),
		codec.Bind("map", Map),
		codec.Bind("blufor_team", codec.String),
		codec.Bind("opfor_team", codec.String),
		codec.Bind("start_time", codec.Timestamp(codec.Uint32)),
		codec.Bind("tickets1", codec.Uint16),
		codec.Bind("tickets2", codec.Uint16),
	)

	PlayerAddSchema = codec.NewSchema("PlayerAdd", // nolint:gochecknoglobals
		codec.Bind("id", codec.Uint8),
		codec.Bind("ign", codec.String),
		codec.Bind("hash", codec.String),
		codec.Bind("ip", codec.String),
	)

	// PlayerVehicle is only meaningful when id is non-negative; a negative id
	// means the player is on foot and no seat follows on the wire.
	PlayerVehicle = codec.NewSchema("PlayerVehicle", // nolint:gochecknoglobals
		codec.Bind("id", codec.Int16),
		codec.Bind("seat_name", codec.String),
		codec.Bind("seat_number", codec.Int8),
		codec.Validate("seat_name", requireVehicle),
		codec.Validate("seat_number", requireVehicle),
	)

	PlayerUpdateSchema = codec.NewSchema("PlayerUpdate", // nolint:gochecknoglobals
		codec.Bind("flags", codec.Flags(codec.Uint16, PlayerUpdateFlags...)),
		codec.Bind("id", codec.Uint8),
		codec.Bind("team", codec.Int8),
		codec.Bind("squad", codec.Uint8),
		codec.Bind("vehicle", PlayerVehicle),
		codec.Bind("health", codec.Int8),
		codec.Bind("score", codec.Int16),
		codec.Bind("teamwork_score", codec.Int16),
		codec.Bind("kills", codec.Int16),
		codec.Bind("deaths", codec.Int16),
		codec.Bind("ping", codec.Int16),
		codec.Bind("is_alive", codec.Bool),
		codec.Bind("is_joining", codec.Bool),
		codec.Bind("position", Position),
		codec.Bind("rotation", codec.Int16),
		codec.Bind("kit_name", codec.String),
	)

	PlayerRemoveSchema = codec.NewSchema("PlayerRemove", // nolint:gochecknoglobals
		codec.Bind("id", codec.Uint8),
	)

	VehicleAddSchema = codec.NewSchema("VehicleAdd", // nolint:gochecknoglobals
		codec.Bind("id", codec.Int16),
		codec.Bind("name", codec.String),
		codec.Bind("max_health", codec.Uint16),
	)

	VehicleUpdateSchema = codec.NewSchema("VehicleUpdate", // nolint:gochecknoglobals
		codec.Bind("flags", codec.Flags(codec.Uint8, VehicleUpdateFlags...)),
		codec.Bind("id", codec.Int16),
		codec.Bind("team", codec.Int8),
		codec.Bind("position", Position),
		codec.Bind("rotation", codec.Int16),
		codec.Bind("health", codec.Int8),
	)

	VehicleDestroyedSchema = codec.NewSchema("VehicleDestroyed", // nolint:gochecknoglobals
		codec.Bind("id", codec.Int16),
		codec.Bind("is_killer_known", codec.Bool),
		codec.Bind("killer", codec.Uint8),
	)

	FobAddSchema = codec.NewSchema("FobAdd", // nolint:gochecknoglobals
		codec.Bind("id", codec.Int32),
		codec.Bind("team", codec.Int8),
		codec.Bind("position", Position),
	)

	FobRemoveSchema = codec.NewSchema("FobRemove", // nolint:gochecknoglobals
		codec.Bind("id", codec.Int32),
	)

	KillSchema = codec.NewSchema("Kill", // nolint:gochecknoglobals
		codec.Bind("attacker", codec.Uint8),
		codec.Bind("victim", codec.Uint8),
		codec.Bind("weapon", codec.String),
	)

	ReviveSchema = codec.NewSchema("Revive", // nolint:gochecknoglobals
		codec.Bind("medic", codec.Uint8),
		codec.Bind("patient", codec.Uint8),
	)

	TeamTicketsSchema = codec.NewSchema("TeamTickets", // nolint:gochecknoglobals
		codec.Bind("tickets", codec.Int16),
	)

	FlagListSchema = codec.NewSchema("FlagList", // nolint:gochecknoglobals
		codec.Bind("id", codec.Int16),
		codec.Bind("owner", codec.Uint8),
		codec.Bind("position", Position),
		codec.Bind("radius", codec.Uint16),
	)

	FlagUpdateSchema = codec.NewSchema("FlagUpdate", // nolint:gochecknoglobals
		codec.Bind("id", codec.Int16),
		codec.Bind("new_owner", codec.Uint8),
	)

	TicksSchema = codec.NewSchema("Ticks", // nolint:gochecknoglobals
		codec.Bind("ticks", codec.Uint8),
	)
)

func requireVehicle(_ any, rec codec.Record) error {
	if id, ok := rec["id"].(int16); !ok || id < 0 {
		return codec.ErrSkipField
	}
	return nil
}

// Catalogue resolves a message type code to the field that decodes its
// payload.
type Catalogue interface {
	SchemaFor(code uint8) (codec.Field, error)
}

// Table is a Catalogue backed by a map.
type Table map[Type]codec.Field

// SchemaFor returns the payload field for code, or an UnknownTypeError.
func (t Table) SchemaFor(code uint8) (codec.Field, error) {
	field, ok := t[Type(code)]
	if !ok {
		return nil, UnknownTypeError{Code: code}
	}
	return field, nil
}

var defaultTable = Table{ // nolint:gochecknoglobals
	ServerDetails:    ServerDetailsSchema,
	PlayerAdd:        codec.ListOf(PlayerAddSchema),
	PlayerUpdate:     codec.ListOf(PlayerUpdateSchema),
	PlayerRemove:     PlayerRemoveSchema,
	VehicleAdd:       codec.ListOf(VehicleAddSchema),
	VehicleUpdate:    codec.ListOf(VehicleUpdateSchema),
	VehicleDestroyed: VehicleDestroyedSchema,
	FobAdd:           codec.ListOf(FobAddSchema),
	FobRemove:        codec.ListOf(FobRemoveSchema),
	Kill:             KillSchema,
	Revive:           ReviveSchema,
	TicketsTeam1:     TeamTicketsSchema,
	TicketsTeam2:     TeamTicketsSchema,
	FlagList:         FlagListSchema,
	FlagUpdate:       FlagUpdateSchema,
	Ticks:            TicksSchema,
}

// Default returns the catalogue of known payload schemas.
func Default() Catalogue {
	return defaultTable
}
