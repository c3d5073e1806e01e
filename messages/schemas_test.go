package messages_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wkalt/prdemo/buffer"
	"github.com/wkalt/prdemo/codec"
	"github.com/wkalt/prdemo/messages"
	"github.com/wkalt/prdemo/util/testutils"
)

func TestTypeNames(t *testing.T) {
	cases := []struct {
		assertion string
		typ       messages.Type
		expected  string
	}{
		{"server details", messages.ServerDetails, "server_details"},
		{"kill", messages.Kill, "kill"},
		{"ticks", messages.Ticks, "ticks"},
		{"squad leader orders", messages.SquadLeaderOrders, "sl_orders"},
		{"unknown", messages.Type(0x99), "unknown(0x99)"},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			require.Equal(t, c.expected, c.typ.String())
		})
	}

	typ, err := messages.ParseType("vehicle_destroyed")
	require.NoError(t, err)
	require.Equal(t, messages.VehicleDestroyed, typ)

	_, err = messages.ParseType("teleport")
	require.Error(t, err)

	types := messages.Types()
	require.Equal(t, messages.ServerDetails, types[0])
	require.Equal(t, messages.Ticks, types[len(types)-1])
	for i := 1; i < len(types); i++ {
		require.Less(t, types[i-1], types[i])
	}
}

func TestCatalogue(t *testing.T) {
	cat := messages.Default()
	field, err := cat.SchemaFor(uint8(messages.Kill))
	require.NoError(t, err)
	require.Equal(t, messages.KillSchema, field)

	field, err = cat.SchemaFor(uint8(messages.PlayerAdd))
	require.NoError(t, err)
	require.IsType(t, &codec.List{}, field)

	_, err = cat.SchemaFor(uint8(messages.Chat))
	require.ErrorIs(t, err, messages.UnknownTypeError{})
	require.ErrorContains(t, err, "chat")

	_, err = cat.SchemaFor(0x99)
	require.ErrorIs(t, err, messages.UnknownTypeError{})
}

func TestServerDetails(t *testing.T) {
	data := testutils.Flatten(
		testutils.I32b(4),
		testutils.F32b(0.5),
		testutils.Cstr("127.0.0.1:16567"),
		testutils.Cstr("PR server"),
		testutils.U8b(100),
		testutils.U16b(14400),
		testutils.U16b(120),
		testutils.Cstr("kashan_desert"),
		testutils.Cstr("gpm_cq"),
		testutils.U8b(64),
		testutils.Cstr("US Army"),
		testutils.Cstr("MEC"),
		testutils.U32b(1600000000),
		testutils.U16b(400),
		testutils.U16b(350),
	)
	rec, err := messages.ServerDetailsSchema.DecodeRecord(buffer.New(data))
	require.NoError(t, err)
	require.Equal(t, codec.Record{
		"version":            int32(4),
		"demo_time_per_tick": float32(0.5),
		"ip_port":            "127.0.0.1:16567",
		"server_name":        "PR server",
		"max_players":        uint8(100),
		"round_length":       uint16(14400),
		"briefing_time":      uint16(120),
		"map":                codec.Record{"name": "kashan_desert", "gamemode": "gpm_cq", "layer": uint8(64)},
		"blufor_team":        "US Army",
		"opfor_team":         "MEC",
		"start_time":         time.Unix(1600000000, 0).UTC(),
		"tickets1":           uint16(400),
		"tickets2":           uint16(350),
	}, rec)

	out, err := messages.ServerDetailsSchema.EncodeRecord(rec)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestPlayerUpdateList(t *testing.T) {
	// first: team, vehicle, health; on foot.
	// second: vehicle, kit_name; in a vehicle seat.
	data := testutils.Flatten(
		testutils.U16b(1|4|8),
		testutils.U8b(3),
		testutils.I8b(2),
		testutils.I16b(-1),
		testutils.I8b(100),

		testutils.U16b(4|32768),
		testutils.U8b(7),
		testutils.I16b(12),
		testutils.Cstr("gunner"),
		testutils.I8b(1),
		testutils.Cstr("rifleman"),
	)
	field, err := messages.Default().SchemaFor(uint8(messages.PlayerUpdate))
	require.NoError(t, err)
	value, err := codec.Unmarshal(field, buffer.New(data))
	require.NoError(t, err)
	records, ok := value.([]codec.Record)
	require.True(t, ok)
	require.Len(t, records, 2)

	first := records[0]
	flags, ok := first["flags"].(codec.FlagSet)
	require.True(t, ok)
	require.Len(t, flags, len(messages.PlayerUpdateFlags))
	require.True(t, flags["team"])
	require.False(t, flags["squad"])
	require.Equal(t, uint8(3), first["id"])
	require.Equal(t, int8(2), first["team"])
	require.Equal(t, codec.Record{"id": int16(-1)}, first["vehicle"])
	require.Equal(t, int8(100), first["health"])
	require.NotContains(t, first, "squad")
	require.NotContains(t, first, "kit_name")

	second := records[1]
	require.Equal(t, uint8(7), second["id"])
	require.Equal(t, codec.Record{
		"id":          int16(12),
		"seat_name":   "gunner",
		"seat_number": int8(1),
	}, second["vehicle"])
	require.Equal(t, "rifleman", second["kit_name"])
	require.NotContains(t, second, "team")

	out, err := codec.Marshal(field, records)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestVehicleUpdateSynthesizedFlags(t *testing.T) {
	rec := codec.Record{
		"id":       int16(40),
		"position": codec.Record{"x": int16(1), "y": int16(2), "z": int16(3)},
		"health":   int8(-1),
	}
	out, err := messages.VehicleUpdateSchema.EncodeRecord(rec)
	require.NoError(t, err)
	require.Equal(t, testutils.Flatten(
		testutils.U8b(2|8),
		testutils.I16b(40),
		testutils.I16b(1), testutils.I16b(2), testutils.I16b(3),
		testutils.I8b(-1),
	), out)

	decoded, err := messages.VehicleUpdateSchema.DecodeRecord(buffer.New(out))
	require.NoError(t, err)
	require.Equal(t, codec.FlagSet{"team": false, "position": true, "rotation": false, "health": true}, decoded["flags"])
	delete(decoded, "flags")
	require.Equal(t, rec, decoded)
}

func TestKillTruncated(t *testing.T) {
	rec, err := messages.KillSchema.DecodeRecord(buffer.New([]byte{1}))
	require.NoError(t, err)
	require.Equal(t, codec.Record{"attacker": uint8(1)}, rec)
}

func allFlags(flags []codec.Flag, off ...string) codec.FlagSet {
	set := codec.FlagSet{}
	for _, flag := range flags {
		set[flag.Name] = true
	}
	for _, name := range off {
		set[name] = false
	}
	return set
}

func TestCatalogueRoundTrip(t *testing.T) {
	pos := codec.Record{"x": int16(-10), "y": int16(20), "z": int16(300)}
	samples := map[messages.Type]any{
		messages.ServerDetails: codec.Record{
			"version":            int32(4),
			"demo_time_per_tick": float32(0.25),
			"ip_port":            "10.0.0.1:16567",
			"server_name":        "PR server",
			"max_players":        uint8(100),
			"round_length":       uint16(14400),
			"briefing_time":      uint16(120),
			"map":                codec.Record{"name": "muttrah_city_2", "gamemode": "gpm_cq", "layer": uint8(64)},
			"blufor_team":        "USMC",
			"opfor_team":         "MEC",
			"start_time":         time.Unix(1700000000, 0).UTC(),
			"tickets1":           uint16(300),
			"tickets2":           uint16(250),
		},
		messages.PlayerAdd: []codec.Record{
			{"id": uint8(1), "ign": "alice", "hash": "h1", "ip": "1.2.3.4"},
			{"id": uint8(2), "ign": "", "hash": "h2", "ip": "5.6.7.8"},
		},
		messages.PlayerUpdate: []codec.Record{
			{
				"flags":          allFlags(messages.PlayerUpdateFlags, "teamkills"),
				"id":             uint8(4),
				"team":           int8(1),
				"squad":          uint8(2),
				"vehicle":        codec.Record{"id": int16(7), "seat_name": "driver", "seat_number": int8(0)},
				"health":         int8(75),
				"score":          int16(12),
				"teamwork_score": int16(30),
				"kills":          int16(3),
				"deaths":         int16(1),
				"ping":           int16(45),
				"is_alive":       true,
				"is_joining":     false,
				"position":       pos,
				"rotation":       int16(-90),
				"kit_name":       "medic",
			},
			{
				"flags":   allFlags(messages.PlayerUpdateFlags, "team", "squad", "health", "score", "teamwork_score", "kills", "teamkills", "deaths", "ping", "is_alive", "is_joining", "position", "rotation", "kit_name"),
				"id":      uint8(5),
				"vehicle": codec.Record{"id": int16(-1)},
			},
		},
		messages.PlayerRemove: codec.Record{"id": uint8(9)},
		messages.VehicleAdd: []codec.Record{
			{"id": int16(1), "name": "humvee", "max_health": uint16(800)},
			{"id": int16(2), "name": "t72", "max_health": uint16(3000)},
		},
		messages.VehicleUpdate: []codec.Record{
			{"flags": allFlags(messages.VehicleUpdateFlags), "id": int16(1), "team": int8(2), "position": pos, "rotation": int16(180), "health": int8(50)},
			{"flags": allFlags(messages.VehicleUpdateFlags, "team", "rotation", "health"), "id": int16(2), "position": pos},
		},
		messages.VehicleDestroyed: codec.Record{"id": int16(2), "is_killer_known": true, "killer": uint8(4)},
		messages.FobAdd: []codec.Record{
			{"id": int32(100), "team": int8(1), "position": pos},
		},
		messages.FobRemove:    []codec.Record{{"id": int32(100)}, {"id": int32(101)}},
		messages.Kill:         codec.Record{"attacker": uint8(1), "victim": uint8(2), "weapon": "knife"},
		messages.Revive:       codec.Record{"medic": uint8(4), "patient": uint8(2)},
		messages.TicketsTeam1: codec.Record{"tickets": int16(299)},
		messages.TicketsTeam2: codec.Record{"tickets": int16(-1)},
		messages.FlagList:     codec.Record{"id": int16(3), "owner": uint8(1), "position": pos, "radius": uint16(50)},
		messages.FlagUpdate:   codec.Record{"id": int16(3), "new_owner": uint8(2)},
		messages.Ticks:        codec.Record{"ticks": uint8(5)},
	}
	cat := messages.Default()
	for _, typ := range messages.Types() {
		field, err := cat.SchemaFor(uint8(typ))
		if err != nil {
			require.NotContains(t, samples, typ)
			continue
		}
		t.Run(typ.String(), func(t *testing.T) {
			sample, ok := samples[typ]
			require.True(t, ok, "no sample for %s", typ)
			out, err := codec.Marshal(field, sample)
			require.NoError(t, err)
			cur := buffer.New(out)
			decoded, err := codec.Unmarshal(field, cur)
			require.NoError(t, err)
			require.Equal(t, sample, decoded)
			require.Equal(t, len(out), cur.Pos())
		})
	}
}
