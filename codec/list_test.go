package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wkalt/prdemo/buffer"
	"github.com/wkalt/prdemo/codec"
	"github.com/wkalt/prdemo/util/testutils"
)

func TestListDecode(t *testing.T) {
	player := codec.NewSchema("PlayerAdd",
		codec.Bind("id", codec.Uint8),
		codec.Bind("ign", codec.String),
	)
	list := codec.ListOf(player)
	cases := []struct {
		assertion string
		input     []byte
		expected  []codec.Record
	}{
		{
			"empty",
			[]byte{},
			[]codec.Record{},
		},
		{
			"runs to the end of the data",
			testutils.Flatten(
				testutils.U8b(1), testutils.Cstr("alpha"),
				testutils.U8b(2), testutils.Cstr("bravo"),
			),
			[]codec.Record{
				{"id": uint8(1), "ign": "alpha"},
				{"id": uint8(2), "ign": "bravo"},
			},
		},
		{
			"partial final element is kept",
			testutils.Flatten(
				testutils.U8b(1), testutils.Cstr("alpha"),
				testutils.U8b(2), []byte("bra"),
			),
			[]codec.Record{
				{"id": uint8(1), "ign": "alpha"},
				{"id": uint8(2), "ign": "bra"},
			},
		},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			records, err := list.DecodeList(buffer.New(c.input))
			require.NoError(t, err)
			require.Equal(t, c.expected, records)
		})
	}
}

func TestListStopsOnEmptyElement(t *testing.T) {
	elem := codec.NewSchema("Element",
		codec.Bind("id", codec.Uint8),
		codec.Bind("name", codec.String),
		codec.Validate("id", func(v any, _ codec.Record) error {
			if v.(uint8) == 0 {
				return codec.ErrSkipField
			}
			return nil
		}),
		codec.Validate("name", func(_ any, rec codec.Record) error {
			if _, ok := rec["id"]; !ok {
				return codec.ErrSkipField
			}
			return nil
		}),
	)
	data := testutils.Flatten(
		testutils.U8b(10), testutils.Cstr("a"),
		testutils.U8b(11), testutils.Cstr("b"),
		testutils.U8b(0),
		testutils.U8b(12), testutils.Cstr("c"),
	)
	cur := buffer.New(data)
	records, err := codec.ListOf(elem).DecodeList(cur)
	require.NoError(t, err)
	require.Equal(t, []codec.Record{
		{"id": uint8(10), "name": "a"},
		{"id": uint8(11), "name": "b"},
	}, records)
	require.Equal(t, 6, cur.Pos())
}

func TestListRoundTrip(t *testing.T) {
	fob := codec.NewSchema("FobAdd",
		codec.Bind("id", codec.Int32),
		codec.Bind("team", codec.Int8),
	)
	list := codec.ListOf(fob)
	records := []codec.Record{
		{"id": int32(1), "team": int8(1)},
		{"id": int32(2), "team": int8(2)},
	}
	out, err := list.EncodeList(records)
	require.NoError(t, err)
	require.Len(t, out, 10)

	decoded, err := list.DecodeList(buffer.New(out))
	require.NoError(t, err)
	require.Equal(t, records, decoded)

	viaField, err := codec.Marshal(list, []any{records[0], map[string]any{"id": int32(2), "team": int8(2)}})
	require.NoError(t, err)
	require.Equal(t, out, viaField)

	_, err = list.EncodeList([]codec.Record{{"id": int32(1)}})
	require.ErrorIs(t, err, codec.MissingFieldError{})
}

func TestListStringFirstElement(t *testing.T) {
	elem := codec.NewSchema("Element",
		codec.Bind("name", codec.String),
		codec.Bind("id", codec.Uint8),
	)
	list := codec.ListOf(elem)
	cases := []struct {
		assertion string
		records   []codec.Record
	}{
		{"single element", []codec.Record{{"name": "a", "id": uint8(1)}}},
		{"two elements", []codec.Record{{"name": "a", "id": uint8(1)}, {"name": "bc", "id": uint8(2)}}},
		{"empty name", []codec.Record{{"name": "", "id": uint8(7)}}},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			out, err := list.EncodeList(c.records)
			require.NoError(t, err)
			cur := buffer.New(out)
			decoded, err := list.DecodeList(cur)
			require.NoError(t, err)
			require.Equal(t, c.records, decoded)
			require.Equal(t, len(out), cur.Pos())
		})
	}
}
