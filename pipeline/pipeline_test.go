package pipeline_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wkalt/prdemo/analyzer"
	"github.com/wkalt/prdemo/codec"
	"github.com/wkalt/prdemo/messages"
	"github.com/wkalt/prdemo/pipeline"
	"github.com/wkalt/prdemo/util/testutils"
)

func memOpener(files map[string][]byte) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		buf, ok := files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return buf, nil
	}
}

func collector[T any](t *testing.T, p *pipeline.Pipeline, upstream *analyzer.Analyzer, event string) (*analyzer.Analyzer, *[]T) {
	t.Helper()
	out := []T{}
	sink, err := p.Handle("sink", func(_ context.Context, data any, _ analyzer.Event) (analyzer.Result, error) {
		v, ok := data.(T)
		if !ok {
			return analyzer.None(), errors.New("bad sink input")
		}
		out = append(out, v)
		return analyzer.None(), nil
	}, analyzer.Emits("done"), analyzer.Listens(upstream, event))
	require.NoError(t, err)
	return sink, &out
}

func killFrame(attacker, victim uint8, weapon string) []byte {
	return testutils.Frame(uint8(messages.Kill), testutils.U8b(attacker), testutils.U8b(victim), testutils.Cstr(weapon))
}

func TestDecoder(t *testing.T) {
	files := map[string][]byte{
		"round.PRdemo": testutils.Flatten(
			killFrame(1, 2, "knife"),
			testutils.Frame(uint8(messages.Chat), testutils.Cstr("hi")),
			testutils.Frame(uint8(messages.Ticks), testutils.U8b(3)),
		),
		"bad.PRdemo": testutils.Frame(0x99, testutils.U8b(1)),
	}
	p, err := pipeline.New(memOpener(files), messages.Default())
	require.NoError(t, err)
	decoder, err := p.Decoder(messages.Kill, messages.Ticks)
	require.NoError(t, err)
	sink, records := collector[pipeline.Decoded](t, p, decoder, pipeline.EventRecord)

	r, err := p.Runner(sink.Event("done"))
	require.NoError(t, err)
	require.Equal(t, []*analyzer.Analyzer{decoder}, r.Dependents(p.TypeEvent(messages.Kill)))
	require.Empty(t, r.Dependents(p.TypeEvent(messages.Chat)))

	ctx := context.Background()
	require.NoError(t, r.Run(ctx, "round.PRdemo"))
	require.Equal(t, []pipeline.Decoded{
		{
			Type:   messages.Kill,
			Offset: 2,
			Value:  codec.Record{"attacker": uint8(1), "victim": uint8(2), "weapon": "knife"},
		},
		{
			Type:   messages.Ticks,
			Offset: 19,
			Value:  codec.Record{"ticks": uint8(3)},
		},
	}, *records)

	t.Run("unknown type code", func(t *testing.T) {
		err := r.Run(ctx, "bad.PRdemo")
		require.ErrorIs(t, err, messages.UnknownTypeError{})
	})
	t.Run("open failure", func(t *testing.T) {
		err := r.Run(ctx, "missing.PRdemo")
		require.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("wrong input", func(t *testing.T) {
		require.Error(t, r.Run(ctx, 42))
	})
}

func TestDecoderConstruction(t *testing.T) {
	p, err := pipeline.New(memOpener(nil), messages.Default())
	require.NoError(t, err)

	_, err = p.Decoder()
	require.Error(t, err)

	_, err = p.Decoder(messages.Chat)
	require.ErrorIs(t, err, messages.UnknownTypeError{})

	_, err = p.Decoder(messages.Kill)
	require.NoError(t, err)
	_, err = p.Decoder(messages.Ticks)
	require.ErrorIs(t, err, analyzer.ErrDuplicateAnalyzer)

	names := []string{}
	for _, a := range p.Analyzers() {
		names = append(names, a.Name())
	}
	require.Equal(t, []string{"opener", "parser", "dispatcher", "decoder"}, names)
	_, ok := p.Lookup("decoder")
	require.True(t, ok)
}

func TestKillFeed(t *testing.T) {
	players := testutils.Frame(uint8(messages.PlayerAdd),
		testutils.U8b(1), testutils.Cstr("alice"), testutils.Cstr("h1"), testutils.Cstr("1.2.3.4"),
		testutils.U8b(2), testutils.Cstr("bob"), testutils.Cstr("h2"), testutils.Cstr("5.6.7.8"),
	)
	files := map[string][]byte{
		"a.PRdemo": testutils.Flatten(
			players,
			killFrame(1, 2, "knife"),
			killFrame(2, 9, "m16"),
			testutils.Frame(uint8(messages.Kill), testutils.U8b(1)),
		),
		"b.PRdemo": killFrame(1, 2, "knife"),
	}
	p, err := pipeline.New(memOpener(files), messages.Default())
	require.NoError(t, err)
	feed, err := p.KillFeed()
	require.NoError(t, err)
	sink, kills := collector[pipeline.KillEntry](t, p, feed, pipeline.EventKill)

	r, err := p.Runner(sink.Event("done"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, r.Run(ctx, "a.PRdemo"))
	require.NoError(t, r.Run(ctx, "b.PRdemo"))

	lines := []string{}
	for _, k := range *kills {
		lines = append(lines, k.String())
	}
	require.Equal(t, []string{
		"alice [knife] bob",
		"bob [m16] #9",
		"#1 [knife] #2",
	}, lines)
}

func TestEventLookup(t *testing.T) {
	p, err := pipeline.New(memOpener(nil), messages.Default())
	require.NoError(t, err)
	ev, err := p.Event("dispatcher", "kill")
	require.NoError(t, err)
	require.Equal(t, p.TypeEvent(messages.Kill), ev)

	_, err = p.Event("killfeed", pipeline.EventKill)
	require.ErrorIs(t, err, analyzer.ErrUnknownAnalyzer)
}
