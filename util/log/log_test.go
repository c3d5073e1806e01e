package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wkalt/prdemo/util/log"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		assertion string
		input     string
		expected  slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"empty is info", "", slog.LevelInfo},
		{"warn", "WARN", slog.LevelWarn},
		{"error", "error", slog.LevelError},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			level, err := log.ParseLevel(c.input)
			require.NoError(t, err)
			require.Equal(t, c.expected, level)
		})
	}
	_, err := log.ParseLevel("loud")
	require.Error(t, err)
}

func TestTags(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	buf := &bytes.Buffer{}
	log.Configure(buf, slog.LevelInfo)

	ctx := log.AddTags(context.Background(), "run", "r1")
	a := log.AddTags(ctx, "file", "a.PRdemo")
	b := log.AddTags(ctx, "file", "b.PRdemo")

	log.Infow(a, "decoded", "frames", 3)
	require.Contains(t, buf.String(), "msg=decoded")
	require.Contains(t, buf.String(), "frames=3")
	require.Contains(t, buf.String(), "run=r1")
	require.Contains(t, buf.String(), "file=a.PRdemo")
	require.NotContains(t, buf.String(), "b.PRdemo")

	buf.Reset()
	log.Infof(b, "decoded %d frames", 2)
	require.Contains(t, buf.String(), `msg="decoded 2 frames"`)
	require.Contains(t, buf.String(), "file=b.PRdemo")
	require.NotContains(t, buf.String(), "a.PRdemo")

	buf.Reset()
	log.Debugw(a, "hidden")
	require.Empty(t, buf.String())

	require.Panics(t, func() { log.AddTags(ctx, "odd") })
}
