package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/relvacode/iso8601"
	"github.com/spf13/cobra"
	"github.com/wkalt/prdemo/analyzer"
	"github.com/wkalt/prdemo/cli/util"
	"github.com/wkalt/prdemo/codec"
	"github.com/wkalt/prdemo/demo"
	"github.com/wkalt/prdemo/messages"
	"github.com/wkalt/prdemo/pipeline"
	cutil "github.com/wkalt/prdemo/util"
	"github.com/wkalt/prdemo/util/log"
)

var (
	infoSince string
)

type demoInfo struct {
	path        string
	server      string
	mapName     string
	started     time.Time
	frames      int
	size        uint64
	fingerprint string
}

// inspect reads the server details and frame count of a demo.
func inspect(ctx context.Context, path string, open demo.OpenFunc) (demoInfo, error) {
	buf, err := open(path)
	if err != nil {
		return demoInfo{}, err
	}
	info := demoInfo{path: path, size: uint64(len(buf)), fingerprint: demo.Fingerprint(buf)}
	p, err := pipeline.New(func(string) ([]byte, error) { return buf, nil }, messages.Default())
	if err != nil {
		return demoInfo{}, err
	}
	counter, err := p.Handle("counter", func(context.Context, any, analyzer.Event) (analyzer.Result, error) {
		info.frames++
		return analyzer.None(), nil
	}, analyzer.Emits("counted"), analyzer.Listens(p.Parser, pipeline.EventMessage))
	if err != nil {
		return demoInfo{}, err
	}
	decoder, err := p.Decoder(messages.ServerDetails)
	if err != nil {
		return demoInfo{}, err
	}
	details, err := p.Handle("details", func(_ context.Context, data any, _ analyzer.Event) (analyzer.Result, error) {
		decoded, _ := data.(pipeline.Decoded)
		rec, _ := decoded.Value.(codec.Record)
		info.server, _ = rec["server_name"].(string)
		info.started, _ = rec["start_time"].(time.Time)
		if m, ok := rec["map"].(codec.Record); ok {
			info.mapName, _ = m["name"].(string)
		}
		return analyzer.None(), nil
	}, analyzer.Emits("done"), analyzer.Listens(decoder, pipeline.EventRecord))
	if err != nil {
		return demoInfo{}, err
	}
	r, err := p.Runner(counter.Event("counted"), details.Event("done"))
	if err != nil {
		return demoInfo{}, err
	}
	if err := r.Run(ctx, path); err != nil {
		return demoInfo{}, err
	}
	return info, nil
}

func (d demoInfo) row() []string {
	started := "unknown"
	if !d.started.IsZero() {
		started = d.started.Format(time.RFC3339)
	}
	return []string{
		d.path,
		d.server,
		d.mapName,
		started,
		strconv.Itoa(d.frames),
		cutil.HumanBytes(d.size),
		d.fingerprint,
	}
}

var infoCmd = &cobra.Command{
	Use:   "info [file or glob...]",
	Short: "Summarize demos",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Usage()
			return
		}
		var since time.Time
		if infoSince != "" {
			var err error
			since, err = iso8601.Parse([]byte(infoSince))
			if err != nil {
				bailf("error parsing --since: %s", err)
			}
		}
		ctx := runContext(cmd)
		paths, err := util.ExpandGlobs(args)
		checkErr(err)
		table := util.NewTable("File", "Server", "Map", "Started", "Frames", "Size", "Fingerprint").AlignRight(4, 5)
		for _, path := range paths {
			info, err := inspect(log.AddTags(ctx, "file", path), path, demo.Open)
			if err != nil {
				bailf("error reading %s: %s", path, err)
			}
			if !since.IsZero() && info.started.Before(since) {
				continue
			}
			table.Append(info.row()...)
		}
		if table.Len() == 0 {
			fmt.Fprintln(os.Stderr, "no demos")
			return
		}
		table.Print(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.PersistentFlags().StringVarP(&infoSince, "since", "", "", "only show demos recorded on or after this ISO 8601 date")
}
