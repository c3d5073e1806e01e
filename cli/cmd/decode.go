package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/wkalt/prdemo/analyzer"
	"github.com/wkalt/prdemo/cli/util"
	"github.com/wkalt/prdemo/demo"
	"github.com/wkalt/prdemo/filter"
	"github.com/wkalt/prdemo/messages"
	"github.com/wkalt/prdemo/pipeline"
	"github.com/wkalt/prdemo/util/log"
	"golang.org/x/sync/errgroup"
)

var (
	decodeTypes   []string
	decodeWhere   string
	decodeWorkers int
)

type decodedLine struct {
	File   string `json:"file"`
	Offset int    `json:"offset"`
	Type   string `json:"type"`
	Record any    `json:"record"`
}

// decodableTypes returns the message types with a schema in the catalogue.
func decodableTypes(cat messages.Catalogue) []messages.Type {
	types := []messages.Type{}
	for _, t := range messages.Types() {
		if _, err := cat.SchemaFor(uint8(t)); err == nil {
			types = append(types, t)
		}
	}
	return types
}

func parseTypes(names []string, cat messages.Catalogue) ([]messages.Type, error) {
	if len(names) == 0 {
		return decodableTypes(cat), nil
	}
	types := make([]messages.Type, 0, len(names))
	for _, name := range names {
		t, err := messages.ParseType(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// decodeFile runs the decoder pipeline over one demo and writes a JSON line
// for every record matching f.
func decodeFile(
	ctx context.Context,
	w io.Writer,
	open demo.OpenFunc,
	path string,
	types []messages.Type,
	f *filter.Filter,
) (int, error) {
	p, err := pipeline.New(open, messages.Default())
	if err != nil {
		return 0, err
	}
	decoder, err := p.Decoder(types...)
	if err != nil {
		return 0, err
	}
	count := 0
	sink, err := p.Handle("writer", func(_ context.Context, data any, _ analyzer.Event) (analyzer.Result, error) {
		decoded, ok := data.(pipeline.Decoded)
		if !ok {
			return analyzer.None(), fmt.Errorf("unexpected input %T", data)
		}
		if f != nil {
			match, err := f.MatchValue(decoded.Value)
			if err != nil {
				return analyzer.None(), err
			}
			if !match {
				return analyzer.None(), nil
			}
		}
		line, err := json.Marshal(decodedLine{
			File:   path,
			Offset: decoded.Offset,
			Type:   decoded.Type.String(),
			Record: decoded.Value,
		})
		if err != nil {
			return analyzer.None(), fmt.Errorf("failed to encode record: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return analyzer.None(), fmt.Errorf("failed to write record: %w", err)
		}
		count++
		return analyzer.None(), nil
	}, analyzer.Emits("written"), analyzer.Listens(decoder, pipeline.EventRecord))
	if err != nil {
		return 0, err
	}
	r, err := p.Runner(sink.Event("written"))
	if err != nil {
		return 0, err
	}
	if err := r.Run(ctx, path); err != nil {
		return count, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return count, nil
}

var decodeCmd = &cobra.Command{
	Use:   "decode [file or glob...]",
	Short: "Decode demo messages to JSON lines",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Usage()
			return
		}
		ctx := runContext(cmd)
		paths, err := util.ExpandGlobs(args)
		checkErr(err)
		cat := messages.Default()
		types, err := parseTypes(decodeTypes, cat)
		checkErr(err)
		var f *filter.Filter
		if decodeWhere != "" {
			f, err = filter.Parse(decodeWhere)
			checkErr(err)
		}
		if decodeWorkers < 1 {
			bailf("--workers must be at least 1")
		}

		mtx := &sync.Mutex{}
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(decodeWorkers)
		for _, path := range paths {
			g.Go(func() error {
				ctx := log.AddTags(ctx, "file", path)
				buf := &bytes.Buffer{}
				count, err := decodeFile(ctx, buf, demo.Open, path, types, f)
				if err != nil {
					return err
				}
				mtx.Lock()
				defer mtx.Unlock()
				if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
				log.Debugw(ctx, "decoded demo", "records", count)
				return nil
			})
		}
		checkErr(g.Wait())
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.PersistentFlags().StringSliceVarP(&decodeTypes, "types", "t", nil, "message types to decode (default: all decodable types)")
	decodeCmd.PersistentFlags().StringVarP(&decodeWhere, "where", "w", "", `filter expression, e.g. 'weapon ~ "knife" and attacker = 3'`)
	decodeCmd.PersistentFlags().IntVarP(&decodeWorkers, "workers", "", cfg.Workers, "number of demos decoded concurrently")
}
