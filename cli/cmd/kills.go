package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wkalt/prdemo/analyzer"
	"github.com/wkalt/prdemo/cli/util"
	"github.com/wkalt/prdemo/demo"
	"github.com/wkalt/prdemo/messages"
	"github.com/wkalt/prdemo/pipeline"
	"github.com/wkalt/prdemo/runner"
	"github.com/wkalt/prdemo/util/log"
)

var (
	killsGraph bool
)

var (
	attackerColor = color.New(color.FgRed)
	weaponColor   = color.New(color.FgYellow)
	victimColor   = color.New(color.FgBlue)
)

// killFeedRunner wires the kill feed to a printer writing to w.
func killFeedRunner(w io.Writer, open demo.OpenFunc) (*runner.Runner, error) {
	p, err := pipeline.New(open, messages.Default())
	if err != nil {
		return nil, err
	}
	feed, err := p.KillFeed()
	if err != nil {
		return nil, err
	}
	_, err = p.Handle("printer", func(_ context.Context, data any, _ analyzer.Event) (analyzer.Result, error) {
		kill, ok := data.(pipeline.KillEntry)
		if !ok {
			return analyzer.None(), fmt.Errorf("unexpected input %T", data)
		}
		_, err := fmt.Fprintf(w, "%8d  %s [%s] %s\n",
			kill.Offset,
			attackerColor.Sprint(kill.Attacker),
			weaponColor.Sprint(kill.Weapon),
			victimColor.Sprint(kill.Victim),
		)
		return analyzer.None(), err
	}, analyzer.Emits("printed"), analyzer.Listens(feed, pipeline.EventKill))
	if err != nil {
		return nil, err
	}
	end, err := p.Event("printer", "printed")
	if err != nil {
		return nil, err
	}
	return p.Runner(end)
}

// printGraph writes each event of the runner with its dependents.
func printGraph(w io.Writer, r *runner.Runner) {
	fmt.Fprintf(w, "start: %s\n", r.Start())
	for _, ev := range r.Events() {
		for _, dependent := range r.Dependents(ev) {
			fmt.Fprintf(w, "%s -> %s\n", ev, dependent)
		}
	}
}

var killsCmd = &cobra.Command{
	Use:   "kills [file or glob...]",
	Short: "Print the kill feed of demos",
	Run: func(cmd *cobra.Command, args []string) {
		r, err := killFeedRunner(os.Stdout, demo.Open)
		checkErr(err)
		if killsGraph {
			printGraph(os.Stdout, r)
			return
		}
		if len(args) == 0 {
			cmd.Usage()
			return
		}
		ctx := runContext(cmd)
		paths, err := util.ExpandGlobs(args)
		checkErr(err)
		for _, path := range paths {
			if len(paths) > 1 {
				fmt.Fprintf(os.Stdout, "%s\n", color.New(color.Bold).Sprint(path))
			}
			checkErr(r.Run(log.AddTags(ctx, "file", path), path))
		}
	},
}

func init() {
	rootCmd.AddCommand(killsCmd)
	killsCmd.PersistentFlags().BoolVarP(&killsGraph, "graph", "", false, "print the analyzer graph instead of running it")
}
