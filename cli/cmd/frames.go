package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/wkalt/prdemo/cli/util"
	"github.com/wkalt/prdemo/demo"
	"github.com/wkalt/prdemo/messages"
	cutil "github.com/wkalt/prdemo/util"
)

var (
	framesSummary bool
	framesLimit   int
)

type frameRow struct {
	offset int
	length int
	typ    messages.Type
}

func readFrames(buf []byte, limit int) ([]frameRow, error) {
	rows := []frameRow{}
	for frame := range demo.Frames(buf) {
		if limit > 0 && len(rows) >= limit {
			break
		}
		code, err := frame.TypeCode()
		if err != nil {
			return nil, err
		}
		rows = append(rows, frameRow{offset: frame.Offset, length: frame.Length, typ: messages.Type(code)})
	}
	return rows, nil
}

func printFrames(w io.Writer, rows []frameRow, summary bool) {
	if summary {
		groups := cutil.GroupBy(rows, func(r frameRow) messages.Type { return r.typ })
		table := util.NewTable("Type", "Code", "Count", "Bytes").AlignRight(2, 3)
		for _, t := range cutil.Okeys(groups) {
			var size uint64
			for _, row := range groups[t] {
				size += uint64(row.length)
			}
			table.Append(
				t.String(),
				fmt.Sprintf("0x%02x", uint8(t)),
				strconv.Itoa(len(groups[t])),
				cutil.HumanBytes(size),
			)
		}
		table.Print(w)
		return
	}
	table := util.NewTable("Offset", "Type", "Code", "Length").AlignRight(0, 3)
	for _, row := range rows {
		table.Append(
			strconv.Itoa(row.offset),
			row.typ.String(),
			fmt.Sprintf("0x%02x", uint8(row.typ)),
			strconv.Itoa(row.length),
		)
	}
	table.Print(w)
}

var framesCmd = &cobra.Command{
	Use:   "frames [file]",
	Short: "List the frames of a demo",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			cmd.Usage()
			return
		}
		buf, err := demo.Open(args[0])
		checkErr(err)
		rows, err := readFrames(buf, cutil.When(framesSummary, 0, framesLimit))
		checkErr(err)
		printFrames(os.Stdout, rows, framesSummary)
	},
}

func init() {
	rootCmd.AddCommand(framesCmd)
	framesCmd.PersistentFlags().BoolVarP(&framesSummary, "summary", "s", false, "print frame counts per message type")
	framesCmd.PersistentFlags().IntVarP(&framesLimit, "limit", "n", 0, "print at most n frames (0 for all)")
}
