package main

import (
	"flag"

	"github.com/Comcast/atomspace/sio"
)

func NewStdCouplings(args []string) (*sio.Stdio, *flag.FlagSet) {

	var (
		std = sio.NewStdio(false)
		fs  = flag.NewFlagSet("std", flag.ExitOnError)
	)

	fs.BoolVar(&std.EchoInput, "echo", false, "echo input")
	fs.BoolVar(&std.Timestamps, "ts", false, "print timestamps")
	fs.BoolVar(&std.ShellExpand, "sh", false, "shell-expand input")
	fs.BoolVar(&std.PadTags, "pad", false, "pad tags")
	fs.BoolVar(&std.Tags, "tags", true, "tags")
	fs.BoolVar(&std.PrintUpdates, "updates", false, "print atoms added to spaces")
	fs.StringVar(&std.StateOutputFilename, "state-out", "", "state output filename")
	fs.BoolVar(&std.WriteStatePerMsg, "write-state-msg", false, "write state after each msg")
	fs.BoolVar(&std.PrintDiag, "diag", false, "print diagnostic data")

	if args != nil {
		fs.Parse(args)
	}

	return std, fs
}
