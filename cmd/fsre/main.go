package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/humbornjo/fsre"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("fsre: ")
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

type output struct {
	Accept  bool          `json:"accept"`
	Pattern []fsre.Symbol `json:"pattern,omitempty"`
	Ops     uint64        `json:"ops"`
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	flags := flag.NewFlagSet("fsre", flag.ContinueOnError)
	var (
		engine     = flags.String("engine", "table", "Engine to evaluate with: table, vm or both")
		maxPattern = flags.Int("max-pattern", fsre.DefaultMaxPatternLen, "Pattern capacity")
		maxInput   = flags.Int("max-input", fsre.DefaultMaxInputLen, "Input capacity")
		maxThreads = flags.Int("max-threads", fsre.DefaultMaxThreads, "Thread pool size of the vm engine")
		lookupBits = flags.Int("lookup-bits", envInt(fsre.EnvLookupBits), "Comparison width (default $"+fsre.EnvLookupBits+")")
		echo       = flags.Bool("echo", false, "Include the padded pattern symbols in the output")
		trace      = flags.Bool("trace", false, "Log every engine snapshot to stderr")
	)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: fsre [options] [input.json]\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	mode, err := fsre.ParseEngine(*engine)
	if err != nil {
		return err
	}
	var hook func(fsre.TraceEvent)
	if *trace {
		hook = logEvent
	}
	evaluator, err := fsre.New(fsre.Config{
		MaxPatternLen: *maxPattern,
		MaxInputLen:   *maxInput,
		MaxThreads:    *maxThreads,
		LookupBits:    *lookupBits,
	}, fsre.WithEngine(mode), fsre.WithTrace(hook))
	if err != nil {
		return err
	}

	in, err := readInput(flags.Args(), stdin)
	if err != nil {
		return err
	}
	res, err := evaluator.Match(in)
	if err != nil {
		return err
	}

	out := output{Accept: res.Accept, Ops: res.Ops}
	if *echo {
		out.Pattern = res.Pattern
	}
	return json.NewEncoder(stdout).Encode(out)
}

func envInt(name string) int {
	n, _ := strconv.Atoi(os.Getenv(name))
	return n
}

func readInput(args []string, stdin io.Reader) (fsre.Input, error) {
	var in fsre.Input
	r := stdin
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return in, err
		}
		defer f.Close() // nolint: errcheck
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, fmt.Errorf("read input record: %w", err)
	}
	return in, nil
}

func logEvent(ev fsre.TraceEvent) {
	if ev.States != nil {
		log.Printf("%s step=%d states=%v", ev.Engine, ev.Step, ev.States)
		return
	}
	log.Printf("%s thread=%d pc=%d sp=%d", ev.Engine, ev.Thread, ev.PC, ev.SP)
}
