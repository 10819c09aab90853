// Command shaderirdemo drives the core IR packages end to end: build a
// sample shader, validate it, dump it, optionally sketch an LLVM preview of
// one of its functions, and record/diff a golden snapshot. It exists to
// give the library packages a runnable surface, not as a compiler frontend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/ncruces/go-strftime"

	"shaderir/internal/fixtures"
	"shaderir/internal/ir"
	"shaderir/internal/lowerpreview"
	"shaderir/internal/validate"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "build":
		err = cmdBuild()
	case "validate":
		err = cmdValidate()
	case "dump":
		err = cmdDump()
	case "lower":
		err = cmdLower()
	case "snapshot":
		err = cmdSnapshot(args[1:])
	case "serve":
		err = cmdServe(args[1:])
	case "help", "-h", "--help":
		showUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "shaderirdemo: unknown subcommand %q\n", args[0])
		showUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "shaderirdemo: %v\n", err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`usage: shaderirdemo <subcommand>

subcommands:
  build              build the sample shader and report its size
  validate           build and validate the sample shader
  dump               build and print the sample shader's structure
  lower              sketch the sample function's LLVM IR preview
  snapshot <path>    record/diff a golden dump against a SQLite store
  serve <addr>       serve live validation status over a WebSocket`)
}

func cmdBuild() error {
	s := buildSampleShader()
	numInstrs := 0
	for _, fn := range s.Functions {
		for _, o := range fn.Overloads {
			if o.Impl == nil {
				continue
			}
			numInstrs += countInstrs(o.Impl.Body)
		}
	}
	fmt.Printf("built shader: %s uniforms, %s functions, %s instructions\n",
		humanize.Comma(int64(len(s.Uniforms))),
		humanize.Comma(int64(len(s.Functions))),
		humanize.Comma(int64(numInstrs)))
	return nil
}

func cmdValidate() error {
	s := buildSampleShader()
	start := time.Now()
	err := validate.Shader(s)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	stamp := strftime.Format("%Y-%m-%d %H:%M:%S", time.Now())
	fmt.Printf("shader valid as of %s (checked %s)\n", stamp, humanize.Time(start))
	return nil
}

func cmdDump() error {
	s := buildSampleShader()
	if err := validate.Shader(s); err != nil {
		return fmt.Errorf("refusing to dump an invalid shader: %w", err)
	}
	out := dumpShader(s)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Print("--- shader dump ---\n")
	}
	fmt.Print(out)
	return nil
}

func cmdLower() error {
	s := buildSampleShader()
	if err := validate.Shader(s); err != nil {
		return fmt.Errorf("refusing to lower an invalid shader: %w", err)
	}
	text, err := lowerpreview.Preview("shaderirdemo-sample", s.Functions[0].Overloads[0].Impl)
	if err != nil {
		return fmt.Errorf("lower preview unavailable for this sample (expected, it has a loop): %w", err)
	}
	fmt.Print(text)
	return nil
}

func cmdSnapshot(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("snapshot requires a database path")
	}
	store, err := fixtures.Open(args[0])
	if err != nil {
		return err
	}
	defer store.Close()

	s := buildSampleShader()
	if err := validate.Shader(s); err != nil {
		return fmt.Errorf("refusing to snapshot an invalid shader: %w", err)
	}
	dump := dumpShader(s)

	matches, prior, err := store.Diff("sample", dump)
	if err != nil {
		return err
	}
	if prior == nil {
		fmt.Println("no prior snapshot; recording first one")
	} else if matches {
		fmt.Printf("matches snapshot from %s\n", humanize.Time(prior.CapturedAt))
	} else {
		fmt.Printf("differs from snapshot recorded %s; recording a new one\n", humanize.Time(prior.CapturedAt))
	}

	_, err = store.Record("cli", "sample", dump)
	return err
}

func cmdServe(args []string) error {
	addr := ":8787"
	if len(args) > 0 {
		addr = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tick := make(chan string)
	go func() {
		defer close(tick)
		s := buildSampleShader()
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
				status := "valid"
				if err := validate.Shader(s); err != nil {
					status = "invalid: " + err.Error()
				}
				select {
				case tick <- status:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	fmt.Printf("shaderirdemo: serving on %s (ws at /ws)\n", addr)
	return runServe(ctx, addr, tick)
}

func countInstrs(list []ir.CFNode) int {
	n := 0
	for _, node := range list {
		switch v := node.(type) {
		case *ir.Block:
			n += len(v.Instrs)
		case *ir.If:
			n += countInstrs(v.Then) + countInstrs(v.Else)
		case *ir.Loop:
			n += countInstrs(v.Body)
		}
	}
	return n
}
