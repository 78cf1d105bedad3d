// Command nocode drives the type-reconstruction core over textual IR
// fixtures (decompiler/irtext), for manual inspection and scripting
// against a real lifter's dump without wiring a full decompiler pipeline.
package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/nikandfor/nocode/decompiler/ir"
	"github.com/nikandfor/nocode/decompiler/irtext"
	"github.com/nikandfor/nocode/decompiler/oracle"
	"github.com/nikandfor/nocode/decompiler/tp"
	"github.com/nikandfor/nocode/decompiler/types"
)

func main() {
	parseCmd := &cli.Command{
		Name:   "parse",
		Action: parseAct,
		Args:   cli.Args{},
	}

	typesCmd := &cli.Command{
		Name:   "types",
		Action: typesAct,
		Args:   cli.Args{},
	}

	app := &cli.Command{
		Name:        "nocode",
		Description: "nocode reconstructs C-like types over a function's IR",
		Commands: []*cli.Command{
			parseCmd,
			typesCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

// parseAct reads each named irtext fixture and prints the shape of the
// functions it defines, without running the type-reconstruction core.
func parseAct(c *cli.Command) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(context.Background(), "nocode: parse")
	defer tr.Finish("err", &err)

	for _, a := range c.Args {
		funcs, err := readFixture(a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		for _, f := range funcs {
			tr.Printw("parsed function", "name", f.Name, "blocks", len(f.Blocks))
			fmt.Printf("func %s: %d block(s)\n", f.Name, len(f.Blocks))
		}
	}

	return nil
}

func typesAct(c *cli.Command) (err error) {
	ctx := context.Background()

	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "nocode: types")
	defer tr.Finish("err", &err)

	for _, a := range c.Args {
		funcs, err := readFixture(a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		for _, f := range funcs {
			if err := analyzeAndPrint(ctx, f); err != nil {
				return errors.Wrap(err, "analyze %v", f.Name)
			}
		}
	}

	return nil
}

func readFixture(name string) ([]*ir.Func, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	funcs, err := irtext.Build(string(data))
	if err != nil {
		return nil, errors.Wrap(err, "build")
	}

	return funcs, nil
}

// analyzeAndPrint runs the core with the CLI's conservative sample
// oracles (decompiler/oracle): no dataflow facts at all (not even the
// values of const terms), no ABI knowledge, every term treated as
// used. It exists to demo and smoke-test the driver, not to reconstruct
// production-quality types from a hand-written fixture alone.
func analyzeAndPrint(ctx context.Context, f *ir.Func) error {
	a := types.NewAnalyzer(oracle.NewSimpleDataflow(), oracle.NoSignatures{}, oracle.AllUsed{})

	if err := a.Analyze(ctx, f); err != nil {
		return errors.Wrap(err, "analyze")
	}

	fmt.Printf("func %s:\n", f.Name)

	for i, pair := range a.Store.Types() {
		mt := tp.Materialize(pair.Type)
		fmt.Printf("  term[%d]: %#v -> %#v\n", i, pair.Term, mt)
	}

	return nil
}
