package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	edgephp "github.com/maravilla-labs/edgephp-wasmc"
)

// v2Scenario is one built-in compile-and-run check, grounded on the
// spec.md §8 E1-E6 example table.
type v2Scenario struct {
	name     string
	source   string
	expected string
}

var v2Scenarios = []v2Scenario{
	{"E1_HelloWorld", `<?php echo "Hello, World!"; ?>`, "Hello, World!"},
	{"E2_VariableEcho", `<?php $x = 42; echo $x; ?>`, "42"},
	{"E3_Addition", `<?php $a = 5; $b = 3; echo $a + $b; ?>`, "8"},
	{"E4_IfElse", `<?php $x = 10; if ($x > 5) { echo "big"; } else { echo "small"; } ?>`, "big"},
	{"E5_WhileLoop", `<?php $i = 0; while ($i < 3) { echo $i; $i = $i + 1; } ?>`, "012"},
	{"E6_FloatFormatting", `<?php $pi = 3.14; echo $pi; ?>`, "3.14"},
}

// doTestV2 compiles and executes each built-in scenario and reports
// PASS/FAIL per case, the way the original Rust project's "cargo run
// --example test_v2" smoke harness once did.
func doTestV2(stdout, stderr io.Writer) int {
	failures := 0
	for _, sc := range v2Scenarios {
		got, err := runScenario(sc.source)
		if err != nil {
			fmt.Fprintf(stdout, "FAIL %s: %v\n", sc.name, err)
			failures++
			continue
		}
		if got != sc.expected {
			fmt.Fprintf(stdout, "FAIL %s: expected %q, got %q\n", sc.name, sc.expected, got)
			failures++
			continue
		}
		fmt.Fprintf(stdout, "PASS %s\n", sc.name)
	}

	if failures > 0 {
		fmt.Fprintf(stderr, "%d scenario(s) failed\n", failures)
		return 1
	}
	return 0
}

func runScenario(source string) (string, error) {
	wasmBytes, err := edgephp.Compile(source)
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	var out bytes.Buffer
	_, err = r.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, ptr, length uint32) {
			buf, ok := m.Memory().Read(ptr, length)
			if ok {
				out.Write(buf)
			}
		}).
		Export("print").
		Instantiate(ctx)
	if err != nil {
		return "", err
	}

	mod, err := r.InstantiateWithConfig(ctx, wasmBytes, wazero.NewModuleConfig().WithStartFunctions())
	if err != nil {
		return "", err
	}

	if _, err := mod.ExportedFunction("_start").Call(ctx); err != nil {
		return "", err
	}

	return out.String(), nil
}
