package main

import (
	"bytes"
	"os"
	"os/exec"
)

// runWasmOpt shells out to the external wasm-opt binary (from the
// Binaryen toolchain the original Rust CLI invoked via build.rs) when it
// is present on $PATH, per SPEC_FULL.md §6.4. wasm-opt is never vendored
// or reimplemented: if it is missing, compilation still succeeds and the
// caller falls back to the unoptimized bytes.
func runWasmOpt(wasmBytes []byte) ([]byte, error) {
	path, err := exec.LookPath("wasm-opt")
	if err != nil {
		return nil, err
	}

	inFile, err := os.CreateTemp("", "edgephp-*.wasm")
	if err != nil {
		return nil, err
	}
	defer os.Remove(inFile.Name())

	if _, err := inFile.Write(wasmBytes); err != nil {
		inFile.Close()
		return nil, err
	}
	if err := inFile.Close(); err != nil {
		return nil, err
	}

	outPath := inFile.Name() + ".opt"
	defer os.Remove(outPath)

	cmd := exec.Command(path, "--enable-gc", "--enable-reference-types", "-O3", inFile.Name(), "-o", outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &wasmOptError{underlying: err, stderr: stderr.String()}
	}

	return os.ReadFile(outPath)
}

type wasmOptError struct {
	underlying error
	stderr     string
}

func (e *wasmOptError) Error() string {
	if e.stderr != "" {
		return "wasm-opt: " + e.stderr
	}
	return "wasm-opt: " + e.underlying.Error()
}

func (e *wasmOptError) Unwrap() error {
	return e.underlying
}
