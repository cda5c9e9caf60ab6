package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCapturing(t *testing.T, args []string) (code int, stdout, stderr string) {
	t.Helper()
	outFile, err := os.CreateTemp(t.TempDir(), "stdout")
	if err != nil {
		t.Fatal(err)
	}
	defer outFile.Close()
	errFile, err := os.CreateTemp(t.TempDir(), "stderr")
	if err != nil {
		t.Fatal(err)
	}
	defer errFile.Close()

	code = run(args, outFile, errFile)

	outBytes, _ := os.ReadFile(outFile.Name())
	errBytes, _ := os.ReadFile(errFile.Name())
	return code, string(outBytes), string(errBytes)
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.lfl")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunWithoutAssemblyFlagPrintsOnlyBlueprint(t *testing.T) {
	path := writeSource(t, `void main() { signal_1 = 42; }`)
	code, stdout, stderr := runCapturing(t, []string{path})
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (stderr: %s)", code, stderr)
	}
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	if len(lines) != 1 || lines[0] == "" {
		t.Errorf("stdout = %q, want exactly one non-empty line (the blueprint)", stdout)
	}
}

func TestRunWithAssemblyFlagPrintsListingThenBlankThenBlueprint(t *testing.T) {
	path := writeSource(t, `void main() { signal_1 = 42; }`)
	code, stdout, _ := runCapturing(t, []string{"--assembly", path})
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	parts := strings.SplitN(stdout, "\n\n", 2)
	if len(parts) != 2 {
		t.Fatalf("stdout = %q, want an assembly listing and a blueprint separated by a blank line", stdout)
	}
	if !strings.Contains(parts[0], "CNST") {
		t.Errorf("assembly section = %q, want a CNST instruction", parts[0])
	}
	if strings.TrimSpace(parts[1]) == "" {
		t.Errorf("blueprint section is empty")
	}
}

func TestRunMissingArgumentIsUsageError(t *testing.T) {
	code, _, stderr := runCapturing(t, nil)
	if code == 0 {
		t.Fatal("expected a non-zero exit code")
	}
	if !strings.Contains(stderr, "usage") {
		t.Errorf("stderr = %q, want a usage message", stderr)
	}
}

func TestRunCompileErrorGoesToStderrWithNonZeroExit(t *testing.T) {
	path := writeSource(t, `void main() { x = 1 }`)
	code, stdout, stderr := runCapturing(t, []string{path})
	if code == 0 {
		t.Fatal("expected a non-zero exit code for a compile error")
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty on error", stdout)
	}
	if stderr == "" {
		t.Error("expected an error message on stderr")
	}
}

func TestRunUnreadableFileIsError(t *testing.T) {
	code, _, stderr := runCapturing(t, []string{filepath.Join(t.TempDir(), "missing.lfl")})
	if code == 0 {
		t.Fatal("expected a non-zero exit code")
	}
	if !strings.Contains(stderr, "cannot read") {
		t.Errorf("stderr = %q, want a read-failure message", stderr)
	}
}
