package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
	"github.com/creack/pty"
)

const (
	demoSeed  = 42
	demoItems = 30
)

// buildVitrine builds the vitrine binary for testing.
func buildVitrine(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "vitrine")

	rootDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	// Assume we are in test/e2e, go up 2 levels
	rootDir = filepath.Join(rootDir, "..", "..")

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/vitrine")
	cmd.Dir = rootDir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}
	return binPath
}

// session is one vitrine process attached to a pseudo terminal.
type session struct {
	t       *testing.T
	cmd     *exec.Cmd
	ptmx    *os.File
	console *expect.Console
	output  *bytes.Buffer
	dataDir string
}

// startDemo runs vitrine against its built-in demo catalog.
func startDemo(t *testing.T, bin, dataDir string, args ...string) *session {
	t.Helper()
	argv := append([]string{
		"--demo",
		"--demo-seed", strconv.Itoa(demoSeed),
		"--demo-items", strconv.Itoa(demoItems),
		"--data-dir", dataDir,
	}, args...)
	cmd := exec.Command(bin, argv...)
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir())

	ptmx, err := pty.Start(cmd)
	if err != nil {
		t.Fatalf("failed to start pty: %v", err)
	}
	if err := pty.Setsize(ptmx, &pty.Winsize{Cols: 120, Rows: 40}); err != nil {
		t.Fatalf("failed to set pty size: %v", err)
	}

	var out bytes.Buffer
	console, err := expect.NewConsole(
		expect.WithStdin(ptmx),
		expect.WithStdout(&out),
		expect.WithDefaultTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("failed to create console: %v", err)
	}

	s := &session{t: t, cmd: cmd, ptmx: ptmx, console: console, output: &out, dataDir: dataDir}
	t.Cleanup(func() {
		_ = console.Close()
		_ = ptmx.Close()
		if cmd.ProcessState == nil {
			_ = cmd.Process.Kill()
		}
	})
	return s
}

func (s *session) expect(text string) {
	s.t.Helper()
	if _, err := s.console.ExpectString(text); err != nil {
		logs, _ := filepath.Glob(filepath.Join(s.dataDir, "logs", "vitrine-*.log"))
		for _, path := range logs {
			if b, err := os.ReadFile(path); err == nil {
				s.t.Logf("%s:\n%s", filepath.Base(path), b)
			}
		}
		s.t.Fatalf("%q not found: %v\nScreen:\n%s", text, err, s.output.String())
	}
}

func (s *session) send(keys string) {
	s.t.Helper()
	if _, err := s.console.Send(keys); err != nil {
		s.t.Fatalf("failed to send %q: %v", keys, err)
	}
}

// quit sends q and waits for the process to exit.
func (s *session) quit() {
	s.t.Helper()
	s.send("q")
	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			s.t.Errorf("vitrine exited with error: %v", err)
		}
	case <-time.After(3 * time.Second):
		s.t.Error("process did not exit after 'q'")
	}
}
