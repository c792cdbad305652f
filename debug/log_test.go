package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	if err := EnableFile(path); err != nil {
		t.Fatal(err)
	}
	defer Disable()

	if !Enabled() {
		t.Fatal("not enabled")
	}
	Log("select", "style=%d", 4)
	for i := 0; i < 10; i++ {
		LogEvery(5, "clock", "step=%d", i)
	}
	Disable()
	Log("select", "after disable")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	log := string(data)

	if !strings.Contains(log, "style=4") {
		t.Errorf("missing message:\n%s", log)
	}
	if !strings.Contains(log, "cat=select") {
		t.Errorf("missing category field:\n%s", log)
	}
	if n := strings.Count(log, "(every 5"); n != 2 {
		t.Errorf("got %d rate-limited lines, expected 2:\n%s", n, log)
	}
	if strings.Contains(log, "after disable") {
		t.Errorf("logged while disabled:\n%s", log)
	}
}

func TestLogDisabledIsNoop(t *testing.T) {
	Disable()
	Log("select", "nothing")
	LogEvery(1, "clock", "nothing")
	if Enabled() {
		t.Fatal("enabled")
	}
}
