package rastercache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/horizon3ds/rastercache/runtime"
)

type nopMemory struct{}

func (nopMemory) ReadPhysical(addr uint64, size uint32) []byte { return make([]byte, size) }
func (nopMemory) WritePhysical(addr uint64, data []byte)       {}

func TestOpenRequiresMemory(t *testing.T) {
	_, err := Open(Config{Backend: runtime.NewSoftwareBackend()})
	if err != ErrNoMemory {
		t.Errorf("Open with no Memory = %v, want ErrNoMemory", err)
	}
}

func TestOpenDefaultsBackend(t *testing.T) {
	sys, err := Open(Config{Memory: nopMemory{}})
	if err != nil {
		t.Fatalf("Open() = %v, want nil (software backend registers itself by default)", err)
	}
	if sys.Cache == nil {
		t.Fatal("Open() returned a System with a nil Cache")
	}
	if sys.CustomTex != nil {
		t.Error("Open() with no CustomTexDir should leave CustomTex nil")
	}
	sys.Close()
}

func TestOpenWithCustomTexDir(t *testing.T) {
	dir := t.TempDir()
	sys, err := Open(Config{
		Backend:      runtime.NewSoftwareBackend(),
		Memory:       nopMemory{},
		CustomTexDir: dir,
	})
	if err != nil {
		t.Fatalf("Open() = %v, want nil", err)
	}
	if sys.CustomTex == nil {
		t.Fatal("Open() with CustomTexDir should populate CustomTex")
	}
	sys.Close()
}

func TestOpenRejectsCustomTexDirThatIsAFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to set up fixture: %v", err)
	}

	_, err := Open(Config{
		Backend:      runtime.NewSoftwareBackend(),
		Memory:       nopMemory{},
		CustomTexDir: file,
	})
	var cfgErr *ConfigError
	if err == nil {
		t.Fatal("Open() with a CustomTexDir pointing at a file should fail")
	} else if !errors.As(err, &cfgErr) {
		t.Errorf("Open() error = %v, want *ConfigError", err)
	}
}
