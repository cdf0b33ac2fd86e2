package procutils

import (
	"os"
	"testing"
)

func requireProc(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/proc/self"); err != nil {
		t.Skip("/proc not available")
	}
}

func TestAlive(t *testing.T) {
	requireProc(t)

	if !Alive(os.Getpid()) {
		t.Error("Alive(self) = false, want true")
	}
	// PID max is at most 2^22 by default; this one cannot exist.
	if Alive(1 << 30) {
		t.Error("Alive(1<<30) = true, want false")
	}
}

func TestTasks(t *testing.T) {
	requireProc(t)

	tids, err := Tasks(os.Getpid())
	if err != nil {
		t.Fatalf("Tasks() error = %v", err)
	}
	if len(tids) == 0 {
		t.Fatal("Tasks() returned no threads")
	}

	found := false
	for _, tid := range tids {
		if tid == os.Getpid() {
			found = true
		}
	}
	if !found {
		t.Errorf("Tasks() = %v, does not contain main thread %d", tids, os.Getpid())
	}
}

func TestCommAndCmdline(t *testing.T) {
	requireProc(t)

	comm, err := Comm(os.Getpid())
	if err != nil {
		t.Fatalf("Comm() error = %v", err)
	}
	if comm == "" {
		t.Error("Comm() is empty")
	}

	cmdline, err := Cmdline(os.Getpid())
	if err != nil {
		t.Fatalf("Cmdline() error = %v", err)
	}
	if cmdline == "" {
		t.Error("Cmdline() is empty")
	}
}

func TestReadOwnStat(t *testing.T) {
	requireProc(t)

	stat, err := ReadStat(os.Getpid())
	if err != nil {
		t.Fatalf("ReadStat() error = %v", err)
	}
	if stat.PID != os.Getpid() {
		t.Errorf("PID = %d, want %d", stat.PID, os.Getpid())
	}
	if stat.NumThreads < 1 {
		t.Errorf("NumThreads = %d, want >= 1", stat.NumThreads)
	}
	if stat.StartTimeTicks == 0 {
		t.Error("StartTimeTicks = 0, want > 0")
	}
}

func TestReadOwnStatus(t *testing.T) {
	requireProc(t)

	status, err := ReadStatus(os.Getpid())
	if err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if status.VmRSSKB <= 0 {
		t.Errorf("VmRSSKB = %d, want > 0", status.VmRSSKB)
	}
}

func TestFindByName_ExcludesSelf(t *testing.T) {
	requireProc(t)

	comm, err := Comm(os.Getpid())
	if err != nil {
		t.Fatalf("Comm() error = %v", err)
	}

	procs, err := FindByName(comm)
	if err != nil {
		t.Fatalf("FindByName() error = %v", err)
	}
	for _, p := range procs {
		if p.PID == os.Getpid() {
			t.Errorf("FindByName(%q) returned the calling process", comm)
		}
	}
}
