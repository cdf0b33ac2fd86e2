package procutils

import "testing"

func TestParsePssKB(t *testing.T) {
	data := `560a1000-560a2000 r--p 00000000 fd:01 123 /usr/sbin/nginx
Size:                  4 kB
Rss:                   4 kB
Pss:                   2 kB
Private_Dirty:         0 kB
560a2000-560a9000 r-xp 00001000 fd:01 123 /usr/sbin/nginx
Size:                 28 kB
Rss:                  28 kB
Pss:                  14 kB
7ffd1000-7ffd3000 rw-p 00000000 00:00 0 [stack]
Pss:                   8 kB
`
	total, err := ParsePssKB([]byte(data))
	if err != nil {
		t.Fatalf("ParsePssKB() error = %v", err)
	}
	if total != 24 {
		t.Errorf("ParsePssKB() = %d, want 24", total)
	}
}

func TestParsePssKB_Empty(t *testing.T) {
	total, err := ParsePssKB(nil)
	if err != nil {
		t.Fatalf("ParsePssKB() error = %v", err)
	}
	if total != 0 {
		t.Errorf("ParsePssKB() = %d, want 0", total)
	}
}

func TestParsePssKB_BadValue(t *testing.T) {
	if _, err := ParsePssKB([]byte("Pss: many kB\n")); err == nil {
		t.Error("ParsePssKB() expected error, got nil")
	}
}
