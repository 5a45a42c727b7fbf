package fileio

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

// TestRoundTrip verifies that every supported extension writes and
// reads back the same bytes.
func TestRoundTrip(t *testing.T) {
	payload := []byte("object 1 class gridpositions counts 3 3 3\n0.5 1.5 2.5\n")

	for _, name := range []string{"plain.dx", "packed.dx.gz", "packed.dx.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			w, err := Create(path)
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if _, err := w.Write(payload); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			r, err := Open(path)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			if err := r.Close(); err != nil {
				t.Fatalf("Close after read failed: %v", err)
			}

			if string(got) != string(payload) {
				t.Errorf("Round-tripped content differs:\ngot  %q\nwant %q", got, payload)
			}
		})
	}
}

// TestCompressedSmaller verifies that the gzip path actually
// compresses repetitive content.
func TestCompressedSmaller(t *testing.T) {
	dir := t.TempDir()
	payload := make([]byte, 0, 64*1024)
	for i := 0; i < 4096; i++ {
		payload = append(payload, []byte("0.000000 1.000000\n")...)
	}

	plain := filepath.Join(dir, "field.csv")
	packed := filepath.Join(dir, "field.csv.gz")
	for _, path := range []string{plain, packed} {
		w, err := Create(path)
		if err != nil {
			t.Fatalf("Create(%s) failed: %v", path, err)
		}
		if _, err := w.Write(payload); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	plainInfo, err := os.Stat(plain)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	packedInfo, err := os.Stat(packed)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if packedInfo.Size() >= plainInfo.Size() {
		t.Errorf("Compressed size %d not smaller than plain size %d", packedInfo.Size(), plainInfo.Size())
	}
}

// TestOpenMissing verifies that a missing file surfaces the OS error.
func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.dx.gz"))
	if err == nil {
		t.Fatal("Expected an error for a missing file, got nil")
	}
	if !os.IsNotExist(err) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}
}
