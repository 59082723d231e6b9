package loader_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/intermittent-sim/ehsim/internal/loader"
	"github.com/intermittent-sim/ehsim/internal/memory"
)

func newMemory() *memory.Memory {
	return memory.New(0x8000, 4096, 0x20000, 4096)
}

func TestLoadBytesFlatImageUsesDefaultEntryPoint(t *testing.T) {
	mem := newMemory()
	image := []byte{0x01, 0x02, 0x03, 0x04}

	entry, err := loader.LoadBytes(image, mem)
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if entry != loader.FlatEntryPoint {
		t.Errorf("entry = %#x, want %#x", entry, loader.FlatEntryPoint)
	}
}

func TestLoadBytesFlatImageTooLargeIsAnError(t *testing.T) {
	mem := newMemory()
	image := make([]byte, 8192)

	if _, err := loader.LoadBytes(image, mem); err == nil {
		t.Error("expected an error for an oversized flat image")
	}
}

// buildELF assembles a minimal little-endian, 32-bit, single-PT_LOAD-segment
// ELF image with the given entry point and payload, using encoding/binary
// rather than hand-written byte offsets so the header field widths stay
// correct if this test is ever extended.
func buildELF(t *testing.T, entry, vaddr uint32, payload []byte) []byte {
	t.Helper()

	const ehsize = 52
	const phentsize = 32

	var buf bytes.Buffer

	ident := [16]byte{0x7f, 'E', 'L', 'F', 1 /* ELFCLASS32 */, 1 /* ELFDATA2LSB */, 1 /* EV_CURRENT */}
	buf.Write(ident[:])
	binary.Write(&buf, binary.LittleEndian, uint16(2))      // e_type = ET_EXEC
	binary.Write(&buf, binary.LittleEndian, uint16(40))     // e_machine = EM_ARM
	binary.Write(&buf, binary.LittleEndian, uint32(1))      // e_version
	binary.Write(&buf, binary.LittleEndian, entry)          // e_entry
	binary.Write(&buf, binary.LittleEndian, uint32(ehsize)) // e_phoff
	binary.Write(&buf, binary.LittleEndian, uint32(0))      // e_shoff
	binary.Write(&buf, binary.LittleEndian, uint32(0))      // e_flags
	binary.Write(&buf, binary.LittleEndian, uint16(ehsize))
	binary.Write(&buf, binary.LittleEndian, uint16(phentsize))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // e_phnum
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // e_shentsize
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // e_shnum
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // e_shstrndx

	if buf.Len() != ehsize {
		t.Fatalf("built ELF header is %d bytes, want %d", buf.Len(), ehsize)
	}

	offset := uint32(ehsize + phentsize)
	binary.Write(&buf, binary.LittleEndian, uint32(1))              // p_type = PT_LOAD
	binary.Write(&buf, binary.LittleEndian, offset)                 // p_offset
	binary.Write(&buf, binary.LittleEndian, vaddr)                  // p_vaddr
	binary.Write(&buf, binary.LittleEndian, vaddr)                  // p_paddr
	binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))   // p_filesz
	binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))   // p_memsz
	binary.Write(&buf, binary.LittleEndian, uint32(5))              // p_flags = R+X
	binary.Write(&buf, binary.LittleEndian, uint32(4))              // p_align

	buf.Write(payload)
	return buf.Bytes()
}

func TestLoadBytesELFImageLoadsSegmentAndReportsEntry(t *testing.T) {
	mem := newMemory()
	payload := []byte{0xaa, 0xbb, 0xcc, 0xdd}
	image := buildELF(t, 0x8010, 0x8000, payload)

	entry, err := loader.LoadBytes(image, mem)
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if entry != 0x8010 {
		t.Errorf("entry = %#x, want 0x8010", entry)
	}

	word, err := mem.Load(0x8000)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := binary.LittleEndian.Uint32(payload); word != want {
		t.Errorf("loaded word = %#x, want %#x", word, want)
	}
}

func TestLoadBytesELFWithNonARMMachineIsAnError(t *testing.T) {
	mem := newMemory()
	image := buildELF(t, 0x8000, 0x8000, []byte{0, 0, 0, 0})
	image[18] = 3 // e_machine low byte -> EM_386, not EM_ARM

	if _, err := loader.LoadBytes(image, mem); err == nil {
		t.Error("expected an error for a non-ARM ELF machine type")
	}
}
