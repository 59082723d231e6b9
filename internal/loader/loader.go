// Package loader fills a memory.Memory with a program image, either a
// minimal ELF executable or a flat binary, and reports where execution
// should begin (spec §6's "program image" collaborator). ELF parsing uses
// the standard library's debug/elf, the same approach
// other_examples/LMMilewski-riscv-emu__main.go takes for its own
// ELF-hosted emulator — there is no third-party ELF reader in the
// examples pack, and stdlib's is already the idiomatic choice here.
package loader

import (
	"bytes"
	"debug/elf"
	"fmt"
	"os"

	"github.com/intermittent-sim/ehsim/internal/memory"
)

// FlatEntryPoint is where execution begins for a flat binary image that
// carries no entry-point metadata of its own (spec §6).
const FlatEntryPoint = 0x8000

// Load reads the file at path and writes it into mem's code region,
// returning the address execution should start at. ELF files (detected by
// magic number) load each PT_LOAD segment at its virtual address minus
// the code region's base; anything else is treated as a flat binary
// loaded so that its first byte sits at FlatEntryPoint, where execution
// begins.
func Load(path string, mem *memory.Memory) (entryPoint uint32, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return LoadBytes(raw, mem)
}

// LoadBytes is Load without the filesystem round trip, used directly by
// tests and by callers that already have the image in memory.
func LoadBytes(raw []byte, mem *memory.Memory) (entryPoint uint32, err error) {
	if bytes.HasPrefix(raw, []byte(elf.ELFMAG)) {
		return loadELF(raw, mem)
	}
	if mem.CodeBase() > FlatEntryPoint {
		return 0, fmt.Errorf("loader: flat image: code base %#x above entry point %#x", mem.CodeBase(), FlatEntryPoint)
	}
	if err := mem.LoadCode(FlatEntryPoint-mem.CodeBase(), raw); err != nil {
		return 0, fmt.Errorf("loader: flat image: %w", err)
	}
	return FlatEntryPoint, nil
}

func loadELF(raw []byte, mem *memory.Memory) (uint32, error) {
	f, err := elf.NewFile(bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("loader: parse elf: %w", err)
	}
	defer f.Close()

	if f.Machine != elf.EM_ARM {
		return 0, fmt.Errorf("loader: unsupported ELF machine %v, want EM_ARM", f.Machine)
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return 0, fmt.Errorf("loader: read segment at %#x: %w", prog.Vaddr, err)
		}
		if prog.Vaddr < uint64(mem.CodeBase()) {
			return 0, fmt.Errorf("loader: segment vaddr %#x below code base %#x", prog.Vaddr, mem.CodeBase())
		}
		offset := uint32(prog.Vaddr) - mem.CodeBase()
		if err := mem.LoadCode(offset, data); err != nil {
			return 0, fmt.Errorf("loader: load segment at %#x: %w", prog.Vaddr, err)
		}
	}

	return uint32(f.Entry), nil
}
