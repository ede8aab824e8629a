package prelink

import (
	"bytes"
	"fmt"

	"github.com/yaklabco/binsplice/pkg/macho"
)

// Kext is a Mach-O object embedded in __PRELINK_TEXT.
type Kext struct {
	// Name is the CFBundleExecutable of the matching descriptor, or empty
	// when no descriptor matched.
	Name     string
	BundleID string
	Version  string

	// Offset and Size locate the object in the kernel file.
	Offset int
	Size   int

	// Addr is the virtual address of the object's header.
	Addr uint64

	// Entry holds the kmod start and stop routines when the descriptor
	// points at a kmod_info structure.
	Entry *EntryPoints

	segments []macho.Segment
}

// EntryPoints are the start and stop routines recorded in kmod_info.
type EntryPoints struct {
	Start uint64
	Stop  uint64
}

// FileName returns the name the kext is extracted under: its executable
// name, or kext_<offset> when it is unnamed.
func (k Kext) FileName() string {
	if name := sanitizeName(k.Name); name != "" {
		return name
	}
	return fmt.Sprintf("kext_%08x", k.Offset)
}

//nolint:gochecknoglobals // Read-only lookup table.
var objectMagics = [][]byte{
	{0xce, 0xfa, 0xed, 0xfe},
	{0xfe, 0xed, 0xfa, 0xce},
	{0xcf, 0xfa, 0xed, 0xfe},
	{0xfe, 0xed, 0xfa, 0xcf},
}

// FindObjects scans __PRELINK_TEXT for embedded Mach-O objects. An object
// spans from its header to the end of its furthest segment; a magic number
// that does not start a parsable object that fits the segment is skipped.
// The returned kexts are unnamed.
func FindObjects(content []byte, img *macho.Image) ([]Kext, error) {
	seg, region, err := segmentData(content, img, TextSegment)
	if err != nil {
		return nil, err
	}

	var kexts []Kext
	for idx := 0; idx < len(region); {
		at := nextMagic(region[idx:])
		if at < 0 {
			break
		}
		start := idx + at

		size, segments := objectExtent(region[start:])
		if size == 0 {
			idx = start + len(objectMagics[0])
			continue
		}

		kexts = append(kexts, Kext{
			Offset:   int(seg.Offset) + start,
			Size:     size,
			Addr:     seg.Addr + uint64(start),
			segments: segments,
		})
		idx = start + size
	}
	return kexts, nil
}

func nextMagic(data []byte) int {
	first := -1
	for _, magic := range objectMagics {
		if at := bytes.Index(data, magic); at >= 0 && (first < 0 || at < first) {
			first = at
		}
	}
	return first
}

// objectExtent returns the size of the Mach-O object at the start of data,
// or 0 when it does not parse or does not fit.
func objectExtent(data []byte) (int, []macho.Segment) {
	obj, err := macho.Open(data)
	if err != nil {
		return 0, nil
	}

	var end uint64
	for _, seg := range obj.Segments() {
		end = max(end, seg.Offset+seg.Filesize)
	}
	if end == 0 || end > uint64(len(data)) {
		return 0, nil
	}
	return int(end), obj.Segments()
}

// kmod_info field offsets. The 64-bit layout is packed to 4 bytes.
const (
	kmodStart32 = 160
	kmodStop32  = 164
	kmodSize32  = 168

	kmodStart64 = 180
	kmodStop64  = 188
	kmodSize64  = 196
)

func readEntryPoints(content []byte, img *macho.Image, addr uint64) (*EntryPoints, error) {
	offset, err := img.FileOffset(addr)
	if err != nil {
		return nil, err
	}

	size := kmodSize32
	if img.Is64 {
		size = kmodSize64
	}
	if offset > len(content) || size > len(content)-offset {
		return nil, fmt.Errorf("structure at 0x%x extends past end of file", addr)
	}
	info := content[offset : offset+size]

	if img.Is64 {
		return &EntryPoints{
			Start: img.ByteOrder.Uint64(info[kmodStart64:]),
			Stop:  img.ByteOrder.Uint64(info[kmodStop64:]),
		}, nil
	}
	return &EntryPoints{
		Start: uint64(img.ByteOrder.Uint32(info[kmodStart32:])),
		Stop:  uint64(img.ByteOrder.Uint32(info[kmodStop32:])),
	}, nil
}
