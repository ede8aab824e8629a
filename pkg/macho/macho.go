// Package macho locates segments and sections inside Mach-O images so patch
// offsets can be expressed relative to them.
package macho

import (
	"bytes"
	"debug/macho"
	"encoding/binary"
	"errors"
	"fmt"
)

// Sentinel errors for categorization via errors.Is.
var (
	// ErrNotMachO indicates the content is not a Mach-O image.
	ErrNotMachO = errors.New("not a Mach-O image")

	// ErrSegmentNotFound indicates no segment has the requested name.
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrSectionNotFound indicates no section has the requested name.
	ErrSectionNotFound = errors.New("section not found")

	// ErrNoFileContent indicates a segment or section that occupies no
	// bytes of the file, such as a zero-fill section.
	ErrNoFileContent = errors.New("region has no file content")

	// ErrAddressNotMapped indicates a virtual address outside every
	// segment's file-backed range.
	ErrAddressNotMapped = errors.New("address not mapped to file content")
)

// Section types whose contents are zero-filled at load time.
const (
	sectionTypeMask        = 0xff
	sectionZeroFill        = 0x1
	sectionGBZeroFill      = 0xc
	sectionThreadLocalZero = 0x12
)

// Segment describes a segment load command and its sections.
type Segment struct {
	Name     string
	Addr     uint64
	Offset   uint64
	Filesize uint64
	Sections []Section
}

// Section describes a section within a segment.
type Section struct {
	Name    string
	Segment string
	Addr    uint64
	Offset  uint64
	Size    uint64
	Flags   uint32
}

// ZeroFill reports whether the section is zero-filled at load time and so
// has no bytes in the file.
func (s Section) ZeroFill() bool {
	switch s.Flags & sectionTypeMask {
	case sectionZeroFill, sectionGBZeroFill, sectionThreadLocalZero:
		return true
	default:
		return false
	}
}

// Image is a parsed Mach-O image.
type Image struct {
	CPU       string
	Is64      bool
	ByteOrder binary.ByteOrder
	segments  []Segment
}

// Open parses a Mach-O image from content. Fat (universal) binaries are not
// supported; extract a single architecture first.
func Open(content []byte) (*Image, error) {
	file, err := macho.NewFile(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMachO, err)
	}

	img := &Image{
		CPU:       file.Cpu.String(),
		Is64:      file.Magic == macho.Magic64,
		ByteOrder: file.ByteOrder,
	}

	// Sections appear in file order after their segment.
	for _, load := range file.Loads {
		seg, ok := load.(*macho.Segment)
		if !ok {
			continue
		}
		img.segments = append(img.segments, Segment{
			Name:     seg.Name,
			Addr:     seg.Addr,
			Offset:   seg.Offset,
			Filesize: seg.Filesz,
		})
	}

	for _, sect := range file.Sections {
		for i := range img.segments {
			if img.segments[i].Name == sect.Seg {
				img.segments[i].Sections = append(img.segments[i].Sections, Section{
					Name:    sect.Name,
					Segment: sect.Seg,
					Addr:    sect.Addr,
					Offset:  uint64(sect.Offset),
					Size:    sect.Size,
					Flags:   sect.Flags,
				})
				break
			}
		}
	}

	return img, nil
}

// Segments returns the image's segments in load command order.
func (img *Image) Segments() []Segment {
	return img.segments
}

// Segment returns the first segment with the given name.
func (img *Image) Segment(name string) (Segment, error) {
	for _, seg := range img.segments {
		if seg.Name == name {
			return seg, nil
		}
	}
	return Segment{}, fmt.Errorf("%w: %s", ErrSegmentNotFound, name)
}

// SegmentOffset returns the file offset and file size of the named segment.
// A segment with no file content yields ErrNoFileContent.
func (img *Image) SegmentOffset(name string) (int, int, error) {
	seg, err := img.Segment(name)
	if err != nil {
		return 0, 0, err
	}
	if seg.Filesize == 0 {
		return 0, 0, fmt.Errorf("%w: segment %s", ErrNoFileContent, name)
	}
	return int(seg.Offset), int(seg.Filesize), nil
}

// SectionOffset returns the file offset and size of section within segment.
// Zero-fill sections, and sections whose bytes fall outside the segment's
// file range, yield ErrNoFileContent.
func (img *Image) SectionOffset(segment, section string) (int, int, error) {
	seg, err := img.Segment(segment)
	if err != nil {
		return 0, 0, err
	}
	for _, sect := range seg.Sections {
		if sect.Name != section {
			continue
		}
		if sect.ZeroFill() {
			return 0, 0, fmt.Errorf("%w: %s,%s is zero-fill", ErrNoFileContent, segment, section)
		}
		segEnd := seg.Offset + seg.Filesize
		if sect.Offset < seg.Offset || sect.Offset > segEnd || sect.Size > segEnd-sect.Offset {
			return 0, 0, fmt.Errorf("%w: %s,%s lies outside its segment's file range", ErrNoFileContent, segment, section)
		}
		return int(sect.Offset), int(sect.Size), nil
	}
	return 0, 0, fmt.Errorf("%w: %s,%s", ErrSectionNotFound, segment, section)
}

// FileOffset translates a virtual address into a file offset using the
// file-backed range of the segment that maps it.
func (img *Image) FileOffset(addr uint64) (int, error) {
	for _, seg := range img.segments {
		if seg.Filesize == 0 || addr < seg.Addr || addr-seg.Addr >= seg.Filesize {
			continue
		}
		return int(seg.Offset + (addr - seg.Addr)), nil
	}
	return 0, fmt.Errorf("%w: 0x%x", ErrAddressNotMapped, addr)
}
