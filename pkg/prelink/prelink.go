// Package prelink reads the kext inventory of a prelinked kernel: the
// property list in __PRELINK_INFO and the Mach-O objects embedded in
// __PRELINK_TEXT.
package prelink

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"howett.net/plist"

	"github.com/yaklabco/binsplice/pkg/macho"
)

// Segment names of a prelinked kernel.
const (
	TextSegment = "__PRELINK_TEXT"
	InfoSegment = "__PRELINK_INFO"
)

// headerPage is the distance between a kext's recorded load address and its
// first segment in kernels that map the header separately.
const headerPage = 0x1000

// Sentinel errors for categorization via errors.Is.
var (
	// ErrNotPrelinked indicates the image lacks the prelink segments.
	ErrNotPrelinked = errors.New("not a prelinked kernel")

	// ErrInvalidInfo indicates __PRELINK_INFO does not hold a usable
	// property list.
	ErrInvalidInfo = errors.New("invalid prelink info")

	// ErrKextNotFound indicates no embedded kext matches a lookup.
	ErrKextNotFound = errors.New("kext not found")
)

// Descriptor is one entry of _PrelinkInfoDictionary.
type Descriptor struct {
	Executable string `plist:"CFBundleExecutable"`
	BundleID   string `plist:"CFBundleIdentifier"`
	Version    string `plist:"CFBundleVersion"`
	LoadAddr   uint64 `plist:"_PrelinkExecutableLoadAddr"`
	Size       uint64 `plist:"_PrelinkExecutableSize"`
	KmodInfo   uint64 `plist:"_PrelinkKmodInfo"`
}

type prelinkInfo struct {
	Dictionaries []Descriptor `plist:"_PrelinkInfoDictionary"`
}

// Kernel is a parsed prelinked kernel.
type Kernel struct {
	Image       *macho.Image
	Descriptors []Descriptor
	Kexts       []Kext

	// Warnings collects per-kext problems that did not stop parsing.
	Warnings []error

	content []byte
}

// Open parses a prelinked kernel image. The kernel keeps a reference to
// content.
func Open(content []byte) (*Kernel, error) {
	img, err := macho.Open(content)
	if err != nil {
		return nil, err
	}

	descs, err := ReadInfo(content, img)
	if err != nil {
		return nil, err
	}

	kexts, err := FindObjects(content, img)
	if err != nil {
		return nil, err
	}

	k := &Kernel{Image: img, Descriptors: descs, Kexts: kexts, content: content}
	for i := range k.Kexts {
		kext := &k.Kexts[i]
		desc, ok := match(*kext, descs)
		if !ok {
			continue
		}
		kext.Name = desc.Executable
		kext.BundleID = desc.BundleID
		kext.Version = desc.Version

		if desc.KmodInfo == 0 {
			continue
		}
		entry, err := readEntryPoints(content, img, desc.KmodInfo)
		if err != nil {
			k.Warnings = append(k.Warnings, fmt.Errorf("%s: kmod_info: %w", kext.FileName(), err))
			continue
		}
		kext.Entry = entry
	}

	return k, nil
}

// ReadInfo decodes the _PrelinkInfoDictionary array from __PRELINK_INFO.
// The property list ends at the first NUL byte of the segment.
func ReadInfo(content []byte, img *macho.Image) ([]Descriptor, error) {
	_, data, err := segmentData(content, img, InfoSegment)
	if err != nil {
		return nil, err
	}
	if end := bytes.IndexByte(data, 0); end >= 0 {
		data = data[:end]
	}

	var info prelinkInfo
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInfo, err)
	}
	return info.Dictionaries, nil
}

// Lookup returns the kext whose executable name, bundle identifier or
// extraction file name equals name.
func (k *Kernel) Lookup(name string) (Kext, error) {
	for _, kext := range k.Kexts {
		if kext.Name == name || kext.BundleID == name || kext.FileName() == name {
			return kext, nil
		}
	}
	return Kext{}, fmt.Errorf("%w: %s", ErrKextNotFound, name)
}

// Bytes returns a copy of the kext's Mach-O object.
func (k *Kernel) Bytes(kext Kext) []byte {
	return bytes.Clone(k.content[kext.Offset : kext.Offset+kext.Size])
}

// match pairs a kext with its descriptor. A descriptor whose load address is
// the kext's header address wins; failing that, one whose load address is a
// page below any of the kext's segments.
func match(kext Kext, descs []Descriptor) (Descriptor, bool) {
	for _, desc := range descs {
		if desc.LoadAddr != 0 && desc.LoadAddr == kext.Addr {
			return desc, true
		}
	}
	for _, seg := range kext.segments {
		for _, desc := range descs {
			if desc.LoadAddr != 0 && seg.Addr == desc.LoadAddr+headerPage {
				return desc, true
			}
		}
	}
	return Descriptor{}, false
}

func segmentData(content []byte, img *macho.Image, name string) (macho.Segment, []byte, error) {
	seg, err := img.Segment(name)
	if err != nil {
		return macho.Segment{}, nil, fmt.Errorf("%w: %w", ErrNotPrelinked, err)
	}
	if seg.Filesize == 0 {
		return macho.Segment{}, nil, fmt.Errorf("%w: segment %s is empty", ErrNotPrelinked, name)
	}
	size := uint64(len(content))
	if seg.Offset > size || seg.Filesize > size-seg.Offset {
		return macho.Segment{}, nil, fmt.Errorf("%w: segment %s extends past end of file", ErrNotPrelinked, name)
	}
	return seg, content[seg.Offset : seg.Offset+seg.Filesize], nil
}

// sanitizeName returns a usable single-component file name, or "".
func sanitizeName(name string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return ""
	default:
		return base
	}
}
