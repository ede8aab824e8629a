// Package machotest builds small Mach-O images for tests.
package machotest

import (
	"bytes"
	"debug/macho"
	"encoding/binary"
	"fmt"
)

// Layout of the image returned by Image.
const (
	TextOffset  = 0x000
	TextSize    = 0x200
	CodeOffset  = 0x180 // __TEXT,__text
	CodeSize    = 0x040
	ConstOffset = 0x1c0 // __TEXT,__const
	ConstSize   = 0x040
	DataOffset  = 0x200
	DataSize    = 0x100
	BSSAddr     = 0x2000 + DataSize // __DATA,__bss
	BSSSize     = 0x080
	Size        = DataOffset + DataSize
)

// Layout of the image returned by PrelinkedKernel. Kext offsets are file
// offsets in the kernel.
const (
	PrelinkTextOffset = 0x400
	PrelinkTextAddr   = 0x10000
	PrelinkTextSize   = 0x600
	PrelinkInfoOffset = 0xa00
	PrelinkInfoSize   = 0x800
	KernelSize        = PrelinkInfoOffset + PrelinkInfoSize

	KextSize = 0x200

	// Alpha is matched to its descriptor by header address and carries a
	// kmod_info structure.
	AlphaOffset   = PrelinkTextOffset
	AlphaAddr     = PrelinkTextAddr
	AlphaKmodInfo = AlphaAddr + 0x140
	AlphaStart    = AlphaAddr + 0x101
	AlphaStop     = AlphaAddr + 0x121

	// Beta's descriptor load address sits one page below its segment.
	BetaOffset      = PrelinkTextOffset + 0x300
	BetaSegmentAddr = 0x50000
	BetaLoadAddr    = BetaSegmentAddr - 0x1000

	// GammaLoadAddr belongs to a descriptor without an embedded object.
	GammaLoadAddr = 0x90000
)

const (
	segmentCmdSize = 56
	sectionSize    = 68

	// S_ZEROFILL section type.
	zeroFill = 0x1

	// MH_KEXT_BUNDLE file type.
	typeKextBundle macho.Type = 0xb

	kmodStartField = 160
	kmodStopField  = 164
	kmodNameField  = 12
)

type segment struct {
	name         string
	addr, offset uint32
	size         uint32
	sections     []macho.Section32
}

// Image returns a little-endian 32-bit Mach-O executable with a __TEXT
// segment holding __text and __const sections, and a __DATA segment whose
// only section is the zero-fill __bss. Every byte outside the load commands
// is its offset modulo 256.
func Image() []byte {
	out := make([]byte, Size)
	for i := range out {
		out[i] = byte(i)
	}

	copy(out, header(macho.TypeExec,
		segment{"__TEXT", 0x1000, TextOffset, TextSize, []macho.Section32{
			section("__text", "__TEXT", 0x1000+CodeOffset, CodeOffset, CodeSize, 0),
			section("__const", "__TEXT", 0x1000+ConstOffset, ConstOffset, ConstSize, 0),
		}},
		segment{"__DATA", 0x2000, DataOffset, DataSize, []macho.Section32{
			section("__bss", "__DATA", BSSAddr, 0, BSSSize, zeroFill),
		}},
	))
	return out
}

// PrelinkedKernel returns a 32-bit prelinked kernel. __PRELINK_TEXT embeds
// the kexts Alpha and Beta, and __PRELINK_INFO holds an XML property list
// describing Alpha, Beta and Gamma, which has no object.
func PrelinkedKernel() []byte {
	out := make([]byte, KernelSize)

	copy(out, header(macho.TypeExec,
		segment{"__TEXT", 0x1000, 0, PrelinkTextOffset, []macho.Section32{
			section("__text", "__TEXT", 0x1200, 0x200, 0x100, 0),
		}},
		segment{"__PRELINK_TEXT", PrelinkTextAddr, PrelinkTextOffset, PrelinkTextSize, []macho.Section32{
			section("__text", "__PRELINK_TEXT", PrelinkTextAddr, PrelinkTextOffset, PrelinkTextSize, 0),
		}},
		segment{"__PRELINK_INFO", 0x20000, PrelinkInfoOffset, PrelinkInfoSize, nil},
	))

	alpha := kext(AlphaAddr)
	binary.LittleEndian.PutUint32(alpha[0x140+kmodStartField:], AlphaStart)
	binary.LittleEndian.PutUint32(alpha[0x140+kmodStopField:], AlphaStop)
	copy(alpha[0x140+kmodNameField:], "com.example.alpha")
	copy(out[AlphaOffset:], alpha)

	copy(out[BetaOffset:], kext(BetaSegmentAddr))

	copy(out[PrelinkInfoOffset:], PrelinkInfo())
	return out
}

// PrelinkInfo returns the property list stored in PrelinkedKernel's
// __PRELINK_INFO segment.
func PrelinkInfo() []byte {
	return fmt.Appendf(nil, `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>_PrelinkInfoDictionary</key>
	<array>
		<dict>
			<key>CFBundleIdentifier</key><string>com.example.alpha</string>
			<key>CFBundleExecutable</key><string>Alpha</string>
			<key>CFBundleVersion</key><string>1.0</string>
			<key>_PrelinkExecutableLoadAddr</key><integer>%d</integer>
			<key>_PrelinkExecutableSize</key><integer>%d</integer>
			<key>_PrelinkKmodInfo</key><integer>%d</integer>
		</dict>
		<dict>
			<key>CFBundleIdentifier</key><string>com.example.beta</string>
			<key>CFBundleExecutable</key><string>Beta</string>
			<key>CFBundleVersion</key><string>2.1</string>
			<key>_PrelinkExecutableLoadAddr</key><integer>%d</integer>
			<key>_PrelinkExecutableSize</key><integer>%d</integer>
		</dict>
		<dict>
			<key>CFBundleIdentifier</key><string>com.example.gamma</string>
			<key>CFBundleExecutable</key><string>Gamma</string>
			<key>_PrelinkExecutableLoadAddr</key><integer>%d</integer>
		</dict>
	</array>
</dict>
</plist>
`, AlphaAddr, KextSize, AlphaKmodInfo, BetaLoadAddr, KextSize, GammaLoadAddr)
}

// kext returns a KextSize-byte kext bundle whose single __TEXT segment
// starts at addr and covers the whole object.
func kext(addr uint32) []byte {
	out := make([]byte, KextSize)
	copy(out, header(typeKextBundle,
		segment{"__TEXT", addr, 0, KextSize, []macho.Section32{
			section("__text", "__TEXT", addr+0x100, 0x100, 0x40, 0),
		}},
	))
	return out
}

// header encodes a Mach-O header followed by one LC_SEGMENT per segment.
func header(typ macho.Type, segments ...segment) []byte {
	var cmds bytes.Buffer
	for _, seg := range segments {
		writeSegment(&cmds, seg)
	}

	var head bytes.Buffer
	mustWrite(&head, macho.FileHeader{
		Magic:  macho.Magic32,
		Cpu:    macho.Cpu386,
		SubCpu: 3,
		Type:   typ,
		Ncmd:   uint32(len(segments)),
		Cmdsz:  uint32(cmds.Len()),
	})
	head.Write(cmds.Bytes())
	return head.Bytes()
}

func writeSegment(buf *bytes.Buffer, seg segment) {
	mustWrite(buf, macho.Segment32{
		Cmd:     macho.LoadCmdSegment,
		Len:     uint32(segmentCmdSize + sectionSize*len(seg.sections)),
		Name:    name16(seg.name),
		Addr:    seg.addr,
		Memsz:   seg.size,
		Offset:  seg.offset,
		Filesz:  seg.size,
		Maxprot: 7,
		Prot:    5,
		Nsect:   uint32(len(seg.sections)),
	})
	for _, sect := range seg.sections {
		mustWrite(buf, sect)
	}
}

func section(name, segment string, addr, offset, size, flags uint32) macho.Section32 {
	return macho.Section32{
		Name:   name16(name),
		Seg:    name16(segment),
		Addr:   addr,
		Size:   size,
		Offset: offset,
		Flags:  flags,
	}
}

func name16(name string) [16]byte {
	var out [16]byte
	copy(out[:], name)
	return out
}

func mustWrite(buf *bytes.Buffer, v any) {
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
}
