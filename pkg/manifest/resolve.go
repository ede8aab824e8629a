package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yaklabco/binsplice/pkg/splice"
)

var (
	// ErrResolverRequired indicates a segment-relative patch without a
	// SegmentResolver, usually because the target is not a Mach-O image.
	ErrResolverRequired = errors.New("segment-relative patch requires a Mach-O target")

	// ErrOutsideRegion indicates a relative patch that does not fit inside
	// its segment or section.
	ErrOutsideRegion = errors.New("patch extends outside its region")
)

// SegmentResolver maps named Mach-O regions to file offsets.
type SegmentResolver interface {
	SegmentOffset(name string) (offset, size int, err error)
	SectionOffset(segment, section string) (offset, size int, err error)
}

// Resolve turns the manifest's patches into replacements in absolute file
// coordinates, in manifest order. resolver may be nil when no patch is
// segment-relative.
func (m *Manifest) Resolve(ctx context.Context, resolver SegmentResolver) ([]splice.Replacement, error) {
	reps := make([]splice.Replacement, 0, len(m.Patches))

	for idx, patch := range m.Patches {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("resolve manifest: %w", ctx.Err())
		default:
		}

		offset, err := absoluteOffset(patch, resolver)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", patch.Label(idx), err)
		}

		data, err := m.payload(patch)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", patch.Label(idx), err)
		}

		reps = append(reps, splice.Replacement{
			Range: splice.Range{Offset: offset, Length: patch.Length},
			Data:  data,
		})
	}

	return reps, nil
}

// Labels returns a display label for every patch, indexed like Patches.
func (m *Manifest) Labels() []string {
	labels := make([]string, len(m.Patches))
	for idx, patch := range m.Patches {
		labels[idx] = patch.Label(idx)
	}
	return labels
}

func absoluteOffset(p Patch, resolver SegmentResolver) (int, error) {
	if !p.Relative() {
		return p.Offset, nil
	}
	if resolver == nil {
		return 0, ErrResolverRequired
	}

	var (
		base, size int
		err        error
		region     = p.Segment
	)
	if p.Section != "" {
		region = p.Segment + "," + p.Section
		base, size, err = resolver.SectionOffset(p.Segment, p.Section)
	} else {
		base, size, err = resolver.SegmentOffset(p.Segment)
	}
	if err != nil {
		return 0, err
	}

	if p.Offset > size || p.Length > size-p.Offset {
		return 0, fmt.Errorf("%w: [%d:%d] in %s of size %d",
			ErrOutsideRegion, p.Offset, p.Offset+p.Length, region, size)
	}
	return base + p.Offset, nil
}

func (m *Manifest) payload(p Patch) ([]byte, error) {
	switch {
	case p.Hex != "":
		return decodeHex(p.Hex)
	case p.Text != nil:
		return []byte(*p.Text), nil
	case p.File != "":
		path := p.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.BaseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		return data, nil
	default:
		return nil, nil
	}
}
