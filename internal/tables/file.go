package tables

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lox/pokerequity/internal/fileutil"
)

// Load reads rank_table.bin (little-endian uint16) and
// transition_table.bin (little-endian int32) from dir.
func Load(dir string) (*Tables, error) {
	rankRaw, err := readTable(filepath.Join(dir, RankFile), 2)
	if err != nil {
		return nil, err
	}
	transRaw, err := readTable(filepath.Join(dir, TransitionFile), 4)
	if err != nil {
		return nil, err
	}

	rank := make([]uint16, len(rankRaw)/2)
	for i := range rank {
		rank[i] = binary.LittleEndian.Uint16(rankRaw[i*2:])
	}
	trans := make([]int32, len(transRaw)/4)
	for i := range trans {
		trans[i] = int32(binary.LittleEndian.Uint32(transRaw[i*4:]))
	}

	t, err := New(rank, trans)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return t, nil
}

func readTable(path string, width int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTableLoad, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrTableLoad, path)
	}
	if len(data)%width != 0 {
		return nil, fmt.Errorf("%w: %s size %d is not a multiple of %d", ErrTableLoad, path, len(data), width)
	}
	return data, nil
}

// Write stores both tables in dir, creating it when needed.
func Write(dir string, t *Tables) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create table dir: %w", err)
	}

	err := fileutil.WriteAtomic(filepath.Join(dir, RankFile), 0o644, func(w io.Writer) error {
		return binary.Write(w, binary.LittleEndian, t.rank)
	})
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(filepath.Join(dir, TransitionFile), 0o644, func(w io.Writer) error {
		return binary.Write(w, binary.LittleEndian, t.trans[:])
	})
}
