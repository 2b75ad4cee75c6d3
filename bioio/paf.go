package bioio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/SHuang-Broad/racon/polisher"
)

// ParseOverlaps reads PAF records, resolving sequence names through the given
// indexes. Reverse-strand records have their query coordinates transformed
// into reverse-complement space so that alignment always runs on
// forward-oriented data.
func ParseOverlaps(r io.Reader, reads, targets map[string]uint32) ([]*polisher.Overlap, error) {
	var out []*polisher.Overlap
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 12 {
			return nil, fmt.Errorf("paf line %d: expected 12 fields, got %d", line, len(fields))
		}

		qid, ok := reads[fields[0]]
		if !ok {
			return nil, fmt.Errorf("paf line %d: unknown query %q", line, fields[0])
		}
		tid, ok := targets[fields[5]]
		if !ok {
			return nil, fmt.Errorf("paf line %d: unknown target %q", line, fields[5])
		}
		strand := fields[4]
		if strand != "+" && strand != "-" {
			return nil, fmt.Errorf("paf line %d: bad strand %q", line, strand)
		}

		nums := make([]uint32, 0, 9)
		for _, i := range []int{1, 2, 3, 6, 7, 8, 9, 10} {
			v, err := strconv.ParseUint(fields[i], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("paf line %d field %d: %w", line, i+1, err)
			}
			nums = append(nums, uint32(v))
		}

		o := &polisher.Overlap{
			QID: qid, QLength: nums[0], QBegin: nums[1], QEnd: nums[2],
			TID: tid, TLength: nums[3], TBegin: nums[4], TEnd: nums[5],
			Strand:  strand[0],
			Matches: nums[6], Length: nums[7],
		}
		if o.Strand == '-' {
			o.QBegin, o.QEnd = o.QLength-o.QEnd, o.QLength-o.QBegin
		}
		out = append(out, o)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadOverlaps reads a PAF file against loaded read and target collections.
func LoadOverlaps(path string, reads, targets []*polisher.Sequence) ([]*polisher.Overlap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	overlaps, err := ParseOverlaps(f, NameIndex(reads), NameIndex(targets))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return overlaps, nil
}
