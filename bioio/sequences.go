// Package bioio loads the polisher's inputs: FASTA/FASTQ sequence files and
// PAF overlap records.
package bioio

import (
	"fmt"
	"io"

	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/SHuang-Broad/racon/polisher"
)

// LoadSequences reads all records of a FASTA/FASTQ file (plain or gzipped).
func LoadSequences(path string) ([]*polisher.Sequence, error) {
	reader, err := fastx.NewDefaultReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer reader.Close()

	var out []*polisher.Sequence
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s record %d: %w", path, len(out), err)
		}

		// the reader reuses the record's buffers
		data := make([]byte, len(record.Seq.Seq))
		copy(data, record.Seq.Seq)
		var quality []byte
		if len(record.Seq.Qual) > 0 {
			quality = make([]byte, len(record.Seq.Qual))
			copy(quality, record.Seq.Qual)
		}
		out = append(out, polisher.NewSequence(string(record.ID), data, quality))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no sequences found", path)
	}
	return out, nil
}

// NameIndex maps sequence names to their index in the collection.
func NameIndex(sequences []*polisher.Sequence) map[string]uint32 {
	idx := make(map[string]uint32, len(sequences))
	for i, s := range sequences {
		idx[s.Name] = uint32(i)
	}
	return idx
}
