package program

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chazu/isr/pkg/scene"
)

// RecordBytes is the encoded size of one record.
const RecordBytes = scene.RecordSize * 4

// TexelsPerRecord is the number of RGBA32F texels one record occupies.
const TexelsPerRecord = scene.RecordSize / 4

// Encode flattens records into little-endian float32 words, ready to be
// copied into a GPU buffer.
func Encode(records []scene.Record) []byte {
	buf := make([]byte, len(records)*RecordBytes)
	o := 0
	for _, r := range records {
		for _, v := range r {
			binary.LittleEndian.PutUint32(buf[o:], math.Float32bits(v))
			o += 4
		}
	}
	return buf
}

// Decode is the inverse of Encode.
func Decode(buf []byte) ([]scene.Record, error) {
	if len(buf)%RecordBytes != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of the %d-byte record", ErrMalformed, len(buf), RecordBytes)
	}
	records := make([]scene.Record, len(buf)/RecordBytes)
	o := 0
	for i := range records {
		for j := range records[i] {
			records[i][j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[o:]))
			o += 4
		}
	}
	return records, nil
}

// Texel is one RGBA32F texel.
type Texel [4]float32

// Texels lays records out as a single-row float texture, eight texels per
// record. The renderer addresses record i, slot j at texel 8i + j/4.
func Texels(records []scene.Record) (texels []Texel, width, height int) {
	texels = make([]Texel, 0, len(records)*TexelsPerRecord)
	for _, r := range records {
		for j := 0; j < scene.RecordSize; j += 4 {
			texels = append(texels, Texel{r[j], r[j+1], r[j+2], r[j+3]})
		}
	}
	return texels, len(texels), 1
}
