package bus

import "iter"

// probeByte is written to every address during a scan. Its value does not
// matter to the target; only the acknowledge does.
const probeByte = 0x01

// Scan probes every 7-bit address in increasing order and yields the ones
// that acknowledge a one-byte write. The sequence is lazy, so callers can
// report each device as it is found, and it can be ranged over again to
// rescan.
func Scan(t Transport) iter.Seq[Address] {
	return func(yield func(Address) bool) {
		probe := []byte{probeByte}
		for a := Address(0); a <= MaxAddress; a++ {
			// Any failure here just means nothing answered.
			if err := t.Write(a, probe); err != nil {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}
