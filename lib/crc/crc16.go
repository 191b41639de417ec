// Package crc implements the CRC-16/IBM (ARC) checksum used to guard
// persisted settings records: polynomial 0x8005, initial value 0x0000,
// reflected input and output, no final XOR.
package crc

// reverseByte reverses the bit order of a single byte.
func reverseByte(b byte) byte {
	b = ((b & 0xF0) >> 4) | ((b & 0x0F) << 4)
	b = ((b & 0xCC) >> 2) | ((b & 0x33) << 2)
	b = ((b & 0xAA) >> 1) | ((b & 0x55) << 1)
	return b
}

// reverse16 reverses the bit order of a 16-bit register.
func reverse16(v uint16) uint16 {
	var out uint16
	for i := 0; i < 16; i++ {
		out <<= 1
		out |= v & 1
		v >>= 1
	}
	return out
}

// Sum16 computes the CRC-16/IBM checksum of data. Reflection is applied
// per input byte before it enters the register and once more on the final
// register value, matching the REFIN/REFOUT variant of the algorithm.
func Sum16(data []byte) uint16 {
	var crc uint16

	for _, b := range data {
		crc ^= uint16(reverseByte(b)) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x8005
			} else {
				crc <<= 1
			}
		}
	}

	return reverse16(crc)
}
