package audio

import "slices"

// BytesToSamples decodes little-endian 16-bit samples from src, appending
// them to dst.
func BytesToSamples(src []byte, dst []int16) []int16 {
	n := len(src) / SampleSize
	dst = slices.Grow(dst, n)
	for i := 0; i < n; i++ {
		dst = append(dst, int16(src[i*2])|int16(src[i*2+1])<<8)
	}
	return dst
}

// SamplesToBytes encodes src as little-endian 16-bit samples, appending
// them to dst.
func SamplesToBytes(src []int16, dst []byte) []byte {
	dst = slices.Grow(dst, len(src)*SampleSize)
	for _, s := range src {
		dst = append(dst, byte(s), byte(s>>8))
	}
	return dst
}
