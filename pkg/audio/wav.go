package audio

import "encoding/binary"

// bitsPerSample is fixed at 16 for the signed little-endian PCM audio that
// speech-to-text boundaries expect.
const bitsPerSample = 16

// WAVHeaderSize is the size of the canonical RIFF/WAVE header in bytes.
const WAVHeaderSize = 44

// EncodeWAV quantises trimmed float32 samples to 16-bit signed little-endian
// PCM and wraps them in a canonical RIFF/WAVE container (mono, 16-bit,
// sampleRate). The header must stay byte-exact: downstream speech services
// reject non-canonical chunk-size fields.
//
// Samples are re-chunked into [EncodeBlockSamples] blocks before
// concatenation. Each sample is clamped to [-1, 1] before scaling.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	// Re-chunk for uniform downstream handling; no semantic effect.
	blocks := Rechunk(samples, EncodeBlockSamples)

	dataSize := len(samples) * 2
	buf := make([]byte, WAVHeaderSize+dataSize)
	writeWAVHeader(buf, sampleRate, dataSize)

	off := WAVHeaderSize
	for _, block := range blocks {
		for _, s := range block {
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			var v int16
			if s < 0 {
				v = int16(s * 0x8000)
			} else {
				v = int16(s * 0x7FFF)
			}
			binary.LittleEndian.PutUint16(buf[off:off+2], uint16(v))
			off += 2
		}
	}
	return buf
}

// writeWAVHeader fills the first 44 bytes of buf with a canonical RIFF/WAVE
// header for mono 16-bit PCM data of dataSize bytes.
func writeWAVHeader(buf []byte, sampleRate, dataSize int) {
	const channels = 1
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)                 // sub-chunk size (PCM)
	binary.LittleEndian.PutUint16(buf[20:22], 1)                  // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], channels)           // num channels
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate)) // sample rate
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))   // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign)) // block align
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)      // bits per sample

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
}
