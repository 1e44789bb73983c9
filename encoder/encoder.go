// Package encoder converts raw capture PCM into the container formats
// the transcription engines accept: WAV for the local engine, FLAC for
// compressed uploads to remote ones.
package encoder

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)
