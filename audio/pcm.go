package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WritePCM encodes interleaved integer samples into a PCM WAV file at path.
func WritePCM(path string, sampleRate, channels, bitDepth int, samples []int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audio: encode %s: %w", path, err)
	}
	return enc.Close()
}

// Silence returns n interleaved zero samples per channel.
func Silence(seconds float64, sampleRate, channels int) []int {
	return make([]int, int(seconds*float64(sampleRate))*channels)
}
