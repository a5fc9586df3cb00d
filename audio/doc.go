// Package audio converts arbitrary input audio into the canonical form the
// speech models expect: mono, 16-bit PCM WAV at the configured sample rate.
//
// Inputs that are already canonical are passed through untouched. Everything
// else is transcoded into a single artifact, canonical.wav, inside the job's
// work directory.
//
//	n := audio.NewNormalizer(audio.Config{SampleRate: 16000})
//	c, err := n.Normalize(ctx, "meeting.mp3", workDir)
package audio
