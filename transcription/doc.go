// Package transcription defines the speech-to-text contract: an audio file
// in, time-ordered text segments out.
//
// Backends register a provider.Factory under a name and are selected by the
// transcription.backend config key.
//
//   - transcription/whisper: faster-whisper HTTP sidecar
//
// # Usage
//
//	mgr := provider.NewManager[transcription.Provider](nil)
//	mgr.Register(whisper.ProviderName, whisper.Factory())
//	_ = mgr.Initialize(ctx, whisper.ProviderName, options)
//	p, _ := mgr.Lookup(whisper.ProviderName)
//	p = transcription.Decorate(p, resilienceCfg, log)
//	resp, err := p.Transcribe(ctx, transcription.Request{AudioPath: path})
package transcription
