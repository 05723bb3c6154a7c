package audio

import "time"

// bytesPerSample is fixed: every Handle holds 16-bit little-endian PCM.
const bytesPerSample = 2

// Handle is decoded audio held in memory as 16-bit little-endian PCM.
// A Handle is never mutated after decoding; slices share the backing array.
type Handle struct {
	SampleRate int
	Channels   int
	PCM        []byte
}

// NewHandle wraps raw PCM bytes.
func NewHandle(sampleRate, channels int, pcm []byte) *Handle {
	if channels <= 0 {
		channels = 1
	}
	return &Handle{SampleRate: sampleRate, Channels: channels, PCM: pcm}
}

func (h *Handle) frameSize() int {
	return bytesPerSample * h.Channels
}

// Frames returns the number of complete sample frames.
func (h *Handle) Frames() int64 {
	if h == nil || h.SampleRate <= 0 || h.Channels <= 0 {
		return 0
	}
	return int64(len(h.PCM) / h.frameSize())
}

// DurationMs returns the total duration in whole milliseconds.
func (h *Handle) DurationMs() int64 {
	if h == nil || h.SampleRate <= 0 {
		return 0
	}
	return h.Frames() * 1000 / int64(h.SampleRate)
}

// Duration returns the total duration.
func (h *Handle) Duration() time.Duration {
	return time.Duration(h.DurationMs()) * time.Millisecond
}

// offset converts a millisecond position to a byte offset aligned to a frame.
func (h *Handle) offset(ms int64) int {
	frame := ms * int64(h.SampleRate) / 1000
	if frames := h.Frames(); frame > frames {
		frame = frames
	}
	return int(frame) * h.frameSize()
}

// Slice returns the audio covering [startMs, endMs). An endMs at or past the
// total duration extends to the final frame so sub-millisecond tails are kept.
func (h *Handle) Slice(startMs, endMs int64) *Handle {
	if startMs < 0 {
		startMs = 0
	}
	lo := h.offset(startMs)
	hi := h.offset(endMs)
	if endMs >= h.DurationMs() {
		hi = int(h.Frames()) * h.frameSize()
	}
	if hi < lo {
		hi = lo
	}
	return &Handle{
		SampleRate: h.SampleRate,
		Channels:   h.Channels,
		PCM:        h.PCM[lo:hi:hi],
	}
}
