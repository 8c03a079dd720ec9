// Package playback holds the slice of the playback engine's data model the
// negotiation core consumes: quality levels and their codec identifiers.
package playback

// Level describes one quality level extracted from a parsed manifest.
type Level struct {
	Bitrate    int
	Width      int
	Height     int
	AudioCodec string
	VideoCodec string
}

// CodecLists collects the distinct audio and video codec identifiers across
// levels, preserving first-seen order. Empty codec fields are skipped.
func CodecLists(levels []Level) (audio, video []string) {
	seenAudio := make(map[string]struct{})
	seenVideo := make(map[string]struct{})
	for _, level := range levels {
		if level.AudioCodec != "" {
			if _, ok := seenAudio[level.AudioCodec]; !ok {
				seenAudio[level.AudioCodec] = struct{}{}
				audio = append(audio, level.AudioCodec)
			}
		}
		if level.VideoCodec != "" {
			if _, ok := seenVideo[level.VideoCodec]; !ok {
				seenVideo[level.VideoCodec] = struct{}{}
				video = append(video, level.VideoCodec)
			}
		}
	}
	return audio, video
}
