package keysystem

// ID names a content-protection scheme. Identifiers are case-sensitive
// reverse-DNS tokens and must never be case-transformed.
type ID string

// Widevine is the one key system registered by default.
const Widevine ID = "com.widevine.alpha"

func (id ID) String() string { return string(id) }

// VideoContentType formats a video codec identifier as the content-type
// string the host capability probe expects.
func VideoContentType(codec string) string {
	return `video/mp4; codecs="` + codec + `"`
}

// AudioContentType formats an audio codec identifier as a content-type string.
func AudioContentType(codec string) string {
	return `audio/mp4; codecs="` + codec + `"`
}
