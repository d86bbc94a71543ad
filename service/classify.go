package service

import "strings"

// GenericExtension labels payloads whose content type matches nothing in
// the priority list.
const GenericExtension = "audio"

// extensionChecks is a fixed priority list: the first substring match of
// the declared content type wins. "mpeg" sits next to "mp3" so that
// audio/mpeg, the usual MP3 media type, classifies as mp3.
var extensionChecks = []struct {
	substr string
	ext    string
}{
	{"mp3", "mp3"},
	{"mpeg", "mp3"},
	{"wav", "wav"},
	{"m4a", "m4a"},
	{"webm", "webm"},
}

// ExtensionForContentType maps a declared content-type string to a file
// extension.
func ExtensionForContentType(contentType string) string {
	for _, check := range extensionChecks {
		if strings.Contains(contentType, check.substr) {
			return check.ext
		}
	}
	return GenericExtension
}
