package submissions

import "strings"

var suffixes = []struct {
	typ  ContentType
	exts []string
}{
	{TypeImage, []string{".jpg", ".png", ".jpeg"}},
	{TypeVideo, []string{".mp4", ".mov"}},
	{TypeAudio, []string{".mp3", ".wav"}},
	{TypeText, []string{".txt", ".docx"}},
}

// Classify maps a file name to its content type by case-sensitive suffix.
// Anything not recognized is TypeUnknown.
func Classify(name string) ContentType {
	for _, s := range suffixes {
		for _, ext := range s.exts {
			if strings.HasSuffix(name, ext) {
				return s.typ
			}
		}
	}
	return TypeUnknown
}
