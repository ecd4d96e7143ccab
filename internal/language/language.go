package language

import "strings"

type entry struct {
	code2   string
	code3   []string
	display string
}

// Languages whisper commonly detects; anything else passes through as given.
var languages = []entry{
	{"en", []string{"eng"}, "English"},
	{"es", []string{"spa"}, "Spanish"},
	{"fr", []string{"fra", "fre"}, "French"},
	{"de", []string{"deu", "ger"}, "German"},
	{"it", []string{"ita"}, "Italian"},
	{"pt", []string{"por"}, "Portuguese"},
	{"ja", []string{"jpn"}, "Japanese"},
	{"ko", []string{"kor"}, "Korean"},
	{"zh", []string{"zho", "chi"}, "Chinese"},
	{"ru", []string{"rus"}, "Russian"},
	{"ar", []string{"ara"}, "Arabic"},
	{"hi", []string{"hin"}, "Hindi"},
	{"nl", []string{"nld", "dut"}, "Dutch"},
	{"pl", []string{"pol"}, "Polish"},
	{"sv", []string{"swe"}, "Swedish"},
	{"tr", []string{"tur"}, "Turkish"},
	{"uk", []string{"ukr"}, "Ukrainian"},
}

var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		m[e.code2] = e
		m[strings.ToLower(e.display)] = e
		for _, code := range e.code3 {
			m[code] = e
		}
	}
	return m
}()

func lookup(code string) *entry {
	return index[strings.ToLower(strings.TrimSpace(code))]
}

// ToISO2 converts a language code or English name to ISO 639-1. Unknown
// 2-letter codes pass through; other unknown input yields "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable language name. Whisper reports
// languages either as codes or lowercase names; both are accepted.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	return strings.ToUpper(trimmed[:1]) + strings.ToLower(trimmed[1:])
}
