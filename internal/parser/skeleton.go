package parser

// StorySkeleton is the raw narrative structure a story is parsed from. It is
// a closed set of sections: each optional section is either present (non-nil)
// or absent, never partially structured. Absent sections contribute no scene.
type StorySkeleton struct {
	Introduction *Section `json:"introduction,omitempty"`
	SettingOut   *Section `json:"setting_out,omitempty"`
	Tests        []Test   `json:"tests,omitempty"`
	Climax       *Section `json:"climax,omitempty"`
	Conclusion   *Section `json:"conclusion,omitempty"`
}

// Section is one present narrative section. Text may be empty; an empty
// present section still yields a zero-word scene.
type Section struct {
	Text       string   `json:"text"`
	Characters []string `json:"characters,omitempty"`
}

// Test is one challenge the protagonist faces. Name is optional; unnamed
// tests get a generated fallback title.
type Test struct {
	Name       string   `json:"name,omitempty"`
	Text       string   `json:"text"`
	Characters []string `json:"characters,omitempty"`
}
