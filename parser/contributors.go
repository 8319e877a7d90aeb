package parser

import "strings"

// Contributors routes role-tagged names into typed collections.
type Contributors struct {
	Authors     []string
	Translators []string
	Painters    []string
}

var roleSeparators = []string{" : ", "：", ":"}

// SplitRole splits "作者 : 某人" style entries into role and names. ok is
// false when the entry carries no role label.
func SplitRole(entry string) (role, names string, ok bool) {
	for _, sep := range roleSeparators {
		if before, after, found := strings.Cut(entry, sep); found {
			return CleanText(before), after, true
		}
	}
	return "", entry, false
}

// Add splits names and files them under role. Unknown roles are kept as
// authors with the label appended in parentheses.
func (c *Contributors) Add(role, names string) {
	for _, name := range SplitNames(names) {
		switch CleanText(role) {
		case "", "作者", "著", "作":
			c.Authors = append(c.Authors, name)
		case "譯者", "譯", "翻譯":
			c.Translators = append(c.Translators, name)
		case "插畫", "繪者", "繪", "插圖":
			c.Painters = append(c.Painters, name)
		default:
			c.Authors = append(c.Authors, name+" ("+CleanText(role)+")")
		}
	}
}

// AddTagged adds an entry that may or may not carry a role label.
func (c *Contributors) AddTagged(entry string) {
	role, names, _ := SplitRole(entry)
	c.Add(role, names)
}
