package model

// Setting keys stored in the Configs table.
const (
	SettingChromeExecutable   = "chrome_executable"
	SettingBlogLink           = "art_blog_link"
	SettingLastNoteDay        = "last_day_note_opened"
	SettingPasswordSentinel   = "verify_password"
	DefaultBlogLink           = "https://automatedrewardstracker.blogspot.com/"
	PasswordSentinelPlaintext = "Verify_Password"
)

// Setting is one small application setting. Settings with an empty label are
// internal and hidden from listings.
type Setting struct {
	Key   string
	Label string
	Value string
}

// Visible reports whether the setting is user-facing.
func (s Setting) Visible() bool {
	return s.Label != ""
}
