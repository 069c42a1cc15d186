package domain

// Profile is one deployment of the records portal: which base URL to talk
// to, which credential opens a session there, and where downloads land.
type Profile struct {
	Name        string
	BaseURL     string
	Credential  string
	DownloadDir string
}
