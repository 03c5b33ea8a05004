package pipeline

import "fmt"

// RenditionProfile describes one quality-ladder variant. Bitrate, MaxRate
// and BufSize are in kbps, matching the ffmpeg "k" suffix convention.
type RenditionProfile struct {
	Label   string
	Width   int
	Height  int
	Bitrate int
	MaxRate int
	BufSize int
}

// Resolution returns the profile resolution as "<width>x<height>".
func (p RenditionProfile) Resolution() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// Bandwidth returns the manifest BANDWIDTH value in bits per second.
func (p RenditionProfile) Bandwidth() int {
	return p.Bitrate * 1000
}

// Scale returns the ffmpeg scale filter argument for the profile.
func (p RenditionProfile) Scale() string {
	return fmt.Sprintf("%d:%d", p.Width, p.Height)
}

// DefaultLadder is the fixed rendition ladder, in ascending quality order.
var DefaultLadder = []RenditionProfile{
	{Label: "360p", Width: 640, Height: 360, Bitrate: 800, MaxRate: 856, BufSize: 1200},
	{Label: "480p", Width: 854, Height: 480, Bitrate: 1400, MaxRate: 1498, BufSize: 2100},
	{Label: "720p", Width: 1280, Height: 720, Bitrate: 2800, MaxRate: 2996, BufSize: 4200},
	{Label: "1080p", Width: 1920, Height: 1080, Bitrate: 5000, MaxRate: 5350, BufSize: 7500},
}
