package ffmpeg

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   float64 // seconds
	Width      int
	Height     int
	FPS        float64
	VideoCodec string
	HasAudio   bool
	AudioCodec string
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame int
	FPS   float64
	Time  string
	Speed string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// Default encoding settings for extracted clips
const (
	DefaultCRF        = 18
	DefaultPreset     = "slow"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)
