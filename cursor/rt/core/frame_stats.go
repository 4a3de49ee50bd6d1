package core

import (
	"fmt"
	"strings"
	"time"
)

// FrameStats times named scopes within a frame and averages the frame rate
// over a reporting window.
type FrameStats struct {
	Window time.Duration

	scopes map[string]time.Duration
	starts map[string]time.Time
	order  []string

	frames    int
	elapsed   time.Duration
	lastFrame time.Time
	fps       float64
}

func NewFrameStats(window time.Duration) *FrameStats {
	if window <= 0 {
		window = time.Second
	}
	return &FrameStats{
		Window: window,
		scopes: make(map[string]time.Duration),
		starts: make(map[string]time.Time),
	}
}

func (s *FrameStats) BeginScope(name string) {
	s.starts[name] = time.Now()
	if _, seen := s.scopes[name]; !seen {
		s.scopes[name] = 0
		s.order = append(s.order, name)
	}
}

func (s *FrameStats) EndScope(name string) {
	if start, ok := s.starts[name]; ok {
		s.scopes[name] = time.Since(start)
		delete(s.starts, name)
	}
}

func (s *FrameStats) Scope(name string) time.Duration { return s.scopes[name] }

// Tick records a frame boundary at now. It reports true once per window,
// when FPS has been refreshed.
func (s *FrameStats) Tick(now time.Time) bool {
	if s.lastFrame.IsZero() {
		s.lastFrame = now
		return false
	}
	s.frames++
	s.elapsed += now.Sub(s.lastFrame)
	s.lastFrame = now
	if s.elapsed < s.Window {
		return false
	}
	s.fps = float64(s.frames) / s.elapsed.Seconds()
	s.frames = 0
	s.elapsed = 0
	return true
}

func (s *FrameStats) FPS() float64 { return s.fps }

func (s *FrameStats) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fps=%.1f", s.fps)
	for _, name := range s.order {
		fmt.Fprintf(&sb, " %s=%.2fms", name, float64(s.scopes[name].Microseconds())/1000.0)
	}
	return sb.String()
}
