package audio

import (
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(48000)

// Tone is a short synthesized sound.
type Tone struct {
	Freq     float64
	Duration time.Duration
	Volume   float64
}

// DefaultTones covers the sound keys the bundled catalog uses.
func DefaultTones() map[string]Tone {
	return map[string]Tone{
		"rifle_fire":   {Freq: 660, Duration: 40 * time.Millisecond, Volume: 0.3},
		"shotgun_fire": {Freq: 180, Duration: 90 * time.Millisecond, Volume: 0.5},
		"pistol_fire":  {Freq: 880, Duration: 30 * time.Millisecond, Volume: 0.3},
		"jam":          {Freq: 120, Duration: 150 * time.Millisecond, Volume: 0.4},
		"reload":       {Freq: 440, Duration: 60 * time.Millisecond, Volume: 0.25},
		"hit":          {Freq: 300, Duration: 25 * time.Millisecond, Volume: 0.3},
		"death":        {Freq: 90, Duration: 250 * time.Millisecond, Volume: 0.5},
		"pickup":       {Freq: 1046, Duration: 50 * time.Millisecond, Volume: 0.25},
	}
}

// BeepSink plays tones through the system speaker. Keys without a tone get
// one derived from the key so every sound is audible.
type BeepSink struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	tones       map[string]Tone
	initialized bool
}

func NewBeepSink(tones map[string]Tone) *BeepSink {
	if tones == nil {
		tones = DefaultTones()
	}
	return &BeepSink{mixer: &beep.Mixer{}, tones: tones}
}

// Initialize opens the speaker. On failure the sink stays silent.
func (s *BeepSink) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(s.mixer)
	s.initialized = true
	return nil
}

func (s *BeepSink) Play(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized || key == "" {
		return
	}
	streamer, err := s.streamer(key)
	if err != nil {
		return
	}
	speaker.Lock()
	s.mixer.Add(streamer)
	speaker.Unlock()
}

func (s *BeepSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}
	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
	s.initialized = false
}

func (s *BeepSink) tone(key string) Tone {
	if tone, ok := s.tones[key]; ok {
		return tone
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return Tone{
		Freq:     220 + float64(h.Sum32()%660),
		Duration: 50 * time.Millisecond,
		Volume:   0.25,
	}
}

func (s *BeepSink) streamer(key string) (beep.Streamer, error) {
	tone := s.tone(key)
	sine, err := generators.SineTone(sampleRate, tone.Freq)
	if err != nil {
		return nil, err
	}
	return beep.Take(sampleRate.N(tone.Duration), volume(sine, tone.Volume)), nil
}

func volume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
