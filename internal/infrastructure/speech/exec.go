package speech

import (
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"guidechat/internal/config"
	"guidechat/internal/infrastructure/logger"
)

// espeak's defaults: 175 words per minute, pitch 50, amplitude 100. The
// profile's relative rate/pitch/volume scale against those.
const (
	baseWordsPerMinute = 175
	basePitch          = 50
	baseAmplitude      = 100
)

// execSynthesizer shells out to the platform's speech binary, one process
// per utterance.
type execSynthesizer struct {
	path string
	args []string
}

// DetectSynthesizer probes for a platform speech binary and returns nil when
// none is installed (the feature is then silently unavailable).
func DetectSynthesizer(voice config.Voice) Synthesizer {
	log := logger.GetLogger()

	if runtime.GOOS == "darwin" {
		if path, err := exec.LookPath("say"); err == nil {
			return &execSynthesizer{
				path: path,
				args: []string{"-r", strconv.Itoa(scaled(voice.Rate, baseWordsPerMinute))},
			}
		}
		log.Debug().Msg("say binary not found")
		return nil
	}

	for _, candidate := range []string{"espeak-ng", "espeak"} {
		path, err := exec.LookPath(candidate)
		if err != nil {
			continue
		}
		return &execSynthesizer{
			path: path,
			args: []string{
				"-v", strings.ToLower(voice.Locale),
				"-s", strconv.Itoa(scaled(voice.Rate, baseWordsPerMinute)),
				"-p", strconv.Itoa(scaled(voice.Pitch, basePitch)),
				"-a", strconv.Itoa(scaled(voice.Volume, baseAmplitude)),
			},
		}
	}

	log.Debug().Msg("no espeak binary found")
	return nil
}

func scaled(factor float64, base int) int {
	if factor <= 0 {
		return base
	}
	return int(factor * float64(base))
}

func (s *execSynthesizer) speak(text string) (utterance, error) {
	args := append(append([]string{}, s.args...), text)
	cmd := exec.Command(s.path, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &process{cmd: cmd}, nil
}

type process struct {
	cmd *exec.Cmd
}

func (p *process) stop() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

func (p *process) wait() error {
	return p.cmd.Wait()
}
