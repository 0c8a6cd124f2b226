package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
)

// DefaultFollowInterval is how often the game directory is rescanned while
// a session is kept open for leftover processes.
const DefaultFollowInterval = 2 * time.Second

// ProcessFinder reports running processes whose executable lives under a
// directory.
type ProcessFinder interface {
	FindInDir(dir string) ([]int, error)
}

// SystemFinder scans the process table with gopsutil.
type SystemFinder struct{}

func (SystemFinder) FindInDir(dir string) ([]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	prefix := strings.ToLower(filepath.Clean(dir) + string(filepath.Separator))
	self := int32(os.Getpid()) //nolint:gosec // pids fit in int32

	var pids []int
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		exe, err := p.Exe()
		if err != nil {
			// exited, or owned by another user
			continue
		}
		if strings.HasPrefix(strings.ToLower(exe), prefix) {
			pids = append(pids, int(p.Pid))
		}
	}
	return pids, nil
}

// follow blocks while any process started from dir is still running, so
// a launcher stub that hands off to the real game and exits does not end
// the session early. It gives up once sessionID is no longer the game's
// active session, either drained or replaced by a relaunch.
func (l *Launcher) follow(dir, gameID, sessionID string) {
	logged := false
	for {
		if st := l.tracker.Status(gameID); !st.Active || st.SessionID != sessionID {
			return
		}

		pids, err := l.finder.FindInDir(dir)
		if err != nil {
			log.Warn().Err(err).Str("game", gameID).Msg("launcher: cannot follow child processes")
			return
		}
		if len(pids) == 0 {
			if logged {
				log.Info().Str("game", gameID).Msg("launcher: child processes exited")
			}
			return
		}
		if !logged {
			log.Info().
				Str("game", gameID).
				Ints("pids", pids).
				Msg("launcher: process exited, following processes left in game dir")
			logged = true
		}

		<-l.clock.After(l.interval)
	}
}
