// Package monitor renders the engine's diagnostic dumps: the hook table,
// the current bytes at every patch site, hook hit counters, the kill ring
// and the map lifecycle.
package monitor

import (
	"fmt"
	"os"
	"strings"

	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/internal/installer"
	"github.com/fates3gx/sdk/internal/memory"
	"github.com/fates3gx/sdk/internal/state"
	"github.com/fates3gx/sdk/internal/worker"
)

// siteBytes is how many bytes DumpHookSites shows per patch point.
const siteBytes = 8

// Dependencies holds everything the dumps read. Any field except Catalog
// may be nil; the dumps that need it are then skipped.
type Dependencies struct {
	Catalog   *hooks.Catalog
	Memory    memory.Reader
	Installer *installer.Installer
	Runtime   *state.Runtime
	Writer    *worker.Manager
	Logger    diag.Logger
}

// Service produces the dumps. Like the runtime it reads, it must be used
// from the hook thread.
type Service struct {
	deps   Dependencies
	logger diag.Logger
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	return &Service{deps: deps, logger: diag.OrNop(deps.Logger)}
}

// DumpHookTable lists every catalog row.
func (s *Service) DumpHookTable() []string {
	rows := s.deps.Catalog.All()
	out := []string{fmt.Sprintf("hook table: %d entries", len(rows))}
	for _, d := range rows {
		out = append(out, fmt.Sprintf(
			"Hook[%02d]: %s VA=0x%08X fileOff=0x%08X guard={%08X,%08X,%08X} thumb=%s stability=%s",
			d.ID, d.Name, d.TargetVA, d.FileOffset,
			d.Guard[0], d.Guard[1], d.Guard[2], yesNo(d.Thumb), d.Stability))
	}
	return out
}

// DumpHookSites shows the current bytes at every canonical target next to
// the guard bytes the catalog expects, with the installer state if known.
func (s *Service) DumpHookSites() []string {
	if s.deps.Memory == nil {
		return []string{"hook sites: no memory attached"}
	}
	rows := s.deps.Catalog.All()
	out := []string{fmt.Sprintf("hook sites: %d entries", len(rows))}
	for _, d := range rows {
		addr := d.Canonical()
		cur := make([]byte, siteBytes)
		current := "unreadable"
		if n, err := s.deps.Memory.ReadMemory(addr, cur); err == nil && n == siteBytes {
			current = hexBytes(cur)
		}

		line := fmt.Sprintf("Site[%02d] %s @VA=0x%08X: cur=[%s] guard=[%s]",
			d.ID, d.Name, addr, current, hexBytes(guardBytes(d.Guard)))
		if s.deps.Installer != nil {
			if st, ok := s.deps.Installer.Status(d.ID); ok {
				line += " state=" + st.State.String()
			}
		}
		out = append(out, line)
	}
	return out
}

// DumpHookCounts lists the hit counter of every identity.
func (s *Service) DumpHookCounts() []string {
	if s.deps.Runtime == nil {
		return nil
	}
	counts := s.deps.Runtime.HookCounts()
	out := make([]string, 0, len(counts))
	for i, n := range counts {
		out = append(out, fmt.Sprintf("%02d %s = %d", i, hooks.ID(i).Name(), n))
	}
	return out
}

// DumpKillEvents lists the current map's kill ring in push order.
func (s *Service) DumpKillEvents() []string {
	if s.deps.Runtime == nil {
		return nil
	}
	kills := s.deps.Runtime.Kills()
	out := []string{fmt.Sprintf("kill events: %d", len(kills))}
	for i, k := range kills {
		out = append(out, fmt.Sprintf("[%d] seq=%s dead0=%s dead1=%s flags=0x%08X",
			i, k.Seq, k.Dead0, k.Dead1, k.Flags))
	}
	return out
}

// MapState renders the lifecycle record.
func (s *Service) MapState() []string {
	if s.deps.Runtime == nil {
		return nil
	}
	l := s.deps.Runtime.Lifecycle()
	out := []string{
		fmt.Sprintf("Generation:  %d", l.Generation),
		fmt.Sprintf("Seq root:    %s", l.SeqRoot),
		fmt.Sprintf("Active:      %s", yesNo(l.Active)),
		fmt.Sprintf("Start side:  %s", l.StartSide),
		fmt.Sprintf("Curr side:   %s", l.CurrentSide),
		fmt.Sprintf("Total turns: %d", l.TotalTurns),
	}
	for side, n := range l.TurnCount {
		out = append(out, fmt.Sprintf("Side%d turns: %d", side, n))
	}
	out = append(out, fmt.Sprintf("Kills (map): %d", l.KillEvents))
	return out
}

// WriterState renders the summary writer counters.
func (s *Service) WriterState() []string {
	if s.deps.Writer == nil {
		return nil
	}
	st := s.deps.Writer.Stats()
	return []string{fmt.Sprintf("summaries: queued=%d written=%d failed=%d dropped=%d lastWrite=%s",
		st.Queued, st.Written, st.Failed, st.Dropped, st.LastWrite)}
}

// Log emits lines at info level under title.
func (s *Service) Log(title string, lines []string) {
	for _, line := range lines {
		s.logger.Info(line, "dump", title)
	}
}

// WriteStatus replaces the file at path with every dump.
func (s *Service) WriteStatus(path string) error {
	var b strings.Builder
	sections := []struct {
		title string
		lines []string
	}{
		{"map", s.MapState()},
		{"writer", s.WriterState()},
		{"counts", s.DumpHookCounts()},
		{"kills", s.DumpKillEvents()},
	}
	for _, sec := range sections {
		if len(sec.lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "# %s\n", sec.title)
		for _, line := range sec.lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}
	return nil
}

func guardBytes(g [hooks.GuardWords]uint32) []byte {
	out := make([]byte, 0, siteBytes)
	for _, w := range g {
		for i := 0; i < 4 && len(out) < siteBytes; i++ {
			out = append(out, byte(w>>(8*i)))
		}
	}
	return out
}

func hexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
