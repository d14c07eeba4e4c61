package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrFrameNotFound reports a useframe token that matched nothing. The
// active target is left untouched in that case.
var ErrFrameNotFound = errors.New("frame not found")

// FrameInfo describes one child frame of the session.
type FrameInfo struct {
	Index  int
	Name   string
	URL    string
	Active bool
}

// FramesSnapshot is the current frame tree: the main document plus its
// child frames in engine order.
type FramesSnapshot struct {
	MainURL    string
	MainActive bool
	Children   []FrameInfo
}

// resolveFrameToken maps a useframe token onto a child frame index.
// Resolution order: pure number is an ordinal index; "name=" prefix is an
// exact name match; "url=" prefix is a substring URL match; a bare token
// tries exact name first, then substring URL. First match wins.
func resolveFrameToken(token string, children []FrameInfo) (int, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty token", ErrFrameNotFound)
	}
	if idx, err := strconv.Atoi(trimmed); err == nil {
		if idx < 0 || idx >= len(children) {
			return 0, fmt.Errorf("%w: index %d out of range (have %d frames)", ErrFrameNotFound, idx, len(children))
		}
		return idx, nil
	}
	if name, ok := strings.CutPrefix(trimmed, "name="); ok {
		for _, fr := range children {
			if fr.Name == name {
				return fr.Index, nil
			}
		}
		return 0, fmt.Errorf("%w: no frame named %q", ErrFrameNotFound, name)
	}
	if needle, ok := strings.CutPrefix(trimmed, "url="); ok {
		for _, fr := range children {
			if strings.Contains(fr.URL, needle) {
				return fr.Index, nil
			}
		}
		return 0, fmt.Errorf("%w: no frame url containing %q", ErrFrameNotFound, needle)
	}
	for _, fr := range children {
		if fr.Name == trimmed {
			return fr.Index, nil
		}
	}
	for _, fr := range children {
		if strings.Contains(fr.URL, trimmed) {
			return fr.Index, nil
		}
	}
	return 0, fmt.Errorf("%w: %q matched no frame name or url", ErrFrameNotFound, trimmed)
}

// childFrames lists the page's frames minus the main one, preserving the
// engine's order.
func (s *Session) childFrames() []FrameInfo {
	main := s.page.MainFrame()
	infos := make([]FrameInfo, 0, len(s.page.Frames()))
	for _, fr := range s.page.Frames() {
		if fr == main {
			continue
		}
		infos = append(infos, FrameInfo{
			Index:  len(infos),
			Name:   fr.Name(),
			URL:    fr.URL(),
			Active: s.active == fr,
		})
	}
	return infos
}

// Frames lists the live frame tree with the active target marked.
func (s *Session) Frames(ctx context.Context) (FramesSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return FramesSnapshot{}, err
	}
	return FramesSnapshot{
		MainURL:    s.page.URL(),
		MainActive: s.active == nil,
		Children:   s.childFrames(),
	}, nil
}

// UseFrame resolves a token to a child frame and makes it the active
// target. On failure the previous active target is kept.
func (s *Session) UseFrame(ctx context.Context, token string) (FrameInfo, error) {
	if err := ctx.Err(); err != nil {
		return FrameInfo{}, err
	}
	children := s.childFrames()
	idx, err := resolveFrameToken(token, children)
	if err != nil {
		return FrameInfo{}, err
	}
	main := s.page.MainFrame()
	ordinal := 0
	for _, fr := range s.page.Frames() {
		if fr == main {
			continue
		}
		if ordinal == idx {
			s.active = fr
			info := children[idx]
			info.Active = true
			return info, nil
		}
		ordinal++
	}
	return FrameInfo{}, fmt.Errorf("%w: frame list changed during resolution", ErrFrameNotFound)
}

// UseMainFrame resets the active target to the main document.
func (s *Session) UseMainFrame() {
	s.active = nil
}
