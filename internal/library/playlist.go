package library

import "math/rand"

// Playlist manages the ordered cursor for library playback.
// It is only mutated from Bubbletea's single-threaded Update loop.
type Playlist struct {
	items        []Recording
	current      int
	shuffleOrder []int // maps shuffle position → original item index
	shufflePos   int   // current position in shuffleOrder
	shuffled     bool
}

// NewPlaylist creates a Playlist over the given recordings.
func NewPlaylist(items []Recording) *Playlist {
	return &Playlist{items: items}
}

// Current returns a pointer to the current recording, or nil if empty.
func (p *Playlist) Current() *Recording {
	if p.current < 0 || p.current >= len(p.items) {
		return nil
	}
	return &p.items[p.current]
}

// Next returns a pointer to the next recording in playback order, or nil at
// the end. Shuffle order applies when active.
func (p *Playlist) Next() *Recording {
	if p.shuffled {
		if p.shufflePos+1 >= len(p.shuffleOrder) {
			return nil
		}
		return p.At(p.shuffleOrder[p.shufflePos+1])
	}
	i := p.current + 1
	if i >= len(p.items) {
		return nil
	}
	return &p.items[i]
}

// Advance moves the cursor forward by one in playback order. Returns false at
// the end.
func (p *Playlist) Advance() bool {
	if p.shuffled {
		if p.shufflePos+1 >= len(p.shuffleOrder) {
			return false
		}
		p.shufflePos++
		p.current = p.shuffleOrder[p.shufflePos]
		return true
	}
	if p.current+1 >= len(p.items) {
		return false
	}
	p.current++
	return true
}

// Previous moves the cursor back by one in playback order. Returns false at
// the start.
func (p *Playlist) Previous() bool {
	if p.shuffled {
		if p.shufflePos <= 0 {
			return false
		}
		p.shufflePos--
		p.current = p.shuffleOrder[p.shufflePos]
		return true
	}
	if p.current <= 0 {
		return false
	}
	p.current--
	return true
}

// At returns a pointer to the recording at the given index, or nil.
func (p *Playlist) At(i int) *Recording {
	if i < 0 || i >= len(p.items) {
		return nil
	}
	return &p.items[i]
}

// Len returns the number of recordings.
func (p *Playlist) Len() int {
	return len(p.items)
}

// CurrentIndex returns the zero-based index of the current recording.
func (p *Playlist) CurrentIndex() int {
	return p.current
}

// SetCurrentIndex jumps the cursor to a specific recording. The shuffle
// position follows when shuffle is active.
func (p *Playlist) SetCurrentIndex(i int) {
	if i < 0 || i >= len(p.items) {
		return
	}
	p.current = i
	if !p.shuffled {
		return
	}
	for pos, idx := range p.shuffleOrder {
		if idx == i {
			p.shufflePos = pos
			return
		}
	}
}

// Remove drops the recording at the given index. The current recording cannot
// be removed. Adjusts the cursor and shuffle mapping.
func (p *Playlist) Remove(i int) bool {
	if i < 0 || i >= len(p.items) || i == p.current {
		return false
	}
	p.items = append(p.items[:i], p.items[i+1:]...)
	if i < p.current {
		p.current--
	}
	if p.shuffled {
		p.rebuildShuffleAfterRemove(i)
	}
	return true
}

// rebuildShuffleAfterRemove rebuilds the shuffle mapping after the item at
// removedIdx has been spliced out. Filters the removed index, decrements
// indices above it, and derives shufflePos from where current lands.
func (p *Playlist) rebuildShuffleAfterRemove(removedIdx int) {
	newOrder := make([]int, 0, len(p.shuffleOrder))
	newPos := 0
	for _, idx := range p.shuffleOrder {
		if idx == removedIdx {
			continue
		}
		adjusted := idx
		if idx > removedIdx {
			adjusted--
		}
		if adjusted == p.current {
			newPos = len(newOrder)
		}
		newOrder = append(newOrder, adjusted)
	}
	p.shuffleOrder = newOrder
	p.shufflePos = newPos
}

// IsShuffled returns whether shuffle mode is active.
func (p *Playlist) IsShuffled() bool {
	return p.shuffled
}

// EnableShuffle activates shuffle mode. The current recording stays at
// position 0 in the shuffle order; the rest are randomized via Fisher-Yates.
func (p *Playlist) EnableShuffle() {
	n := len(p.items)
	if n <= 1 {
		return
	}
	p.shuffled = true
	p.shuffleOrder = make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != p.current {
			p.shuffleOrder = append(p.shuffleOrder, i)
		}
	}
	for i := len(p.shuffleOrder) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		p.shuffleOrder[i], p.shuffleOrder[j] = p.shuffleOrder[j], p.shuffleOrder[i]
	}
	p.shuffleOrder = append([]int{p.current}, p.shuffleOrder...)
	p.shufflePos = 0
}

// DisableShuffle deactivates shuffle mode, keeping the current recording.
func (p *Playlist) DisableShuffle() {
	p.shuffled = false
	p.shuffleOrder = nil
	p.shufflePos = 0
}
