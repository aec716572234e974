package portfolio

import (
	"github.com/wonny/aegis/momentum/internal/contracts"
)

// HoldBuffer is the rolling history of daily picks for one side, newest first.
// A pick stays held until it ages out of the buffer.
type HoldBuffer struct {
	Records [][]contracts.Security `json:"records"`
}

// NewHoldBuffer starts with daysToHold empty entries
func NewHoldBuffer(daysToHold int) *HoldBuffer {
	h := &HoldBuffer{Records: make([][]contracts.Security, daysToHold)}
	for i := range h.Records {
		h.Records[i] = []contracts.Security{}
	}
	return h
}

// Update pushes today's picks and trims the history:
//  1. drop the oldest entry past maxDays
//  2. while longer than daysToHold and the oldest entry is empty, drop it
//  3. if more than daysToHold entries are non-empty, drop the oldest
func (h *HoldBuffer) Update(picks []contracts.Security, daysToHold, maxDays int) {
	entry := append([]contracts.Security(nil), picks...)
	h.Records = append([][]contracts.Security{entry}, h.Records...)

	if len(h.Records) > maxDays {
		h.Records = h.Records[:len(h.Records)-1]
	}
	for len(h.Records) > daysToHold && len(h.Records[len(h.Records)-1]) == 0 {
		h.Records = h.Records[:len(h.Records)-1]
	}

	nonEmpty := 0
	for _, r := range h.Records {
		if len(r) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty > daysToHold {
		h.Records = h.Records[:len(h.Records)-1]
	}
}

// Clone returns an independent copy
func (h *HoldBuffer) Clone() *HoldBuffer {
	c := &HoldBuffer{Records: make([][]contracts.Security, len(h.Records))}
	for i, r := range h.Records {
		c.Records[i] = append([]contracts.Security{}, r...)
	}
	return c
}

// Held flattens the history into a sorted, de-duplicated list
func (h *HoldBuffer) Held() []contracts.Security {
	seen := make(map[contracts.Security]bool)
	out := make([]contracts.Security, 0)
	for _, r := range h.Records {
		for _, sec := range r {
			if !seen[sec] {
				seen[sec] = true
				out = append(out, sec)
			}
		}
	}
	return contracts.SortSecurities(out)
}
