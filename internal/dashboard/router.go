// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dashboard

import "strings"

// Action is what an inbound request asks the device to do.
type Action int

const (
	ActionDefault Action = iota
	ActionRefresh
	ActionToggleLED
)

func (a Action) String() string {
	switch a {
	case ActionRefresh:
		return "refresh"
	case ActionToggleLED:
		return "ledtoggle"
	default:
		return "default"
	}
}

// Classify maps a raw request to an Action by substring match.
// Anything unrecognised, including an empty request, is ActionDefault.
func Classify(request string) Action {
	switch {
	case strings.Contains(request, "GET /refresh"):
		return ActionRefresh
	case strings.Contains(request, "GET /ledtoggle"):
		return ActionToggleLED
	default:
		return ActionDefault
	}
}

// RequestLine returns the first line of a raw request without its
// line terminator.
func RequestLine(request string) string {
	if i := strings.IndexByte(request, '\n'); i >= 0 {
		request = request[:i]
	}
	return strings.TrimRight(request, "\r")
}
