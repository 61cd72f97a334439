package gesture

import "fmt"

// W3C encodes the gesture as the "actions" array of a W3C Perform Actions
// request: one touch pointer source per finger, ids finger1..fingerN.
func (g Gesture) W3C() []map[string]interface{} {
	sources := make([]map[string]interface{}, 0, len(g.Fingers))
	for i, f := range g.Fingers {
		sources = append(sources, map[string]interface{}{
			"type":       "pointer",
			"id":         fmt.Sprintf("finger%d", i+1),
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    f.w3cActions(),
		})
	}
	return sources
}

func (p *Path) w3cActions() []map[string]interface{} {
	actions := make([]map[string]interface{}, 0, len(p.Steps)+1)
	for _, s := range p.Steps {
		switch s.Kind {
		case StepPress:
			actions = append(actions,
				map[string]interface{}{"type": "pointerMove", "duration": 0, "x": s.Point.X, "y": s.Point.Y, "origin": "viewport"},
				map[string]interface{}{"type": "pointerDown", "button": 0},
			)
		case StepWait:
			actions = append(actions, map[string]interface{}{"type": "pause", "duration": s.Duration.Milliseconds()})
		case StepMove:
			actions = append(actions, map[string]interface{}{
				"type": "pointerMove", "duration": s.Duration.Milliseconds(), "x": s.Point.X, "y": s.Point.Y, "origin": "viewport",
			})
		case StepRelease:
			actions = append(actions, map[string]interface{}{"type": "pointerUp", "button": 0})
		}
	}
	return actions
}
