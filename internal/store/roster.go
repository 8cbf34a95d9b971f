package store

import (
	"fmt"
	"strings"

	"sumator/internal/core"
)

// DefaultRoster is the two-entry roster toggled from the navigation bar.
var DefaultRoster = []core.Identity{
	{Name: core.PrivilegedName, Image: "/user.png"},
	{Name: "Ala", Image: "/ala.png"},
}

// ParseRoster reads a comma separated list of "name" or "name=image" entries.
func ParseRoster(s string) ([]core.Identity, error) {
	var out []core.Identity
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, image, _ := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		image = strings.TrimSpace(image)
		if name == "" {
			return nil, fmt.Errorf("roster entry %q has no name", part)
		}
		if seen[name] {
			return nil, fmt.Errorf("roster lists %q twice", name)
		}
		seen[name] = true
		if image == "" {
			image = "/" + strings.ToLower(name) + ".png"
		}
		out = append(out, core.Identity{Name: name, Image: image})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("roster is empty")
	}
	return out, nil
}

func findIdentity(roster []core.Identity, name string) (core.Identity, int, bool) {
	for i, id := range roster {
		if id.Name == name {
			return id, i, true
		}
	}
	return core.Identity{}, -1, false
}
