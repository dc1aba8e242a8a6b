package node

import "sort"

// Collaborators tracks the people a top-level node is shared with,
// keyed by email. Granted roles come from the server; local add/remove
// calls record pending share requests until acknowledged.
type Collaborators struct {
	dirty   bool
	entries map[string]CollabState
}

func NewCollaborators() *Collaborators {
	return &Collaborators{entries: map[string]CollabState{}}
}

func (c *Collaborators) Len() int { return len(c.entries) }

// Add requests access for the given email.
func (c *Collaborators) Add(email string) {
	if _, ok := c.entries[email]; !ok {
		c.entries[email] = ShareAdd
	}
	c.dirty = true
}

// Remove revokes access. A still-pending add is dropped outright; a
// granted role becomes a pending removal request.
func (c *Collaborators) Remove(email string) {
	if state, ok := c.entries[email]; ok {
		if state == ShareAdd {
			delete(c.entries, email)
		} else {
			c.entries[email] = ShareRemove
		}
	}
	c.dirty = true
}

// All lists every email with current or requested access.
func (c *Collaborators) All() []string {
	out := make([]string, 0, len(c.entries))
	for email, state := range c.entries {
		if state == RoleOwner || state == RoleWriter || state == ShareAdd {
			out = append(out, email)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Collaborators) Dirty() bool { return c.dirty }

func (c *Collaborators) load(roles []CollaboratorEntry, requests []ShareRequestEntry, dirty bool) {
	c.dirty = dirty
	c.entries = map[string]CollabState{}
	for _, role := range roles {
		c.entries[role.Email] = CollabState(role.Role)
	}
	for _, request := range requests {
		c.entries[request.Email] = CollabState(request.Type)
	}
}

func (c *Collaborators) save(clean bool) ([]CollaboratorEntry, []ShareRequestEntry) {
	var roles []CollaboratorEntry
	var requests []ShareRequestEntry
	emails := make([]string, 0, len(c.entries))
	for email := range c.entries {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	for _, email := range emails {
		state := c.entries[email]
		if state.pending() {
			requests = append(requests, ShareRequestEntry{Email: email, Type: string(state)})
		} else {
			roles = append(roles, CollaboratorEntry{Email: email, Role: string(state), AuxiliaryType: "None"})
		}
	}
	if clean {
		c.dirty = false
	}
	return roles, requests
}
