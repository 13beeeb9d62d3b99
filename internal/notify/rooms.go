package notify

import "github.com/vietddude/marketwatch/internal/core/domain"

// roomName builds the room key for a chain-scoped topic.
func roomName(chainID domain.ChainID, topic string) string {
	return string(chainID) + ":" + topic
}

// roomSet is the broker's room state: room name -> member set. A room exists
// exactly as long as it has members. Not safe for concurrent use on its own;
// the hub's lock guards it.
type roomSet struct {
	rooms map[string]map[string]*Client
}

func newRoomSet() *roomSet {
	return &roomSet{rooms: make(map[string]map[string]*Client)}
}

// join adds the client to the room, creating it on first member. Joining a
// room twice is a no-op.
func (r *roomSet) join(room string, c *Client) {
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		r.rooms[room] = members
	}
	members[c.ID] = c
}

// leave removes the client from the room, destroying the room when it
// empties. Leaving a room the client is not in is a no-op.
func (r *roomSet) leave(room string, c *Client) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, c.ID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

// leaveAll removes the client from every room it is in.
func (r *roomSet) leaveAll(c *Client) {
	for room, members := range r.rooms {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

// members returns a snapshot of the room's members.
func (r *roomSet) members(room string) []*Client {
	out := make([]*Client, 0, len(r.rooms[room]))
	for _, c := range r.rooms[room] {
		out = append(out, c)
	}
	return out
}

func (r *roomSet) count() int {
	return len(r.rooms)
}
